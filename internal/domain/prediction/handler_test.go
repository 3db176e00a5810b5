package prediction

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHandlerContext(method, id string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if id != "" {
		c.SetParamNames("id")
		c.SetParamValues(id)
	}
	return c, rec
}

func requireHTTPError(t *testing.T, err error, code int) {
	t.Helper()
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected *echo.HTTPError, got %T", err)
	assert.Equal(t, code, httpErr.Code)
}

func TestHandler_Analyze(t *testing.T) {
	id := uuid.New()
	f := newServiceFixture(t, map[uuid.UUID]*Snapshot{id: snapshotWithEGFR(25)})
	h := NewHandler(f.svc, t.TempDir())

	c, rec := newHandlerContext(http.MethodPost, id.String())
	require.NoError(t, h.Analyze(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var body Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "CKD Stage 4-5", body.PredictionResult)
	assert.Equal(t, RiskCritical, body.RiskLevel)
	assert.Equal(t, 90.0, body.Confidence)
	assert.Equal(t, id, body.PatientID)
}

func TestHandler_AnalyzeErrors(t *testing.T) {
	withData := uuid.New()
	noData := uuid.New()
	f := newServiceFixture(t, map[uuid.UUID]*Snapshot{
		withData: snapshotWithEGFR(25),
		noData:   {DateOfBirth: testNow},
	})
	h := NewHandler(f.svc, t.TempDir())

	c, _ := newHandlerContext(http.MethodPost, "not-a-uuid")
	requireHTTPError(t, h.Analyze(c), http.StatusBadRequest)

	c, _ = newHandlerContext(http.MethodPost, noData.String())
	requireHTTPError(t, h.Analyze(c), http.StatusBadRequest)

	c, _ = newHandlerContext(http.MethodPost, uuid.New().String())
	requireHTTPError(t, h.Analyze(c), http.StatusNotFound)
}

func TestHandler_LatestAndHistory(t *testing.T) {
	id := uuid.New()
	f := newServiceFixture(t, map[uuid.UUID]*Snapshot{id: snapshotWithEGFR(65)})
	h := NewHandler(f.svc, t.TempDir())

	c, _ := newHandlerContext(http.MethodGet, id.String())
	requireHTTPError(t, h.GetLatest(c), http.StatusNotFound)

	c, _ = newHandlerContext(http.MethodPost, id.String())
	require.NoError(t, h.Analyze(c))

	c, rec := newHandlerContext(http.MethodGet, id.String())
	require.NoError(t, h.GetLatest(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	c, rec = newHandlerContext(http.MethodGet, id.String())
	require.NoError(t, h.GetHistory(c))
	var body struct {
		Data []Record `json:"data"`
		Meta struct {
			Count     int    `json:"count"`
			PatientID string `json:"patient_id"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Data, 1)
	assert.Equal(t, 1, body.Meta.Count)
	assert.Equal(t, id.String(), body.Meta.PatientID)
}

func TestHandler_ModelMetricsFallback(t *testing.T) {
	f := newServiceFixture(t, nil)
	h := NewHandler(f.svc, t.TempDir())

	c, rec := newHandlerContext(http.MethodGet, "")
	require.NoError(t, h.GetModelMetrics(c))

	var body struct {
		Data ModelMetrics `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Gradient Boosting", body.Data.ModelName)
	assert.Equal(t, 92.47, body.Data.Performance.Accuracy)
	assert.Equal(t, "2.0.0-PCA", body.Data.ModelVersion)
	assert.Equal(t, "rule-based", body.Data.Mode)
}

func TestHandler_RegisterRoutes(t *testing.T) {
	f := newServiceFixture(t, nil)
	e := echo.New()
	NewHandler(f.svc, "").RegisterRoutes(e.Group("/api/v1"))

	want := map[string]bool{
		"POST /api/v1/patients/:id/analyze":    false,
		"GET /api/v1/patients/:id/prediction":  false,
		"GET /api/v1/patients/:id/predictions": false,
		"GET /api/v1/ml/model-metrics":         false,
	}
	for _, r := range e.Routes() {
		if _, ok := want[r.Method+" "+r.Path]; ok {
			want[r.Method+" "+r.Path] = true
		}
	}
	for route, found := range want {
		assert.True(t, found, "route %s not registered", route)
	}
}
