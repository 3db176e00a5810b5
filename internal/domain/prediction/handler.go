package prediction

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ckd/ckd/internal/platform/auth"
)

type Handler struct {
	svc      *Service
	modelDir string
}

func NewHandler(svc *Service, modelDir string) *Handler {
	return &Handler{svc: svc, modelDir: modelDir}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole(auth.RolePhysician, auth.RoleNurse, auth.RoleViewer))
	read.GET("/patients/:id/prediction", h.GetLatest)
	read.GET("/patients/:id/predictions", h.GetHistory)
	read.GET("/ml/model-metrics", h.GetModelMetrics)

	analyze := api.Group("", auth.RequireRole(auth.RolePhysician, auth.RoleNurse))
	analyze.POST("/patients/:id/analyze", h.Analyze)
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	return id, nil
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrPatientNotFound), errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrMissingData):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) Analyze(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	rec, err := h.svc.Analyze(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, rec)
}

func (h *Handler) GetLatest(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	rec, err := h.svc.Latest(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) GetHistory(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	history, err := h.svc.History(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"data": history,
		"meta": map[string]interface{}{
			"count":      len(history),
			"patient_id": id.String(),
		},
	})
}

func (h *Handler) GetModelMetrics(c echo.Context) error {
	p := h.svc.Predictor()
	m, err := LoadModelMetrics(h.modelDir, p.Version())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load model metrics: "+err.Error())
	}
	m.Mode = p.Model().Mode().String()
	return c.JSON(http.StatusOK, map[string]interface{}{"data": m})
}
