package reporting

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"

	"github.com/ckd/ckd/internal/platform/auth"
)

var ErrMeasureNotFound = errors.New("measure not found")

// MeasureDefinition defines a reporting measure with its SQL query.
type MeasureDefinition struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	SQL         string `json:"sql"`
}

// MeasureReport holds the results of evaluating a measure. Columns keeps
// the query's column order for tabular exports.
type MeasureReport struct {
	MeasureID   string                   `json:"measure_id"`
	MeasureName string                   `json:"measure_name"`
	GeneratedAt time.Time                `json:"generated_at"`
	Columns     []string                 `json:"columns"`
	Results     []map[string]interface{} `json:"results"`
}

var PredefinedMeasures = []MeasureDefinition{
	{
		ID:          "patient-count",
		Name:        "Patient Count",
		Description: "Total number of registered patients",
		SQL:         `SELECT COUNT(*) AS total FROM patients`,
	},
	{
		ID:          "risk-level-distribution",
		Name:        "Risk Level Distribution",
		Description: "Patients grouped by the risk level of their latest prediction",
		SQL: `SELECT risk_level, COUNT(*) AS total
			FROM (SELECT DISTINCT ON (patient_id) patient_id, risk_level
			      FROM ml_predictions ORDER BY patient_id, created_at DESC) latest
			GROUP BY risk_level ORDER BY total DESC`,
	},
	{
		ID:          "ckd-stage-distribution",
		Name:        "CKD Stage Distribution",
		Description: "Patients grouped by the stage of their latest kidney metrics",
		SQL: `SELECT stage, COUNT(*) AS total
			FROM (SELECT DISTINCT ON (patient_id) patient_id, stage
			      FROM kidney_metrics ORDER BY patient_id, timestamp DESC) latest
			GROUP BY stage ORDER BY stage`,
	},
	{
		ID:          "open-critical-alerts",
		Name:        "Open Critical Alerts",
		Description: "Unacknowledged critical-priority alerts by category",
		SQL: `SELECT category, COUNT(*) AS total FROM alerts
			WHERE priority = 'critical' AND acknowledged = FALSE
			GROUP BY category ORDER BY total DESC`,
	},
}

func FindMeasure(id string) *MeasureDefinition {
	for i := range PredefinedMeasures {
		if PredefinedMeasures[i].ID == id {
			return &PredefinedMeasures[i]
		}
	}
	return nil
}

// Store runs a measure's query.
type Store interface {
	Run(ctx context.Context, sql string) (columns []string, rows []map[string]interface{}, err error)
}

type pgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool}
}

func (s *pgStore) Run(ctx context.Context, sql string) ([]string, []map[string]interface{}, error) {
	rows, err := s.pool.Query(ctx, sql)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	columns := make([]string, len(fieldDescs))
	for i, fd := range fieldDescs {
		columns[i] = fd.Name
	}

	results := []map[string]interface{}{}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, nil, err
		}
		row := make(map[string]interface{}, len(columns))
		for i, name := range columns {
			row[name] = values[i]
		}
		results = append(results, row)
	}
	return columns, results, rows.Err()
}

// Evaluate looks up a measure and runs it.
func Evaluate(ctx context.Context, store Store, measureID string, now time.Time) (*MeasureReport, error) {
	measure := FindMeasure(measureID)
	if measure == nil {
		return nil, ErrMeasureNotFound
	}
	columns, results, err := store.Run(ctx, measure.SQL)
	if err != nil {
		return nil, fmt.Errorf("evaluate %s: %w", measure.ID, err)
	}
	return &MeasureReport{
		MeasureID:   measure.ID,
		MeasureName: measure.Name,
		GeneratedAt: now,
		Columns:     columns,
		Results:     results,
	}, nil
}

// Handler provides HTTP handlers for the reporting API.
type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/reports", auth.RequireRole(auth.RolePhysician))
	g.GET("/measures", h.ListMeasures)
	g.GET("/measures/:id/evaluate", h.EvaluateMeasure)
	g.GET("/measures/:id/export", h.ExportMeasure)
}

func (h *Handler) ListMeasures(c echo.Context) error {
	return c.JSON(http.StatusOK, PredefinedMeasures)
}

func (h *Handler) evaluate(c echo.Context) (*MeasureReport, error) {
	report, err := Evaluate(c.Request().Context(), h.store, c.Param("id"), time.Now().UTC())
	if errors.Is(err, ErrMeasureNotFound) {
		return nil, echo.NewHTTPError(http.StatusNotFound, "measure not found")
	}
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("query failed: %v", err))
	}
	return report, nil
}

func (h *Handler) EvaluateMeasure(c echo.Context) error {
	report, err := h.evaluate(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, report)
}

// ExportMeasure evaluates a measure and returns it as an XLSX workbook.
func (h *Handler) ExportMeasure(c echo.Context) error {
	report, err := h.evaluate(c)
	if err != nil {
		return err
	}
	data, err := ExportXLSX(report)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	filename := fmt.Sprintf("%s-%s.xlsx", report.MeasureID, report.GeneratedAt.Format("20060102"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Blob(http.StatusOK, XLSXContentType, data)
}
