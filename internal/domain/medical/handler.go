package medical

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ckd/ckd/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole(auth.RolePhysician, auth.RoleNurse, auth.RoleViewer))
	read.GET("/patients/:id/metrics", h.GetLatestKidneyMetrics)
	read.GET("/patients/:id/metrics/history", h.GetKidneyMetricsHistory)
	read.GET("/patients/:id/lab-results", h.ListLabResults)
	read.GET("/patients/:id/medications", h.ListMedications)
	read.GET("/patients/:id/vitals", h.ListVitalSigns)

	write := api.Group("", auth.RequireRole(auth.RolePhysician, auth.RoleNurse))
	write.POST("/patients/:id/metrics", h.CreateKidneyMetrics)
	write.POST("/patients/:id/lab-results", h.CreateLabResult)
	write.POST("/patients/:id/vitals", h.CreateVitalSigns)

	prescribe := api.Group("", auth.RequireRole(auth.RolePhysician))
	prescribe.POST("/patients/:id/medications", h.CreateMedication)
	prescribe.PUT("/medications/:id", h.UpdateMedication)
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func queryLimit(c echo.Context) int {
	n, _ := strconv.Atoi(c.QueryParam("limit"))
	return n
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrPatientNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "record not found")
	case errors.Is(err, ErrInvalid):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

// -- Kidney metrics --

// GetLatestKidneyMetrics responds with {"data": null} when there are no readings.
func (h *Handler) GetLatestKidneyMetrics(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	m, err := h.svc.LatestKidneyMetrics(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"data": m})
}

func (h *Handler) GetKidneyMetricsHistory(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	history, err := h.svc.KidneyMetricsHistory(c.Request().Context(), id, queryLimit(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, history)
}

func (h *Handler) CreateKidneyMetrics(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var m KidneyMetrics
	if err := c.Bind(&m); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	m.PatientID = id
	if err := h.svc.RecordKidneyMetrics(c.Request().Context(), &m); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, m)
}

// -- Lab results --

func (h *Handler) ListLabResults(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	labs, err := h.svc.ListLabResults(c.Request().Context(), id, queryLimit(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, labs)
}

func (h *Handler) CreateLabResult(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var l LabResult
	if err := c.Bind(&l); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	l.PatientID = id
	if err := h.svc.RecordLabResult(c.Request().Context(), &l); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, l)
}

// -- Medications --

// ListMedications lists active medications unless ?all=true.
func (h *Handler) ListMedications(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	activeOnly := c.QueryParam("all") != "true"
	meds, err := h.svc.ListMedications(c.Request().Context(), id, activeOnly)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, meds)
}

func (h *Handler) CreateMedication(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	m := Medication{IsActive: true}
	if err := c.Bind(&m); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	m.PatientID = id
	if err := h.svc.PrescribeMedication(c.Request().Context(), &m); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *Handler) UpdateMedication(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var m Medication
	if err := c.Bind(&m); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	m.ID = id
	if err := h.svc.UpdateMedication(c.Request().Context(), &m); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, m)
}

// -- Vital signs --

func (h *Handler) ListVitalSigns(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	vitals, err := h.svc.ListVitalSigns(c.Request().Context(), id, queryLimit(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, vitals)
}

func (h *Handler) CreateVitalSigns(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var v VitalSigns
	if err := c.Bind(&v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	v.PatientID = id
	if err := h.svc.RecordVitalSigns(c.Request().Context(), &v); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, v)
}
