package alert

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ckd/ckd/internal/platform/auth"
	"github.com/ckd/ckd/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole(auth.RolePhysician, auth.RoleNurse, auth.RoleViewer))
	read.GET("/patients/:id/alerts", h.ListAlerts)
	read.GET("/alerts/:id", h.GetAlert)

	write := api.Group("", auth.RequireRole(auth.RolePhysician, auth.RoleNurse))
	write.POST("/patients/:id/alerts", h.CreateAlert)
	write.PUT("/alerts/:id/acknowledge", h.AcknowledgeAlert)
	write.DELETE("/alerts/:id", h.DismissAlert)
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrPatientNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalid):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

// ListAlerts supports ?acknowledged=true|false, ?priority= and ?type= filters.
func (h *Handler) ListAlerts(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	f := Filter{
		Priority: Priority(c.QueryParam("priority")),
		Type:     Type(c.QueryParam("type")),
		Limit:    pg.Limit,
		Offset:   pg.Offset,
	}
	if v := c.QueryParam("acknowledged"); v != "" {
		ack, err := strconv.ParseBool(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "acknowledged must be true or false")
		}
		f.Acknowledged = &ack
	}
	alerts, total, err := h.svc.ListByPatient(c.Request().Context(), id, f)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(alerts, total, pg))
}

func (h *Handler) GetAlert(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	a, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) CreateAlert(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var a Alert
	if err := c.Bind(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a.PatientID = id
	a.Acknowledged = false
	a.AcknowledgedBy = nil
	a.AcknowledgedAt = nil
	if err := h.svc.Create(c.Request().Context(), &a); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) AcknowledgeAlert(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	a, err := h.svc.Acknowledge(c.Request().Context(), id, auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) DismissAlert(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Dismiss(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
