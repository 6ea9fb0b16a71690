package engine

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/triagedesk/triagedesk/internal/domain/patient"
)

type Handler struct {
	eng *Engine
}

func NewHandler(eng *Engine) *Handler {
	return &Handler{eng: eng}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/triage/intake", h.Intake)
	api.GET("/triage/queue", h.Queue)
	api.POST("/triage/assign", h.TriggerAssignment)
	api.POST("/triage/patients/:id/discharge", h.Discharge)
	api.POST("/triage/patients/:id/defer", h.DeferPatient)
	api.POST("/triage/patients/:id/reinstate", h.Reinstate)
	api.GET("/triage/modes", h.GetModes)
	api.PUT("/triage/modes", h.SetMode)
}

// IntakeRequest is the patient registration payload.
type IntakeRequest struct {
	Name     string         `json:"name"`
	Age      int            `json:"age"`
	Gender   string         `json:"gender"`
	Symptoms []string       `json:"symptoms"`
	Vitals   patient.Vitals `json:"vitals"`
}

func (h *Handler) Intake(c echo.Context) error {
	var req IntakeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	p := &patient.Patient{
		Name:     req.Name,
		Age:      req.Age,
		Gender:   req.Gender,
		Symptoms: req.Symptoms,
		Vitals:   req.Vitals,
	}
	created, err := h.eng.Intake(c.Request().Context(), p)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) Queue(c echo.Context) error {
	queue, err := h.eng.Queue(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, queue)
}

func (h *Handler) TriggerAssignment(c echo.Context) error {
	bindings, err := h.eng.TriggerAssignment(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if bindings == nil {
		bindings = []Binding{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"assignments": bindings,
	})
}

func (h *Handler) Discharge(c echo.Context) error {
	return h.transition(c, h.eng.Discharge)
}

func (h *Handler) DeferPatient(c echo.Context) error {
	return h.transition(c, h.eng.DeferPatient)
}

func (h *Handler) Reinstate(c echo.Context) error {
	return h.transition(c, h.eng.Reinstate)
}

func (h *Handler) transition(c echo.Context, op func(ctx context.Context, id uuid.UUID) (*patient.Patient, error)) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := op(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) GetModes(c echo.Context) error {
	return c.JSON(http.StatusOK, h.eng.MutationStatus())
}

// SetModeRequest toggles one stress-mutation flag.
type SetModeRequest struct {
	Mode   Mode `json:"mode"`
	Active bool `json:"active"`
}

func (h *Handler) SetMode(c echo.Context) error {
	var req SetModeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	snap, err := h.eng.SetMutationMode(c.Request().Context(), req.Mode, req.Active)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, snap)
}
