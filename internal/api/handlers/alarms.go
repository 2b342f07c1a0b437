// Package handlers contains the HTTP handler implementations for the alarm
// API: create, list, get, update, delete, and enable/disable toggles. Every
// mutation is followed by a scheduler reschedule (or cancel) so wake-timer
// registrations track the store.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"skysentry/internal/api"
	"skysentry/internal/types"
)

// AlarmRepo defines the data access contract for alarm operations, mirroring
// the concrete store.AlarmStore methods used by this handler.
type AlarmRepo interface {
	Save(ctx context.Context, alarm *types.AlarmDefinition) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*types.AlarmDefinition, error)
	GetAll(ctx context.Context) ([]*types.AlarmDefinition, error)
}

// AlarmScheduler defines the scheduling side effects of alarm mutations.
type AlarmScheduler interface {
	Reschedule(ctx context.Context, alarm *types.AlarmDefinition) error
	Cancel(ctx context.Context, alarmID string) error
}

// ConditionSpec is the request representation of an alarm condition. Exactly
// the fields relevant to the alarm's category are read; absent thresholds
// fall back to the category defaults.
type ConditionSpec struct {
	LeadMinutes          *int     `json:"lead_minutes,omitempty"`
	Trigger              *string  `json:"trigger,omitempty"`
	UVValue              *float64 `json:"uv_value,omitempty"`
	AQIValue             *int     `json:"aqi_value,omitempty"`
	TemperatureThreshold *float64 `json:"temperature_threshold,omitempty"`
	Comparator           *string  `json:"comparator,omitempty"`
}

// AlarmRequest is the request body for creating or updating an alarm.
type AlarmRequest struct {
	Title     string         `json:"title" validate:"max=200"`
	Hour      int            `json:"hour" validate:"min=0,max=23"`
	Minute    int            `json:"minute" validate:"min=0,max=59"`
	Days      uint8          `json:"days" validate:"required,min=1,max=127"`
	Enabled   *bool          `json:"enabled,omitempty"`
	Category  string         `json:"category" validate:"required"`
	Condition *ConditionSpec `json:"condition,omitempty"`
}

// AlarmResponse is the response representation of an alarm.
type AlarmResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Hour      int       `json:"hour"`
	Minute    int       `json:"minute"`
	Days      uint8     `json:"days"`
	Enabled   bool      `json:"enabled"`
	Category  string    `json:"category"`
	Condition any       `json:"condition"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AlarmHandler serves the /v1/alarms routes.
type AlarmHandler struct {
	repo      AlarmRepo
	scheduler AlarmScheduler
	validate  *validator.Validate
	clock     types.Clock
	logger    types.Logger
}

// NewAlarmHandler creates an AlarmHandler.
func NewAlarmHandler(repo AlarmRepo, scheduler AlarmScheduler, clock types.Clock, logger types.Logger) *AlarmHandler {
	if clock == nil {
		clock = types.RealClock{}
	}
	return &AlarmHandler{
		repo:      repo,
		scheduler: scheduler,
		validate:  validator.New(),
		clock:     clock,
		logger:    logger,
	}
}

// Routes mounts the alarm routes on the given router.
func (h *AlarmHandler) Routes(r chi.Router) {
	r.Route("/v1/alarms", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Route("/{alarmID}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Put("/", h.Update)
			r.Delete("/", h.Delete)
			r.Post("/enable", h.Enable)
			r.Post("/disable", h.Disable)
		})
	})
}

// Create handles POST /v1/alarms.
func (h *AlarmHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req AlarmRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.Error(w, err)
		return
	}

	alarm, err := h.buildAlarm(&req, uuid.NewString(), h.clock.Now())
	if err != nil {
		api.Error(w, err)
		return
	}

	if err := h.repo.Save(r.Context(), alarm); err != nil {
		api.Error(w, err)
		return
	}
	h.applySchedule(r.Context(), alarm)

	api.JSON(w, http.StatusCreated, toResponse(alarm))
}

// List handles GET /v1/alarms.
func (h *AlarmHandler) List(w http.ResponseWriter, r *http.Request) {
	alarms, err := h.repo.GetAll(r.Context())
	if err != nil {
		api.Error(w, err)
		return
	}
	out := make([]AlarmResponse, 0, len(alarms))
	for _, a := range alarms {
		out = append(out, toResponse(a))
	}
	api.JSON(w, http.StatusOK, out)
}

// Get handles GET /v1/alarms/{alarmID}.
func (h *AlarmHandler) Get(w http.ResponseWriter, r *http.Request) {
	alarm, err := h.repo.GetByID(r.Context(), chi.URLParam(r, "alarmID"))
	if err != nil {
		api.Error(w, err)
		return
	}
	api.JSON(w, http.StatusOK, toResponse(alarm))
}

// Update handles PUT /v1/alarms/{alarmID}. The id and creation time are
// preserved; everything else is replaced by the request.
func (h *AlarmHandler) Update(w http.ResponseWriter, r *http.Request) {
	existing, err := h.repo.GetByID(r.Context(), chi.URLParam(r, "alarmID"))
	if err != nil {
		api.Error(w, err)
		return
	}

	var req AlarmRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.Error(w, err)
		return
	}

	alarm, err := h.buildAlarm(&req, existing.ID, existing.CreatedAt)
	if err != nil {
		api.Error(w, err)
		return
	}
	if req.Enabled == nil {
		alarm.Enabled = existing.Enabled
	}

	if err := h.repo.Save(r.Context(), alarm); err != nil {
		api.Error(w, err)
		return
	}
	h.applySchedule(r.Context(), alarm)

	api.JSON(w, http.StatusOK, toResponse(alarm))
}

// Delete handles DELETE /v1/alarms/{alarmID}. The wake-timer registration is
// cancelled before the definition is removed so a fire cannot race a deleted
// alarm.
func (h *AlarmHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "alarmID")

	if _, err := h.repo.GetByID(r.Context(), id); err != nil {
		api.Error(w, err)
		return
	}
	if err := h.scheduler.Cancel(r.Context(), id); err != nil {
		h.logger.Error("cancelling timer on delete", "alarm_id", id, "error", err)
	}
	if err := h.repo.Delete(r.Context(), id); err != nil {
		api.Error(w, err)
		return
	}
	api.JSON(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}

// Enable handles POST /v1/alarms/{alarmID}/enable.
func (h *AlarmHandler) Enable(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, true)
}

// Disable handles POST /v1/alarms/{alarmID}/disable.
func (h *AlarmHandler) Disable(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, false)
}

func (h *AlarmHandler) toggle(w http.ResponseWriter, r *http.Request, enabled bool) {
	alarm, err := h.repo.GetByID(r.Context(), chi.URLParam(r, "alarmID"))
	if err != nil {
		api.Error(w, err)
		return
	}

	alarm.Enabled = enabled
	alarm.UpdatedAt = h.clock.Now()
	if err := h.repo.Save(r.Context(), alarm); err != nil {
		api.Error(w, err)
		return
	}

	if enabled {
		h.applySchedule(r.Context(), alarm)
	} else {
		if err := h.scheduler.Cancel(r.Context(), alarm.ID); err != nil {
			h.logger.Error("cancelling timer on disable", "alarm_id", alarm.ID, "error", err)
		}
	}

	api.JSON(w, http.StatusOK, toResponse(alarm))
}

// applySchedule reschedules after a mutation. Scheduling failures are logged,
// not surfaced: the store is the source of truth and the engine's reconcile
// pass repairs registrations.
func (h *AlarmHandler) applySchedule(ctx context.Context, alarm *types.AlarmDefinition) {
	if err := h.scheduler.Reschedule(ctx, alarm); err != nil {
		h.logger.Error("rescheduling after mutation", "alarm_id", alarm.ID, "error", err)
	}
}

// buildAlarm validates the request and assembles the domain entity.
func (h *AlarmHandler) buildAlarm(req *AlarmRequest, id string, createdAt time.Time) (*types.AlarmDefinition, error) {
	if err := h.validate.Struct(req); err != nil {
		return nil, types.NewAppError(types.ErrCodeValidationMissingField, err.Error(), err)
	}

	category := types.AlarmCategory(req.Category)
	if !category.Valid() {
		return nil, types.NewAppError(types.ErrCodeValidationCategory, "unknown alarm category", nil)
	}

	cond, err := buildCondition(category, req.Condition)
	if err != nil {
		return nil, err
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	now := h.clock.Now()
	alarm := &types.AlarmDefinition{
		ID:        id,
		Title:     req.Title,
		Hour:      req.Hour,
		Minute:    req.Minute,
		Days:      types.DayMask(req.Days),
		Enabled:   enabled,
		Category:  category,
		Condition: cond,
		CreatedAt: createdAt,
		UpdatedAt: now,
	}
	if alarm.CreatedAt.IsZero() {
		alarm.CreatedAt = now
	}
	if err := alarm.Validate(); err != nil {
		return nil, err
	}
	return alarm, nil
}

// buildCondition maps a ConditionSpec onto the category's condition variant,
// starting from the category defaults.
func buildCondition(category types.AlarmCategory, spec *ConditionSpec) (types.Condition, error) {
	cond, err := types.DefaultCondition(category)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeValidationCategory, err.Error(), err)
	}
	if spec == nil {
		return cond, nil
	}

	switch c := cond.(type) {
	case types.WakeUpEarly:
		if spec.LeadMinutes != nil {
			c.LeadMinutes = *spec.LeadMinutes
		}
		if spec.Trigger != nil {
			trigger := types.TriggerType(*spec.Trigger)
			if !trigger.Valid() {
				return nil, types.NewAppError(types.ErrCodeValidationCondition, "unknown wake-up trigger", nil)
			}
			c.Trigger = trigger
		}
		return c, nil
	case types.Umbrella:
		return c, nil
	case types.UVThreshold:
		if spec.UVValue != nil {
			c.Value = *spec.UVValue
		}
		return c, nil
	case types.AQIThreshold:
		if spec.AQIValue != nil {
			c.Value = *spec.AQIValue
		}
		return c, nil
	case types.IcyRoads:
		if spec.TemperatureThreshold != nil {
			c.TemperatureThreshold = *spec.TemperatureThreshold
		}
		return c, nil
	case types.Temperature:
		if spec.TemperatureThreshold != nil {
			c.Threshold = *spec.TemperatureThreshold
		}
		if spec.Comparator != nil {
			cmp := types.Comparator(*spec.Comparator)
			if !cmp.Valid() {
				return nil, types.NewAppError(types.ErrCodeValidationCondition, "unknown comparator", nil)
			}
			c.Comparator = cmp
		}
		return c, nil
	default:
		return cond, nil
	}
}

// toResponse converts the domain entity into its API representation.
func toResponse(a *types.AlarmDefinition) AlarmResponse {
	return AlarmResponse{
		ID:        a.ID,
		Title:     a.Title,
		Hour:      a.Hour,
		Minute:    a.Minute,
		Days:      uint8(a.Days),
		Enabled:   a.Enabled,
		Category:  string(a.Category),
		Condition: a.Condition,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}
