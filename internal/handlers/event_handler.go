package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"github.com/Jahmax1/Dragotix/internal/services"
)

type EventHandler struct {
	eventService *services.EventService
}

func NewEventHandler(eventService *services.EventService) *EventHandler {
	return &EventHandler{eventService: eventService}
}

func (h *EventHandler) List(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	featured := e.Request.URL.Query().Get("featured")
	featuredOnly := featured == "1" || featured == "true"

	events, err := h.eventService.List(e.Request.Context(), featuredOnly)
	if err != nil {
		return toAPIError(err)
	}
	return e.JSON(http.StatusOK, events)
}

func (h *EventHandler) Get(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	eventID := e.Request.PathValue("id")
	ev, err := h.eventService.Get(e.Request.Context(), eventID)
	if err != nil {
		return toAPIError(err)
	}
	return e.JSON(http.StatusOK, ev)
}

func (h *EventHandler) Create(e *core.RequestEvent) error {
	if err := requireRole(e, RoleOrganizer); err != nil {
		return err
	}

	var in services.CreateEventInput
	if err := e.BindBody(&in); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if err := in.Validate(); err != nil {
		return apis.NewBadRequestError(err.Error(), err)
	}

	ev, err := h.eventService.Create(e.Request.Context(), e.Auth.Id, &in)
	if err != nil {
		return toAPIError(err)
	}
	return e.JSON(http.StatusCreated, ev)
}
