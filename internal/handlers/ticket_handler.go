package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"github.com/Jahmax1/Dragotix/internal/services"
	"github.com/Jahmax1/Dragotix/models"
)

type TicketHandler struct {
	ticketService *services.TicketService
}

func NewTicketHandler(ticketService *services.TicketService) *TicketHandler {
	return &TicketHandler{ticketService: ticketService}
}

// Buy initiates a purchase: it returns the gateway client secret plus the
// unsaved ticket draft the client must echo back on confirmation.
func (h *TicketHandler) Buy(e *core.RequestEvent) error {
	if err := requireRole(e, RoleUser); err != nil {
		return err
	}

	var req struct {
		EventID    string `json:"eventId"`
		TicketType string `json:"ticketType"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.EventID == "" || req.TicketType == "" {
		return apis.NewBadRequestError("eventId and ticketType are required", nil)
	}

	result, err := h.ticketService.InitiatePurchase(e.Request.Context(), e.Auth.Id, req.EventID, req.TicketType)
	if err != nil {
		return toAPIError(err)
	}
	return e.JSON(http.StatusOK, result)
}

// Confirm persists the ticket after the client reports payment success. It
// must never be called on a failed payment; the gateway SDK on the client is
// the gate.
func (h *TicketHandler) Confirm(e *core.RequestEvent) error {
	if err := requireRole(e, RoleUser); err != nil {
		return err
	}

	var req struct {
		TicketData models.TicketDraft `json:"ticketData"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if err := req.TicketData.Validate(); err != nil {
		return apis.NewBadRequestError(err.Error(), err)
	}

	ticket, err := h.ticketService.ConfirmPurchase(e.Request.Context(), e.Auth.Id, &req.TicketData)
	if err != nil {
		return toAPIError(err)
	}
	return e.JSON(http.StatusOK, map[string]any{"ticket": ticket})
}

func (h *TicketHandler) MyTickets(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	tickets, err := h.ticketService.TicketsByUser(e.Request.Context(), e.Auth.Id)
	if err != nil {
		return toAPIError(err)
	}
	return e.JSON(http.StatusOK, tickets)
}

func (h *TicketHandler) EventTickets(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	eventID := e.Request.PathValue("eventId")
	tickets, err := h.ticketService.TicketsByEvent(e.Request.Context(), eventID)
	if err != nil {
		return toAPIError(err)
	}
	return e.JSON(http.StatusOK, tickets)
}

// Cancel transitions a purchased ticket to cancelled, freeing its capacity
// slot. Restricted to the organizer owning the ticket's event.
func (h *TicketHandler) Cancel(e *core.RequestEvent) error {
	if err := requireRole(e, RoleOrganizer); err != nil {
		return err
	}

	ticketID := e.Request.PathValue("ticketId")
	ticket, err := h.ticketService.CancelTicket(e.Request.Context(), e.Auth.Id, ticketID)
	if err != nil {
		return toAPIError(err)
	}
	return e.JSON(http.StatusOK, map[string]any{"ticket": ticket})
}
