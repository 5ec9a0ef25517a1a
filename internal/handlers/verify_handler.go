package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"github.com/Jahmax1/Dragotix/internal/services"
)

type VerifyHandler struct {
	verifyService *services.VerifyService
}

func NewVerifyHandler(verifyService *services.VerifyService) *VerifyHandler {
	return &VerifyHandler{verifyService: verifyService}
}

// Verify checks a scanned proof and marks the ticket as used. Each valid
// proof verifies exactly once; replays are rejected.
func (h *VerifyHandler) Verify(e *core.RequestEvent) error {
	if err := requireRole(e, RoleOrganizer); err != nil {
		return err
	}

	var req struct {
		TicketData string `json:"ticketData"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	summary, err := h.verifyService.Verify(e.Request.Context(), req.TicketData)
	if err != nil {
		return toAPIError(err)
	}
	return e.JSON(http.StatusOK, map[string]any{
		"message": "Ticket verified successfully",
		"ticket":  summary,
	})
}
