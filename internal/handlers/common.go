package handlers

import (
	"errors"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"github.com/Jahmax1/Dragotix/internal/status"
)

const (
	RoleUser      = "user"
	RoleOrganizer = "organizer"
)

func requireRole(e *core.RequestEvent, role string) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}
	if e.Auth.GetString("role") != role {
		return apis.NewForbiddenError("Access denied: "+role+"s only", nil)
	}
	return nil
}

// toAPIError maps the flow error kinds onto HTTP responses. Unrecognized
// errors become opaque 500s so internals never leak to the client.
func toAPIError(err error) error {
	switch {
	case errors.Is(err, status.ErrEventNotFound):
		return apis.NewNotFoundError("Event not found", err)
	case errors.Is(err, status.ErrUnknownTicket):
		return apis.NewNotFoundError("Ticket not found", err)
	case errors.Is(err, status.ErrUnknownUser):
		return apis.NewNotFoundError("User not found", err)
	case errors.Is(err, status.ErrTierNotFound):
		return apis.NewBadRequestError("Ticket type not found", err)
	case errors.Is(err, status.ErrSoldOut):
		return apis.NewBadRequestError("Tickets sold out", err)
	case errors.Is(err, status.ErrMalformedProof):
		return apis.NewBadRequestError("Invalid QR code data", err)
	case errors.Is(err, status.ErrAlreadyScanned):
		return apis.NewBadRequestError("Ticket already scanned", err)
	case errors.Is(err, status.ErrTicketCancelled):
		return apis.NewBadRequestError("Ticket has been cancelled", err)
	case errors.Is(err, status.ErrNotPurchased):
		return apis.NewBadRequestError("Ticket is not in purchased state", err)
	case errors.Is(err, status.ErrDuplicateEmail):
		return apis.NewBadRequestError("User already exists", err)
	case errors.Is(err, status.ErrInvalidCredentials):
		return apis.NewBadRequestError("Invalid credentials", err)
	case errors.Is(err, status.ErrForbidden):
		return apis.NewForbiddenError("Access denied", err)
	case errors.Is(err, status.ErrGatewayTimeout):
		return apis.NewApiError(502, "Payment provider timed out", err)
	case errors.Is(err, status.ErrGatewayDeclined):
		return apis.NewApiError(502, "Payment declined", err)
	case errors.Is(err, status.ErrCircuitOpen):
		return apis.NewApiError(503, "Payment provider temporarily unavailable", err)
	default:
		return apis.NewInternalServerError("Internal server error", err)
	}
}
