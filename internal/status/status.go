// Package status defines the sentinel error kinds shared across the
// purchase and verification flows. Handlers translate them to HTTP codes.
package status

import "errors"

var (
	ErrEventNotFound   = errors.New("event: not found")
	ErrTierNotFound    = errors.New("event: ticket type not found")
	ErrSoldOut         = errors.New("ticket: sold out")
	ErrForbidden       = errors.New("auth: access denied")
	ErrMalformedProof  = errors.New("proof: malformed ticket data")
	ErrUnknownTicket   = errors.New("ticket: not found")
	ErrUnknownUser     = errors.New("user: not found")
	ErrAlreadyScanned  = errors.New("ticket: already scanned")
	ErrTicketCancelled = errors.New("ticket: cancelled")
	ErrNotPurchased    = errors.New("ticket: not in purchased state")

	ErrGatewayTimeout  = errors.New("gateway: request timed out")
	ErrGatewayDeclined = errors.New("gateway: payment declined")
	ErrCircuitOpen     = errors.New("gateway: circuit breaker is open")

	ErrPersistence = errors.New("store: persistence failed")

	ErrDuplicateEmail     = errors.New("auth: user already exists")
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
)
