// Package payment defines the gateway adapter used by the purchase flow.
// The provider is an external collaborator: it receives an amount, currency
// and audit metadata and hands back a client-side payment handle.
package payment

import (
	"context"

	"github.com/shopspring/decimal"
)

// IntentRequest describes one payment to authorize. Amount is in major
// currency units; implementations convert to the provider's minor units.
// Metadata tags the intent with (event id, tier label, buyer id) for later
// reconciliation. IdempotencyKey, when set, makes retried requests safe.
type IntentRequest struct {
	Amount         decimal.Decimal
	Currency       string
	Metadata       map[string]string
	IdempotencyKey string
}

// Intent is the provider's view of a created payment.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
}

// Gateway is the payment provider boundary. Calls are bounded by the
// request context plus the implementation's own timeout; a timeout surfaces
// as status.ErrGatewayTimeout so the caller can decide whether to retry.
type Gateway interface {
	CreateIntent(ctx context.Context, req *IntentRequest) (*Intent, error)
	RetrieveIntent(ctx context.Context, id string) (*Intent, error)
}
