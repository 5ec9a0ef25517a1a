package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Jahmax1/Dragotix/config"
	"github.com/Jahmax1/Dragotix/internal/services/payment"
	"github.com/Jahmax1/Dragotix/internal/services/proof"
	"github.com/Jahmax1/Dragotix/internal/status"
	"github.com/Jahmax1/Dragotix/internal/store"
	"github.com/Jahmax1/Dragotix/models"
	"github.com/Jahmax1/Dragotix/monitoring"
	"github.com/Jahmax1/Dragotix/utils"
)

// TicketService drives the two-phase purchase flow: initiation creates a
// payment intent and a reservation hold, confirmation re-checks capacity and
// persists the ticket. No server-side state links the two phases; the client
// round-trips the draft.
type TicketService struct {
	store        store.Store
	gateway      payment.Gateway
	reservations *ReservationService
	codec        *proof.Codec
	notifier     Notifier
	breaker      *utils.CircuitBreaker

	currency       string
	gatewayTimeout time.Duration

	now func() time.Time
}

func NewTicketService(
	st store.Store,
	gateway payment.Gateway,
	reservations *ReservationService,
	codec *proof.Codec,
	notifier Notifier,
	cfg *config.Config,
) *TicketService {
	return &TicketService{
		store:          st,
		gateway:        gateway,
		reservations:   reservations,
		codec:          codec,
		notifier:       notifier,
		breaker:        utils.NewCircuitBreaker("payment-gateway"),
		currency:       cfg.Currency,
		gatewayTimeout: cfg.GatewayTimeout,
		now:            time.Now,
	}
}

// InitiateResult is returned to the buyer: the gateway's client-side payment
// handle plus the unsaved ticket draft to echo back on confirmation.
type InitiateResult struct {
	ClientSecret string             `json:"clientSecret"`
	Draft        models.TicketDraft `json:"ticketData"`
}

// InitiatePurchase validates the event and tier, performs the advisory
// capacity check (persisted sales plus live reservation holds) and creates a
// payment intent. The capacity check here only rejects obviously-oversold
// purchases; the authoritative check happens again at confirmation.
func (s *TicketService) InitiatePurchase(ctx context.Context, buyerID, eventID, tierLabel string) (*InitiateResult, error) {
	ev, err := s.store.FindEventByID(eventID)
	if err != nil {
		monitoring.TrackPurchase("initiate", "event_not_found")
		return nil, err
	}
	tier := ev.Tier(tierLabel)
	if tier == nil {
		monitoring.TrackPurchase("initiate", "invalid_tier")
		return nil, status.ErrTierNotFound
	}

	sold, err := s.store.CountPurchased(eventID, tierLabel)
	if err != nil {
		return nil, err
	}
	holds, err := s.reservations.ActiveHolds(ctx, eventID, tierLabel)
	if err != nil {
		// Redis being down must not block sales; the confirmation recount
		// still holds the line.
		slog.Warn("Reservation count unavailable", "event_id", eventID, "tier", tierLabel, "error", err)
		holds = 0
	}
	if sold+holds >= tier.Quantity {
		monitoring.TrackPurchase("initiate", "sold_out")
		return nil, status.ErrSoldOut
	}

	draft := models.TicketDraft{
		UserID:       buyerID,
		EventID:      eventID,
		TicketType:   tierLabel,
		Price:        tier.Price,
		PurchaseDate: s.now().UTC().Truncate(time.Second),
	}

	reference, _ := utils.GenerateCode(4)
	intent, err := s.createIntent(ctx, &payment.IntentRequest{
		Amount:   decimal.NewFromFloat(tier.Price),
		Currency: s.currency,
		Metadata: map[string]string{
			"event_id":  eventID,
			"tier":      tierLabel,
			"user_id":   buyerID,
			"reference": reference,
		},
		IdempotencyKey: draft.SlotKey(),
	})
	if err != nil {
		monitoring.TrackPurchase("initiate", "gateway_error")
		return nil, err
	}

	if err := s.reservations.Hold(ctx, eventID, tierLabel, draft.SlotKey()); err != nil {
		slog.Warn("Failed to record reservation hold", "slot", draft.SlotKey(), "error", err)
	}
	if err := s.reservations.RecordPurchaseAudit(ctx, draft.SlotKey(), map[string]any{
		"intent_id":  intent.ID,
		"user_id":    buyerID,
		"event_id":   eventID,
		"tier":       tierLabel,
		"price":      tier.Price,
		"status":     "pending",
		"created_at": s.now().Unix(),
	}); err != nil {
		slog.Warn("Failed to record purchase audit", "slot", draft.SlotKey(), "error", err)
	}

	monitoring.TrackPurchase("initiate", "ok")
	return &InitiateResult{ClientSecret: intent.ClientSecret, Draft: draft}, nil
}

func (s *TicketService) createIntent(ctx context.Context, req *payment.IntentRequest) (*payment.Intent, error) {
	ctx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()

	started := s.now()
	result, err := s.breaker.Execute(ctx, func() (any, error) {
		return s.gateway.CreateIntent(ctx, req)
	})
	monitoring.ObserveGateway("create_intent", time.Since(started).Seconds())
	if err != nil {
		if errors.Is(err, utils.ErrOpen) || errors.Is(err, utils.ErrTooManyRequests) {
			return nil, status.ErrCircuitOpen
		}
		return nil, err
	}
	return result.(*payment.Intent), nil
}

// ConfirmPurchase is the authoritative enforcement point of the capacity
// invariant: the sold count is re-read and the ticket inserted within one
// store transaction, so concurrent confirmations cannot oversell a tier.
// Confirmation is idempotent per draft: the unique ticket slot
// (user, event, tier, purchase date) resolves retries to the already-issued
// ticket instead of a duplicate.
func (s *TicketService) ConfirmPurchase(ctx context.Context, buyerID string, draft *models.TicketDraft) (*models.Ticket, error) {
	if draft.UserID != buyerID {
		monitoring.TrackPurchase("confirm", "forbidden")
		return nil, status.ErrForbidden
	}
	purchaseDate := draft.PurchaseDate.UTC().Truncate(time.Second)

	encoded, err := s.codec.Encode(proof.Payload{
		UserID:       draft.UserID,
		EventID:      draft.EventID,
		TicketType:   draft.TicketType,
		PurchaseDate: purchaseDate,
	})
	if err != nil {
		return nil, err
	}
	qr, err := s.codec.QRDataURL(encoded)
	if err != nil {
		return nil, err
	}

	var ticket *models.Ticket
	err = s.store.RunInTransaction(func(tx store.Store) error {
		ev, err := tx.FindEventByID(draft.EventID)
		if err != nil {
			return err
		}
		tier := ev.Tier(draft.TicketType)
		if tier == nil {
			return status.ErrTierNotFound
		}

		existing, err := tx.FindTicketBySlot(draft.UserID, draft.EventID, draft.TicketType, purchaseDate)
		if err == nil {
			ticket = existing
			return nil
		}
		if !errors.Is(err, status.ErrUnknownTicket) {
			return err
		}

		sold, err := tx.CountPurchased(draft.EventID, draft.TicketType)
		if err != nil {
			return err
		}
		if sold >= tier.Quantity {
			return status.ErrSoldOut
		}

		t := &models.Ticket{
			UserID:       draft.UserID,
			EventID:      draft.EventID,
			TicketType:   draft.TicketType,
			Price:        draft.Price,
			Proof:        encoded,
			QRCode:       qr,
			Status:       models.TicketStatusPurchased,
			PurchaseDate: purchaseDate,
		}
		if err := tx.SaveTicket(t); err != nil {
			return fmt.Errorf("%w: %v", status.ErrPersistence, err)
		}
		ticket = t
		return nil
	})
	if err != nil {
		if errors.Is(err, status.ErrPersistence) {
			// The buyer has paid but holds no ticket. No automatic refund is
			// attempted; the purchase audit entry in Redis carries the intent
			// id for manual reconciliation.
			slog.Error("Paid purchase could not be persisted, needs manual reconciliation",
				"slot", draft.SlotKey(), "error", err)
		}
		monitoring.TrackPurchase("confirm", confirmFailureReason(err))
		return nil, err
	}

	if err := s.reservations.Release(ctx, draft.EventID, draft.TicketType, draft.SlotKey()); err != nil {
		slog.Warn("Failed to release reservation hold", "slot", draft.SlotKey(), "error", err)
	}
	if err := s.reservations.CompletePurchaseAudit(ctx, draft.SlotKey()); err != nil {
		slog.Warn("Failed to complete purchase audit", "slot", draft.SlotKey(), "error", err)
	}

	s.notifier.TicketIssued(ticket)
	monitoring.TrackPurchase("confirm", "ok")
	monitoring.TrackTicketIssued(ticket.EventID, ticket.TicketType)
	return ticket, nil
}

// CancelTicket transitions a purchased ticket to cancelled. Only the
// organizer of the ticket's event may cancel; cancelled tickets stop counting
// against tier capacity.
func (s *TicketService) CancelTicket(ctx context.Context, organizerID, ticketID string) (*models.Ticket, error) {
	var cancelled *models.Ticket
	err := s.store.RunInTransaction(func(tx store.Store) error {
		t, err := tx.FindTicketByID(ticketID)
		if err != nil {
			return err
		}
		ev, err := tx.FindEventByID(t.EventID)
		if err != nil {
			return err
		}
		if ev.OrganizerID != organizerID {
			return status.ErrForbidden
		}
		if t.Status != models.TicketStatusPurchased {
			return status.ErrNotPurchased
		}
		if err := tx.SetTicketStatus(t.ID, models.TicketStatusCancelled); err != nil {
			return err
		}
		t.Status = models.TicketStatusCancelled
		cancelled = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

func (s *TicketService) TicketsByUser(ctx context.Context, userID string) ([]*models.Ticket, error) {
	return s.store.ListTicketsByUser(userID)
}

func (s *TicketService) TicketsByEvent(ctx context.Context, eventID string) ([]*models.Ticket, error) {
	return s.store.ListTicketsByEvent(eventID)
}

func confirmFailureReason(err error) string {
	switch {
	case errors.Is(err, status.ErrSoldOut):
		return "sold_out"
	case errors.Is(err, status.ErrEventNotFound):
		return "event_not_found"
	case errors.Is(err, status.ErrTierNotFound):
		return "invalid_tier"
	case errors.Is(err, status.ErrPersistence):
		return "persistence_error"
	default:
		return "error"
	}
}
