package services

import (
	"context"
	"time"

	"github.com/Jahmax1/Dragotix/internal/services/proof"
	"github.com/Jahmax1/Dragotix/internal/status"
	"github.com/Jahmax1/Dragotix/internal/store"
	"github.com/Jahmax1/Dragotix/models"
	"github.com/Jahmax1/Dragotix/monitoring"
)

// VerifyService checks presented ticket proofs at the venue. A valid proof
// verifies exactly once: the ticket transitions purchased -> scanned inside
// the lookup transaction, so a replayed proof is rejected on the second scan.
type VerifyService struct {
	store    store.Store
	codec    *proof.Codec
	notifier Notifier
}

func NewVerifyService(st store.Store, codec *proof.Codec, notifier Notifier) *VerifyService {
	return &VerifyService{store: st, codec: codec, notifier: notifier}
}

// Verify decodes a proof, matches it against the ledger and marks the ticket
// scanned. The buyer lookup happens before the status update so an orphaned
// ticket (deleted buyer) fails with ErrUnknownUser and stays unscanned.
func (s *VerifyService) Verify(ctx context.Context, encoded string) (*models.VerificationSummary, error) {
	p, err := s.codec.Decode(encoded)
	if err != nil {
		monitoring.TrackVerification("malformed")
		return nil, err
	}

	var summary *models.VerificationSummary
	err = s.store.RunInTransaction(func(tx store.Store) error {
		t, err := tx.FindTicketBySlot(p.UserID, p.EventID, p.TicketType, p.PurchaseDate)
		if err != nil {
			return err
		}
		switch t.Status {
		case models.TicketStatusScanned:
			return status.ErrAlreadyScanned
		case models.TicketStatusCancelled:
			return status.ErrTicketCancelled
		}

		user, err := tx.FindUserByID(p.UserID)
		if err != nil {
			return err
		}
		ev, err := tx.FindEventByID(p.EventID)
		if err != nil {
			return err
		}
		if err := tx.SetTicketStatus(t.ID, models.TicketStatusScanned); err != nil {
			return err
		}

		summary = &models.VerificationSummary{
			UserEmail:    user.Email,
			EventTitle:   ev.Title,
			TicketType:   t.TicketType,
			PurchaseDate: t.PurchaseDate.UTC().Truncate(time.Second),
		}
		return nil
	})
	if err != nil {
		monitoring.TrackVerification(verifyFailureReason(err))
		return nil, err
	}

	s.notifier.TicketScanned(p.EventID, summary)
	monitoring.TrackVerification("ok")
	return summary, nil
}

func verifyFailureReason(err error) string {
	switch err {
	case status.ErrUnknownTicket:
		return "unknown_ticket"
	case status.ErrUnknownUser:
		return "unknown_user"
	case status.ErrAlreadyScanned:
		return "already_scanned"
	case status.ErrTicketCancelled:
		return "cancelled"
	case status.ErrEventNotFound:
		return "event_not_found"
	default:
		return "error"
	}
}
