package services

import (
	"log/slog"

	pubnub "github.com/pubnub/go/v7"

	"github.com/Jahmax1/Dragotix/models"
)

// Notifier pushes realtime updates to buyers and organizers. Delivery is
// best effort; failures are logged, never surfaced to the request.
type Notifier interface {
	TicketIssued(t *models.Ticket)
	TicketScanned(eventID string, summary *models.VerificationSummary)
}

type PubNubNotifier struct {
	pn *pubnub.PubNub
}

func NewPubNubNotifier(pn *pubnub.PubNub) *PubNubNotifier {
	return &PubNubNotifier{pn: pn}
}

func (n *PubNubNotifier) TicketIssued(t *models.Ticket) {
	n.publish("user-"+t.UserID, map[string]any{
		"type":      "ticket_issued",
		"ticket_id": t.ID,
		"event_id":  t.EventID,
		"tier":      t.TicketType,
	})
}

func (n *PubNubNotifier) TicketScanned(eventID string, summary *models.VerificationSummary) {
	n.publish("event-"+eventID+"-scans", map[string]any{
		"type":          "ticket_scanned",
		"user_email":    summary.UserEmail,
		"tier":          summary.TicketType,
		"purchase_date": summary.PurchaseDate,
	})
}

func (n *PubNubNotifier) publish(channel string, message map[string]any) {
	_, _, err := n.pn.Publish().
		Channel(channel).
		Message(message).
		Execute()
	if err != nil {
		slog.Warn("Realtime publish failed", "channel", channel, "error", err)
	}
}

// NopNotifier is used in tests and when PubNub is not configured.
type NopNotifier struct{}

func (NopNotifier) TicketIssued(*models.Ticket)                       {}
func (NopNotifier) TicketScanned(string, *models.VerificationSummary) {}
