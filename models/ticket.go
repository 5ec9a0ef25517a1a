package models

import (
	"fmt"
	"time"
)

const (
	TicketStatusPurchased = "purchased"
	TicketStatusScanned   = "scanned"
	TicketStatusCancelled = "cancelled"
)

type Ticket struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	EventID      string    `json:"eventId"`
	TicketType   string    `json:"ticketType"`
	Price        float64   `json:"price"`
	Proof        string    `json:"proof"`
	QRCode       string    `json:"qrCode"`
	Status       string    `json:"status"` // purchased, scanned, cancelled
	PurchaseDate time.Time `json:"purchaseDate"`
}

// TicketDraft is the unsaved ticket returned by purchase initiation. The
// client echoes it back verbatim on confirmation; no server-side state is
// kept in between.
type TicketDraft struct {
	UserID       string    `json:"userId"`
	EventID      string    `json:"eventId"`
	TicketType   string    `json:"ticketType"`
	Price        float64   `json:"price"`
	PurchaseDate time.Time `json:"purchaseDate"`
}

// Validate rejects drafts with missing fields or a non-positive price
// snapshot before any lookup happens.
func (d *TicketDraft) Validate() error {
	switch {
	case d.UserID == "":
		return fmt.Errorf("draft: missing user id")
	case d.EventID == "":
		return fmt.Errorf("draft: missing event id")
	case d.TicketType == "":
		return fmt.Errorf("draft: missing ticket type")
	case d.Price <= 0:
		return fmt.Errorf("draft: price must be positive")
	case d.PurchaseDate.IsZero():
		return fmt.Errorf("draft: missing purchase date")
	}
	return nil
}

// SlotKey identifies the unique ticket slot a draft resolves to. The tickets
// collection carries a unique index over the same four fields, which makes
// confirmation idempotent per draft.
func (d *TicketDraft) SlotKey() string {
	return fmt.Sprintf("%s:%s:%s:%d", d.UserID, d.EventID, d.TicketType, d.PurchaseDate.UTC().Unix())
}

// VerificationSummary is what an organizer sees after scanning a ticket.
type VerificationSummary struct {
	UserEmail    string    `json:"userEmail"`
	EventTitle   string    `json:"eventTitle"`
	TicketType   string    `json:"ticketType"`
	PurchaseDate time.Time `json:"purchaseDate"`
}
