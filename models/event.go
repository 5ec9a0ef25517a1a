package models

import (
	"fmt"
	"time"
)

// TicketTier is one sellable ticket class on an event. Tier type labels are
// unique within an event; price and quantity are strictly positive.
type TicketTier struct {
	Type     string  `json:"type"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

type Event struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Location    string       `json:"location"`
	Date        time.Time    `json:"date"`
	ImageURL    string       `json:"imageUrl,omitempty"`
	Featured    bool         `json:"isFeatured"`
	OrganizerID string       `json:"organizer"`
	Tiers       []TicketTier `json:"tickets"`
}

// Tier returns the tier matching the given type label, or nil.
func (e *Event) Tier(label string) *TicketTier {
	for i := range e.Tiers {
		if e.Tiers[i].Type == label {
			return &e.Tiers[i]
		}
	}
	return nil
}

// ValidateTiers checks the tier invariants: at least one tier, unique labels,
// strictly positive price and quantity.
func ValidateTiers(tiers []TicketTier) error {
	if len(tiers) == 0 {
		return fmt.Errorf("at least one ticket type is required")
	}
	seen := make(map[string]struct{}, len(tiers))
	for _, t := range tiers {
		if t.Type == "" {
			return fmt.Errorf("each ticket must have a type, price, and quantity")
		}
		if _, ok := seen[t.Type]; ok {
			return fmt.Errorf("duplicate ticket type %q", t.Type)
		}
		seen[t.Type] = struct{}{}
		if t.Price <= 0 {
			return fmt.Errorf("ticket price must be a positive number")
		}
		if t.Quantity <= 0 {
			return fmt.Errorf("ticket quantity must be a positive number")
		}
	}
	return nil
}

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"` // user, organizer
}
