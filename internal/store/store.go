// Package store holds the durable state behind the purchase and verification
// flows: the event catalog, the ticket ledger and the identity records.
package store

import (
	"time"

	"github.com/Jahmax1/Dragotix/models"
)

// Store is the persistence boundary used by the services. The production
// implementation is backed by PocketBase records; tests substitute an
// in-memory fake.
//
// RunInTransaction executes fn against a transactional view of the store.
// Writes performed inside fn become visible to other readers only when fn
// returns nil. The ticket ledger relies on this: the confirmation step
// recounts sold tickets and inserts the new one within a single transaction,
// which is what enforces the per-tier capacity invariant under concurrent
// purchases.
type Store interface {
	FindEventByID(id string) (*models.Event, error)
	ListEvents(featuredOnly bool) ([]*models.Event, error)
	SaveEvent(ev *models.Event) error

	CountPurchased(eventID, tier string) (int, error)
	FindTicketBySlot(userID, eventID, tier string, purchaseDate time.Time) (*models.Ticket, error)
	FindTicketByID(id string) (*models.Ticket, error)
	SaveTicket(t *models.Ticket) error
	SetTicketStatus(id, ticketStatus string) error
	ListTicketsByUser(userID string) ([]*models.Ticket, error)
	ListTicketsByEvent(eventID string) ([]*models.Ticket, error)

	FindUserByID(id string) (*models.User, error)

	RunInTransaction(fn func(tx Store) error) error
}
