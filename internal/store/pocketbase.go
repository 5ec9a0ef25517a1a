package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"

	"github.com/Jahmax1/Dragotix/internal/status"
	"github.com/Jahmax1/Dragotix/models"
)

// PB implements Store on top of PocketBase collections. Transactions map to
// app.RunInTransaction, which serializes writes on the underlying sqlite
// database.
type PB struct {
	app core.App
}

func NewPB(app core.App) *PB {
	return &PB{app: app}
}

func (s *PB) FindEventByID(id string) (*models.Event, error) {
	rec, err := s.app.FindRecordById("events", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, status.ErrEventNotFound
		}
		return nil, fmt.Errorf("find event %s: %w", id, err)
	}
	return recordToEvent(rec)
}

func (s *PB) ListEvents(featuredOnly bool) ([]*models.Event, error) {
	exprs := []dbx.Expression{}
	if featuredOnly {
		exprs = append(exprs, dbx.HashExp{"featured": true})
	}
	recs, err := s.app.FindAllRecords("events", exprs...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	events := make([]*models.Event, 0, len(recs))
	for _, rec := range recs {
		ev, err := recordToEvent(rec)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

func (s *PB) SaveEvent(ev *models.Event) error {
	collection, err := s.app.FindCollectionByNameOrId("events")
	if err != nil {
		return fmt.Errorf("events collection: %w", err)
	}
	rec := core.NewRecord(collection)
	rec.Set("title", ev.Title)
	rec.Set("description", ev.Description)
	rec.Set("location", ev.Location)
	rec.Set("date", ev.Date.UTC())
	rec.Set("image_url", ev.ImageURL)
	rec.Set("featured", ev.Featured)
	rec.Set("organizer", ev.OrganizerID)
	rec.Set("tiers", ev.Tiers)
	if err := s.app.Save(rec); err != nil {
		return fmt.Errorf("save event: %w", err)
	}
	ev.ID = rec.Id
	return nil
}

func (s *PB) CountPurchased(eventID, tier string) (int, error) {
	n, err := s.app.CountRecords("tickets", dbx.HashExp{
		"event":  eventID,
		"tier":   tier,
		"status": models.TicketStatusPurchased,
	})
	if err != nil {
		return 0, fmt.Errorf("count purchased %s/%s: %w", eventID, tier, err)
	}
	return int(n), nil
}

func (s *PB) FindTicketBySlot(userID, eventID, tier string, purchaseDate time.Time) (*models.Ticket, error) {
	dt, err := types.ParseDateTime(purchaseDate.UTC())
	if err != nil {
		return nil, fmt.Errorf("parse purchase date: %w", err)
	}
	rec, err := s.app.FindFirstRecordByFilter(
		"tickets",
		"user = {:user} && event = {:event} && tier = {:tier} && purchase_date = {:purchased}",
		dbx.Params{
			"user":      userID,
			"event":     eventID,
			"tier":      tier,
			"purchased": dt.String(),
		},
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, status.ErrUnknownTicket
		}
		return nil, fmt.Errorf("find ticket by slot: %w", err)
	}
	return recordToTicket(rec), nil
}

func (s *PB) FindTicketByID(id string) (*models.Ticket, error) {
	rec, err := s.app.FindRecordById("tickets", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, status.ErrUnknownTicket
		}
		return nil, fmt.Errorf("find ticket %s: %w", id, err)
	}
	return recordToTicket(rec), nil
}

func (s *PB) SaveTicket(t *models.Ticket) error {
	collection, err := s.app.FindCollectionByNameOrId("tickets")
	if err != nil {
		return fmt.Errorf("tickets collection: %w", err)
	}
	rec := core.NewRecord(collection)
	rec.Set("user", t.UserID)
	rec.Set("event", t.EventID)
	rec.Set("tier", t.TicketType)
	rec.Set("price", t.Price)
	rec.Set("proof", t.Proof)
	rec.Set("qr_code", t.QRCode)
	rec.Set("status", t.Status)
	rec.Set("purchase_date", t.PurchaseDate.UTC())
	if err := s.app.Save(rec); err != nil {
		return fmt.Errorf("save ticket: %w", err)
	}
	t.ID = rec.Id
	return nil
}

func (s *PB) SetTicketStatus(id, ticketStatus string) error {
	rec, err := s.app.FindRecordById("tickets", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return status.ErrUnknownTicket
		}
		return fmt.Errorf("find ticket %s: %w", id, err)
	}
	rec.Set("status", ticketStatus)
	if err := s.app.Save(rec); err != nil {
		return fmt.Errorf("update ticket status: %w", err)
	}
	return nil
}

func (s *PB) ListTicketsByUser(userID string) ([]*models.Ticket, error) {
	recs, err := s.app.FindAllRecords("tickets", dbx.HashExp{"user": userID})
	if err != nil {
		return nil, fmt.Errorf("list tickets by user: %w", err)
	}
	return recordsToTickets(recs), nil
}

func (s *PB) ListTicketsByEvent(eventID string) ([]*models.Ticket, error) {
	recs, err := s.app.FindAllRecords("tickets", dbx.HashExp{"event": eventID})
	if err != nil {
		return nil, fmt.Errorf("list tickets by event: %w", err)
	}
	return recordsToTickets(recs), nil
}

func (s *PB) FindUserByID(id string) (*models.User, error) {
	rec, err := s.app.FindRecordById("users", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, status.ErrUnknownUser
		}
		return nil, fmt.Errorf("find user %s: %w", id, err)
	}
	return &models.User{
		ID:    rec.Id,
		Email: rec.GetString("email"),
		Role:  rec.GetString("role"),
	}, nil
}

func (s *PB) RunInTransaction(fn func(tx Store) error) error {
	return s.app.RunInTransaction(func(txApp core.App) error {
		return fn(NewPB(txApp))
	})
}

func recordToEvent(rec *core.Record) (*models.Event, error) {
	var tiers []models.TicketTier
	if err := rec.UnmarshalJSONField("tiers", &tiers); err != nil {
		return nil, fmt.Errorf("event %s: decode tiers: %w", rec.Id, err)
	}
	return &models.Event{
		ID:          rec.Id,
		Title:       rec.GetString("title"),
		Description: rec.GetString("description"),
		Location:    rec.GetString("location"),
		Date:        rec.GetDateTime("date").Time(),
		ImageURL:    rec.GetString("image_url"),
		Featured:    rec.GetBool("featured"),
		OrganizerID: rec.GetString("organizer"),
		Tiers:       tiers,
	}, nil
}

func recordToTicket(rec *core.Record) *models.Ticket {
	return &models.Ticket{
		ID:           rec.Id,
		UserID:       rec.GetString("user"),
		EventID:      rec.GetString("event"),
		TicketType:   rec.GetString("tier"),
		Price:        rec.GetFloat("price"),
		Proof:        rec.GetString("proof"),
		QRCode:       rec.GetString("qr_code"),
		Status:       rec.GetString("status"),
		PurchaseDate: rec.GetDateTime("purchase_date").Time(),
	}
}

func recordsToTickets(recs []*core.Record) []*models.Ticket {
	tickets := make([]*models.Ticket, 0, len(recs))
	for _, rec := range recs {
		tickets = append(tickets, recordToTicket(rec))
	}
	return tickets
}
