package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Jahmax1/Dragotix/internal/store"
	"github.com/Jahmax1/Dragotix/models"
)

const featuredSetKey = "events:featured"

// EventService handles the event catalog. A Redis set mirrors the featured
// flag so the landing-page listing does not scan the whole catalog; record
// hooks keep it in sync and SyncFeatured rebuilds it on startup.
type EventService struct {
	store store.Store
	Redis *redis.Client
}

func NewEventService(st store.Store, redisClient *redis.Client) *EventService {
	return &EventService{store: st, Redis: redisClient}
}

type CreateEventInput struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Location    string              `json:"location"`
	Date        time.Time           `json:"date"`
	ImageURL    string              `json:"imageUrl"`
	Featured    bool                `json:"isFeatured"`
	Tiers       []models.TicketTier `json:"tickets"`
}

func (in *CreateEventInput) Validate() error {
	if in.Title == "" || in.Location == "" || in.Date.IsZero() {
		return fmt.Errorf("title, date, and location are required")
	}
	return models.ValidateTiers(in.Tiers)
}

func (s *EventService) Create(ctx context.Context, organizerID string, in *CreateEventInput) (*models.Event, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	ev := &models.Event{
		Title:       in.Title,
		Description: in.Description,
		Location:    in.Location,
		Date:        in.Date,
		ImageURL:    in.ImageURL,
		Featured:    in.Featured,
		OrganizerID: organizerID,
		Tiers:       in.Tiers,
	}
	if err := s.store.SaveEvent(ev); err != nil {
		return nil, err
	}
	if ev.Featured {
		s.CacheFeatured(ctx, ev.ID)
	}
	return ev, nil
}

func (s *EventService) Get(ctx context.Context, id string) (*models.Event, error) {
	return s.store.FindEventByID(id)
}

func (s *EventService) List(ctx context.Context, featuredOnly bool) ([]*models.Event, error) {
	if !featuredOnly {
		return s.store.ListEvents(false)
	}

	ids, err := s.Redis.SMembers(ctx, featuredSetKey).Result()
	if err != nil || len(ids) == 0 {
		// Cache miss or Redis down: serve from the catalog directly.
		return s.store.ListEvents(true)
	}
	events := make([]*models.Event, 0, len(ids))
	for _, id := range ids {
		ev, err := s.store.FindEventByID(id)
		if err != nil {
			// Stale cache entry, drop it.
			s.UncacheFeatured(ctx, id)
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

// CacheFeatured adds an event id to the featured set. Failures are logged
// only; the set is a cache, not the source of truth.
func (s *EventService) CacheFeatured(ctx context.Context, eventID string) {
	if err := s.Redis.SAdd(ctx, featuredSetKey, eventID).Err(); err != nil {
		slog.Error("Failed to cache featured event", "event_id", eventID, "error", err)
	}
}

func (s *EventService) UncacheFeatured(ctx context.Context, eventID string) {
	if err := s.Redis.SRem(ctx, featuredSetKey, eventID).Err(); err != nil {
		slog.Error("Failed to evict featured event", "event_id", eventID, "error", err)
	}
}

// SyncFeatured rebuilds the featured set from the catalog, called once at
// serve time.
func (s *EventService) SyncFeatured(ctx context.Context) error {
	events, err := s.store.ListEvents(true)
	if err != nil {
		return fmt.Errorf("sync featured events: %w", err)
	}
	if err := s.Redis.Del(ctx, featuredSetKey).Err(); err != nil {
		return fmt.Errorf("sync featured events: %w", err)
	}
	if len(events) == 0 {
		return nil
	}
	ids := make([]any, 0, len(events))
	for _, ev := range events {
		ids = append(ids, ev.ID)
	}
	if err := s.Redis.SAdd(ctx, featuredSetKey, ids...).Err(); err != nil {
		return fmt.Errorf("sync featured events: %w", err)
	}
	slog.Info("Synced featured events to Redis", "count", len(ids))
	return nil
}
