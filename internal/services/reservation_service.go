package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// ReservationService tracks short-lived purchase holds in Redis. A hold is
// taken at purchase initiation and released (or left to expire) around
// confirmation, so the advisory capacity check can account for buyers who are
// mid-payment. Holds live in one sorted set per (event, tier) with the expiry
// time as score; expired members simply stop counting.
type ReservationService struct {
	Redis *redis.Client
	TTL   time.Duration

	// now is swapped in tests for deterministic scores.
	now func() time.Time
}

func NewReservationService(redisClient *redis.Client, ttl time.Duration) *ReservationService {
	return &ReservationService{
		Redis: redisClient,
		TTL:   ttl,
		now:   time.Now,
	}
}

func holdsKey(eventID, tier string) string {
	return fmt.Sprintf("holds:%s:%s", eventID, tier)
}

func auditKey(intentID string) string {
	return fmt.Sprintf("purchase:%s", intentID)
}

// Hold records a pending reservation for the given slot member.
func (s *ReservationService) Hold(ctx context.Context, eventID, tier, member string) error {
	key := holdsKey(eventID, tier)
	expiry := s.now().Add(s.TTL)
	if err := s.Redis.ZAdd(ctx, key, redis.Z{
		Score:  float64(expiry.Unix()),
		Member: member,
	}).Err(); err != nil {
		return fmt.Errorf("reservation hold: %w", err)
	}
	// The set itself expires once every member has, so abandoned tiers do
	// not accumulate keys.
	if err := s.Redis.Expire(ctx, key, 2*s.TTL).Err(); err != nil {
		return fmt.Errorf("reservation expire: %w", err)
	}
	return nil
}

// Release drops a hold after confirmation or cancellation.
func (s *ReservationService) Release(ctx context.Context, eventID, tier, member string) error {
	if err := s.Redis.ZRem(ctx, holdsKey(eventID, tier), member).Err(); err != nil {
		return fmt.Errorf("reservation release: %w", err)
	}
	return nil
}

// ActiveHolds counts holds that have not yet expired.
func (s *ReservationService) ActiveHolds(ctx context.Context, eventID, tier string) (int, error) {
	min := fmt.Sprintf("%d", s.now().Unix())
	n, err := s.Redis.ZCount(ctx, holdsKey(eventID, tier), min, "+inf").Result()
	if err != nil {
		return 0, fmt.Errorf("reservation count: %w", err)
	}
	return int(n), nil
}

// PurgeExpired removes dead members from all hold sets.
func (s *ReservationService) PurgeExpired(ctx context.Context) error {
	keys, err := s.Redis.Keys(ctx, "holds:*").Result()
	if err != nil {
		return fmt.Errorf("reservation purge: %w", err)
	}
	max := fmt.Sprintf("%d", s.now().Unix())
	for _, key := range keys {
		if err := s.Redis.ZRemRangeByScore(ctx, key, "-inf", max).Err(); err != nil {
			slog.Error("Failed to purge expired holds", "key", key, "error", err)
		}
	}
	return nil
}

// PurgeLoop runs PurgeExpired on a fixed interval until ctx is cancelled.
func (s *ReservationService) PurgeLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.PurgeExpired(ctx); err != nil {
				slog.Error("Reservation purge failed", "error", err)
			}
		}
	}
}

// RecordPurchaseAudit writes the intent metadata used for manual
// reconciliation when a payment succeeds but ticket persistence fails.
func (s *ReservationService) RecordPurchaseAudit(ctx context.Context, intentID string, fields map[string]any) error {
	key := auditKey(intentID)
	if err := s.Redis.HSet(ctx, key, fields).Err(); err != nil {
		return fmt.Errorf("purchase audit: %w", err)
	}
	if err := s.Redis.Expire(ctx, key, 24*time.Hour).Err(); err != nil {
		return fmt.Errorf("purchase audit expire: %w", err)
	}
	return nil
}

// CompletePurchaseAudit marks an audit record as confirmed.
func (s *ReservationService) CompletePurchaseAudit(ctx context.Context, intentID string) error {
	if err := s.Redis.HSet(ctx, auditKey(intentID), "status", "completed").Err(); err != nil {
		return fmt.Errorf("purchase audit complete: %w", err)
	}
	return nil
}
