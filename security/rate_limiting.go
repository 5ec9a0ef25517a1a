package security

import (
	"fmt"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/redis/go-redis/v9"
)

// RateLimiter throttles purchase and verification traffic with a Redis
// fixed window per user (falling back to client IP for anonymous requests).
type RateLimiter struct {
	redis     *redis.Client
	perMinute int
}

func NewRateLimiter(redisClient *redis.Client, perMinute int) *RateLimiter {
	return &RateLimiter{redis: redisClient, perMinute: perMinute}
}

// Limit is a route middleware enforcing the per-minute window.
func (r *RateLimiter) Limit() func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		identifier := e.RealIP()
		if e.Auth != nil {
			identifier = "user:" + e.Auth.Id
		}

		key := fmt.Sprintf("ratelimit:%s", identifier)
		ctx := e.Request.Context()

		count, err := r.redis.Incr(ctx, key).Result()
		if err != nil {
			// Redis outage should not take sales down with it.
			return e.Next()
		}
		if count == 1 {
			r.redis.Expire(ctx, key, time.Minute)
		}
		if count > int64(r.perMinute) {
			return apis.NewApiError(429, "Rate limit exceeded. Please try again later.", nil)
		}

		return e.Next()
	}
}

// AntiBot rejects requests from obvious scraping user agents.
func (r *RateLimiter) AntiBot() func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		userAgent := e.Request.Header.Get("User-Agent")
		if isSuspiciousUserAgent(userAgent) {
			return apis.NewForbiddenError("Access denied", nil)
		}
		return e.Next()
	}
}

func isSuspiciousUserAgent(ua string) bool {
	suspicious := []string{"bot", "crawler", "spider", "scraper"}
	for _, pattern := range suspicious {
		if strings.Contains(strings.ToLower(ua), pattern) {
			return true
		}
	}
	return false
}
