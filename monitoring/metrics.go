package monitoring

import (
	"context"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var (
	ticketsIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickets_issued_total",
			Help: "Tickets issued per event and tier",
		},
		[]string{"event_id", "tier"},
	)

	purchaseOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "purchase_operations_total",
			Help: "Purchase flow operations by result",
		},
		[]string{"operation", "result"},
	)

	verificationOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verification_operations_total",
			Help: "Ticket verification attempts by result",
		},
		[]string{"result"},
	)

	gatewayDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_request_duration_seconds",
			Help:    "Payment gateway request duration",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
		[]string{"operation"},
	)

	activeHolds = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "reservation_holds_total",
			Help: "Current reservation holds per event and tier",
		},
		[]string{"event_id", "tier"},
	)
)

func TrackTicketIssued(eventID, tier string) {
	ticketsIssued.WithLabelValues(eventID, tier).Inc()
}

func TrackPurchase(operation, result string) {
	purchaseOps.WithLabelValues(operation, result).Inc()
}

func TrackVerification(result string) {
	verificationOps.WithLabelValues(result).Inc()
}

func ObserveGateway(operation string, seconds float64) {
	gatewayDuration.WithLabelValues(operation).Observe(seconds)
}

// Monitor samples reservation state out of Redis on a fixed interval.
type Monitor struct {
	redis *redis.Client
}

func NewMonitor(redisClient *redis.Client) *Monitor {
	return &Monitor{redis: redisClient}
}

func (m *Monitor) CollectLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.collectHoldMetrics(ctx)
		}
	}
}

func (m *Monitor) collectHoldMetrics(ctx context.Context) {
	keys, err := m.redis.Keys(ctx, "holds:*").Result()
	if err != nil {
		return
	}
	for _, key := range keys {
		// Key layout: holds:{event_id}:{tier}
		parts := strings.SplitN(key, ":", 3)
		if len(parts) != 3 {
			continue
		}
		count, err := m.redis.ZCard(ctx, key).Result()
		if err != nil {
			continue
		}
		activeHolds.WithLabelValues(parts[1], parts[2]).Set(float64(count))
	}
}
