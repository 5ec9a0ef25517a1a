package cmd

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	pubnub "github.com/pubnub/go/v7"

	"github.com/Jahmax1/Dragotix/config"
	"github.com/Jahmax1/Dragotix/internal/handlers"
	"github.com/Jahmax1/Dragotix/internal/services"
	"github.com/Jahmax1/Dragotix/internal/services/payment/stripe"
	"github.com/Jahmax1/Dragotix/internal/services/proof"
	"github.com/Jahmax1/Dragotix/internal/store"
	"github.com/Jahmax1/Dragotix/monitoring"
	"github.com/Jahmax1/Dragotix/security"
	"github.com/Jahmax1/Dragotix/utils"

	_ "github.com/Jahmax1/Dragotix/migrations"
)

func Start() error {
	app := pocketbase.New()

	cfg := config.LoadConfig()

	redisClient := utils.NewRedisClient(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
	defer redisClient.Close()

	codec, err := newProofCodec(cfg)
	if err != nil {
		return err
	}

	notifier := newNotifier(cfg)

	gateway := stripe.New(&stripe.Config{
		SecretKey: cfg.StripeSecretKey,
		BaseURL:   cfg.StripeBaseURL,
		Timeout:   cfg.GatewayTimeout,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize services
	st := store.NewPB(app)
	reservations := services.NewReservationService(redisClient, cfg.ReservationTTL)
	eventService := services.NewEventService(st, redisClient)
	ticketService := services.NewTicketService(st, gateway, reservations, codec, notifier, cfg)
	verifyService := services.NewVerifyService(st, codec, notifier)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(app)
	eventHandler := handlers.NewEventHandler(eventService)
	ticketHandler := handlers.NewTicketHandler(ticketService)
	verifyHandler := handlers.NewVerifyHandler(verifyService)

	limiter := security.NewRateLimiter(redisClient, cfg.RateLimitPerMinute)

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: true,
	})

	// Start background tasks
	go reservations.PurgeLoop(ctx, cfg.ReservationPurgeTick)
	if cfg.EnableMetrics {
		monitor := monitoring.NewMonitor(redisClient)
		go monitor.CollectLoop(ctx, cfg.ReservationPurgeTick)
	}

	// Setup graceful shutdown
	go handleShutdown(cancel)

	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		if err := eventService.SyncFeatured(ctx); err != nil {
			slog.Warn("Featured events cache sync failed", "error", err)
		}

		// Auth endpoints
		e.Router.POST("/api/auth/register", authHandler.Register)
		e.Router.POST("/api/auth/login", authHandler.Login)
		e.Router.POST("/api/auth/check-role", authHandler.CheckRole)

		// Event endpoints
		e.Router.GET("/api/events", eventHandler.List).Bind(apis.RequireAuth())
		e.Router.GET("/api/events/{id}", eventHandler.Get).Bind(apis.RequireAuth())
		e.Router.POST("/api/events/create", eventHandler.Create).Bind(apis.RequireAuth())

		// Ticket endpoints
		e.Router.POST("/api/tickets/buy", ticketHandler.Buy).
			Bind(apis.RequireAuth()).
			BindFunc(limiter.AntiBot()).
			BindFunc(limiter.Limit())
		e.Router.POST("/api/tickets/confirm-ticket", ticketHandler.Confirm).
			Bind(apis.RequireAuth()).
			BindFunc(limiter.Limit())
		e.Router.GET("/api/tickets/my-tickets", ticketHandler.MyTickets).Bind(apis.RequireAuth())
		e.Router.GET("/api/tickets/event/{eventId}", ticketHandler.EventTickets).Bind(apis.RequireAuth())
		e.Router.POST("/api/tickets/{ticketId}/cancel", ticketHandler.Cancel).Bind(apis.RequireAuth())

		// Verification endpoints
		e.Router.POST("/api/tickets/verify", verifyHandler.Verify).
			Bind(apis.RequireAuth()).
			BindFunc(limiter.Limit())
		e.Router.POST("/api/ticket-verification/verify", verifyHandler.Verify).
			Bind(apis.RequireAuth()).
			BindFunc(limiter.Limit())

		// Health check
		e.Router.GET("/health", func(e *core.RequestEvent) error {
			if err := utils.RedisHealthCheck(redisClient); err != nil {
				return e.JSON(503, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
			return e.JSON(200, map[string]string{"status": "healthy"})
		})

		if cfg.EnableMetrics {
			e.Router.GET("/metrics", func(e *core.RequestEvent) error {
				promhttp.Handler().ServeHTTP(e.Response, e.Request)
				return nil
			})
		}

		log.Println("Server routes registered")

		setupEventHooks(app, eventService)

		return e.Next()
	})

	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
	return nil
}

func newProofCodec(cfg *config.Config) (*proof.Codec, error) {
	key := cfg.ProofSigningKey
	if key == "" {
		if cfg.Environment != "development" {
			return nil, errors.New("PROOF_SIGNING_KEY must be set outside development")
		}
		slog.Warn("PROOF_SIGNING_KEY not set, using development default")
		key = "dev-signing-key"
	}
	return proof.NewCodec(key)
}

func newNotifier(cfg *config.Config) services.Notifier {
	if cfg.PubNubPublishKey == "" || cfg.PubNubSubscribeKey == "" {
		slog.Warn("PubNub keys not configured, realtime notifications disabled")
		return services.NopNotifier{}
	}

	pnConfig := pubnub.NewConfigWithUserId(pubnub.UserId(cfg.PubNubUserID))
	pnConfig.PublishKey = cfg.PubNubPublishKey
	pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
	pnConfig.SecretKey = cfg.PubNubSecretKey

	return services.NewPubNubNotifier(pubnub.NewPubNub(pnConfig))
}

// setupEventHooks keeps the featured events cache aligned with record
// changes made through the admin UI or the API.
func setupEventHooks(app *pocketbase.PocketBase, eventService *services.EventService) {
	app.OnRecordAfterCreateSuccess("events").BindFunc(func(e *core.RecordEvent) error {
		if e.Record.GetBool("featured") {
			eventService.CacheFeatured(context.Background(), e.Record.Id)
		}
		return e.Next()
	})

	app.OnRecordAfterUpdateSuccess("events").BindFunc(func(e *core.RecordEvent) error {
		ctx := context.Background()
		if e.Record.GetBool("featured") {
			eventService.CacheFeatured(ctx, e.Record.Id)
		} else {
			eventService.UncacheFeatured(ctx, e.Record.Id)
		}
		return e.Next()
	})

	app.OnRecordAfterDeleteSuccess("events").BindFunc(func(e *core.RecordEvent) error {
		eventService.UncacheFeatured(context.Background(), e.Record.Id)
		return e.Next()
	})
}

// handleShutdown handles graceful shutdown
func handleShutdown(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Println("Shutdown signal received, cleaning up...")
	cancel()
}
