// cmd/server/server.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/codr1/Courtside/internal/api"
	"github.com/codr1/Courtside/internal/api/apiutil"
	"github.com/codr1/Courtside/internal/api/auth"
	"github.com/codr1/Courtside/internal/api/bookings"
	"github.com/codr1/Courtside/internal/api/catalog"
	pricingapi "github.com/codr1/Courtside/internal/api/pricing"
	"github.com/codr1/Courtside/internal/api/waitlist"
	"github.com/codr1/Courtside/internal/booking"
	"github.com/codr1/Courtside/internal/config"
	"github.com/codr1/Courtside/internal/db"
	"github.com/codr1/Courtside/internal/email"
	"github.com/codr1/Courtside/internal/pricing"
	"github.com/codr1/Courtside/internal/queue"
	"github.com/codr1/Courtside/internal/ratelimit"
	"github.com/codr1/Courtside/internal/scheduler"
)

// app holds the long-lived dependencies the routes are built from.
type app struct {
	db        *db.DB
	redis     *redis.Client
	publisher *queue.Publisher
	consumer  *queue.Consumer
	scheduler *scheduler.Service
	limiter   *ratelimit.Limiter
	tokens    *auth.TokenManager
	rules     *pricing.CachedRules
	bookings  *booking.Service

	closeOnce sync.Once
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	tokens, err := auth.NewTokenManager(cfg.App.SecretKey, auth.DefaultTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("APP_SECRET_KEY: %w", err)
	}
	a.tokens = tokens

	database, err := db.NewFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	a.db = database

	var rules pricing.RuleSource = database.Queries
	if cfg.Cache.Enabled() {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := a.redis.Ping(pingCtx).Err(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Cache.RedisAddr).Msg("Redis unreachable, pricing rules will be read from the database until it recovers")
		}
		cancel()
		a.rules = pricing.NewCachedRules(database.Queries, a.redis, cfg.Cache.RulesTTL)
		rules = a.rules
	}

	notifier, err := a.buildNotifier(ctx, cfg)
	if err != nil {
		return nil, err
	}

	a.bookings = booking.NewService(database, pricing.NewEvaluator(rules), notifier, booking.SlotWindow{
		OpenHour:    cfg.Booking.OpenHour,
		CloseHour:   cfg.Booking.CloseHour,
		SlotMinutes: cfg.Booking.SlotMinutes,
	})

	a.scheduler, err = scheduler.New()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	if err := scheduler.RegisterWaitlistExpiry(a.scheduler, log.Logger.WithContext(context.Background()), a.bookings, cfg.Scheduler.WaitlistExpiryCron); err != nil {
		return nil, fmt.Errorf("register waitlist expiry: %w", err)
	}

	a.limiter = ratelimit.New(&ratelimit.Config{Limit: cfg.RateLimit.BookingPerMinute, Window: time.Minute})

	ok = true
	return a, nil
}

// buildNotifier picks the waitlist notification path. With the amqp driver
// the HTTP path only publishes and a consumer in this process sends the mail.
func (a *app) buildNotifier(ctx context.Context, cfg *config.Config) (booking.Notifier, error) {
	n := cfg.Notifications
	switch n.Driver {
	case config.NotifySES:
		sender, err := email.NewSESClient(ctx, n.AWSAccessKeyID, n.AWSSecretAccessKey, n.SESRegion, n.FromAddress)
		if err != nil {
			return nil, fmt.Errorf("create SES client: %w", err)
		}
		return email.NewWaitlistNotifier(sender), nil
	case config.NotifyAMQP:
		var sender email.EmailSender = email.LogSender{From: n.FromAddress}
		if n.SESRegion != "" && n.AWSAccessKeyID != "" {
			ses, err := email.NewSESClient(ctx, n.AWSAccessKeyID, n.AWSSecretAccessKey, n.SESRegion, n.FromAddress)
			if err != nil {
				return nil, fmt.Errorf("create SES client: %w", err)
			}
			sender = ses
		}
		a.publisher = queue.NewPublisher(n.AMQPURL, n.AMQPQueue)
		a.consumer = queue.NewConsumer(n.AMQPURL, n.AMQPQueue, email.NewWaitlistNotifier(sender))
		return a.publisher, nil
	default:
		return email.NewWaitlistNotifier(email.LogSender{From: n.FromAddress}), nil
	}
}

func (a *app) Close() {
	a.closeOnce.Do(func() {
		if a.scheduler != nil {
			if err := a.scheduler.Stop(); err != nil {
				log.Error().Err(err).Msg("Failed to stop scheduler")
			}
		}
		if a.limiter != nil {
			a.limiter.Close()
		}
		if a.publisher != nil {
			if err := a.publisher.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close AMQP publisher")
			}
		}
		if a.redis != nil {
			if err := a.redis.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close Redis client")
			}
		}
		if a.db != nil {
			if err := a.db.Close(); err != nil {
				log.Error().Err(err).Msg("Failed to close database")
			}
		}
	})
}

func newServer(cfg *config.Config, a *app) *http.Server {
	router := http.NewServeMux()

	// Setup middleware chain
	handler := api.ChainMiddleware(
		router,
		api.WithMetrics,
		api.WithAuth(a.tokens),
		api.WithLogging,
		api.WithRecovery,
		api.WithRequestID,
	)

	// Register routes
	registerRoutes(router, cfg, a)

	return &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.App.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func registerRoutes(mux *http.ServeMux, cfg *config.Config, a *app) {
	bookings.InitHandlers(a.bookings)
	waitlist.InitHandlers(a.bookings)
	pricingapi.InitHandlers(a.bookings)
	if a.rules != nil {
		catalog.InitHandlers(a.db, a.bookings, a.rules)
	} else {
		catalog.InitHandlers(a.db, a.bookings, nil)
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		if err := a.db.PingContext(r.Context()); err != nil {
			apiutil.WriteMessage(w, r, http.StatusServiceUnavailable, "Database unavailable")
			return
		}
		apiutil.WriteMessage(w, r, http.StatusOK, "OK")
	})
	if cfg.Features.EnableMetrics {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	limited := func(scope string, h http.HandlerFunc) http.Handler {
		return api.WithRateLimit(a.limiter, scope)(h)
	}

	// Booking routes
	mux.Handle("POST /api/v1/bookings", limited("bookings", bookings.HandleCreate))
	mux.HandleFunc("GET /api/v1/bookings", bookings.HandleListAll)
	mux.HandleFunc("GET /api/v1/bookings/mine", bookings.HandleListMine)
	mux.HandleFunc("GET /api/v1/bookings/stats", bookings.HandleStats)
	mux.HandleFunc("POST /api/v1/bookings/check-availability", bookings.HandleCheckAvailability)
	mux.HandleFunc("GET /api/v1/bookings/{id}", bookings.HandleGet)
	mux.HandleFunc("PUT /api/v1/bookings/{id}/cancel", bookings.HandleCancel)
	mux.HandleFunc("PUT /api/v1/bookings/{id}/status", bookings.HandleUpdateStatus)
	mux.HandleFunc("DELETE /api/v1/bookings/{id}", bookings.HandleDelete)

	// Waitlist routes
	mux.Handle("POST /api/v1/waitlist", limited("waitlist", waitlist.HandleJoin))
	mux.HandleFunc("GET /api/v1/waitlist/mine", waitlist.HandleListMine)

	// Pricing
	mux.HandleFunc("POST /api/v1/pricing/calculate", pricingapi.HandleCalculate)

	// Court routes
	mux.HandleFunc("GET /api/v1/courts", catalog.HandleListCourts)
	mux.HandleFunc("POST /api/v1/courts", catalog.HandleCreateCourt)
	mux.HandleFunc("GET /api/v1/courts/{id}", catalog.HandleGetCourt)
	mux.HandleFunc("PUT /api/v1/courts/{id}", catalog.HandleUpdateCourt)
	mux.HandleFunc("DELETE /api/v1/courts/{id}", catalog.HandleDeleteCourt)
	mux.HandleFunc("GET /api/v1/courts/{id}/slots", catalog.HandleCourtSlots)

	// Coach routes
	mux.HandleFunc("GET /api/v1/coaches", catalog.HandleListCoaches)
	mux.HandleFunc("POST /api/v1/coaches", catalog.HandleCreateCoach)
	mux.HandleFunc("GET /api/v1/coaches/{id}", catalog.HandleGetCoach)
	mux.HandleFunc("PUT /api/v1/coaches/{id}", catalog.HandleUpdateCoach)
	mux.HandleFunc("DELETE /api/v1/coaches/{id}", catalog.HandleDeleteCoach)

	// Equipment routes
	mux.HandleFunc("GET /api/v1/equipment", catalog.HandleListEquipment)
	mux.HandleFunc("POST /api/v1/equipment", catalog.HandleCreateEquipment)
	mux.HandleFunc("GET /api/v1/equipment/{id}", catalog.HandleGetEquipment)
	mux.HandleFunc("PUT /api/v1/equipment/{id}", catalog.HandleUpdateEquipment)
	mux.HandleFunc("DELETE /api/v1/equipment/{id}", catalog.HandleDeleteEquipment)

	// Pricing rule routes
	mux.HandleFunc("GET /api/v1/pricing-rules", catalog.HandleListRules)
	mux.HandleFunc("POST /api/v1/pricing-rules", catalog.HandleCreateRule)
	mux.HandleFunc("GET /api/v1/pricing-rules/{id}", catalog.HandleGetRule)
	mux.HandleFunc("PUT /api/v1/pricing-rules/{id}", catalog.HandleUpdateRule)
	mux.HandleFunc("DELETE /api/v1/pricing-rules/{id}", catalog.HandleDeleteRule)
}
