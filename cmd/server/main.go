package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/openclaw/dailyflows-gateway-go/internal/config"
	"github.com/openclaw/dailyflows-gateway-go/internal/database"
	"github.com/openclaw/dailyflows-gateway-go/internal/gateway"
	"github.com/openclaw/dailyflows-gateway-go/internal/gatewaycfg"
	"github.com/openclaw/dailyflows-gateway-go/internal/handler"
	"github.com/openclaw/dailyflows-gateway-go/internal/inbound"
	"github.com/openclaw/dailyflows-gateway-go/internal/jobs"
	"github.com/openclaw/dailyflows-gateway-go/internal/middleware"
	"github.com/openclaw/dailyflows-gateway-go/internal/outbound"
	"github.com/openclaw/dailyflows-gateway-go/internal/pairing"
	"github.com/openclaw/dailyflows-gateway-go/internal/redis"
	"github.com/openclaw/dailyflows-gateway-go/internal/repository"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	deliveryLog := repository.DeliveryLogRepository(repository.NoopDeliveryLog{})
	if cfg.DeliveryLogEnabled() {
		db, err := database.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
		if err := db.Ping(ctx); err != nil {
			cancel()
			log.Fatal().Err(err).Msg("failed to ping database")
		}
		if err := db.EnsureSchema(ctx); err != nil {
			cancel()
			log.Fatal().Err(err).Msg("failed to ensure database schema")
		}
		cancel()
		log.Info().Msg("database connected, delivery log enabled")

		deliveryLog = repository.NewDeliveryLogRepository(db.DB)
	}

	sessions := gateway.Sessions(gateway.NewMemorySessions())
	rateLimiter := middleware.Limiter(middleware.NewRateLimiter())
	if cfg.RedisURL != "" {
		redisClient, err := redis.NewClient(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
		log.Info().Msg("redis connected")

		sessions = gateway.NewRedisSessions(redisClient, 0)
		rateLimiter = middleware.NewRedisRateLimiter(redisClient.Client)
	}

	store := gatewaycfg.NewStore(cfg.ConfigPath)
	registry := pairing.NewRegistry(config.PairingTTL)

	outboundClient := outbound.NewClient(&http.Client{Timeout: config.OutboundRequestTimeout})
	sender := outbound.NewService(store, outboundClient, deliveryLog)
	processor := inbound.NewProcessor(
		gateway.StaticRouter{AgentID: cfg.AgentID},
		sessions,
		gateway.LogDispatcher{},
		sender,
	)

	webhookHandler := handler.NewWebhookHandler(store, processor, deliveryLog)
	pairingHandler := handler.NewPairingHandler(registry, store)
	unpairHandler := handler.NewUnpairHandler(store)
	statusHandler := handler.NewStatusHandler(store)

	pairRateLimit := middleware.NewIPRateLimitMiddleware(rateLimiter, cfg.PairRateLimitPerMin, "pair")
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(0)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
	r.Use(bodyLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})

	r.Route("/dailyflows", func(r chi.Router) {
		r.Get("/status", statusHandler.Status)
		r.Group(func(r chi.Router) {
			r.Use(pairRateLimit.Handler)
			r.Get("/pair", pairingHandler.Issue)
			r.Post("/pair", pairingHandler.Confirm)
			r.Post("/unpair", unpairHandler.Unpair)
		})
	})

	// The webhook path is configurable at runtime, so the webhook handler
	// claims everything no explicit route matched.
	r.NotFound(webhookHandler.ServeHTTP)

	cleanupJob := jobs.NewCleanupJob(registry, deliveryLog, config.CleanupJobInterval)
	cleanupJob.Start()
	defer cleanupJob.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: 0,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
