package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/haven-platform/gateway/api"
	"github.com/haven-platform/gateway/auth"
	"github.com/haven-platform/gateway/auth/provider"
	"github.com/haven-platform/gateway/backend"
	"github.com/haven-platform/gateway/config"
	"github.com/haven-platform/gateway/internal/audit"
	"github.com/haven-platform/gateway/internal/metrics"
	"github.com/haven-platform/gateway/mongodb"
	"github.com/haven-platform/gateway/registration"
	"github.com/haven-platform/gateway/session"

	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		l := zerolog.New(os.Stdout).With().Timestamp().Logger()
		l.Fatal().Err(err).Msg("Failed to load configuration")
	}

	initLogger(cfg)
	log.Info().
		Str("http_port", cfg.HTTPPort).
		Str("backend", cfg.BackendBaseURL).
		Str("session_backend", cfg.SessionBackend).
		Str("oauth_mode", cfg.OAuthMode).
		Msg("Starting haven-gateway")

	metrics.InitCustomMetrics(prometheus.DefaultRegisterer)

	ctx := context.Background()

	if cfg.AuditEnabled {
		if err := mongodb.InitMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName); err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize MongoDB connection")
		}
		db, err := mongodb.GetDatabase()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to get MongoDB database")
		}
		recorder, err := mongodb.NewAuditRepositoryMongo(ctx, db)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize audit repository")
		}
		audit.SetRecorder(recorder)
		defer func() {
			if err := mongodb.Disconnect(context.Background()); err != nil {
				log.Warn().Err(err).Msg("MongoDB disconnect failed")
			}
		}()
	}

	store := newSessionStore(cfg)

	be := backend.New(cfg.BackendBaseURL, cfg.BackendTimeout(), cfg.SubmitTimeout())
	limiter := auth.NewRateLimiter(cfg.RateLimitMaxAttempts, cfg.RateLimitWindow())
	defer limiter.Stop()

	providers := provider.NewRegistry(
		provider.NewGoogle(cfg.GoogleClientID),
		provider.NewFacebook(cfg.FacebookClientID),
	)

	authSvc := auth.NewService(cfg, be, limiter, providers)
	regSvc := registration.NewService(be)

	e := api.New(cfg, store, authSvc, regSvc).NewEcho()

	go func() {
		if err := e.Start(":" + cfg.HTTPPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()
	log.Info().Str("addr", ":"+cfg.HTTPPort).Msg("HTTP server listening")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	log.Info().Msg("haven-gateway stopped")
}

func initLogger(cfg *config.GatewayConfig) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
		log.Warn().Str("configured_log_level", cfg.LogLevel).Msg("Invalid LOG_LEVEL configured, defaulting to 'info'")
	}
	zerolog.SetGlobalLevel(level)

	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}
}

func newSessionStore(cfg *config.GatewayConfig) session.Store {
	switch cfg.SessionBackend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			log.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("Failed to connect to Redis")
		}
		return session.NewRedisStore(client, cfg.SessionTimeout())
	default:
		return session.NewMemoryStore(cfg.SessionTimeout())
	}
}
