package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"storefront-api/internal/audit"
	auditrepo "storefront-api/internal/audit/repository"
	authhandler "storefront-api/internal/auth/handler"
	authservice "storefront-api/internal/auth/service"
	"storefront-api/internal/blocklist"
	"storefront-api/internal/config"
	"storefront-api/internal/db"
	itemhandler "storefront-api/internal/item/handler"
	itemrepo "storefront-api/internal/item/repository"
	"storefront-api/internal/security"
	"storefront-api/internal/server"
	"storefront-api/internal/server/middleware"
	storehandler "storefront-api/internal/store/handler"
	storerepo "storefront-api/internal/store/repository"
	taghandler "storefront-api/internal/tag/handler"
	tagrepo "storefront-api/internal/tag/repository"
	"storefront-api/internal/telemetry/otel"
	userrepo "storefront-api/internal/user/repository"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := zerolog.New(os.Stderr)
		fallback.Fatal().Err(err).Msg("config")
	}

	log := newLogger(cfg)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, "storefront-api", cfg.OTLPInsecure)
	if err != nil {
		log.Fatal().Err(err).Msg("telemetry")
	}
	providers.SetGlobal()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("telemetry shutdown")
		}
	}()

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("database")
	}
	defer database.Close()

	var registry blocklist.Registry
	if cfg.RedisAddr != "" {
		rdb := goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("redis")
		}
		defer rdb.Close()
		registry = blocklist.NewRedis(rdb, cfg.RefreshTTL())
		log.Info().Str("addr", cfg.RedisAddr).Msg("using redis blocklist")
	} else {
		registry = blocklist.NewMemory()
		log.Warn().Msg("using in-memory blocklist; revocations do not survive restarts")
	}

	users := userrepo.NewPostgresRepository(database)
	stores := storerepo.NewPostgresRepository(database)
	items := itemrepo.NewPostgresRepository(database)
	tags := tagrepo.NewPostgresRepository(database)

	auditor := audit.NewLogger(
		auditrepo.NewPostgresRepository(database),
		middleware.ClientIPFromContext,
		log,
	)

	tokens := security.NewTokenProvider(
		[]byte(cfg.JWTSecret),
		cfg.JWTIssuer,
		cfg.AccessTTL(),
		cfg.RefreshTTL(),
	)
	hasher := security.NewHasher(cfg.BcryptCost)

	auth := authservice.NewAuthService(users, hasher, tokens, registry, auditor)

	router := server.NewRouter(log, tokens, registry, server.Handlers{
		Auth:  authhandler.NewHandler(auth),
		Store: storehandler.NewHandler(stores, items, tags),
		Item:  itemhandler.NewHandler(items, stores, tags),
		Tag:   taghandler.NewHandler(tags, items, stores),
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("serve")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
	log.Info().Msg("http server stopped")
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()
	if cfg.Env == "development" {
		log = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}
	return log
}
