// Command server runs the HTTP API for content ingestion, querying, and
// account management (§6): the Rating Service (C5), the Query Service
// (C7), and the thin /auth/* collaborator, fronted by a chi router and
// supervised by a suture tree alongside the server's own lifecycle.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Allliance/content-rating/internal/auth"
	"github.com/Allliance/content-rating/internal/cachex"
	"github.com/Allliance/content-rating/internal/config"
	"github.com/Allliance/content-rating/internal/dbx"
	"github.com/Allliance/content-rating/internal/eventstream"
	"github.com/Allliance/content-rating/internal/httpapi"
	"github.com/Allliance/content-rating/internal/logging"
	"github.com/Allliance/content-rating/internal/ratings"
	"github.com/Allliance/content-rating/internal/supervisor"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	logging.Info().Msg("starting content-rating server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := dbx.Open(ctx, cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("error closing database")
		}
	}()

	cache, err := cachex.New(cfg.Cache.RedisURL, cfg.Cache.TTL)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer func() {
		if err := cache.Close(); err != nil {
			logging.Error().Err(err).Msg("error closing redis client")
		}
	}()

	publisher, err := eventstream.NewPublisher(cfg.Stream)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to connect to nats")
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logging.Error().Err(err).Msg("error closing event publisher")
		}
	}()

	tokens, err := auth.NewTokenManager(cfg.Security)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to initialize token manager")
	}

	store := ratings.NewStore(db)
	ingest := ratings.NewIngestService(store, publisher, cfg.Rating)
	query := ratings.NewQueryService(store, cache, db, cfg.Rating)
	users := auth.NewUserStore(db)

	router := httpapi.NewRouter(httpapi.Deps{
		Store:              store,
		Ingest:             ingest,
		Query:              query,
		Users:              users,
		Tokens:             tokens,
		DB:                 db,
		Cache:              cache,
		CORSAllowedOrigins: cfg.Server.CORSOrigins,
		IngestRateRPS:      float64(cfg.Rating.RateLimitPerHour) / 3600,
		IngestRateBurst:    50,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	tree := supervisor.New("content-rating-server", supervisor.DefaultTreeConfig())
	tree.Add(supervisor.NewHTTPServerService("http-server", httpServer, 10*time.Second))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", cfg.Server.Addr).Msg("http server starting")
	if err := tree.Serve(ctx); err != nil && ctx.Err() == nil {
		logging.Error().Err(err).Msg("supervisor tree exited with error")
		os.Exit(1)
	}

	logging.Info().Msg("content-rating server stopped gracefully")
}
