// Command rating-processor runs the Aggregation Worker (C6): a durable
// JetStream consumer that recomputes a content's weighted rating on every
// batch of new submissions and applies the anomaly-weight penalty to
// bursts of identical-value ratings (§4.6).
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Allliance/content-rating/internal/cachex"
	"github.com/Allliance/content-rating/internal/config"
	"github.com/Allliance/content-rating/internal/dbx"
	"github.com/Allliance/content-rating/internal/eventstream"
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
	logging.Info().Msg("starting content-rating aggregation worker")

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

	// §4.6: the subscriber retries its own connect loop on startup, so a
	// broker that isn't up yet doesn't fail this process immediately.
	subscriber, err := eventstream.NewSubscriber(ctx, cfg.Stream)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to connect to nats")
	}
	defer func() {
		if err := subscriber.Close(); err != nil {
			logging.Error().Err(err).Msg("error closing event subscriber")
		}
	}()

	store := ratings.NewStore(db)
	worker := ratings.NewAggregationWorker(store, cache, cfg.Rating)

	tree := supervisor.New("content-rating-processor", supervisor.DefaultTreeConfig())
	tree.Add(supervisor.NewRunFunc("aggregation-worker", func(ctx context.Context) error {
		return worker.Run(ctx, subscriber)
	}))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("aggregation worker subscribed and running")
	if err := tree.Serve(ctx); err != nil && ctx.Err() == nil {
		logging.Error().Err(err).Msg("supervisor tree exited with error")
		os.Exit(1)
	}

	logging.Info().Msg("content-rating aggregation worker stopped gracefully")
}
