// Command seed populates a handful of users and content rows for local
// development, reviving the original's populate_db / default_superuser
// management commands as a single small cmd/* binary (§9, supplemented
// features). It refuses to run outside ENV=development so nobody points it
// at a real database by accident.
package main

import (
	"context"
	"os"

	"github.com/Allliance/content-rating/internal/auth"
	"github.com/Allliance/content-rating/internal/config"
	"github.com/Allliance/content-rating/internal/dbx"
	"github.com/Allliance/content-rating/internal/logging"
	"github.com/Allliance/content-rating/internal/ratings"
)

var demoUsers = []struct {
	username string
	password string
}{
	{"alice", "development-only-password"},
	{"bob", "development-only-password"},
	{"carol", "development-only-password"},
}

var demoContent = []struct {
	title string
	text  string
}{
	{"The Pragmatic Programmer", "A guide to software craftsmanship."},
	{"Clean Architecture", "Boundaries, layers, and dependency rules."},
	{"Designing Data-Intensive Applications", "Reliable, scalable, maintainable systems."},
}

func main() {
	if os.Getenv("ENV") != "development" {
		logging.Fatal().Msg("cmd/seed refuses to run unless ENV=development")
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	ctx := context.Background()

	db, err := dbx.Open(ctx, cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	users := auth.NewUserStore(db)
	store := ratings.NewStore(db)

	for _, u := range demoUsers {
		if _, err := users.Register(ctx, u.username, u.password); err != nil {
			logging.Warn().Err(err).Str("username", u.username).Msg("skipping user, already seeded or invalid")
			continue
		}
		logging.Info().Str("username", u.username).Msg("seeded user")
	}

	for _, c := range demoContent {
		content, err := store.CreateContent(ctx, c.title, c.text)
		if err != nil {
			logging.Warn().Err(err).Str("title", c.title).Msg("skipping content, create failed")
			continue
		}
		logging.Info().Int64("content_id", content.ContentID).Str("title", c.title).Msg("seeded content")
	}

	logging.Info().Msg("seed complete")
}
