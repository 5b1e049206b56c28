// Package supervisor provides the process-lifecycle layer named in
// SPEC_FULL.md's AMBIENT STACK: a suture supervisor tree, adapted from the
// teacher's internal/supervisor/tree.go, that restarts a failed service
// with backoff instead of taking the whole process down with it.
package supervisor

import (
	"context"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"

	"github.com/Allliance/content-rating/internal/logging"
)

// TreeConfig tunes the supervisor's failure-backoff policy.
type TreeConfig struct {
	FailureThreshold float64
	FailureDecay     float64
	FailureBackoff   time.Duration
	ShutdownTimeout  time.Duration
}

// DefaultTreeConfig mirrors suture's own documented defaults.
func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		FailureThreshold: 5,
		FailureDecay:     30,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

// Tree is a single-level supervisor: every service added to it is
// restarted independently on failure, so one misbehaving dependency
// (e.g. a stalled NATS connection) doesn't take the rest of the process
// down with it (§5).
type Tree struct {
	root *suture.Supervisor
}

// New builds a named supervisor tree logging through zerolog via
// sutureslog, the same adapter the teacher uses for its own tree.
func New(name string, cfg TreeConfig) *Tree {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.FailureDecay == 0 {
		cfg.FailureDecay = 30
	}
	if cfg.FailureBackoff == 0 {
		cfg.FailureBackoff = 15 * time.Second
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	scoped := logging.Logger().With().Str("component", name).Logger()
	handler := &sutureslog.Handler{Logger: slog.New(logging.NewSlogHandlerWithLogger(scoped))}
	spec := suture.Spec{
		EventHook:        handler.MustHook(),
		FailureThreshold: cfg.FailureThreshold,
		FailureDecay:     cfg.FailureDecay,
		FailureBackoff:   cfg.FailureBackoff,
		Timeout:          cfg.ShutdownTimeout,
	}

	return &Tree{root: suture.New(name, spec)}
}

// Add registers a service with the tree.
func (t *Tree) Add(svc suture.Service) suture.ServiceToken {
	return t.root.Add(svc)
}

// Serve runs the tree until ctx is canceled, blocking until every
// supervised service has shut down.
func (t *Tree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}
