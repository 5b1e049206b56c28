package supervisor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTreeConfig(t *testing.T) {
	cfg := DefaultTreeConfig()
	assert.Equal(t, 5.0, cfg.FailureThreshold)
	assert.Equal(t, 30.0, cfg.FailureDecay)
	assert.Equal(t, 15*time.Second, cfg.FailureBackoff)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestNewAppliesDefaultsForZeroConfig(t *testing.T) {
	tree := New("test-tree", TreeConfig{})
	require.NotNil(t, tree)
	require.NotNil(t, tree.root)
}

func TestTreeServeStopsOnContextCancel(t *testing.T) {
	tree := New("test-tree", DefaultTreeConfig())

	started := make(chan struct{})
	tree.Add(NewRunFunc("probe", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- tree.Serve(ctx) }()

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("supervised service never started")
	}

	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("supervisor tree did not stop after context cancellation")
	}
}
