package supervisor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// httpServer matches the lifecycle methods of *http.Server, so
// HTTPServerService's Serve depends only on these two methods, the same
// split the teacher's services package uses.
type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// HTTPServerService adapts an *http.Server's blocking ListenAndServe into
// suture's context-aware Serve, so the HTTP API restarts under the same
// policy as every other supervised component.
type HTTPServerService struct {
	server          httpServer
	shutdownTimeout time.Duration
	name            string
}

// NewHTTPServerService wraps server for supervision, shutting it down
// gracefully within shutdownTimeout when its context is canceled.
func NewHTTPServerService(name string, server *http.Server, shutdownTimeout time.Duration) *HTTPServerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &HTTPServerService{server: server, shutdownTimeout: shutdownTimeout, name: name}
}

// Serve implements suture.Service.
func (h *HTTPServerService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
		defer cancel()
		if err := h.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown failed: %w", err)
		}
		<-errCh
		return ctx.Err()
	}
}

// String implements fmt.Stringer so suture's event log names the service.
func (h *HTTPServerService) String() string {
	return h.name
}

// RunFunc adapts any context-driven run loop (the event subscriber's Run
// method, the aggregation worker's drain loop) into suture.Service without
// a dedicated wrapper type per caller.
type RunFunc struct {
	name string
	run  func(context.Context) error
}

// NewRunFunc names and wraps run for supervision.
func NewRunFunc(name string, run func(context.Context) error) *RunFunc {
	return &RunFunc{name: name, run: run}
}

// Serve implements suture.Service.
func (r *RunFunc) Serve(ctx context.Context) error {
	return r.run(ctx)
}

// String implements fmt.Stringer.
func (r *RunFunc) String() string {
	return r.name
}
