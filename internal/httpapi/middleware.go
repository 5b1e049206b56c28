package httpapi

import (
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"golang.org/x/time/rate"

	"github.com/Allliance/content-rating/internal/logging"
)

// corsMiddleware mirrors the teacher's go-chi/cors wiring, allowing the
// origins listed in configuration (CORS_ORIGINS, default "*").
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           300,
	})
}

// requestLogger logs each request at info level with its request id,
// method, path, status, and duration — the request-scoped counterpart to
// the teacher's RequestIDWithLogging.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		requestID := chimiddleware.GetReqID(r.Context())

		next.ServeHTTP(ww, r)

		logging.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

// ingestRateLimiter bounds the rate-endpoint's request plane, distinct from
// the admission-weight algorithm, which is a data-plane defense (§9's
// DOMAIN STACK note on golang.org/x/time/rate as defense-in-depth).
func ingestRateLimiter(rps float64, burst int) func(http.Handler) http.Handler {
	if rps <= 0 {
		rps = 50
	}
	if burst <= 0 {
		burst = 100
	}
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Retry-After", "1")
				http.Error(w, `{"error":"too many requests"}`, http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// authRateLimiter is a per-IP httprate limiter for the unauthenticated
// /auth/* endpoints, matching the teacher's RateLimitAuth endpoint-specific
// middleware.
func authRateLimiter() func(http.Handler) http.Handler {
	return httprate.LimitByIP(20, time.Minute)
}
