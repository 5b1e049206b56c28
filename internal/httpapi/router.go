package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Allliance/content-rating/internal/auth"
	"github.com/Allliance/content-rating/internal/cachex"
	"github.com/Allliance/content-rating/internal/dbx"
	"github.com/Allliance/content-rating/internal/ratings"
)

// Deps are the components the HTTP surface wires together — everything
// downstream of C5/C6/C7 plus the thin auth collaborator.
type Deps struct {
	Store   *ratings.Store
	Ingest  *ratings.IngestService
	Query   *ratings.QueryService
	Users   *auth.UserStore
	Tokens  *auth.TokenManager
	DB      *dbx.DB
	Cache   cachex.Cache

	CORSAllowedOrigins []string
	IngestRateRPS      float64
	IngestRateBurst    int
}

// NewRouter builds the full chi router for §6's HTTP surface: the three
// pipeline routes, the thin external collaborators, and health/metrics.
// Route grouping and middleware stacking follow the teacher's
// chi_router.go SetupChi pattern, trimmed to this service's routes.
func NewRouter(deps Deps) http.Handler {
	content := &contentHandlers{ingest: deps.Ingest, query: deps.Query, store: deps.Store}
	authH := &authHandlers{users: deps.Users, tokens: deps.Tokens}
	health := &healthHandlers{db: deps.DB, cache: deps.Cache}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger)
	r.Use(corsMiddleware(deps.CORSAllowedOrigins))

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Get("/live", health.live)
		r.Get("/ready", health.ready)
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.Use(authRateLimiter())
		r.Post("/register", authH.register)
		r.Post("/token", authH.token)
		r.Post("/token/refresh", authH.refresh)
	})

	r.Route("/contents", func(r chi.Router) {
		r.Use(auth.Require(deps.Tokens))
		r.Get("/", content.list)
		r.Get("/{id}", content.detail)
		r.Post("/create", content.create)
		r.With(ingestRateLimiter(deps.IngestRateRPS, deps.IngestRateBurst)).Post("/rate", content.rate)
	})

	return r
}
