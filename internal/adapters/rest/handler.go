package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ewilliams-labs/moodmix/internal/core/domain"
)

// Service is the recommendation service as seen by the HTTP layer.
type Service interface {
	Recommend(input domain.EmotionInput, k int) (domain.RecommendationResult, error)
	RecommendForText(ctx context.Context, text string, k int) (domain.EmotionVector, domain.RecommendationResult, error)
	SaveToLibrary(ctx context.Context, accessToken string, trackURIs []string) error
	AuthorizationURL(state string) (string, error)
	History(ctx context.Context, limit int) ([]domain.HistoryEntry, error)
}

// ReloadFunc rebuilds the catalog and reports how many tracks it now holds.
type ReloadFunc func(ctx context.Context) (int, error)

// ReadyFunc reports whether the dependencies the API needs are reachable.
type ReadyFunc func(ctx context.Context) error

// Options configure the HTTP layer. Zero values select defaults.
type Options struct {
	DefaultRecommendations int
	MaxRecommendations     int
	CORSAllowedOrigins     []string
	RateLimitRequests      int
	RateLimitWindow        time.Duration
	Reload                 ReloadFunc
	Ready                  ReadyFunc
}

// Handler manages the HTTP interface for our application.
type Handler struct {
	svc    Service
	opts   Options
	logger *zap.Logger
	router chi.Router
}

// NewHandler initializes the HTTP adapter and sets up routes.
func NewHandler(svc Service, opts Options, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxRecommendations <= 0 {
		opts.MaxRecommendations = 100
	}
	if opts.DefaultRecommendations <= 0 {
		opts.DefaultRecommendations = min(10, opts.MaxRecommendations)
	}

	h := &Handler{
		svc:    svc,
		opts:   opts,
		logger: logger,
		router: chi.NewRouter(),
	}

	// Register Routes
	h.routes()

	return h
}

// ServeHTTP satisfies the http.Handler interface.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// routes defines the mapping between URLs and methods.
func (h *Handler) routes() {
	r := h.router
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(corsMiddleware(h.opts.CORSAllowedOrigins))

	// Health Check
	r.Get("/health", h.HealthCheck)
	r.Get("/ready", h.ReadyCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(rateLimitMiddleware(h.opts.RateLimitRequests, h.opts.RateLimitWindow))

		// Recommendations
		r.Post("/recommend-songs", h.RecommendSongs)
		r.Post("/recommend-from-text", h.RecommendFromText)
		r.Get("/history", h.History)

		// Music library
		r.Post("/save-to-spotify", h.SaveToSpotify)
		r.Get("/spotify-auth-url", h.SpotifyAuthURL)

		// Catalog
		r.Post("/catalog/reload", h.ReloadCatalog)
	})
}

// HealthCheck is a simple endpoint to verify the API is running.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "moodmix is live"})
}

// ReadyCheck reports whether the service can serve traffic.
func (h *Handler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	if h.opts.Ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := h.opts.Ready(ctx); err != nil {
			h.logger.Warn("readiness check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
