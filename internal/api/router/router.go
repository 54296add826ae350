package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/omadigital/engage-core/internal/http/handlers"
	httpmiddleware "github.com/omadigital/engage-core/internal/http/middleware"
	"github.com/omadigital/engage-core/internal/webchat"
	"github.com/omadigital/engage-core/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	Webchat            *webchat.Handler
	Experiments        *handlers.ExperimentsHandler
	CTA                *handlers.CTAHandler
	AdminMetrics       *handlers.AdminMetricsHandler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
	AdminToken         string

	// Per-IP guard in front of the whole API. Zero disables it; the chat
	// pipeline still enforces its own per-session budget.
	RateLimitPerSecond float64
	RateLimitBurst     int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}
	if cfg.RateLimitPerSecond > 0 && cfg.RateLimitBurst > 0 {
		r.Use(httpmiddleware.RateLimit(cfg.RateLimitPerSecond, cfg.RateLimitBurst))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.Webchat != nil {
		r.Route("/chat", func(r chi.Router) {
			r.Post("/message", cfg.Webchat.HandleMessage)
			r.Get("/history", cfg.Webchat.HandleHistory)
			r.Post("/satisfaction", cfg.Webchat.HandleSatisfaction)
			r.Get("/ws", cfg.Webchat.HandleWebSocket)
		})
	}

	if cfg.Experiments != nil {
		r.Route("/experiments/{name}", func(r chi.Router) {
			r.Post("/variant", cfg.Experiments.HandleVariant)
			r.Post("/conversion", cfg.Experiments.HandleConversion)
			r.Get("/rate", cfg.Experiments.HandleRate)
		})
	}

	if cfg.CTA != nil {
		r.Post("/cta/{id}/events", cfg.CTA.HandleEvent)
	}

	r.Route("/admin", func(admin chi.Router) {
		admin.Use(httpmiddleware.AdminToken(cfg.AdminToken))
		if cfg.CTA != nil {
			admin.Post("/cta/invalidate", cfg.CTA.HandleInvalidate)
		}
		if cfg.AdminMetrics != nil {
			admin.Get("/chat/metrics", cfg.AdminMetrics.HandleReport)
		}
	})

	return r
}
