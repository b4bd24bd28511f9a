package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/practicerx-backend/api/controllers"
	"github.com/angelmondragon/practicerx-backend/api/middleware"
	checkoutsvc "github.com/angelmondragon/practicerx-backend/internal/checkout"
	"github.com/angelmondragon/practicerx-backend/pkg/auth/csrf"
	"github.com/angelmondragon/practicerx-backend/pkg/auth/session"
	"github.com/angelmondragon/practicerx-backend/pkg/config"
	"github.com/angelmondragon/practicerx-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/practicerx-backend/pkg/redis"
)

// CSRFManager issues and validates the per-user checkout CSRF token.
type CSRFManager interface {
	csrf.Validator
	Issue(ctx context.Context, userID string) (string, error)
}

// Deps are the collaborators the HTTP surface needs.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          controllers.Pinger
	Redis       controllers.Pinger
	Idempotency pkgredis.IdempotencyStore
	Sessions    session.AccessSessionChecker
	CSRF        CSRFManager
	Checkout    checkoutsvc.Service
	Gatherer    prometheus.Gatherer
}

func NewRouter(deps Deps) http.Handler {
	cfg, logg := deps.Config, deps.Logger
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"database": deps.DB,
			"redis":    deps.Redis,
		}))
	})

	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Get("/api/public/ping", controllers.PublicPing())

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
		r.Use(middleware.Idempotency(deps.Idempotency, logg))

		r.Get("/ping", controllers.PrivatePing())
		r.Route("/v1", func(r chi.Router) {
			r.Get("/csrf-token", controllers.CSRFToken(deps.CSRF, logg))
			r.Post("/checkout", controllers.Checkout(deps.Checkout, deps.CSRF, logg))
		})
	})

	return r
}
