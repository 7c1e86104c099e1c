package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/provenly/backend/api/controllers"
	"github.com/provenly/backend/api/middleware"
	"github.com/provenly/backend/internal/access"
	"github.com/provenly/backend/internal/history"
	"github.com/provenly/backend/internal/holdings"
	"github.com/provenly/backend/internal/identity"
	"github.com/provenly/backend/internal/notifications"
	"github.com/provenly/backend/internal/registry"
	"github.com/provenly/backend/pkg/auth/session"
	"github.com/provenly/backend/pkg/config"
	"github.com/provenly/backend/pkg/db"
	"github.com/provenly/backend/pkg/logger"
	"github.com/provenly/backend/pkg/metrics"
	pkgredis "github.com/provenly/backend/pkg/redis"
)

// Deps bundles everything the HTTP surface needs. Any nil service renders its
// routes as 500s rather than panicking at startup.
type Deps struct {
	Config        *config.Config
	Logger        *logger.Logger
	DB            db.Pinger
	Redis         *pkgredis.Client
	Sessions      session.AccessSessionChecker
	Gatherer      prometheus.Gatherer
	Metrics       *metrics.LedgerMetrics
	Identity      identity.Service
	Registry      registry.Service
	History       history.Service
	Holdings      holdings.Service
	Access        access.Service
	Notifications notifications.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	var cache pkgredis.Pinger
	var idemStore pkgredis.IdempotencyStore
	var limitStore middleware.RateLimiterStore
	if deps.Redis != nil {
		cache = deps.Redis
		idemStore = deps.Redis
		limitStore = deps.Redis
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
		middleware.Metrics(deps.Metrics),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Get("/healthz", controllers.HealthReady(cfg, deps.DB, cache, logg))
	r.Get("/livez", controllers.HealthLive(cfg))

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1/auth", func(r chi.Router) {
		r.With(
			middleware.AuthRateLimit(registerPolicy, limitStore, logg),
			middleware.Idempotency(idemStore, logg),
		).Post("/register", controllers.AuthRegister(deps.Identity, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, limitStore, logg)).Post("/login", controllers.AuthLogin(deps.Identity, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.Identity, cfg.JWT, logg))
		r.Post("/logout", controllers.AuthLogout(deps.Identity, cfg.JWT, logg))
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Route("/v1/items", func(r chi.Router) {
			r.Post("/", controllers.ItemRegister(deps.Registry, logg))
			r.Get("/", controllers.ItemList(deps.Registry, logg))
			r.Route("/{tag}", func(r chi.Router) {
				r.Get("/", controllers.ItemGet(deps.Registry, logg))
				r.Post("/checkpoints", controllers.CheckpointAppend(deps.History, logg))
				r.Get("/history", controllers.CheckpointHistory(deps.History, logg))
				r.Post("/transfer", controllers.ItemTransferCustody(deps.Registry, logg))
				r.Post("/deactivate", controllers.ItemDeactivate(deps.Registry, logg))
			})
		})

		r.Get("/v1/actors/{id}/items", controllers.ActorItems(deps.Holdings, logg))

		r.Route("/v1/notifications", func(r chi.Router) {
			r.Get("/", controllers.NotificationList(deps.Notifications, logg))
			r.Post("/{id}/read", controllers.NotificationMarkRead(deps.Notifications, logg))
			r.Post("/read-all", controllers.NotificationMarkAllRead(deps.Notifications, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdministrator(deps.Access, logg))
			r.Route("/v1/participants", func(r chi.Router) {
				r.Get("/", controllers.ParticipantList(deps.Access, logg))
				r.Post("/{id}/authorize", controllers.ParticipantAuthorize(deps.Access, logg))
				r.Post("/{id}/revoke", controllers.ParticipantRevoke(deps.Access, logg))
			})
			r.Post("/v1/admin/transfer", controllers.AdminTransfer(deps.Access, logg))
		})
	})

	return r
}
