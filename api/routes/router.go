package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rematter-io/rematter-backend/api/controllers"
	"github.com/rematter-io/rematter-backend/api/middleware"
	"github.com/rematter-io/rematter-backend/internal/authz"
	"github.com/rematter-io/rematter-backend/pkg/config"
	"github.com/rematter-io/rematter-backend/pkg/enums"
	"github.com/rematter-io/rematter-backend/pkg/logger"
	"github.com/rematter-io/rematter-backend/pkg/metrics"
	"github.com/rematter-io/rematter-backend/pkg/redis"
)

// Store covers the redis operations the middleware chain needs.
type Store interface {
	redis.IdempotencyStore
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Deps carries everything the router needs to assemble the HTTP surface.
type Deps struct {
	Config  *config.Config
	Logger  *logger.Logger
	Redis   Store
	Metrics *metrics.HTTPMetrics

	Auth     *controllers.AuthController
	Products *controllers.ProductsController
	Orders   *controllers.OrdersController
	Admin    *controllers.AdminController
	Health   *controllers.HealthController
}

// New assembles the chi router with the full middleware chain.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer(deps.Logger))
	r.Use(middleware.RequestID(deps.Logger))
	r.Use(middleware.Logging(deps.Logger))
	r.Use(middleware.Metrics(deps.Metrics))
	r.Use(middleware.CORS(deps.Config.App))

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", deps.Health.Live)
		r.Get("/ready", deps.Health.Ready)
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	requireAuth := middleware.Auth(deps.Config.JWT, deps.Logger)
	idempotency := middleware.Idempotency(deps.Config.Idempotency, deps.Redis, deps.Logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(middleware.AuthRateLimit(deps.Config.AuthRateLimit, deps.Redis, deps.Logger))
			r.With(idempotency).Post("/register", deps.Auth.Register)
			r.Post("/login", deps.Auth.Login)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", deps.Products.List)
			r.Get("/{productId}", deps.Products.Get)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.With(middleware.RequireAction(deps.Logger, authz.ActionManageProducts)).
					Post("/", deps.Products.Create)
				r.With(middleware.RequireRole(deps.Logger, enums.UserRoleSeller, enums.UserRoleAdmin)).
					Put("/{productId}", deps.Products.Update)
				r.With(middleware.RequireRole(deps.Logger, enums.UserRoleSeller, enums.UserRoleAdmin)).
					Delete("/{productId}", deps.Products.Delete)
			})
		})

		r.Route("/seller", func(r chi.Router) {
			r.Use(requireAuth)
			r.With(middleware.RequireAction(deps.Logger, authz.ActionManageProducts)).
				Get("/products", deps.Products.MyListings)
			r.With(middleware.RequireAction(deps.Logger, authz.ActionViewSellerOrders)).
				Get("/orders", deps.Orders.SellerOrders)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(requireAuth)
			r.With(middleware.RequireAction(deps.Logger, authz.ActionPlaceOrder), idempotency).
				Post("/", deps.Orders.Place)
			r.With(middleware.RequireAction(deps.Logger, authz.ActionViewOwnOrders, authz.ActionViewSellerOrders)).
				Get("/", deps.Orders.List)
			r.Get("/{orderId}", deps.Orders.Get)
			r.Get("/{orderId}/transaction", deps.Orders.GetTransaction)
			r.With(middleware.RequireAction(deps.Logger, authz.ActionUpdateOrderStatus)).
				Put("/{orderId}", deps.Orders.UpdateStatus)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(requireAuth, middleware.RequireAction(deps.Logger, authz.ActionViewAdminPanel))
			r.Get("/stats", deps.Admin.Stats)
			r.Get("/users", deps.Admin.ListUsers)
			r.Get("/orders", deps.Admin.ListOrders)
			r.With(middleware.RequireAction(deps.Logger, authz.ActionDecideTransaction)).
				Put("/transactions/{transactionId}", deps.Admin.DecideTransaction)
		})
	})

	return r
}
