package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/agilestore/agilestore-backend/api/controllers"
	"github.com/agilestore/agilestore-backend/api/middleware"
	"github.com/agilestore/agilestore-backend/internal/catalog"
	checkoutsvc "github.com/agilestore/agilestore-backend/internal/checkout"
	"github.com/agilestore/agilestore-backend/internal/content"
	"github.com/agilestore/agilestore-backend/internal/customers"
	"github.com/agilestore/agilestore-backend/internal/invoices"
	ordersvc "github.com/agilestore/agilestore-backend/internal/orders"
	subsvc "github.com/agilestore/agilestore-backend/internal/subscriptions"
	midtranswebhook "github.com/agilestore/agilestore-backend/internal/webhooks/midtrans"
	"github.com/agilestore/agilestore-backend/pkg/auth/session"
	"github.com/agilestore/agilestore-backend/pkg/config"
	"github.com/agilestore/agilestore-backend/pkg/db"
	"github.com/agilestore/agilestore-backend/pkg/enums"
	"github.com/agilestore/agilestore-backend/pkg/logger"
	"github.com/agilestore/agilestore-backend/pkg/redis"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

// RouterParams bundles everything the HTTP surface depends on.
type RouterParams struct {
	Config        *config.Config
	Logger        *logger.Logger
	DB            db.Pinger
	Redis         *redis.Client
	Sessions      sessionManager
	Catalog       catalog.Service
	Content       content.Service
	Customers     customers.Service
	Checkout      checkoutsvc.Service
	Orders        ordersvc.Service
	Subscriptions subsvc.Service
	Invoices      invoices.Service
	MidtransHook  *midtranswebhook.Service
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
		middleware.Locale(logg),
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

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, p.DB, p.Redis, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Storefront reads, no auth.
		r.Get("/products", controllers.ListProducts(p.Catalog, logg))
		r.Get("/products/{code}", controllers.GetProduct(p.Catalog, logg))
		r.Get("/sections/{key}", controllers.GetSection(p.Content, logg))
		r.Post("/translate-batch", controllers.TranslateBatch(p.Content, logg))

		r.Post("/webhooks/midtrans", controllers.MidtransWebhook(p.MidtransHook, logg))

		r.Route("/auth", func(r chi.Router) {
			r.Use(middleware.Idempotency(p.Redis, logg))
			r.With(middleware.AuthRateLimit(loginPolicy, p.Redis, logg)).Post("/login", controllers.Login(p.Customers, logg))
			r.With(middleware.AuthRateLimit(registerPolicy, p.Redis, logg)).Post("/register", controllers.Register(p.Customers, logg))
			r.Post("/refresh", controllers.Refresh(p.Customers, logg))
			r.With(middleware.AuthRateLimit(loginPolicy, p.Redis, logg)).Post("/password/reset", controllers.RequestPasswordReset(p.Customers, logg))
			r.Post("/password/reset/confirm", controllers.ConfirmPasswordReset(p.Customers, logg))
			r.With(middleware.Auth(cfg.JWT, p.Sessions, logg)).Post("/logout", controllers.Logout(p.Customers, logg))
		})

		// Guest-capable: checkout works without an account. The guard check
		// accepts a guest email too.
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.JWT, p.Sessions, logg))
			r.With(middleware.Idempotency(p.Redis, logg)).Post("/orders", controllers.SubmitOrder(p.Checkout, logg))
			r.Get("/subscriptions/check", controllers.CheckSubscription(p.Subscriptions, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, p.Sessions, logg))

			r.Route("/customer", func(r chi.Router) {
				r.Get("/me", controllers.Me(p.Customers, logg))
				r.Patch("/me", controllers.UpdateProfile(p.Customers, logg))
				r.Post("/password", controllers.ChangePassword(p.Customers, logg))
				r.Post("/password/set", controllers.SetPassword(p.Customers, logg))
				r.Get("/subscriptions", controllers.ListSubscriptions(p.Subscriptions, logg))
				r.Get("/invoices", controllers.ListInvoices(p.Orders, logg))
			})

			idem := middleware.Idempotency(p.Redis, logg)
			r.With(idem).Post("/orders/renew", controllers.SubmitOrderIntent(p.Checkout, logg, enums.OrderIntentRenew))
			r.With(idem).Post("/orders/upgrade", controllers.SubmitOrderIntent(p.Checkout, logg, enums.OrderIntentUpgrade))
			r.With(idem).Post("/orders/addon", controllers.SubmitOrderIntent(p.Checkout, logg, enums.OrderIntentAddon))

			r.Route("/orders/{id}", func(r chi.Router) {
				r.Get("/", controllers.GetOrder(p.Orders, logg))
				r.Post("/refresh-status", controllers.RefreshOrderStatus(p.Orders, logg))
				r.Get("/invoice", controllers.DownloadInvoice(p.Invoices, logg))
			})
		})
	})

	return r
}
