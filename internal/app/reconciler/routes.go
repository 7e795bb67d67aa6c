package reconciler

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	// Регистрация swagger-описания для /docs.
	_ "github.com/magabrotheeeer/rental-ledger/docs"
	"github.com/magabrotheeeer/rental-ledger/internal/config"
	"github.com/magabrotheeeer/rental-ledger/internal/http/handlers/billing/settle"
	"github.com/magabrotheeeer/rental-ledger/internal/http/handlers/health"
	"github.com/magabrotheeeer/rental-ledger/internal/http/handlers/lease/reconcile"
	"github.com/magabrotheeeer/rental-ledger/internal/http/handlers/notification/list"
	"github.com/magabrotheeeer/rental-ledger/internal/http/handlers/payment/proofupload"
	"github.com/magabrotheeeer/rental-ledger/internal/http/handlers/payment/review"
	"github.com/magabrotheeeer/rental-ledger/internal/http/handlers/subscription/active"
	"github.com/magabrotheeeer/rental-ledger/internal/http/handlers/subscription/cancel"
	"github.com/magabrotheeeer/rental-ledger/internal/http/handlers/subscription/checkout"
	"github.com/magabrotheeeer/rental-ledger/internal/http/handlers/subscription/confirm"
	"github.com/magabrotheeeer/rental-ledger/internal/http/middlewarectx"
)

// Services обработчики бизнес-логики, которые обслуживает HTTP API.
type Services struct {
	Subscription interface {
		checkout.Service
		confirm.Service
		cancel.Service
		active.Service
	}
	Lease   reconcile.Service
	Billing settle.Service
	Proof   interface {
		proofupload.Service
		review.Service
	}
	Inbox list.Inbox
	DB    health.Pinger
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg *config.Config, svc Services) {
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
	)

	r.Get("/health", health.New(logger, svc.DB).ServeHTTP)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewarectx.RateLimitMiddleware(logger, cfg.RateLimit, cfg.RateBurst))

		r.Post("/subscriptions/checkout", checkout.New(logger, svc.Subscription).ServeHTTP)
		r.Post("/subscriptions/cancel", cancel.New(logger, svc.Subscription).ServeHTTP)
		r.Get("/subscriptions/active/{landlord_id}", active.New(logger, svc.Subscription).ServeHTTP)
		r.Post("/payments/proof", proofupload.New(logger, svc.Proof, cfg.MaxUploadSize).ServeHTTP)
		r.Post("/payments/{id}/{action}", review.New(logger, svc.Proof).ServeHTTP)
		r.Get("/notifications/{user_id}", list.New(logger, svc.Inbox).ServeHTTP)

		// Обратные вызовы платёжного шлюза
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.VerifySignature(logger, cfg.WebhookSecret, cfg.MaxCallbackSize))
			r.Post("/subscriptions/confirm", confirm.New(logger, svc.Subscription).ServeHTTP)
			r.Post("/leases/{agreement_id}/charges/confirm", reconcile.New(logger, svc.Lease).ServeHTTP)
			r.Post("/billing/settle", settle.New(logger, svc.Billing).ServeHTTP)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
