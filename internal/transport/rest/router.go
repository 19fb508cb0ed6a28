package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"storefront-api/internal/auth"
	"storefront-api/internal/catalog"
	"storefront-api/internal/order"
	"storefront-api/internal/payment"
	"storefront-api/internal/transport/middleware"
	"storefront-api/internal/transport/swagger"

	"github.com/go-chi/chi"
)

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, allowedOrigins string, authHandler *auth.Handler, catalogHandler *catalog.Handler, orderHandler *order.Handler, paymentHandler *payment.Handler, webhookHandler *payment.WebhookHandler, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	// Apply global middleware
	router.Use(middleware.CORS(allowedOrigins))
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	// Swagger UI route at root
	router.Handle("/swagger/*", swagger.Handler())

	// Mount API under /api/v1 to match OpenAPI basePath
	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Gateway webhook authenticates with its own signature header, not a
		// user token, so it stays outside the auth group.
		if webhookHandler != nil {
			r.Post("/payments/webhook", webhookHandler.HandleWebhook)
		}

		if authHandler != nil {
			r.Route("/auth", func(sr chi.Router) {
				sr.Post("/login", authHandler.Login)
				sr.Post("/refresh", authHandler.RefreshToken)
				sr.Post("/logout", authHandler.Logout)
			})
		}

		// Public catalog routes
		if catalogHandler != nil {
			r.Get("/products", catalogHandler.ListProducts)
			r.Get("/products/{id}", catalogHandler.GetProduct)
		}

		if authHandler != nil {
			// Protected routes that require authentication
			r.Group(func(pr chi.Router) {
				pr.Use(authHandler.AuthMiddleware)

				pr.Get("/users/me", authHandler.GetCurrentUser)

				if orderHandler != nil {
					pr.Route("/orders", func(or chi.Router) {
						or.Post("/", orderHandler.CreateOrder)
						or.Get("/", orderHandler.GetMyOrders)

						or.Group(func(ar chi.Router) {
							ar.Use(authHandler.RequireAdmin)
							ar.Get("/admin/all", orderHandler.GetAllOrders)
							ar.Put("/{id}/status", orderHandler.UpdateOrderStatus)
						})

						or.Get("/{id}", orderHandler.GetOrder)
					})
				}

				if paymentHandler != nil {
					pr.Route("/payments", func(pmr chi.Router) {
						pmr.Post("/create-order", paymentHandler.CreateGatewayOrder)
						pmr.Post("/verify", paymentHandler.VerifyPayment)

						pmr.Group(func(ar chi.Router) {
							ar.Use(authHandler.RequireAdmin)
							ar.Get("/admin/all", paymentHandler.GetAllPayments)
						})
					})
				}
			})
		}
	})
}
