// Package routes defines the API routing configuration.
// It sets up all HTTP routes and their corresponding handlers,
// including middleware and authentication requirements.
package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"purse/internal/handlers"
	"purse/internal/middleware"
	"purse/internal/services/wallet"
	"purse/internal/services/webhook"
)

// Dependencies carries the services the HTTP layer is built on.
type Dependencies struct {
	Wallet       wallet.Service
	Webhook      webhook.Service
	JWTSecret    string
	HealthChecks map[string]handlers.Check
	HealthStats  map[string]handlers.Stats
	// Gatherer backs GET /metrics; nil disables the endpoint.
	Gatherer prometheus.Gatherer
}

// SetupRoutes configures all application routes.
// It groups routes by functionality and applies appropriate middleware.
func SetupRoutes(app *fiber.App, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler(deps.HealthChecks, deps.HealthStats)
	walletHandler := handlers.NewWalletHandler(deps.Wallet)
	webhookHandler := handlers.NewWebhookHandler(deps.Webhook)
	auth := middleware.NewAuthMiddleware(deps.JWTSecret)

	app.Get("/health", healthHandler.HealthCheck)
	if deps.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api/v1")

	// Public: the gateway authenticates with the verif-hash header
	api.Post("/webhook/listen", webhookHandler.Listen)

	w := api.Group("/wallet", auth.Handler)
	w.Post("/fund", walletHandler.InitiateFunding)
	w.Post("/transfer", walletHandler.Transfer)
	w.Post("/withdraw", walletHandler.Withdraw)
	w.Get("/balance", walletHandler.GetBalance)
	w.Get("/transactions", walletHandler.GetTransactions)
	w.Get("/banks", walletHandler.ListBanks)
	w.Get("/banks/resolve", walletHandler.ResolveAccount)
}
