package routes

import (
	"time"

	"ppn-chip-sales/internal/adapters/http/handlers"
	"ppn-chip-sales/internal/adapters/http/middleware"
	"ppn-chip-sales/internal/adapters/persistence/repositories"
	"ppn-chip-sales/internal/adapters/ton"
	"ppn-chip-sales/internal/config"
	"ppn-chip-sales/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Setup configures all routes for the application and returns the session
// manager so the background sweeper can be attached to it.
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config) *services.SessionManager {
	// Initialize repositories
	prefillRepo := repositories.NewPrefillRepository(db)
	attemptRepo := repositories.NewAttemptRepository(db)

	// Initialize services
	registry := ton.NewHTTPResolver(cfg.Ton.APIBaseURL, cfg.Ton.USDTMasterAddress)
	authService := services.NewAuthService(cfg)
	transferValidity := time.Duration(cfg.Flow.TransferTTLMinutes) * time.Minute
	paymentService := services.NewPaymentService(registry, attemptRepo, transferValidity)
	manager := services.NewSessionManager(cfg, authService, paymentService, prefillRepo)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg, db, manager)
	sessionHandler := handlers.NewSessionHandler(manager)
	flowHandler := handlers.NewFlowHandler()
	walletHandler := handlers.NewWalletHandler()
	ownerHandler := handlers.NewOwnerHandler(attemptRepo)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// API v1 group
	apiV1 := app.Group("/api/v1")

	// Session creation is public; everything else needs a live session
	apiV1.Post("/session", middleware.SessionRateLimiter(), sessionHandler.Create)

	authed := apiV1.Group("", middleware.SessionMiddleware(manager))
	authed.Delete("/session", sessionHandler.End)

	// Purchase flow
	flowRoutes := authed.Group("/flow")
	flowRoutes.Get("/", flowHandler.Snapshot)
	flowRoutes.Post("/submit", flowHandler.Submit)
	flowRoutes.Post("/select", flowHandler.Select)
	flowRoutes.Post("/confirm", flowHandler.Confirm)
	flowRoutes.Post("/back", flowHandler.Back)
	flowRoutes.Post("/retry", flowHandler.Retry)
	flowRoutes.Post("/close", flowHandler.Close)

	// Wallet conduit
	walletRoutes := authed.Group("/wallet")
	walletRoutes.Post("/connect", walletHandler.Connect)
	walletRoutes.Post("/event", walletHandler.Event)
	walletRoutes.Post("/disconnect", walletHandler.Disconnect)
	walletRoutes.Get("/outbox", walletHandler.Outbox)
	walletRoutes.Post("/outbox/:id/result", walletHandler.TransferResult)

	// Admin surfaces
	ownerRoutes := authed.Group("/owner", middleware.AdminOnly())
	ownerRoutes.Get("/clubs", ownerHandler.Clubs)
	ownerRoutes.Get("/insights/:club", ownerHandler.Insights)
	ownerRoutes.Get("/attempts/:club", ownerHandler.Attempts)

	authed.Get("/club/balance", middleware.AdminOnly(), ownerHandler.Balance)
	authed.Post("/withdraw", middleware.AdminOnly(), ownerHandler.Withdraw)

	return manager
}
