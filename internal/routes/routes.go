package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/example/arenapix/internal/config"
	"github.com/example/arenapix/internal/handlers"
	"github.com/example/arenapix/internal/middleware"
	"github.com/example/arenapix/internal/services"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, rdb *redis.Client, cfg *config.Config) *services.PaymentService {
	telegramService := services.NewTelegramService(cfg.TelegramBotToken, cfg.TelegramAdminChat)
	realtimeService := services.NewRealtimeService(rdb)
	slotService := services.NewSlotService(db)
	settingsService := services.NewSettingsService(db)

	gateway := services.NewMercadoPagoClient(cfg.MPAccessToken, cfg.PublicBaseURL+"/api/payments/webhook")
	paymentService := services.NewPaymentService(db, gateway, slotService, realtimeService, telegramService)

	authHandler := handlers.NewAuthHandler(db, cfg)
	tournamentHandler := handlers.NewTournamentHandler(db)
	participationHandler := handlers.NewParticipationHandler(db, paymentService)
	promoHandler := handlers.NewPromoHandler(db)
	paymentHandler := handlers.NewPaymentHandler(paymentService, settingsService)
	adminHandler := handlers.NewAdminHandler(settingsService)

	api := app.Group("/api")

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)

	// Public tournament browsing
	api.Get("/tournaments", tournamentHandler.ListPublished)
	api.Get("/tournaments/:id", tournamentHandler.Get)
	api.Get("/promo-codes/:code/validate", promoHandler.Validate)

	// Payment routes. The webhook is unauthenticated: the provider calls it
	// and the payload is never trusted beyond the payment id it carries.
	payments := api.Group("/payments")
	payments.Post("/webhook", paymentHandler.Webhook)

	// Authenticated routes
	protected := api.Group("", middleware.AuthMiddleware(cfg))

	protected.Post("/payments/create", paymentHandler.Create)
	protected.Post("/payments/status", paymentHandler.Status)
	protected.Post("/payments/test", middleware.AdminMiddleware(db), paymentHandler.Test)

	protected.Post("/participations", participationHandler.Register)
	protected.Get("/participations", participationHandler.ListMine)
	protected.Get("/participations/:id", participationHandler.Get)

	// Admin routes
	admin := protected.Group("/admin", middleware.AdminMiddleware(db))

	admin.Get("/tournaments", tournamentHandler.List)
	admin.Post("/tournaments", tournamentHandler.Create)
	admin.Put("/tournaments/:id", tournamentHandler.Update)
	admin.Patch("/tournaments/:id/status", tournamentHandler.UpdateStatus)
	admin.Delete("/tournaments/:id", tournamentHandler.Delete)
	admin.Get("/tournaments/:id/participations", participationHandler.ListByTournament)
	admin.Post("/participations/:id/reject", participationHandler.Reject)

	admin.Get("/promo-codes", promoHandler.List)
	admin.Post("/promo-codes", promoHandler.Create)
	admin.Put("/promo-codes/:id", promoHandler.Update)
	admin.Delete("/promo-codes/:id", promoHandler.Delete)

	admin.Get("/settings", adminHandler.GetSettings)
	admin.Put("/settings", adminHandler.UpdateSettings)

	return paymentService
}
