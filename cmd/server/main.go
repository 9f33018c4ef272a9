package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/example/arenapix/internal/config"
	"github.com/example/arenapix/internal/database"
	"github.com/example/arenapix/internal/routes"
	"github.com/example/arenapix/internal/workers"
)

func main() {
	cfg := config.Load()
	db := database.Connect(cfg.DatabaseURL)
	rdb := database.ConnectRedis(cfg.RedisAddr)

	app := fiber.New(fiber.Config{
		AppName: "ArenaPix Backend",
	})

	app.Use(recover.New())
	app.Use(logger.New())

	paymentService := routes.Register(app, db, rdb, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reconciler := workers.NewReconcileWorker(db, paymentService)
	sched, err := reconciler.Start(ctx)
	if err != nil {
		log.Fatalf("failed to start reconcile worker: %v", err)
	}
	defer func() {
		if err := sched.Shutdown(); err != nil {
			log.Printf("scheduler shutdown: %v", err)
		}
	}()

	go func() {
		log.Printf("Starting server on :%s", cfg.AppPort)
		if err := app.Listen(":" + cfg.AppPort); err != nil {
			log.Fatalf("fiber.Listen error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("fiber.Shutdown error: %v", err)
	}
}
