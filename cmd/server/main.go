package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ekalavyajud/backend/internal/adapters/http/middleware"
	"github.com/ekalavyajud/backend/internal/adapters/http/routes"
	"github.com/ekalavyajud/backend/internal/adapters/persistence/models"
	"github.com/ekalavyajud/backend/internal/adapters/persistence/repositories"
	"github.com/ekalavyajud/backend/internal/config"
	"github.com/ekalavyajud/backend/internal/core/services"

	"github.com/gofiber/fiber/v2"

	_ "github.com/ekalavyajud/backend/docs" // Swagger docs
)

// @title Ekalavya Identity API
// @version 1.0
// @description Identity lifecycle service: registration, email-OTP verification, OTP login and session issuance.

// @contact.name API Support

// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the session token.

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer config.CloseDatabase(db)

	if err := db.AutoMigrate(&models.Account{}); err != nil {
		log.Fatalf("failed to auto migrate: %v", err)
	}
	log.Println("database migration completed")

	// Background sweep of expired OTPs
	userRepo := repositories.NewUserRepository(db)
	cleanup := services.NewOTPCleanupService(userRepo, time.Duration(cfg.Otp.ValidityMinutes)*time.Minute)
	cleanup.Start()
	defer cleanup.Stop()

	app := fiber.New(fiber.Config{
		AppName:      "Ekalavya Identity API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	middleware.Setup(app, cfg)
	routes.Setup(app, db, cfg)

	go gracefulShutdown(app)

	log.Printf("server starting on port %s [MODE: %s]", cfg.Port, cfg.AppMode)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
	log.Println("server stopped")
}
