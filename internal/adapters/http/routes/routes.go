package routes

import (
	"time"

	"github.com/ekalavyajud/backend/internal/adapters/http/handlers"
	"github.com/ekalavyajud/backend/internal/adapters/http/middleware"
	"github.com/ekalavyajud/backend/internal/adapters/persistence/repositories"
	"github.com/ekalavyajud/backend/internal/config"
	"github.com/ekalavyajud/backend/internal/core/services"
	"github.com/ekalavyajud/backend/internal/pkg/jwt"
	"github.com/ekalavyajud/backend/internal/pkg/mailer"
	"github.com/ekalavyajud/backend/internal/pkg/otp"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"gorm.io/gorm"
)

// Setup wires repositories, services and handlers onto the app
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	// Repositories
	userRepo := repositories.NewUserRepository(db)

	// Collaborators
	otpGen := otp.NewCryptoGenerator()
	signer := jwt.NewSigner(cfg.JWT.Secret, time.Duration(cfg.JWT.SessionMinutes)*time.Minute)
	notifier := mailer.NewSMTPMailer(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Username,
		cfg.SMTP.Password,
		cfg.SMTP.From,
		cfg.SMTP.FromName,
	)

	// Services
	machine := services.NewAccountStateMachine(userRepo, otpGen,
		services.WithOtpValidity(time.Duration(cfg.Otp.ValidityMinutes)*time.Minute))
	authService := services.NewAuthService(machine, notifier, signer)
	userService := services.NewUserService(userRepo)

	// Handlers
	healthHandler := handlers.NewHealthHandler(db)
	authHandler := handlers.NewAuthHandler(authService, userService)
	userHandler := handlers.NewUserHandler(userService)

	// Liveness & docs
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)
	app.Get("/swagger/*", swagger.HandlerDefault)

	// Lifecycle routes
	noCache := middleware.NoCacheHeaders()

	app.Post("/register", noCache, middleware.OtpRateLimiter(), authHandler.Register)
	app.Post("/verify-otp", noCache, middleware.VerifyRateLimiter(), authHandler.VerifyOtp)
	app.Post("/login", noCache, middleware.OtpRateLimiter(), authHandler.Login)
	app.Post("/verify-login", noCache, middleware.VerifyRateLimiter(), authHandler.VerifyLogin)
	app.Post("/logout", noCache, authHandler.Logout)
	app.Post("/resend-otp", noCache, middleware.OtpRateLimiter(), authHandler.ResendOtp)

	// Account reads
	app.Get("/users", userHandler.ListUsers)
	app.Get("/me", middleware.AuthMiddleware(cfg), userHandler.Me)
}
