package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application. It is constructed
// once in main and injected; nothing reads it ambiently.
type Config struct {
	AppMode        string
	Port           string
	AllowedOrigins string
	Database       DatabaseConfig
	JWT            JWTConfig
	SMTP           SMTPConfig
	Otp            OtpConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// JWTConfig holds session token configuration
type JWTConfig struct {
	Secret         string
	SessionMinutes int
}

// SMTPConfig holds mail sender configuration
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
}

// OtpConfig holds OTP lifecycle configuration
type OtpConfig struct {
	ValidityMinutes int
}

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("warning: .env file not found, using environment variables")
	}

	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	sessionMins, _ := strconv.Atoi(getEnv("SESSION_TOKEN_MINUTES", "60"))
	otpValidity, _ := strconv.Atoi(getEnv("OTP_VALIDITY_MINUTES", "5"))

	cfg := &Config{
		AppMode:        appMode,
		Port:           getEnv("PORT", "3000"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "*"),
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "3306"),
			User:     getEnv("DB_USER", "root"),
			Password: getEnv("DB_PASS", ""),
			DBName:   getEnv("DB_NAME", "ekalavya"),
		},
		JWT: JWTConfig{
			Secret:         getEnv("JWT_SECRET", "default_secret"),
			SessionMinutes: sessionMins,
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", "smtp.gmail.com"),
			Port:     getEnv("SMTP_PORT", "587"),
			Username: getEnv("SMTP_USER", ""),
			Password: getEnv("SMTP_PASS", ""),
			From:     getEnv("MAIL_FROM", "no-reply@ekalavya.in"),
			FromName: getEnv("MAIL_FROM_NAME", "Ekalavya"),
		},
		Otp: OtpConfig{
			ValidityMinutes: otpValidity,
		},
	}

	log.Printf("configuration loaded [MODE: %s]", appMode)
	return cfg, nil
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}
