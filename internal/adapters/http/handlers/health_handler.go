package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// HealthHandler handles liveness and health endpoints
type HealthHandler struct {
	db *gorm.DB
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Root handles the root liveness endpoint
// @Summary Liveness
// @Description Returns a liveness string
// @Tags Health
// @Produce plain
// @Success 200 {string} string
// @Router / [get]
func (h *HealthHandler) Root(c *fiber.Ctx) error {
	return c.SendString("Ekalavya backend is up and running")
}

// HealthCheck handles health check
// @Summary Health check
// @Description Check API and database health
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	dbStatus := "healthy"
	if sqlDB, err := h.db.DB(); err != nil || sqlDB.Ping() != nil {
		dbStatus = "unhealthy"
	}

	return c.JSON(fiber.Map{
		"status":   "ok",
		"database": dbStatus,
	})
}
