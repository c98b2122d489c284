package handlers

import (
	"errors"

	"github.com/ekalavyajud/backend/internal/core/domain"
	"github.com/ekalavyajud/backend/internal/core/services"
	"github.com/ekalavyajud/backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// UserHandler handles account read endpoints
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// ListUsers returns all accounts
// @Summary List users
// @Description Return all registered accounts
// @Tags Users
// @Accept json
// @Produce json
// @Success 200 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /users [get]
func (h *UserHandler) ListUsers(c *fiber.Ctx) error {
	accounts, err := h.userService.List(c.Context())
	if err != nil {
		if errors.Is(err, domain.ErrRepository) {
			return response.InternalServerError(c, "Failed to fetch users")
		}
		return response.BadRequest(c, "Failed to fetch users")
	}

	return response.Success(c, "Users retrieved successfully", fiber.Map{
		"users": accounts,
	})
}

// Me returns the account bound to the presented session token
// @Summary Current account
// @Description Return the account identified by the Authorization header
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /me [get]
func (h *UserHandler) Me(c *fiber.Ctx) error {
	email, ok := c.Locals("email").(string)
	if !ok || email == "" {
		return response.Unauthorized(c, "Unauthorized")
	}

	account, err := h.userService.GetByEmail(c.Context(), email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return response.Unauthorized(c, "Account no longer exists")
		}
		return response.InternalServerError(c, "Failed to fetch account")
	}

	return response.Success(c, "Account retrieved successfully", fiber.Map{
		"user": account,
	})
}
