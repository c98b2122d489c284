package handlers

import (
	"errors"
	"strings"

	"github.com/ekalavyajud/backend/internal/core/domain"
	"github.com/ekalavyajud/backend/internal/core/services"
	"github.com/ekalavyajud/backend/internal/pkg/response"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles the account lifecycle endpoints
type AuthHandler struct {
	authService *services.AuthService
	userService *services.UserService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService, userService *services.UserService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userService: userService,
	}
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	CouncilID   string `json:"council_id"`
	UserType    string `json:"user_type"`
	DOB         string `json:"dob"`
	Address     string `json:"address"`
	Gender      string `json:"gender"`
	Nationality string `json:"nationality"`
	Aadhaar     string `json:"aadhaar"`
	Passport    string `json:"passport"`
	PanCard     string `json:"pan_card"`
}

// Validate runs validation rules
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Phone, validation.Required, validation.Length(7, 15), is.Digit),
	)
}

// OtpRequest represents a verify body (email + otp)
type OtpRequest struct {
	Email string `json:"email"`
	Otp   string `json:"otp"`
}

// Validate runs validation rules
func (r OtpRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Otp, validation.Required, validation.Length(6, 6), is.Digit),
	)
}

// EmailRequest represents a body carrying only an email
type EmailRequest struct {
	Email string `json:"email"`
}

// Validate runs validation rules
func (r EmailRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

// Register handles user registration
// @Summary Register new user
// @Description Create an account and mail a verification OTP
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body RegisterRequest true "Registration data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := req.Validate(); err != nil {
		return response.BadRequest(c, err.Error())
	}

	input := services.CreateAccountInput{
		Name:        strings.TrimSpace(req.Name),
		Email:       strings.TrimSpace(req.Email),
		Phone:       strings.TrimSpace(req.Phone),
		CouncilID:   req.CouncilID,
		UserType:    req.UserType,
		DOB:         req.DOB,
		Address:     req.Address,
		Gender:      req.Gender,
		Nationality: req.Nationality,
		Aadhaar:     req.Aadhaar,
		Passport:    req.Passport,
		PanCard:     req.PanCard,
	}

	if _, err := h.authService.Register(c.Context(), input); err != nil {
		switch {
		case errors.Is(err, domain.ErrDuplicateEmail):
			return response.BadRequest(c, "Email already registered")
		case errors.Is(err, domain.ErrValidation):
			return response.BadRequest(c, "Invalid registration data")
		case errors.Is(err, domain.ErrDelivery):
			return response.InternalServerError(c, "Account created but OTP email could not be sent, use resend-otp")
		default:
			return response.InternalServerError(c, "Failed to register")
		}
	}

	return response.Created(c, "Registered successfully, OTP sent to email", nil)
}

// VerifyOtp handles registration OTP verification
// @Summary Verify registration OTP
// @Description Confirm the emailed OTP and mark the account email-verified
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body OtpRequest true "Email and OTP"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /verify-otp [post]
func (h *AuthHandler) VerifyOtp(c *fiber.Ctx) error {
	var req OtpRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := req.Validate(); err != nil {
		return response.BadRequest(c, err.Error())
	}

	if err := h.authService.VerifyRegistration(c.Context(), req.Email, req.Otp); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			return response.BadRequest(c, "Account not found")
		case errors.Is(err, domain.ErrInvalidOtp):
			return response.BadRequest(c, "Invalid or expired OTP")
		default:
			return response.InternalServerError(c, "Failed to verify OTP")
		}
	}

	return response.Message(c, "Email verified successfully")
}

// Login handles login OTP requests
// @Summary Request login OTP
// @Description Mail a fresh login OTP to a verified, approved account
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body EmailRequest true "Email"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req EmailRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := req.Validate(); err != nil {
		return response.BadRequest(c, err.Error())
	}

	if err := h.authService.RequestLoginOtp(c.Context(), req.Email); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			return response.BadRequest(c, "Account not found")
		case errors.Is(err, domain.ErrEmailNotVerified):
			return response.Forbidden(c, "Email not verified")
		case errors.Is(err, domain.ErrNotApproved):
			return response.Forbidden(c, "Account awaiting admin approval")
		case errors.Is(err, domain.ErrDelivery):
			return response.InternalServerError(c, "OTP issued but email could not be sent")
		default:
			return response.InternalServerError(c, "Failed to request login OTP")
		}
	}

	return response.Message(c, "Login OTP sent to email")
}

// VerifyLogin handles login OTP verification
// @Summary Verify login OTP
// @Description Exchange a login OTP for a session token
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body OtpRequest true "Email and OTP"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /verify-login [post]
func (h *AuthHandler) VerifyLogin(c *fiber.Ctx) error {
	var req OtpRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := req.Validate(); err != nil {
		return response.BadRequest(c, err.Error())
	}

	result, err := h.authService.VerifyLogin(c.Context(), req.Email, req.Otp)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			return response.BadRequest(c, "Account not found")
		case errors.Is(err, domain.ErrInvalidOtp):
			return response.BadRequest(c, "Invalid or expired OTP")
		default:
			return response.InternalServerError(c, "Failed to verify login")
		}
	}

	return response.Success(c, "Login successful", fiber.Map{
		"id":        result.Account.ID,
		"name":      result.Account.Name,
		"email":     result.Account.Email,
		"user_type": result.Account.UserType,
		"token":     result.Token,
	})
}

// Logout handles logout
// @Summary Logout
// @Description Record a logout audit entry
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body EmailRequest true "Email"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var req EmailRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := req.Validate(); err != nil {
		return response.BadRequest(c, err.Error())
	}

	if err := h.authService.Logout(c.Context(), req.Email); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return response.BadRequest(c, "Account not found")
		}
		return response.InternalServerError(c, "Failed to logout")
	}

	return response.Message(c, "Logged out successfully")
}

// ResendOtp handles registration OTP resends
// @Summary Resend registration OTP
// @Description Issue and mail a fresh registration OTP
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body EmailRequest true "Email"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /resend-otp [post]
func (h *AuthHandler) ResendOtp(c *fiber.Ctx) error {
	var req EmailRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := req.Validate(); err != nil {
		return response.BadRequest(c, err.Error())
	}

	if err := h.authService.ResendOtp(c.Context(), req.Email); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			return response.NotFound(c, "Account not found")
		case errors.Is(err, domain.ErrAlreadyVerified):
			return response.BadRequest(c, "Account already verified")
		case errors.Is(err, domain.ErrDelivery):
			return response.InternalServerError(c, "OTP issued but email could not be sent")
		default:
			return response.InternalServerError(c, "Failed to resend OTP")
		}
	}

	return response.Message(c, "OTP resent to email")
}
