package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/ekalavyajud/backend/internal/adapters/persistence/models"
	"github.com/ekalavyajud/backend/internal/core/services"
	"github.com/ekalavyajud/backend/internal/pkg/otp"
	"github.com/ekalavyajud/backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type memoryRepo struct {
	mu       sync.Mutex
	accounts map[string]*models.Account
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{accounts: make(map[string]*models.Account)}
}

func (r *memoryRepo) clone(a *models.Account) *models.Account {
	cp := *a
	cp.LoginRecords = append([]models.LoginRecord(nil), a.LoginRecords...)
	return &cp
}

func (r *memoryRepo) Create(_ context.Context, account *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts[account.Email] = r.clone(account)
	return nil
}

func (r *memoryRepo) GetByEmail(_ context.Context, email string) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return r.clone(a), nil
}

func (r *memoryRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.accounts[email]
	return ok, nil
}

func (r *memoryRepo) Update(_ context.Context, account *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[account.Email]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.accounts[account.Email] = r.clone(account)
	return nil
}

func (r *memoryRepo) List(_ context.Context) ([]*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Account, 0, len(r.accounts))
	for _, a := range r.accounts {
		out = append(out, r.clone(a))
	}
	return out, nil
}

func (r *memoryRepo) AppendLoginRecord(_ context.Context, email string, record models.LoginRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[email]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	a.LoginRecords = append(a.LoginRecords, record)
	return nil
}

func (r *memoryRepo) CompleteLogin(_ context.Context, email string, record models.LoginRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[email]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	a.Otp = ""
	a.OtpIssuedAt = nil
	t := record.Time
	a.LastLoginAt = &t
	a.LoginRecords = append(a.LoginRecords, record)
	return nil
}

func (r *memoryRepo) ClearExpiredOtps(_ context.Context, issuedBefore time.Time) (int64, error) {
	return 0, nil
}

func (r *memoryRepo) approve(email string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.accounts[email]; ok {
		a.ApprovedByAdmin = true
	}
}

// capturingNotifier keeps the last OTP it saw in a mail body
type capturingNotifier struct {
	mu      sync.Mutex
	lastOtp string
	err     error
}

var otpPattern = regexp.MustCompile(`\b\d{6}\b`)

func (n *capturingNotifier) Send(_ context.Context, _, _, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	if m := otpPattern.FindString(body); m != "" {
		n.lastOtp = m
	}
	return nil
}

type staticSigner struct{}

func (staticSigner) Issue(userID, email, userType string) (string, error) {
	return "session-token", nil
}

func newTestApp() (*fiber.App, *memoryRepo, *capturingNotifier) {
	repo := newMemoryRepo()
	notifier := &capturingNotifier{}

	machine := services.NewAccountStateMachine(repo, otp.NewCryptoGenerator())
	authService := services.NewAuthService(machine, notifier, staticSigner{})
	userService := services.NewUserService(repo)
	h := NewAuthHandler(authService, userService)
	uh := NewUserHandler(userService)

	app := fiber.New()
	app.Post("/register", h.Register)
	app.Post("/verify-otp", h.VerifyOtp)
	app.Post("/login", h.Login)
	app.Post("/verify-login", h.VerifyLogin)
	app.Post("/logout", h.Logout)
	app.Post("/resend-otp", h.ResendOtp)
	app.Get("/users", uh.ListUsers)

	return app, repo, notifier
}

func doJSON(t *testing.T, app *fiber.App, path string, payload interface{}) (*http.Response, response.Response) {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(fiber.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var parsed response.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	return resp, parsed
}

func registerBody(email string) fiber.Map {
	return fiber.Map{
		"name":  "Rahul Sharma",
		"email": email,
		"phone": "9876543210",
	}
}

func TestRegisterEndpoint(t *testing.T) {
	app, _, _ := newTestApp()

	resp, parsed := doJSON(t, app, "/register", registerBody("rahul@example.com"))
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.True(t, parsed.Success)

	// Same email again
	resp, parsed = doJSON(t, app, "/register", registerBody("rahul@example.com"))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.False(t, parsed.Success)
}

func TestRegisterEndpointRejectsBadPayload(t *testing.T) {
	app, _, _ := newTestApp()

	resp, _ := doJSON(t, app, "/register", fiber.Map{"name": "X", "email": "nope", "phone": "12"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, app, "/register", fiber.Map{"email": "rahul@example.com"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestRegisterEndpointDeliveryFailure(t *testing.T) {
	app, repo, notifier := newTestApp()
	notifier.err = errors.New("smtp: connection refused")

	resp, _ := doJSON(t, app, "/register", registerBody("rahul@example.com"))
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	// Account was still created; resend is the retry path
	_, err := repo.GetByEmail(context.Background(), "rahul@example.com")
	assert.NoError(t, err)
}

func TestVerifyOtpEndpoint(t *testing.T) {
	app, _, notifier := newTestApp()

	doJSON(t, app, "/register", registerBody("rahul@example.com"))

	resp, _ := doJSON(t, app, "/verify-otp", fiber.Map{"email": "rahul@example.com", "otp": "000000"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, parsed := doJSON(t, app, "/verify-otp", fiber.Map{"email": "rahul@example.com", "otp": notifier.lastOtp})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.True(t, parsed.Success)

	// Malformed OTP never reaches the service
	resp, _ = doJSON(t, app, "/verify-otp", fiber.Map{"email": "rahul@example.com", "otp": "12ab56"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestLoginEndpointGates(t *testing.T) {
	app, repo, notifier := newTestApp()

	doJSON(t, app, "/register", registerBody("rahul@example.com"))

	resp, _ := doJSON(t, app, "/login", fiber.Map{"email": "rahul@example.com"})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	doJSON(t, app, "/verify-otp", fiber.Map{"email": "rahul@example.com", "otp": notifier.lastOtp})

	resp, _ = doJSON(t, app, "/login", fiber.Map{"email": "rahul@example.com"})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	repo.approve("rahul@example.com")

	resp, _ = doJSON(t, app, "/login", fiber.Map{"email": "rahul@example.com"})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, app, "/login", fiber.Map{"email": "ghost@example.com"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestVerifyLoginEndpoint(t *testing.T) {
	app, repo, notifier := newTestApp()

	doJSON(t, app, "/register", registerBody("rahul@example.com"))
	doJSON(t, app, "/verify-otp", fiber.Map{"email": "rahul@example.com", "otp": notifier.lastOtp})
	repo.approve("rahul@example.com")
	doJSON(t, app, "/login", fiber.Map{"email": "rahul@example.com"})

	resp, parsed := doJSON(t, app, "/verify-login", fiber.Map{"email": "rahul@example.com", "otp": notifier.lastOtp})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	data, ok := parsed.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "session-token", data["token"])
	assert.Equal(t, "rahul@example.com", data["email"])

	// The code was consumed
	resp, _ = doJSON(t, app, "/verify-login", fiber.Map{"email": "rahul@example.com", "otp": notifier.lastOtp})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestLogoutEndpoint(t *testing.T) {
	app, _, _ := newTestApp()

	doJSON(t, app, "/register", registerBody("rahul@example.com"))

	resp, _ := doJSON(t, app, "/logout", fiber.Map{"email": "rahul@example.com"})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, app, "/logout", fiber.Map{"email": "ghost@example.com"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestResendOtpEndpoint(t *testing.T) {
	app, _, notifier := newTestApp()

	resp, _ := doJSON(t, app, "/resend-otp", fiber.Map{"email": "ghost@example.com"})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	doJSON(t, app, "/register", registerBody("rahul@example.com"))

	resp, _ = doJSON(t, app, "/resend-otp", fiber.Map{"email": "rahul@example.com"})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	doJSON(t, app, "/verify-otp", fiber.Map{"email": "rahul@example.com", "otp": notifier.lastOtp})

	resp, _ = doJSON(t, app, "/resend-otp", fiber.Map{"email": "rahul@example.com"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestListUsersEndpoint(t *testing.T) {
	app, _, _ := newTestApp()

	doJSON(t, app, "/register", registerBody("rahul@example.com"))
	doJSON(t, app, "/register", registerBody("anita@example.com"))

	req := httptest.NewRequest(fiber.MethodGet, "/users", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var parsed response.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	data, ok := parsed.Data.(map[string]interface{})
	require.True(t, ok)
	users, ok := data["users"].([]interface{})
	require.True(t, ok)
	assert.Len(t, users, 2)
}
