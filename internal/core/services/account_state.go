package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ekalavyajud/backend/internal/adapters/persistence/models"
	"github.com/ekalavyajud/backend/internal/adapters/persistence/repositories"
	"github.com/ekalavyajud/backend/internal/core/domain"
	"github.com/ekalavyajud/backend/internal/pkg/otp"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultOtpValidity bounds how long an issued code stays usable
const DefaultOtpValidity = 5 * time.Minute

// CreateAccountInput carries registration fields. Everything beyond name,
// email and phone is pass-through profile data.
type CreateAccountInput struct {
	Name        string
	Email       string
	Phone       string
	CouncilID   string
	UserType    string
	DOB         string
	Address     string
	Gender      string
	Nationality string
	Aadhaar     string
	Passport    string
	PanCard     string
}

// AccountStateMachine validates preconditions, mutates account state and
// decides when an OTP must be (re)issued. Mutations for one email are
// serialized through a per-account mutex; audit appends additionally go
// through the repository's single-statement append so no interleaving can
// drop entries.
type AccountStateMachine struct {
	repo     repositories.UserRepository
	otpGen   OtpGenerator
	validity time.Duration
	now      func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// StateMachineOption customizes state machine construction
type StateMachineOption func(*AccountStateMachine)

// WithClock injects a custom clock (useful for tests)
func WithClock(clock func() time.Time) StateMachineOption {
	return func(sm *AccountStateMachine) {
		if clock != nil {
			sm.now = clock
		}
	}
}

// WithOtpValidity overrides the OTP validity window
func WithOtpValidity(d time.Duration) StateMachineOption {
	return func(sm *AccountStateMachine) {
		if d > 0 {
			sm.validity = d
		}
	}
}

// NewAccountStateMachine creates a new state machine
func NewAccountStateMachine(repo repositories.UserRepository, otpGen OtpGenerator, opts ...StateMachineOption) *AccountStateMachine {
	sm := &AccountStateMachine{
		repo:     repo,
		otpGen:   otpGen,
		validity: DefaultOtpValidity,
		now:      time.Now,
		locks:    make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(sm)
		}
	}
	return sm
}

// lockEmail serializes read-then-write sequences per account
func (sm *AccountStateMachine) lockEmail(email string) func() {
	sm.mu.Lock()
	l, ok := sm.locks[email]
	if !ok {
		l = &sync.Mutex{}
		sm.locks[email] = l
	}
	sm.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// Create registers a new account with all verification flags false and a
// freshly issued registration OTP. Returns the account and the plaintext
// code for delivery.
func (sm *AccountStateMachine) Create(ctx context.Context, input CreateAccountInput) (*models.Account, string, error) {
	if err := validation.Validate(input.Email, validation.Required, is.Email); err != nil {
		return nil, "", fmt.Errorf("%w: email: %v", domain.ErrValidation, err)
	}

	unlock := sm.lockEmail(input.Email)
	defer unlock()

	exists, err := sm.repo.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return nil, "", repoFailure(err)
	}
	if exists {
		return nil, "", domain.ErrDuplicateEmail
	}

	code, err := sm.otpGen.Generate()
	if err != nil {
		return nil, "", err
	}
	hash, err := otp.Hash(code)
	if err != nil {
		return nil, "", err
	}

	userType := input.UserType
	if userType == "" {
		userType = models.DefaultUserType
	}

	issuedAt := sm.now()
	account := &models.Account{
		ID:          uuid.New().String(),
		Name:        input.Name,
		Email:       input.Email,
		Phone:       input.Phone,
		UserType:    userType,
		CouncilID:   input.CouncilID,
		DOB:         input.DOB,
		Address:     input.Address,
		Gender:      input.Gender,
		Nationality: input.Nationality,
		Aadhaar:     input.Aadhaar,
		Passport:    input.Passport,
		PanCard:     input.PanCard,
		Otp:         hash,
		OtpIssuedAt: &issuedAt,
	}

	if err := sm.repo.Create(ctx, account); err != nil {
		return nil, "", repoFailure(err)
	}

	return account, code, nil
}

// ConfirmRegistration checks the supplied code against the outstanding
// registration OTP. Success sets email_verified and otp_verified exactly
// once and consumes the code. A replay against an already-verified account
// succeeds without touching state, so callers never re-trigger side effects.
func (sm *AccountStateMachine) ConfirmRegistration(ctx context.Context, email, suppliedOtp string) error {
	unlock := sm.lockEmail(email)
	defer unlock()

	account, err := sm.repo.GetByEmail(ctx, email)
	if err != nil {
		return lookupFailure(err)
	}

	if account.EmailVerified {
		return nil
	}

	if !sm.otpMatches(account, suppliedOtp) {
		return domain.ErrInvalidOtp
	}

	account.EmailVerified = true
	account.OtpVerified = true
	account.Otp = ""
	account.OtpIssuedAt = nil

	if err := sm.repo.Update(ctx, account); err != nil {
		return repoFailure(err)
	}
	return nil
}

// IssueLoginOtp arms a fresh login OTP for a verified, approved account.
// Any previously outstanding code is invalidated by the overwrite.
func (sm *AccountStateMachine) IssueLoginOtp(ctx context.Context, email string) (*models.Account, string, error) {
	unlock := sm.lockEmail(email)
	defer unlock()

	account, err := sm.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", lookupFailure(err)
	}

	if !account.EmailVerified {
		return nil, "", domain.ErrEmailNotVerified
	}
	if !account.ApprovedByAdmin {
		return nil, "", domain.ErrNotApproved
	}

	code, err := sm.otpGen.Generate()
	if err != nil {
		return nil, "", err
	}
	hash, err := otp.Hash(code)
	if err != nil {
		return nil, "", err
	}

	issuedAt := sm.now()
	account.Otp = hash
	account.OtpIssuedAt = &issuedAt

	if err := sm.repo.Update(ctx, account); err != nil {
		return nil, "", repoFailure(err)
	}
	return account, code, nil
}

// ConfirmLogin exchanges a live login OTP for a completed login: the code
// is consumed, last_login_at is stamped and one login entry is appended to
// the audit trail, all in a single repository statement.
func (sm *AccountStateMachine) ConfirmLogin(ctx context.Context, email, suppliedOtp string) (*models.Account, error) {
	unlock := sm.lockEmail(email)
	defer unlock()

	account, err := sm.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, lookupFailure(err)
	}

	if !sm.otpMatches(account, suppliedOtp) {
		return nil, domain.ErrInvalidOtp
	}

	loginAt := sm.now()
	record := models.LoginRecord{Action: models.ActionLogin, Time: loginAt}
	if err := sm.repo.CompleteLogin(ctx, email, record); err != nil {
		return nil, lookupFailure(err)
	}

	account.Otp = ""
	account.OtpIssuedAt = nil
	account.LastLoginAt = &loginAt
	account.LoginRecords = append(account.LoginRecords, record)
	return account, nil
}

// RecordLogout appends one logout entry to the audit trail. Session tokens
// stay valid until natural expiry; logout is an audit event only.
func (sm *AccountStateMachine) RecordLogout(ctx context.Context, email string) error {
	unlock := sm.lockEmail(email)
	defer unlock()

	record := models.LoginRecord{Action: models.ActionLogout, Time: sm.now()}
	if err := sm.repo.AppendLoginRecord(ctx, email, record); err != nil {
		return lookupFailure(err)
	}
	return nil
}

// ResendRegistrationOtp re-arms the registration OTP for an account that
// has not completed verification yet.
func (sm *AccountStateMachine) ResendRegistrationOtp(ctx context.Context, email string) (*models.Account, string, error) {
	unlock := sm.lockEmail(email)
	defer unlock()

	account, err := sm.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", lookupFailure(err)
	}

	if account.OtpVerified {
		return nil, "", domain.ErrAlreadyVerified
	}

	code, err := sm.otpGen.Generate()
	if err != nil {
		return nil, "", err
	}
	hash, err := otp.Hash(code)
	if err != nil {
		return nil, "", err
	}

	issuedAt := sm.now()
	account.Otp = hash
	account.OtpIssuedAt = &issuedAt

	if err := sm.repo.Update(ctx, account); err != nil {
		return nil, "", repoFailure(err)
	}
	return account, code, nil
}

// otpMatches checks the supplied code against the outstanding OTP. A code
// past its validity window is treated the same as a wrong code.
func (sm *AccountStateMachine) otpMatches(account *models.Account, suppliedOtp string) bool {
	if suppliedOtp == "" {
		return false
	}
	if !account.HasLiveOtp(sm.now(), sm.validity) {
		return false
	}
	return otp.Verify(suppliedOtp, account.Otp)
}

// lookupFailure maps a read error to the domain taxonomy
func lookupFailure(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return repoFailure(err)
}

// repoFailure wraps storage errors so handlers can map them uniformly
func repoFailure(err error) error {
	return fmt.Errorf("%w: %v", domain.ErrRepository, err)
}
