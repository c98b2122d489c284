package services

import (
	"context"
	"fmt"
	"log"

	"github.com/ekalavyajud/backend/internal/adapters/persistence/models"
	"github.com/ekalavyajud/backend/internal/core/domain"
)

// AuthService orchestrates the account state machine and its collaborators.
// Side effects (mail, token signing) run only after a transition has been
// accepted and persisted; a delivery failure never rolls the transition back.
type AuthService struct {
	machine  *AccountStateMachine
	notifier Notifier
	signer   SessionSigner
}

// NewAuthService creates a new auth service
func NewAuthService(machine *AccountStateMachine, notifier Notifier, signer SessionSigner) *AuthService {
	return &AuthService{
		machine:  machine,
		notifier: notifier,
		signer:   signer,
	}
}

// LoginResult is the payload returned on successful login verification
type LoginResult struct {
	Account *models.AccountResponse
	Token   string
}

// Register creates an account and mails the registration OTP.
// The account stays created even when the mail bounces; callers retry
// delivery through the resend path.
func (s *AuthService) Register(ctx context.Context, input CreateAccountInput) (*models.Account, error) {
	account, code, err := s.machine.Create(ctx, input)
	if err != nil {
		return nil, err
	}

	log.Printf("account registered: %s", account.Email)

	subject, body := registrationOtpMessage(account.Name, code)
	if err := s.notifier.Send(ctx, account.Email, subject, body); err != nil {
		log.Printf("registration otp delivery failed for %s: %v", account.Email, err)
		return account, fmt.Errorf("%w: %v", domain.ErrDelivery, err)
	}
	return account, nil
}

// VerifyRegistration confirms the registration OTP
func (s *AuthService) VerifyRegistration(ctx context.Context, email, suppliedOtp string) error {
	if err := s.machine.ConfirmRegistration(ctx, email, suppliedOtp); err != nil {
		return err
	}
	log.Printf("email verified: %s", email)
	return nil
}

// RequestLoginOtp issues a login OTP and mails it
func (s *AuthService) RequestLoginOtp(ctx context.Context, email string) error {
	account, code, err := s.machine.IssueLoginOtp(ctx, email)
	if err != nil {
		return err
	}

	subject, body := loginOtpMessage(account.Name, code)
	if err := s.notifier.Send(ctx, account.Email, subject, body); err != nil {
		log.Printf("login otp delivery failed for %s: %v", email, err)
		return fmt.Errorf("%w: %v", domain.ErrDelivery, err)
	}
	return nil
}

// VerifyLogin exchanges a login OTP for a signed session token. The
// login-success notice is best effort: the session is already established,
// so a bounced mail is logged rather than surfaced.
func (s *AuthService) VerifyLogin(ctx context.Context, email, suppliedOtp string) (*LoginResult, error) {
	account, err := s.machine.ConfirmLogin(ctx, email, suppliedOtp)
	if err != nil {
		return nil, err
	}

	token, err := s.signer.Issue(account.ID, account.Email, account.UserType)
	if err != nil {
		return nil, err
	}

	log.Printf("login completed: %s", email)

	subject, body := loginSuccessMessage(account.Name)
	if err := s.notifier.Send(ctx, account.Email, subject, body); err != nil {
		log.Printf("login notice delivery failed for %s: %v", email, err)
	}

	return &LoginResult{Account: account.ToResponse(), Token: token}, nil
}

// Logout records a logout audit entry and mails a notice. Bearer tokens
// are not revoked; they lapse at natural expiry.
func (s *AuthService) Logout(ctx context.Context, email string) error {
	if err := s.machine.RecordLogout(ctx, email); err != nil {
		return err
	}

	subject, body := logoutNoticeMessage()
	if err := s.notifier.Send(ctx, email, subject, body); err != nil {
		log.Printf("logout notice delivery failed for %s: %v", email, err)
	}
	return nil
}

// ResendOtp re-issues the registration OTP and mails it. Here a delivery
// failure is surfaced as its own error even though the fresh code has
// already been persisted.
func (s *AuthService) ResendOtp(ctx context.Context, email string) error {
	account, code, err := s.machine.ResendRegistrationOtp(ctx, email)
	if err != nil {
		return err
	}

	subject, body := resendOtpMessage(account.Name, code)
	if err := s.notifier.Send(ctx, account.Email, subject, body); err != nil {
		log.Printf("resend otp delivery failed for %s: %v", email, err)
		return fmt.Errorf("%w: %v", domain.ErrDelivery, err)
	}
	return nil
}

// Message templates, one per operation

func registrationOtpMessage(name, code string) (string, string) {
	return "Verify your email",
		fmt.Sprintf("Hello %s,\n\nYour verification OTP is %s. It expires in a few minutes.\n\nIf you did not register, ignore this mail.", name, code)
}

func loginOtpMessage(name, code string) (string, string) {
	return "Your login OTP",
		fmt.Sprintf("Hello %s,\n\nYour login OTP is %s. It expires in a few minutes.", name, code)
}

func loginSuccessMessage(name string) (string, string) {
	return "New login to your account",
		fmt.Sprintf("Hello %s,\n\nA new login to your account just completed. If this was not you, contact support.", name)
}

func logoutNoticeMessage() (string, string) {
	return "Logged out",
		"You have been logged out. Your session token remains valid until it expires."
}

func resendOtpMessage(name, code string) (string, string) {
	return "Your new verification OTP",
		fmt.Sprintf("Hello %s,\n\nYour new verification OTP is %s. Previous codes no longer work.", name, code)
}
