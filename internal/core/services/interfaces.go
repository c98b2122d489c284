package services

import "context"

// Note: AccountStateMachine implementation is in account_state.go
// Note: AuthService implementation is in auth_service.go

// OtpGenerator produces single-use numeric credentials
type OtpGenerator interface {
	Generate() (string, error)
}

// Notifier delivers a message to an email address
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SessionSigner issues a bearer token bound to an account identity
type SessionSigner interface {
	Issue(userID, email, userType string) (string, error)
}
