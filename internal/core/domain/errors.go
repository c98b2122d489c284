package domain

import "errors"

// Account lifecycle errors
var (
	ErrValidation       = errors.New("invalid input")
	ErrDuplicateEmail   = errors.New("email already registered")
	ErrNotFound         = errors.New("account not found")
	ErrInvalidOtp       = errors.New("invalid otp")
	ErrEmailNotVerified = errors.New("email not verified")
	ErrNotApproved      = errors.New("account not approved by admin")
	ErrAlreadyVerified  = errors.New("account already verified")
)

// Collaborator errors
var (
	ErrRepository = errors.New("repository failure")
	ErrDelivery   = errors.New("notification delivery failure")
)
