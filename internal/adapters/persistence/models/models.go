package models

import (
	"time"
)

// Login record actions
const (
	ActionLogin  = "login"
	ActionLogout = "logout"
)

// DefaultUserType is assigned when registration omits user_type
const DefaultUserType = "intern"

// LoginRecord is a single entry in an account's append-only audit trail
type LoginRecord struct {
	Action string    `json:"action"`
	Time   time.Time `json:"time"`
}

// Account represents the users table. The outstanding OTP and the audit
// trail live inline on the row; login_records is serialized as a JSON
// column so the whole account stays a single-row read/write.
type Account struct {
	ID          string `gorm:"primaryKey;size:36" json:"id"`
	Name        string `gorm:"size:100" json:"name"`
	Email       string `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Phone       string `gorm:"size:20" json:"phone"`
	UserType    string `gorm:"size:30;default:'intern'" json:"user_type"`
	CouncilID   string `gorm:"size:50" json:"council_id,omitempty"`
	DOB         string `gorm:"size:20" json:"dob,omitempty"`
	Address     string `gorm:"size:255" json:"address,omitempty"`
	Gender      string `gorm:"size:20" json:"gender,omitempty"`
	Nationality string `gorm:"size:50" json:"nationality,omitempty"`
	Aadhaar     string `gorm:"size:20" json:"aadhaar,omitempty"`
	Passport    string `gorm:"size:20" json:"passport,omitempty"`
	PanCard     string `gorm:"size:20" json:"pan_card,omitempty"`

	EmailVerified   bool `gorm:"default:false" json:"email_verified"`
	OtpVerified     bool `gorm:"default:false" json:"otp_verified"`
	ApprovedByAdmin bool `gorm:"default:false" json:"approved_by_admin"`

	// Otp holds the bcrypt hash of the outstanding code; empty means no
	// OTP is outstanding. Never serialized to clients.
	Otp         string     `gorm:"size:100" json:"-"`
	OtpIssuedAt *time.Time `json:"-"`

	LoginRecords []LoginRecord `gorm:"serializer:json;type:json" json:"login_records,omitempty"`

	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

func (Account) TableName() string {
	return "users"
}

// AccountResponse DTO returned on successful login verification
type AccountResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	UserType string `json:"user_type"`
}

func (a *Account) ToResponse() *AccountResponse {
	return &AccountResponse{
		ID:       a.ID,
		Name:     a.Name,
		Email:    a.Email,
		UserType: a.UserType,
	}
}

// HasLiveOtp reports whether an OTP is outstanding and still inside the
// validity window.
func (a *Account) HasLiveOtp(now time.Time, validity time.Duration) bool {
	if a.Otp == "" || a.OtpIssuedAt == nil {
		return false
	}
	return now.Sub(*a.OtpIssuedAt) <= validity
}
