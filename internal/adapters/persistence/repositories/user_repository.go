package repositories

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ekalavyajud/backend/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// userRepository implements UserRepository on gorm/mysql
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create creates a new account
func (r *userRepository) Create(ctx context.Context, account *models.Account) error {
	return r.db.WithContext(ctx).Create(account).Error
}

// GetByEmail gets an account by email (case-sensitive, as stored)
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	var account models.Account
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// ExistsByEmail checks if an account exists for the email
func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Account{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

// Update writes the full account row back
func (r *userRepository) Update(ctx context.Context, account *models.Account) error {
	return r.db.WithContext(ctx).Save(account).Error
}

// List returns all accounts
func (r *userRepository) List(ctx context.Context) ([]*models.Account, error) {
	var accounts []*models.Account
	if err := r.db.WithContext(ctx).Order("created_at").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// AppendLoginRecord appends one audit entry in a single statement so that
// concurrent appends for the same account cannot overwrite each other.
func (r *userRepository) AppendLoginRecord(ctx context.Context, email string, record models.LoginRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}

	result := r.db.WithContext(ctx).Exec(
		`UPDATE users
		 SET login_records = JSON_ARRAY_APPEND(COALESCE(login_records, JSON_ARRAY()), '$', CAST(? AS JSON))
		 WHERE email = ?`,
		string(payload), email,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CompleteLogin applies the whole successful-login transition atomically:
// consume the OTP, stamp last_login_at and append the audit entry.
func (r *userRepository) CompleteLogin(ctx context.Context, email string, record models.LoginRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}

	result := r.db.WithContext(ctx).Exec(
		`UPDATE users
		 SET otp = '',
		     otp_issued_at = NULL,
		     last_login_at = ?,
		     login_records = JSON_ARRAY_APPEND(COALESCE(login_records, JSON_ARRAY()), '$', CAST(? AS JSON))
		 WHERE email = ?`,
		record.Time, string(payload), email,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ClearExpiredOtps invalidates OTPs issued before the cutoff
func (r *userRepository) ClearExpiredOtps(ctx context.Context, issuedBefore time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Account{}).
		Where("otp <> '' AND otp_issued_at IS NOT NULL AND otp_issued_at < ?", issuedBefore).
		Updates(map[string]interface{}{"otp": "", "otp_issued_at": nil})
	return result.RowsAffected, result.Error
}
