package repositories

import (
	"context"
	"time"

	"github.com/ekalavyajud/backend/internal/adapters/persistence/models"
)

// UserRepository defines account persistence. Read-then-write sequences for
// one email are serialized by the caller; AppendLoginRecord must be atomic
// on its own so concurrent audit appends never drop entries.
type UserRepository interface {
	Create(ctx context.Context, account *models.Account) error
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Update(ctx context.Context, account *models.Account) error
	List(ctx context.Context) ([]*models.Account, error)
	AppendLoginRecord(ctx context.Context, email string, record models.LoginRecord) error
	CompleteLogin(ctx context.Context, email string, record models.LoginRecord) error
	ClearExpiredOtps(ctx context.Context, issuedBefore time.Time) (int64, error)
}
