package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/recalliq-ai/backend/internal/domain/entities"
)

// UserRepository defines account persistence operations
type UserRepository interface {
	Create(ctx context.Context, user *entities.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*entities.User, error)
	FindByEmail(ctx context.Context, email string) (*entities.User, error)
	Update(ctx context.Context, user *entities.User) error
	UpdateLastLogin(ctx context.Context, userID uuid.UUID) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*entities.User, int64, error)

	// DebitCredits atomically decrements the balance by amount, but only when
	// the balance covers it: a single conditional update, no read-then-write.
	// Returns entities.ErrInsufficientCredits when the balance is too low and
	// the new balance otherwise.
	DebitCredits(ctx context.Context, userID uuid.UUID, amount int) (int, error)

	// CreditCredits atomically increments the balance by amount (refunds,
	// top-ups) and returns the new balance.
	CreditCredits(ctx context.Context, userID uuid.UUID, amount int) (int, error)
}
