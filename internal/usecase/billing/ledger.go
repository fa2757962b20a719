package billing

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/recalliq-ai/backend/errors"
	"github.com/recalliq-ai/backend/internal/domain/entities"
	"github.com/recalliq-ai/backend/internal/domain/repositories"
	"github.com/recalliq-ai/backend/internal/infrastructure/metrics"
)

// Ledger owns every credit balance mutation. Debit is a single conditional
// update on the balance row, so two concurrent requests can never spend the
// same credits twice; the loser of the race gets ErrInsufficientCredits.
type Ledger struct {
	users   repositories.UserRepository
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewLedger creates a credit ledger
func NewLedger(users repositories.UserRepository, m *metrics.Metrics, logger *zap.Logger) *Ledger {
	return &Ledger{
		users:   users,
		metrics: m,
		logger:  logger,
	}
}

// Preflight checks that the balance covers the required amount without
// reserving anything. It exists to reject obviously underfunded requests
// before any work starts; only Debit is authoritative.
func (l *Ledger) Preflight(ctx context.Context, userID uuid.UUID, required int) error {
	user, err := l.users.FindByID(ctx, userID)
	if err != nil {
		return apperrors.ErrPersistenceFailed("read balance", err)
	}
	if user.Credits < required {
		return apperrors.ErrInsufficientCredits(required, user.Credits)
	}
	return nil
}

// Debit charges amount against the user's balance and returns the new
// balance. The decrement happens only when the balance covers the amount.
func (l *Ledger) Debit(ctx context.Context, userID uuid.UUID, amount int) (int, error) {
	balance, err := l.users.DebitCredits(ctx, userID, amount)
	if err != nil {
		if errors.Is(err, entities.ErrInsufficientCredits) {
			return balance, apperrors.ErrInsufficientCredits(amount, balance)
		}
		return 0, apperrors.ErrPersistenceFailed("debit credits", err)
	}

	if l.metrics != nil {
		l.metrics.CreditsCharged.Add(float64(amount))
	}
	l.logger.Info("credits debited",
		zap.String("user_id", userID.String()),
		zap.Int("amount", amount),
		zap.Int("balance", balance))

	return balance, nil
}

// Refund returns amount to the user's balance after a failed run and
// returns the new balance.
func (l *Ledger) Refund(ctx context.Context, userID uuid.UUID, amount int) (int, error) {
	balance, err := l.users.CreditCredits(ctx, userID, amount)
	if err != nil {
		return 0, apperrors.ErrPersistenceFailed("refund credits", err)
	}

	if l.metrics != nil {
		l.metrics.CreditsRefunded.Add(float64(amount))
	}
	l.logger.Info("credits refunded",
		zap.String("user_id", userID.String()),
		zap.Int("amount", amount),
		zap.Int("balance", balance))

	return balance, nil
}
