package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/recalliq-ai/backend/internal/domain/entities"
)

// UsageRepository defines the append-only usage ledger. Entries are never
// updated or deleted.
type UsageRepository interface {
	Create(ctx context.Context, entry *entities.UsageEntry) error
	ListByUser(ctx context.Context, userID uuid.UUID, since time.Time, limit, offset int) ([]*entities.UsageEntry, int64, error)
	SummarizeByAction(ctx context.Context, userID uuid.UUID, since time.Time) ([]entities.UsageSummary, error)
}
