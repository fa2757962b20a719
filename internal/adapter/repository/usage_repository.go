package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/recalliq-ai/backend/internal/domain/entities"
)

// UsageRepository implements the append-only usage ledger using GORM.
// There are deliberately no update or delete methods.
type UsageRepository struct {
	db *gorm.DB
}

// NewUsageRepository creates a new usage repository
func NewUsageRepository(db *gorm.DB) *UsageRepository {
	return &UsageRepository{
		db: db,
	}
}

// Create appends a usage entry
func (r *UsageRepository) Create(ctx context.Context, entry *entities.UsageEntry) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create usage entry: %w", err)
	}
	return nil
}

// ListByUser returns a user's usage entries since the given time, newest first
func (r *UsageRepository) ListByUser(ctx context.Context, userID uuid.UUID, since time.Time, limit, offset int) ([]*entities.UsageEntry, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&entities.UsageEntry{}).
		Where("user_id = ? AND created_at >= ?", userID, since)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count usage entries: %w", err)
	}

	var entries []*entities.UsageEntry
	if err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list usage entries: %w", err)
	}
	return entries, total, nil
}

// SummarizeByAction aggregates successful usage per action kind since the
// given time
func (r *UsageRepository) SummarizeByAction(ctx context.Context, userID uuid.UUID, since time.Time) ([]entities.UsageSummary, error) {
	var summaries []entities.UsageSummary
	if err := r.db.WithContext(ctx).
		Model(&entities.UsageEntry{}).
		Select("action, SUM(credits_used) AS total_credits, COUNT(*) AS count").
		Where("user_id = ? AND created_at >= ? AND outcome = ?", userID, since, entities.UsageOutcomeSuccess).
		Group("action").
		Scan(&summaries).Error; err != nil {
		return nil, fmt.Errorf("failed to summarize usage: %w", err)
	}
	return summaries, nil
}
