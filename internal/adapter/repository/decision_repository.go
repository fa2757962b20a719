package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/recalliq-ai/backend/internal/domain/entities"
)

// DecisionRepository implements the decision repository interface using GORM
type DecisionRepository struct {
	db *gorm.DB
}

// NewDecisionRepository creates a new decision repository
func NewDecisionRepository(db *gorm.DB) *DecisionRepository {
	return &DecisionRepository{
		db: db,
	}
}

// CreateBatch inserts all extracted decisions for a meeting
func (r *DecisionRepository) CreateBatch(ctx context.Context, decisions []*entities.Decision) error {
	if len(decisions) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(decisions).Error; err != nil {
		return fmt.Errorf("failed to create decisions: %w", err)
	}
	return nil
}

// FindByMeeting returns all decisions for a meeting
func (r *DecisionRepository) FindByMeeting(ctx context.Context, meetingID uuid.UUID) ([]*entities.Decision, error) {
	var decisions []*entities.Decision
	if err := r.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Order("created_at ASC").
		Find(&decisions).Error; err != nil {
		return nil, fmt.Errorf("failed to find decisions: %w", err)
	}
	return decisions, nil
}

// FindByIDForUser finds a decision owned by the given user
func (r *DecisionRepository) FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*entities.Decision, error) {
	var decision entities.Decision
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&decision).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, entities.ErrDecisionNotFound
		}
		return nil, fmt.Errorf("failed to find decision: %w", err)
	}
	return &decision, nil
}

// Update updates a decision
func (r *DecisionRepository) Update(ctx context.Context, decision *entities.Decision) error {
	if err := r.db.WithContext(ctx).Save(decision).Error; err != nil {
		return fmt.Errorf("failed to update decision: %w", err)
	}
	return nil
}

// DeleteByMeeting removes all decisions for a meeting. Used when a reanalysis
// replaces the extracted set.
func (r *DecisionRepository) DeleteByMeeting(ctx context.Context, meetingID uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Delete(&entities.Decision{}).Error; err != nil {
		return fmt.Errorf("failed to delete decisions: %w", err)
	}
	return nil
}
