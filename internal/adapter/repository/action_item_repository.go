package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/recalliq-ai/backend/internal/domain/entities"
)

// ActionItemRepository implements the action item repository interface using GORM
type ActionItemRepository struct {
	db *gorm.DB
}

// NewActionItemRepository creates a new action item repository
func NewActionItemRepository(db *gorm.DB) *ActionItemRepository {
	return &ActionItemRepository{
		db: db,
	}
}

// CreateBatch inserts all extracted action items for a meeting
func (r *ActionItemRepository) CreateBatch(ctx context.Context, items []*entities.ActionItem) error {
	if len(items) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(items).Error; err != nil {
		return fmt.Errorf("failed to create action items: %w", err)
	}
	return nil
}

// FindByMeeting returns all action items for a meeting
func (r *ActionItemRepository) FindByMeeting(ctx context.Context, meetingID uuid.UUID) ([]*entities.ActionItem, error) {
	var items []*entities.ActionItem
	if err := r.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Order("created_at ASC").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to find action items: %w", err)
	}
	return items, nil
}

// FindByIDForUser finds an action item owned by the given user
func (r *ActionItemRepository) FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*entities.ActionItem, error) {
	var item entities.ActionItem
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&item).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, entities.ErrActionItemNotFound
		}
		return nil, fmt.Errorf("failed to find action item: %w", err)
	}
	return &item, nil
}

// Update updates an action item
func (r *ActionItemRepository) Update(ctx context.Context, item *entities.ActionItem) error {
	if err := r.db.WithContext(ctx).Save(item).Error; err != nil {
		return fmt.Errorf("failed to update action item: %w", err)
	}
	return nil
}

// DeleteByMeeting removes all action items for a meeting. Used when a
// reanalysis replaces the extracted set.
func (r *ActionItemRepository) DeleteByMeeting(ctx context.Context, meetingID uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Delete(&entities.ActionItem{}).Error; err != nil {
		return fmt.Errorf("failed to delete action items: %w", err)
	}
	return nil
}

// MarkOverdue flips open items past their due date to overdue
func (r *ActionItemRepository) MarkOverdue(ctx context.Context, userID uuid.UUID, now time.Time) error {
	if err := r.db.WithContext(ctx).
		Model(&entities.ActionItem{}).
		Where("user_id = ? AND due_date < ? AND status IN ?", userID, now,
			[]entities.ActionItemStatus{entities.ActionItemStatusPending, entities.ActionItemStatusInProgress}).
		Update("status", entities.ActionItemStatusOverdue).Error; err != nil {
		return fmt.Errorf("failed to mark overdue action items: %w", err)
	}
	return nil
}
