package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/recalliq-ai/backend/internal/domain/entities"
	"github.com/recalliq-ai/backend/internal/domain/repositories"
)

// MeetingRepository implements the meeting repository interface using GORM
type MeetingRepository struct {
	db *gorm.DB
}

// NewMeetingRepository creates a new meeting repository
func NewMeetingRepository(db *gorm.DB) *MeetingRepository {
	return &MeetingRepository{
		db: db,
	}
}

// Create creates a new meeting record
func (r *MeetingRepository) Create(ctx context.Context, meeting *entities.Meeting) error {
	if err := r.db.WithContext(ctx).Create(meeting).Error; err != nil {
		return fmt.Errorf("failed to create meeting: %w", err)
	}
	return nil
}

// FindByIDForUser finds a meeting owned by the given user. Archived meetings
// are not returned.
func (r *MeetingRepository) FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*entities.Meeting, error) {
	var meeting entities.Meeting
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ? AND is_archived = ?", id, userID, false).
		First(&meeting).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, entities.ErrMeetingNotFound
		}
		return nil, fmt.Errorf("failed to find meeting: %w", err)
	}
	return &meeting, nil
}

// Update updates a meeting record
func (r *MeetingRepository) Update(ctx context.Context, meeting *entities.Meeting) error {
	if err := r.db.WithContext(ctx).Save(meeting).Error; err != nil {
		return fmt.Errorf("failed to update meeting: %w", err)
	}
	return nil
}

// List lists a user's meetings with pagination, status filter and title/tag
// search
func (r *MeetingRepository) List(ctx context.Context, userID uuid.UUID, filters repositories.MeetingFilters) ([]*entities.Meeting, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&entities.Meeting{}).
		Where("user_id = ? AND is_archived = ?", userID, false)

	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.Search != "" {
		pattern := "%" + filters.Search + "%"
		query = query.Where("title ILIKE ? OR tags::text ILIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count meetings: %w", err)
	}

	var meetings []*entities.Meeting
	if err := query.
		Omit("transcript").
		Order("created_at DESC").
		Limit(filters.Limit).
		Offset(filters.Offset).
		Find(&meetings).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list meetings: %w", err)
	}
	return meetings, total, nil
}

// Archive soft-deletes a meeting owned by the given user
func (r *MeetingRepository) Archive(ctx context.Context, id, userID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&entities.Meeting{}).
		Where("id = ? AND user_id = ? AND is_archived = ?", id, userID, false).
		Update("is_archived", true)
	if result.Error != nil {
		return fmt.Errorf("failed to archive meeting: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return entities.ErrMeetingNotFound
	}
	return nil
}

// Stats returns dashboard aggregates for a user
func (r *MeetingRepository) Stats(ctx context.Context, userID uuid.UUID) (*repositories.MeetingStats, error) {
	stats := &repositories.MeetingStats{}

	if err := r.db.WithContext(ctx).
		Model(&entities.Meeting{}).
		Where("user_id = ? AND is_archived = ?", userID, false).
		Count(&stats.Total).Error; err != nil {
		return nil, fmt.Errorf("failed to count meetings: %w", err)
	}

	if err := r.db.WithContext(ctx).
		Model(&entities.Meeting{}).
		Where("user_id = ? AND is_archived = ? AND status = ?", userID, false, entities.MeetingStatusCompleted).
		Count(&stats.Completed).Error; err != nil {
		return nil, fmt.Errorf("failed to count completed meetings: %w", err)
	}

	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_archived = ? AND status = ?", userID, false, entities.MeetingStatusCompleted).
		Omit("transcript").
		Order("created_at DESC").
		Limit(5).
		Find(&stats.Recent).Error; err != nil {
		return nil, fmt.Errorf("failed to load recent meetings: %w", err)
	}

	return stats, nil
}
