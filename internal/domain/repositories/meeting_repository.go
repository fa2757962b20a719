package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/recalliq-ai/backend/internal/domain/entities"
)

// MeetingFilters narrows meeting listings
type MeetingFilters struct {
	Status *entities.MeetingStatus
	Search string
	Limit  int
	Offset int
}

// MeetingStats summarizes a user's meetings for the dashboard
type MeetingStats struct {
	Total     int64               `json:"total"`
	Completed int64               `json:"completed"`
	Recent    []*entities.Meeting `json:"recent"`
}

// MeetingRepository defines analysis record persistence operations
type MeetingRepository interface {
	Create(ctx context.Context, meeting *entities.Meeting) error
	FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*entities.Meeting, error)
	Update(ctx context.Context, meeting *entities.Meeting) error
	List(ctx context.Context, userID uuid.UUID, filters MeetingFilters) ([]*entities.Meeting, int64, error)
	Archive(ctx context.Context, id, userID uuid.UUID) error
	Stats(ctx context.Context, userID uuid.UUID) (*MeetingStats, error)
}

// ActionItemRepository defines action item persistence operations
type ActionItemRepository interface {
	CreateBatch(ctx context.Context, items []*entities.ActionItem) error
	FindByMeeting(ctx context.Context, meetingID uuid.UUID) ([]*entities.ActionItem, error)
	FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*entities.ActionItem, error)
	Update(ctx context.Context, item *entities.ActionItem) error
	DeleteByMeeting(ctx context.Context, meetingID uuid.UUID) error
	MarkOverdue(ctx context.Context, userID uuid.UUID, now time.Time) error
}

// DecisionRepository defines decision persistence operations
type DecisionRepository interface {
	CreateBatch(ctx context.Context, decisions []*entities.Decision) error
	FindByMeeting(ctx context.Context, meetingID uuid.UUID) ([]*entities.Decision, error)
	FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*entities.Decision, error)
	Update(ctx context.Context, decision *entities.Decision) error
	DeleteByMeeting(ctx context.Context, meetingID uuid.UUID) error
}
