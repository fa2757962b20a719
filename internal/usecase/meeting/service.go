package meeting

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/recalliq-ai/backend/errors"
	"github.com/recalliq-ai/backend/internal/domain/entities"
	"github.com/recalliq-ai/backend/internal/domain/repositories"
	"github.com/recalliq-ai/backend/internal/usecase/billing"
)

const statsCacheTTL = 60 * time.Second

// ViewCache is the subset of cache operations used for short-lived view
// caches. Implemented by cache.Store.
type ViewCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// ObjectStore is the subset of storage operations used for report exports.
// Implemented by storage.MinIOClient.
type ObjectStore interface {
	UploadText(ctx context.Context, objectName, content string) error
	GetFileURL(ctx context.Context, objectName string, expiry time.Duration) (string, error)
}

// Service covers reading and curating analyzed meetings: listings, stats,
// action item and decision updates, and report export.
type Service struct {
	meetings    repositories.MeetingRepository
	actionItems repositories.ActionItemRepository
	decisions   repositories.DecisionRepository
	users       repositories.UserRepository
	cache       ViewCache
	store       ObjectStore
	recorder    *billing.Recorder
	logger      *zap.Logger
}

// NewService creates the meeting service
func NewService(
	meetings repositories.MeetingRepository,
	actionItems repositories.ActionItemRepository,
	decisions repositories.DecisionRepository,
	users repositories.UserRepository,
	cache ViewCache,
	store ObjectStore,
	recorder *billing.Recorder,
	logger *zap.Logger,
) *Service {
	return &Service{
		meetings:    meetings,
		actionItems: actionItems,
		decisions:   decisions,
		users:       users,
		cache:       cache,
		store:       store,
		recorder:    recorder,
		logger:      logger,
	}
}

// List returns the user's meetings, transcript omitted
func (s *Service) List(ctx context.Context, userID uuid.UUID, filters repositories.MeetingFilters) ([]*entities.Meeting, int64, error) {
	meetings, total, err := s.meetings.List(ctx, userID, filters)
	if err != nil {
		return nil, 0, apperrors.ErrPersistenceFailed("list meetings", err)
	}
	return meetings, total, nil
}

// Get returns one meeting with its transcript
func (s *Service) Get(ctx context.Context, userID, meetingID uuid.UUID) (*entities.Meeting, error) {
	meeting, err := s.meetings.FindByIDForUser(ctx, meetingID, userID)
	if err != nil {
		return nil, apperrors.ErrNotFound("meeting")
	}
	return meeting, nil
}

// Archive soft-hides a meeting from listings
func (s *Service) Archive(ctx context.Context, userID, meetingID uuid.UUID) error {
	if err := s.meetings.Archive(ctx, meetingID, userID); err != nil {
		return apperrors.ErrNotFound("meeting")
	}
	s.invalidateStats(ctx, userID)
	return nil
}

// Stats returns dashboard stats, cached for a minute per user
func (s *Service) Stats(ctx context.Context, userID uuid.UUID) (*repositories.MeetingStats, error) {
	key := statsCacheKey(userID)

	if cached, found, err := s.cache.Get(ctx, key); err == nil && found {
		var stats repositories.MeetingStats
		if err := json.Unmarshal([]byte(cached), &stats); err == nil {
			return &stats, nil
		}
	}

	stats, err := s.meetings.Stats(ctx, userID)
	if err != nil {
		return nil, apperrors.ErrPersistenceFailed("load stats", err)
	}

	if encoded, err := json.Marshal(stats); err == nil {
		if err := s.cache.Set(ctx, key, string(encoded), statsCacheTTL); err != nil {
			s.logger.Warn("failed to cache stats", zap.Error(err))
		}
	}

	return stats, nil
}

// ActionItems lists the extracted action items of a meeting
func (s *Service) ActionItems(ctx context.Context, userID, meetingID uuid.UUID) ([]*entities.ActionItem, error) {
	if _, err := s.meetings.FindByIDForUser(ctx, meetingID, userID); err != nil {
		return nil, apperrors.ErrNotFound("meeting")
	}
	items, err := s.actionItems.FindByMeeting(ctx, meetingID)
	if err != nil {
		return nil, apperrors.ErrPersistenceFailed("list action items", err)
	}
	return items, nil
}

// Decisions lists the extracted decisions of a meeting
func (s *Service) Decisions(ctx context.Context, userID, meetingID uuid.UUID) ([]*entities.Decision, error) {
	if _, err := s.meetings.FindByIDForUser(ctx, meetingID, userID); err != nil {
		return nil, apperrors.ErrNotFound("meeting")
	}
	decisions, err := s.decisions.FindByMeeting(ctx, meetingID)
	if err != nil {
		return nil, apperrors.ErrPersistenceFailed("list decisions", err)
	}
	return decisions, nil
}

// ActionItemUpdate carries the user-editable action item fields
type ActionItemUpdate struct {
	Status   *entities.ActionItemStatus
	Assignee *string
	Priority *entities.ActionItemPriority
	DueDate  *time.Time
}

// UpdateActionItem applies a partial update to an action item
func (s *Service) UpdateActionItem(ctx context.Context, userID, itemID uuid.UUID, update ActionItemUpdate) (*entities.ActionItem, error) {
	item, err := s.actionItems.FindByIDForUser(ctx, itemID, userID)
	if err != nil {
		return nil, apperrors.ErrNotFound("action item")
	}

	if update.Status != nil {
		if err := item.SetStatus(*update.Status); err != nil {
			return nil, apperrors.ErrValidationFailed("invalid action item status")
		}
	}
	if update.Assignee != nil {
		item.Assignee = *update.Assignee
	}
	if update.Priority != nil {
		if !update.Priority.IsValid() {
			return nil, apperrors.ErrValidationFailed("invalid action item priority")
		}
		item.Priority = *update.Priority
	}
	if update.DueDate != nil {
		item.DueDate = update.DueDate
	}
	item.UpdatedAt = time.Now()

	if err := s.actionItems.Update(ctx, item); err != nil {
		return nil, apperrors.ErrPersistenceFailed("update action item", err)
	}
	return item, nil
}

// UpdateDecision updates the post-meeting status of a decision
func (s *Service) UpdateDecision(ctx context.Context, userID, decisionID uuid.UUID, status entities.DecisionStatus) (*entities.Decision, error) {
	decision, err := s.decisions.FindByIDForUser(ctx, decisionID, userID)
	if err != nil {
		return nil, apperrors.ErrNotFound("decision")
	}
	if err := decision.SetStatus(status); err != nil {
		return nil, apperrors.ErrValidationFailed("invalid decision status")
	}
	if err := s.decisions.Update(ctx, decision); err != nil {
		return nil, apperrors.ErrPersistenceFailed("update decision", err)
	}
	return decision, nil
}

// RefreshOverdue flips past-due pending items to overdue for a user
func (s *Service) RefreshOverdue(ctx context.Context, userID uuid.UUID) error {
	if err := s.actionItems.MarkOverdue(ctx, userID, time.Now()); err != nil {
		return apperrors.ErrPersistenceFailed("mark overdue", err)
	}
	return nil
}

// Export renders a completed meeting as a text report, uploads it to object
// storage and returns a presigned download URL valid for 24 hours.
func (s *Service) Export(ctx context.Context, userID, meetingID uuid.UUID) (string, error) {
	meeting, err := s.meetings.FindByIDForUser(ctx, meetingID, userID)
	if err != nil {
		return "", apperrors.ErrNotFound("meeting")
	}
	if !meeting.IsCompleted() {
		return "", apperrors.ErrAnalysisNotCompleted(meeting.ID.String())
	}

	items, _ := s.actionItems.FindByMeeting(ctx, meetingID)
	decisions, _ := s.decisions.FindByMeeting(ctx, meetingID)

	report := renderReport(meeting, items, decisions)
	objectName := fmt.Sprintf("exports/%s/%s-%d.txt", userID, meetingID, time.Now().Unix())

	if err := s.store.UploadText(ctx, objectName, report); err != nil {
		return "", apperrors.ErrStorageFailed("upload report", err)
	}

	url, err := s.store.GetFileURL(ctx, objectName, 24*time.Hour)
	if err != nil {
		return "", apperrors.ErrStorageFailed("presign report", err)
	}

	balance := 0
	if user, err := s.users.FindByID(ctx, userID); err == nil {
		balance = user.Credits
	}
	s.recorder.Record(ctx, userID, &meetingID, entities.UsageActionExport, entities.UsageOutcomeSuccess, 0, balance, nil)

	return url, nil
}

func (s *Service) invalidateStats(ctx context.Context, userID uuid.UUID) {
	if err := s.cache.Delete(ctx, statsCacheKey(userID)); err != nil {
		s.logger.Warn("failed to invalidate stats cache", zap.Error(err))
	}
}

func statsCacheKey(userID uuid.UUID) string {
	return fmt.Sprintf("stats:%s", userID)
}

func renderReport(meeting *entities.Meeting, items []*entities.ActionItem, decisions []*entities.Decision) string {
	var b strings.Builder

	fmt.Fprintf(&b, "MEETING REPORT: %s\n", meeting.Title)
	fmt.Fprintf(&b, "Date: %s\n", meeting.MeetingDate.Format("2006-01-02"))
	if names := meeting.ParticipantNames(); len(names) > 0 {
		fmt.Fprintf(&b, "Participants: %s\n", strings.Join(names, ", "))
	}
	b.WriteString("\n")

	if meeting.Summary != nil {
		fmt.Fprintf(&b, "SUMMARY\n%s\n\n", *meeting.Summary)
	}
	if meeting.Sentiment != nil {
		fmt.Fprintf(&b, "Sentiment: %s\n", *meeting.Sentiment)
	}
	if meeting.RiskScore != nil {
		fmt.Fprintf(&b, "Overall risk score: %d/100\n", *meeting.RiskScore)
	}
	b.WriteString("\n")

	if len(items) > 0 {
		b.WriteString("ACTION ITEMS\n")
		for _, item := range items {
			fmt.Fprintf(&b, "- [%s] %s (assignee: %s", item.Status, item.Title, item.Assignee)
			if item.DueDate != nil {
				fmt.Fprintf(&b, ", due %s", item.DueDate.Format("2006-01-02"))
			}
			b.WriteString(")\n")
		}
		b.WriteString("\n")
	}

	if len(decisions) > 0 {
		b.WriteString("DECISIONS\n")
		for _, d := range decisions {
			fmt.Fprintf(&b, "- [%s/%s] %s\n", d.Type, d.Impact, d.Description)
		}
		b.WriteString("\n")
	}

	if meeting.FollowUpEmail != nil {
		fmt.Fprintf(&b, "FOLLOW-UP EMAIL\n%s\n", *meeting.FollowUpEmail)
	}

	return b.String()
}
