package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ActionItemStatus is the lifecycle state of an action item
type ActionItemStatus string

const (
	ActionItemStatusPending    ActionItemStatus = "pending"
	ActionItemStatusInProgress ActionItemStatus = "in_progress"
	ActionItemStatusCompleted  ActionItemStatus = "completed"
	ActionItemStatusCancelled  ActionItemStatus = "cancelled"
	ActionItemStatusOverdue    ActionItemStatus = "overdue"
)

// IsValid checks if the status is one of the known values
func (s ActionItemStatus) IsValid() bool {
	switch s {
	case ActionItemStatusPending, ActionItemStatusInProgress, ActionItemStatusCompleted,
		ActionItemStatusCancelled, ActionItemStatusOverdue:
		return true
	}
	return false
}

// ActionItemPriority ranks action items
type ActionItemPriority string

const (
	ActionItemPriorityLow    ActionItemPriority = "low"
	ActionItemPriorityMedium ActionItemPriority = "medium"
	ActionItemPriorityHigh   ActionItemPriority = "high"
	ActionItemPriorityUrgent ActionItemPriority = "urgent"
)

// IsValid checks if the priority is one of the known values
func (p ActionItemPriority) IsValid() bool {
	switch p {
	case ActionItemPriorityLow, ActionItemPriorityMedium, ActionItemPriorityHigh, ActionItemPriorityUrgent:
		return true
	}
	return false
}

// ActionItem is one extracted task, owned transitively by the meeting's
// account. Users may edit status/assignee/priority after extraction.
type ActionItem struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	MeetingID uuid.UUID `json:"meeting_id" gorm:"type:uuid;index;not null"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;index;not null"`

	Title       string             `json:"title" gorm:"type:varchar(300);not null"`
	Description string             `json:"description" gorm:"type:text"`
	Assignee    string             `json:"assignee" gorm:"type:varchar(100);default:'Unassigned'"`
	DueDate     *time.Time         `json:"due_date,omitempty"`
	Priority    ActionItemPriority `json:"priority" gorm:"type:varchar(20);default:'medium'"`
	Status      ActionItemStatus   `json:"status" gorm:"type:varchar(20);default:'pending';index"`

	RiskScore  *int    `json:"risk_score,omitempty"`
	RiskReason *string `json:"risk_reason,omitempty" gorm:"type:text"`
	IsInferred bool    `json:"is_inferred" gorm:"default:false"`

	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	Tags        datatypes.JSON `json:"tags" gorm:"type:jsonb;default:'[]'"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// NewActionItem creates an action item from an extracted result
func NewActionItem(meetingID, userID uuid.UUID, extracted ExtractedActionItem) *ActionItem {
	now := time.Now()
	item := &ActionItem{
		ID:         uuid.New(),
		MeetingID:  meetingID,
		UserID:     userID,
		Title:      extracted.Title,
		Assignee:   extracted.Assignee,
		Priority:   ActionItemPriorityMedium,
		Status:     ActionItemStatusPending,
		IsInferred: extracted.IsInferred,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if item.Assignee == "" {
		item.Assignee = "Unassigned"
	}
	if extracted.RiskScore > 0 {
		score := extracted.RiskScore
		item.RiskScore = &score
	}
	if extracted.RiskReason != "" {
		reason := extracted.RiskReason
		item.RiskReason = &reason
	}
	if due, err := time.Parse("2006-01-02", extracted.DueDate); err == nil {
		item.DueDate = &due
	}
	return item
}

// SetStatus updates the status and tracks the completion timestamp
func (a *ActionItem) SetStatus(status ActionItemStatus) error {
	if !status.IsValid() {
		return ErrInvalidActionItemStatus
	}
	a.Status = status
	if status == ActionItemStatusCompleted {
		now := time.Now()
		a.CompletedAt = &now
	} else {
		a.CompletedAt = nil
	}
	a.UpdatedAt = time.Now()
	return nil
}
