package entities

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// UsageAction is the kind of billable action a usage entry records
type UsageAction string

const (
	UsageActionAnalyzeMeeting  UsageAction = "analyze_meeting"
	UsageActionRegenerateEmail UsageAction = "regenerate_email"
	UsageActionReanalyze       UsageAction = "reanalyze"
	UsageActionExport          UsageAction = "export"
	UsageActionTranscribe      UsageAction = "transcribe"
)

// UsageOutcome is the result of the billable action
type UsageOutcome string

const (
	UsageOutcomeSuccess  UsageOutcome = "success"
	UsageOutcomeFailed   UsageOutcome = "failed"
	UsageOutcomeRefunded UsageOutcome = "refunded"
)

// UsageMetadata is free-form context stored with an entry
type UsageMetadata struct {
	WordCount    int    `json:"word_count,omitempty"`
	ProcessingMS int64  `json:"processing_ms,omitempty"`
	Model        string `json:"model,omitempty"`
	Tokens       int    `json:"tokens,omitempty"`
}

// UsageEntry is one immutable audit record of a billable action. Entries are
// created and read, never updated or deleted.
type UsageEntry struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID    uuid.UUID  `json:"user_id" gorm:"type:uuid;index;not null"`
	MeetingID *uuid.UUID `json:"meeting_id,omitempty" gorm:"type:uuid;index"`

	Action      UsageAction `json:"action" gorm:"type:varchar(50);not null;index"`
	CreditsUsed int         `json:"credits_used" gorm:"not null"`
	// CreditsBalance is the account balance immediately after the action.
	CreditsBalance int            `json:"credits_balance" gorm:"not null"`
	Outcome        UsageOutcome   `json:"outcome" gorm:"type:varchar(20);default:'success';not null"`
	Metadata       datatypes.JSON `json:"metadata,omitempty" gorm:"type:jsonb"`
	IPAddress      *string        `json:"ip_address,omitempty" gorm:"type:varchar(45)"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime;index"`
}

// NewUsageEntry creates an audit entry for one billable action
func NewUsageEntry(userID uuid.UUID, meetingID *uuid.UUID, action UsageAction, creditsUsed, creditsBalance int, outcome UsageOutcome, meta *UsageMetadata) *UsageEntry {
	entry := &UsageEntry{
		ID:             uuid.New(),
		UserID:         userID,
		MeetingID:      meetingID,
		Action:         action,
		CreditsUsed:    creditsUsed,
		CreditsBalance: creditsBalance,
		Outcome:        outcome,
		CreatedAt:      time.Now(),
	}
	if meta != nil {
		metaJSON, err := json.Marshal(meta)
		if err == nil {
			entry.Metadata = metaJSON
		}
	}
	return entry
}

// UsageSummary aggregates successful usage per action kind
type UsageSummary struct {
	Action       UsageAction `json:"action"`
	TotalCredits int         `json:"total_credits"`
	Count        int         `json:"count"`
}
