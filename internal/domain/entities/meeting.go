package entities

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// MeetingStatus is the lifecycle state of an analysis record
type MeetingStatus string

const (
	MeetingStatusPending    MeetingStatus = "pending"
	MeetingStatusProcessing MeetingStatus = "processing"
	MeetingStatusCompleted  MeetingStatus = "completed"
	MeetingStatusFailed     MeetingStatus = "failed"
)

// Meeting is the stored result of one transcript analysis. Derived fields are
// set together with the completed status and cleared together with the failed
// status; transitions go through Complete/Fail only, so a row never mixes the
// two shapes.
type Meeting struct {
	ID     uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID uuid.UUID `json:"user_id" gorm:"type:uuid;index;not null"`

	Title           string         `json:"title" gorm:"type:varchar(200);not null"`
	Transcript      string         `json:"transcript" gorm:"type:text;not null"`
	WordCount       int            `json:"word_count" gorm:"not null;default:0"`
	Participants    datatypes.JSON `json:"participants" gorm:"type:jsonb;default:'[]'"`
	MeetingDate     time.Time      `json:"meeting_date"`
	DurationMinutes int            `json:"duration_minutes" gorm:"default:0"`
	Tags            datatypes.JSON `json:"tags" gorm:"type:jsonb;default:'[]'"`

	Status        MeetingStatus `json:"status" gorm:"type:varchar(20);default:'pending';not null;index"`
	FailureReason *string       `json:"failure_reason,omitempty" gorm:"type:text"`

	// Derived fields, present only when Status == completed
	Summary       *string        `json:"summary,omitempty" gorm:"type:text"`
	KeyTopics     datatypes.JSON `json:"key_topics,omitempty" gorm:"type:jsonb"`
	Sentiment     *Sentiment     `json:"sentiment,omitempty" gorm:"type:varchar(20)"`
	RiskScore     *int           `json:"risk_score,omitempty"`
	RiskFactors   datatypes.JSON `json:"risk_factors,omitempty" gorm:"type:jsonb"`
	FollowUpEmail *string        `json:"follow_up_email,omitempty" gorm:"type:text"`

	CreditsUsed  int    `json:"credits_used" gorm:"not null;default:0"`
	ProcessingMS *int64 `json:"processing_ms,omitempty"`
	InputTokens  int    `json:"input_tokens" gorm:"default:0"`
	OutputTokens int    `json:"output_tokens" gorm:"default:0"`

	IsArchived bool      `json:"is_archived" gorm:"default:false;not null;index"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt  time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// NewMeeting creates a meeting record in the processing state. The record is
// persisted before the external AI call so a crash mid-call leaves
// discoverable state.
func NewMeeting(userID uuid.UUID, title, transcript string, participants []string, meetingDate time.Time, durationMinutes int, tags []string) *Meeting {
	now := time.Now()
	if meetingDate.IsZero() {
		meetingDate = now
	}
	if participants == nil {
		participants = []string{}
	}
	if tags == nil {
		tags = []string{}
	}
	participantsJSON, _ := json.Marshal(participants)
	tagsJSON, _ := json.Marshal(tags)

	return &Meeting{
		ID:              uuid.New(),
		UserID:          userID,
		Title:           title,
		Transcript:      transcript,
		WordCount:       CountWords(transcript),
		Participants:    participantsJSON,
		MeetingDate:     meetingDate,
		DurationMinutes: durationMinutes,
		Tags:            tagsJSON,
		Status:          MeetingStatusProcessing,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// CountWords returns the whitespace-separated word count of a transcript
func CountWords(transcript string) int {
	return len(strings.Fields(strings.TrimSpace(transcript)))
}

// Complete transitions the meeting to completed and stores the derived fields
// exactly as the gateway returned them.
func (m *Meeting) Complete(result *AnalysisResult, meta *CallMeta, creditsUsed int) error {
	if m.Status != MeetingStatusProcessing {
		return ErrInvalidStatusTransition
	}
	if result == nil {
		return ErrMissingAnalysisResult
	}

	topicsJSON, _ := json.Marshal(result.KeyTopics)
	factorsJSON, _ := json.Marshal(result.RiskFactors)

	summary := result.Summary
	sentiment := result.Sentiment
	riskScore := result.RiskScore

	m.Status = MeetingStatusCompleted
	m.FailureReason = nil
	m.Summary = &summary
	m.KeyTopics = topicsJSON
	m.Sentiment = &sentiment
	m.RiskScore = &riskScore
	m.RiskFactors = factorsJSON
	m.CreditsUsed = creditsUsed
	if text := result.FollowUp.Text(); text != "" {
		m.FollowUpEmail = &text
	}
	if meta != nil {
		m.ProcessingMS = &meta.ProcessingMS
		m.InputTokens = meta.InputTokens
		m.OutputTokens = meta.OutputTokens
	}
	m.UpdatedAt = time.Now()
	return nil
}

// Fail transitions the meeting to failed and clears any derived fields, so a
// failed record never carries analysis output.
func (m *Meeting) Fail(reason string) error {
	if m.Status != MeetingStatusProcessing {
		return ErrInvalidStatusTransition
	}
	m.Status = MeetingStatusFailed
	m.FailureReason = &reason
	m.Summary = nil
	m.KeyTopics = nil
	m.Sentiment = nil
	m.RiskScore = nil
	m.RiskFactors = nil
	m.FollowUpEmail = nil
	m.ProcessingMS = nil
	m.InputTokens = 0
	m.OutputTokens = 0
	m.UpdatedAt = time.Now()
	return nil
}

// Reopen moves a completed or failed meeting back to processing for
// reanalysis.
func (m *Meeting) Reopen() error {
	if m.Status != MeetingStatusCompleted && m.Status != MeetingStatusFailed {
		return ErrInvalidStatusTransition
	}
	m.Status = MeetingStatusProcessing
	m.FailureReason = nil
	m.UpdatedAt = time.Now()
	return nil
}

// IsCompleted reports whether analysis output is present
func (m *Meeting) IsCompleted() bool {
	return m.Status == MeetingStatusCompleted
}

// SetFollowUpEmail replaces the stored follow-up email text. Only valid on a
// completed meeting.
func (m *Meeting) SetFollowUpEmail(text string) error {
	if m.Status != MeetingStatusCompleted {
		return ErrInvalidStatusTransition
	}
	m.FollowUpEmail = &text
	m.UpdatedAt = time.Now()
	return nil
}

// ParticipantNames unmarshals the stored participants list
func (m *Meeting) ParticipantNames() []string {
	var names []string
	if len(m.Participants) > 0 {
		_ = json.Unmarshal(m.Participants, &names)
	}
	return names
}
