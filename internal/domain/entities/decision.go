package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// DecisionType classifies how a decision surfaced in the transcript.
// "hidden" means the model infers it was implied but never stated.
type DecisionType string

const (
	DecisionTypeExplicit DecisionType = "explicit"
	DecisionTypeImplicit DecisionType = "implicit"
	DecisionTypeHidden   DecisionType = "hidden"
)

// IsValid checks if the decision type is one of the known values
func (t DecisionType) IsValid() bool {
	switch t {
	case DecisionTypeExplicit, DecisionTypeImplicit, DecisionTypeHidden:
		return true
	}
	return false
}

// DecisionImpact ranks the expected impact of a decision
type DecisionImpact string

const (
	DecisionImpactLow      DecisionImpact = "low"
	DecisionImpactMedium   DecisionImpact = "medium"
	DecisionImpactHigh     DecisionImpact = "high"
	DecisionImpactCritical DecisionImpact = "critical"
)

// IsValid checks if the impact is one of the known values
func (i DecisionImpact) IsValid() bool {
	switch i {
	case DecisionImpactLow, DecisionImpactMedium, DecisionImpactHigh, DecisionImpactCritical:
		return true
	}
	return false
}

// DecisionStatus tracks what happened to a decision after the meeting
type DecisionStatus string

const (
	DecisionStatusActive      DecisionStatus = "active"
	DecisionStatusImplemented DecisionStatus = "implemented"
	DecisionStatusReversed    DecisionStatus = "reversed"
	DecisionStatusPending     DecisionStatus = "pending"
)

// IsValid checks if the status is one of the known values
func (s DecisionStatus) IsValid() bool {
	switch s {
	case DecisionStatusActive, DecisionStatusImplemented, DecisionStatusReversed, DecisionStatusPending:
		return true
	}
	return false
}

// Decision is one extracted decision, owned transitively by the meeting's
// account.
type Decision struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	MeetingID uuid.UUID `json:"meeting_id" gorm:"type:uuid;index;not null"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;index;not null"`

	Description string         `json:"description" gorm:"type:text;not null"`
	Type        DecisionType   `json:"type" gorm:"type:varchar(20);default:'explicit';index"`
	Impact      DecisionImpact `json:"impact" gorm:"type:varchar(20);default:'medium'"`
	MadeBy      *string        `json:"made_by,omitempty" gorm:"type:varchar(100)"`
	Status      DecisionStatus `json:"status" gorm:"type:varchar(20);default:'active'"`
	Tags        datatypes.JSON `json:"tags" gorm:"type:jsonb;default:'[]'"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// NewDecision creates a decision from an extracted result
func NewDecision(meetingID, userID uuid.UUID, extracted ExtractedDecision) *Decision {
	now := time.Now()
	decision := &Decision{
		ID:          uuid.New(),
		MeetingID:   meetingID,
		UserID:      userID,
		Description: extracted.Description,
		Type:        DecisionTypeExplicit,
		Impact:      DecisionImpactMedium,
		Status:      DecisionStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if t := DecisionType(extracted.Type); t.IsValid() {
		decision.Type = t
	}
	if i := DecisionImpact(extracted.Impact); i.IsValid() {
		decision.Impact = i
	}
	if extracted.MadeBy != "" {
		madeBy := extracted.MadeBy
		decision.MadeBy = &madeBy
	}
	return decision
}

// SetStatus updates the post-meeting status of the decision
func (d *Decision) SetStatus(status DecisionStatus) error {
	if !status.IsValid() {
		return ErrInvalidDecisionStatus
	}
	d.Status = status
	d.UpdatedAt = time.Now()
	return nil
}
