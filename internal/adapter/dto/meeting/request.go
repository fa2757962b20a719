package meeting

// AnalyzeMeetingRequest represents the request to analyze a transcript
type AnalyzeMeetingRequest struct {
	Title           string   `json:"title" validate:"required,max=200"`
	Transcript      string   `json:"transcript" validate:"required,min=50,max=100000"`
	Participants    []string `json:"participants,omitempty" validate:"omitempty,max=50,dive,max=100"`
	MeetingDate     string   `json:"meeting_date,omitempty"`
	DurationMinutes int      `json:"duration_minutes,omitempty" validate:"omitempty,min=0,max=1440"`
	Tags            []string `json:"tags,omitempty" validate:"omitempty,max=10,dive,max=50"`
}

// ListMeetingsRequest represents the query parameters for listing meetings
type ListMeetingsRequest struct {
	Status   string `query:"status" validate:"omitempty,oneof=pending processing completed failed"`
	Search   string `query:"search" validate:"omitempty,max=200"`
	Page     int    `query:"page" validate:"omitempty,min=1"`
	PageSize int    `query:"page_size" validate:"omitempty,min=1,max=100"`
}

// UpdateActionItemRequest represents a partial action item update
type UpdateActionItemRequest struct {
	Status   *string `json:"status,omitempty" validate:"omitempty,oneof=pending in_progress completed cancelled overdue"`
	Assignee *string `json:"assignee,omitempty" validate:"omitempty,max=100"`
	Priority *string `json:"priority,omitempty" validate:"omitempty,oneof=low medium high urgent"`
	DueDate  *string `json:"due_date,omitempty"`
}

// UpdateDecisionRequest represents a decision status update
type UpdateDecisionRequest struct {
	Status string `json:"status" validate:"required,oneof=active implemented reversed pending"`
}

// TranscribeRequest represents the request to transcribe an audio URL
type TranscribeRequest struct {
	AudioURL     string `json:"audio_url" validate:"required,url"`
	LanguageCode string `json:"language_code,omitempty" validate:"omitempty,max=10"`
}
