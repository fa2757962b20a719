package entities

// Sentiment is the overall tone the analyzer assigned to a meeting
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
	SentimentMixed    Sentiment = "mixed"
)

// IsValid checks if the sentiment is one of the known values
func (s Sentiment) IsValid() bool {
	switch s {
	case SentimentPositive, SentimentNeutral, SentimentNegative, SentimentMixed:
		return true
	}
	return false
}

// AnalysisResult is the structured output of one transcript analysis as
// returned by the AI gateway. Field tags match the JSON shape the model is
// instructed to produce.
type AnalysisResult struct {
	Summary     string                `json:"summary"`
	KeyTopics   []string              `json:"keyTopics"`
	Sentiment   Sentiment             `json:"sentiment"`
	RiskScore   int                   `json:"overallRiskScore"`
	RiskFactors []string              `json:"riskFactors"`
	ActionItems []ExtractedActionItem `json:"actionItems"`
	Decisions   []ExtractedDecision   `json:"decisions"`
	FollowUp    *EmailDraft           `json:"followUpEmail"`
}

// ExtractedActionItem is an action item as extracted by the model
type ExtractedActionItem struct {
	Title      string `json:"title"`
	Assignee   string `json:"assignee"`
	DueDate    string `json:"dueDate"`
	RiskScore  int    `json:"riskScore"`
	RiskReason string `json:"riskReason"`
	IsInferred bool   `json:"isInferred"`
}

// ExtractedDecision is a decision as extracted by the model. Type "hidden"
// marks a decision the model infers was implied but never explicitly stated.
type ExtractedDecision struct {
	Description string `json:"description"`
	Type        string `json:"type"`
	Impact      string `json:"impact"`
	MadeBy      string `json:"madeBy"`
}

// EmailDraft is a generated follow-up email
type EmailDraft struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Text flattens the draft into the single text column stored on the meeting
func (e *EmailDraft) Text() string {
	if e == nil {
		return ""
	}
	if e.Subject == "" {
		return e.Body
	}
	return "Subject: " + e.Subject + "\n\n" + e.Body
}

// CallMeta carries provider metadata for one gateway call
type CallMeta struct {
	Model        string
	InputTokens  int
	OutputTokens int
	ProcessingMS int64
}
