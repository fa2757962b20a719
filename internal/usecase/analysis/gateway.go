package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/recalliq-ai/backend/internal/domain/entities"
	"github.com/recalliq-ai/backend/pkg/ai"
)

// Gateway abstracts the AI provider behind the analysis workflow. The
// workflow receives an implementation at construction time, so tests and
// alternative providers plug in without touching orchestration code.
type Gateway interface {
	// AnalyzeTranscript runs one transcript analysis and returns the parsed
	// result plus provider call metadata.
	AnalyzeTranscript(ctx context.Context, title string, participants []string, transcript string) (*entities.AnalysisResult, *entities.CallMeta, error)

	// GenerateEmail drafts a follow-up email from an already completed
	// meeting.
	GenerateEmail(ctx context.Context, meeting *entities.Meeting, actionItems []*entities.ActionItem, decisions []*entities.Decision) (*entities.EmailDraft, *entities.CallMeta, error)
}

const analysisSystemPrompt = `You are RecallIQ AI — an elite meeting intelligence engine.
Detect explicit and HIDDEN decisions, assign risk scores, and track accountability.
Return ONLY valid JSON.`

const emailSystemPrompt = `You are an expert executive assistant. Write a professional follow-up email based on the meeting details provided.`

// GeminiGateway implements Gateway against the Gemini API
type GeminiGateway struct {
	client *ai.GeminiClient
	parser *Parser
	logger *zap.Logger
}

// NewGeminiGateway creates a Gemini-backed gateway
func NewGeminiGateway(client *ai.GeminiClient, logger *zap.Logger) *GeminiGateway {
	return &GeminiGateway{
		client: client,
		parser: NewParser(),
		logger: logger,
	}
}

// AnalyzeTranscript sends the transcript to Gemini and parses the result
func (g *GeminiGateway) AnalyzeTranscript(ctx context.Context, title string, participants []string, transcript string) (*entities.AnalysisResult, *entities.CallMeta, error) {
	userMessage := fmt.Sprintf(`Analyze this meeting transcript:
TITLE: %s
PARTICIPANTS: %s
TRANSCRIPT: %s

Required JSON structure: {
  "summary": "string",
  "keyTopics": ["string"],
  "sentiment": "positive|neutral|negative|mixed",
  "overallRiskScore": number,
  "riskFactors": ["string"],
  "actionItems": [{ "title": "string", "assignee": "string", "dueDate": "string", "riskScore": number }],
  "decisions": [{ "description": "string", "type": "explicit|implicit|hidden", "impact": "low|medium|high" }],
  "followUpEmail": { "subject": "string", "body": "string" }
}`, title, strings.Join(participants, ", "), transcript)

	g.logger.Info("analysis starting", zap.String("title", title))

	completion, err := g.generate(ctx, analysisSystemPrompt, userMessage)
	if err != nil {
		return nil, nil, err
	}

	result, err := g.parser.ParseAnalysisResponse(completion.Content)
	if err != nil {
		return nil, nil, err
	}

	return result, callMeta(completion), nil
}

// GenerateEmail asks Gemini for a follow-up email draft
func (g *GeminiGateway) GenerateEmail(ctx context.Context, meeting *entities.Meeting, actionItems []*entities.ActionItem, decisions []*entities.Decision) (*entities.EmailDraft, *entities.CallMeta, error) {
	summary := ""
	if meeting.Summary != nil {
		summary = *meeting.Summary
	}
	itemsJSON, _ := json.Marshal(actionItems)
	decisionsJSON, _ := json.Marshal(decisions)

	userMessage := fmt.Sprintf(`Meeting Title: %s
Date: %s
Participants: %s
Summary: %s
Action Items: %s
Decisions: %s

Return ONLY valid JSON with this structure:
{
  "subject": "string",
  "body": "string"
}`,
		meeting.Title,
		meeting.MeetingDate.Format("2006-01-02"),
		strings.Join(meeting.ParticipantNames(), ", "),
		summary,
		itemsJSON,
		decisionsJSON,
	)

	completion, err := g.generate(ctx, emailSystemPrompt, userMessage)
	if err != nil {
		return nil, nil, err
	}

	draft, err := g.parser.ParseEmailResponse(completion.Content)
	if err != nil {
		return nil, nil, err
	}

	return draft, callMeta(completion), nil
}

// generate calls the model once. A failure is terminal for the request; the
// workflow refunds rather than retrying an expensive call.
func (g *GeminiGateway) generate(ctx context.Context, systemPrompt, userMessage string) (*ai.Completion, error) {
	completion, err := g.client.GenerateJSON(ctx, systemPrompt, userMessage)
	if err != nil {
		g.logger.Error("model call failed", zap.Error(err))
		return nil, err
	}
	return completion, nil
}

func callMeta(completion *ai.Completion) *entities.CallMeta {
	return &entities.CallMeta{
		Model:        completion.Model,
		InputTokens:  completion.InputTokens,
		OutputTokens: completion.OutputTokens,
		ProcessingMS: completion.ProcessingMS,
	}
}
