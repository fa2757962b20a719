package analysis

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/recalliq-ai/backend/internal/domain/entities"
)

// Parser handles parsing and validation of model responses
type Parser struct{}

// NewParser creates a new Parser instance
func NewParser() *Parser {
	return &Parser{}
}

// ParseAnalysisResponse parses the JSON response from the model into an
// AnalysisResult and normalizes it.
func (p *Parser) ParseAnalysisResponse(jsonString string) (*entities.AnalysisResult, error) {
	// Extract JSON from response (the model might wrap it in markdown code blocks)
	jsonString = extractJSON(jsonString)

	var result entities.AnalysisResult
	if err := json.Unmarshal([]byte(jsonString), &result); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	if err := p.ValidateAnalysisResult(&result); err != nil {
		return nil, err
	}

	return &result, nil
}

// ParseEmailResponse parses the JSON response for a follow-up email draft
func (p *Parser) ParseEmailResponse(jsonString string) (*entities.EmailDraft, error) {
	jsonString = extractJSON(jsonString)

	var draft entities.EmailDraft
	if err := json.Unmarshal([]byte(jsonString), &draft); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	if draft.Body == "" {
		return nil, fmt.Errorf("missing body in email response")
	}

	return &draft, nil
}

// ValidateAnalysisResult validates required fields and normalizes the rest
func (p *Parser) ValidateAnalysisResult(result *entities.AnalysisResult) error {
	if result == nil {
		return fmt.Errorf("analysis result is nil")
	}

	if result.Summary == "" {
		return fmt.Errorf("missing summary in response")
	}

	if !result.Sentiment.IsValid() {
		result.Sentiment = entities.SentimentNeutral
	}
	if result.RiskScore < 0 {
		result.RiskScore = 0
	}
	if result.RiskScore > 100 {
		result.RiskScore = 100
	}

	// Lists can be empty for short meetings, just ensure they're initialized
	if result.KeyTopics == nil {
		result.KeyTopics = make([]string, 0)
	}
	if result.RiskFactors == nil {
		result.RiskFactors = make([]string, 0)
	}
	if result.ActionItems == nil {
		result.ActionItems = make([]entities.ExtractedActionItem, 0)
	}
	if result.Decisions == nil {
		result.Decisions = make([]entities.ExtractedDecision, 0)
	}

	return nil
}

// extractJSON extracts JSON content from markdown code blocks or plain text
func extractJSON(content string) string {
	content = strings.TrimSpace(content)

	// Check if wrapped in markdown code block
	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		if idx := strings.LastIndex(content, "```"); idx != -1 {
			content = content[:idx]
		}
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		if idx := strings.LastIndex(content, "```"); idx != -1 {
			content = content[:idx]
		}
	}

	return strings.TrimSpace(content)
}
