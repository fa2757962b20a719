package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/recalliq-ai/backend/pkg/config"
)

// GeminiClient is a minimal client for the Gemini generateContent API
type GeminiClient struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// NewGeminiClient creates a Gemini client from the provided config
func NewGeminiClient(cfg *config.GeminiConfig) *GeminiClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &GeminiClient{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		client:  &http.Client{Timeout: timeout},
	}
}

// generateRequest is the shape for generateContent requests
type generateRequest struct {
	Contents          []content         `json:"contents"`
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
	Temperature      float64 `json:"temperature,omitempty"`
}

// generateResponse is a minimal response shape
type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}

// Completion is the text output of one model call plus provider metadata
type Completion struct {
	Content      string
	Model        string
	InputTokens  int
	OutputTokens int
	ProcessingMS int64
}

// GenerateJSON sends a system instruction and user message to Gemini in JSON
// mode and returns the raw text content. No retry is attempted here.
func (g *GeminiClient) GenerateJSON(ctx context.Context, systemPrompt, userMessage string) (*Completion, error) {
	start := time.Now()

	reqBody := generateRequest{
		Contents: []content{
			{Role: "user", Parts: []part{{Text: userMessage}}},
		},
		SystemInstruction: &content{Parts: []part{{Text: systemPrompt}}},
		GenerationConfig: &generationConfig{
			ResponseMimeType: "application/json",
			Temperature:      0.2,
		},
	}

	b, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.baseURL, g.model)
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-goog-api-key", g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("gemini returned status %d", resp.StatusCode)
	}

	var gr generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, err
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty response from gemini")
	}

	return &Completion{
		Content:      gr.Candidates[0].Content.Parts[0].Text,
		Model:        g.model,
		InputTokens:  gr.UsageMetadata.PromptTokenCount,
		OutputTokens: gr.UsageMetadata.CandidatesTokenCount,
		ProcessingMS: time.Since(start).Milliseconds(),
	}, nil
}

// Model returns the configured model name
func (g *GeminiClient) Model() string {
	return g.model
}
