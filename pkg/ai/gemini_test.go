package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/recalliq-ai/backend/pkg/config"
)

func TestGenerateJSON_Success(t *testing.T) {
	// Mock Gemini server
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("expected POST got %s", r.Method)
		}
		if !strings.Contains(r.URL.Path, "gemini-test:generateContent") {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Fatalf("missing api key header")
		}
		var payload map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("invalid payload: %v", err)
		}
		if _, ok := payload["systemInstruction"]; !ok {
			t.Fatalf("missing systemInstruction")
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{
				{"content": map[string]interface{}{
					"parts": []map[string]string{{"text": `{"summary":"ok"}`}},
				}},
			},
			"usageMetadata": map[string]int{
				"promptTokenCount":     120,
				"candidatesTokenCount": 40,
			},
		})
	}))
	defer ts.Close()

	client := NewGeminiClient(&config.GeminiConfig{
		APIKey:  "test-key",
		BaseURL: ts.URL,
		Model:   "gemini-test",
		Timeout: 5 * time.Second,
	})

	out, err := client.GenerateJSON(context.Background(), "system", "user message")
	if err != nil {
		t.Fatalf("GenerateJSON failed: %v", err)
	}
	if out.Content != `{"summary":"ok"}` {
		t.Fatalf("unexpected content %q", out.Content)
	}
	if out.InputTokens != 120 || out.OutputTokens != 40 {
		t.Fatalf("unexpected token counts %d/%d", out.InputTokens, out.OutputTokens)
	}
}

func TestGenerateJSON_ProviderError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	client := NewGeminiClient(&config.GeminiConfig{
		APIKey:  "test-key",
		BaseURL: ts.URL,
		Model:   "gemini-test",
		Timeout: 5 * time.Second,
	})

	if _, err := client.GenerateJSON(context.Background(), "system", "user"); err == nil {
		t.Fatalf("expected error on 429 status")
	}
}

func TestGenerateJSON_EmptyCandidates(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{"candidates": []interface{}{}})
	}))
	defer ts.Close()

	client := NewGeminiClient(&config.GeminiConfig{
		APIKey:  "test-key",
		BaseURL: ts.URL,
		Model:   "gemini-test",
		Timeout: 5 * time.Second,
	})

	if _, err := client.GenerateJSON(context.Background(), "system", "user"); err == nil {
		t.Fatalf("expected error on empty candidates")
	}
}
