package transcription

import (
	"context"
	"fmt"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"
)

// AssemblyProvider implements Provider with the official AssemblyAI SDK
type AssemblyProvider struct {
	client *aai.Client
}

// NewAssemblyProvider creates an AssemblyAI-backed provider
func NewAssemblyProvider(apiKey string) *AssemblyProvider {
	return &AssemblyProvider{client: aai.NewClient(apiKey)}
}

// Submit starts a transcription job for a publicly reachable audio URL
func (p *AssemblyProvider) Submit(ctx context.Context, audioURL, languageCode string) (string, error) {
	params := &aai.TranscriptOptionalParams{
		SpeakerLabels: aai.Bool(true),
	}
	if languageCode != "" {
		params.LanguageCode = aai.TranscriptLanguageCode(languageCode)
	}

	transcript, err := p.client.Transcripts.TranscribeFromURL(ctx, audioURL, params)
	if err != nil {
		return "", fmt.Errorf("failed to submit transcription: %w", err)
	}
	if transcript.ID == nil {
		return "", fmt.Errorf("transcription submitted without an ID")
	}

	return *transcript.ID, nil
}

// Fetch returns the current state of a transcription job
func (p *AssemblyProvider) Fetch(ctx context.Context, transcriptID string) (*ProviderTranscript, error) {
	transcript, err := p.client.Transcripts.Get(ctx, transcriptID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transcript: %w", err)
	}

	result := &ProviderTranscript{Status: string(transcript.Status)}
	if transcript.Text != nil {
		result.Text = *transcript.Text
	}
	if transcript.Error != nil {
		result.Error = *transcript.Error
	}

	return result, nil
}
