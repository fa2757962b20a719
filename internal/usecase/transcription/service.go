package transcription

import (
	"context"
	"errors"
	"fmt"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/recalliq-ai/backend/errors"
	"github.com/recalliq-ai/backend/internal/domain/entities"
	"github.com/recalliq-ai/backend/internal/usecase/billing"
)

// TranscribeCredits is the flat price of transcribing one audio file.
const TranscribeCredits = 5

// Provider abstracts the transcription vendor
type Provider interface {
	// Submit starts a job and returns the provider's transcript ID
	Submit(ctx context.Context, audioURL, languageCode string) (string, error)
	// Fetch returns the current job state
	Fetch(ctx context.Context, transcriptID string) (*ProviderTranscript, error)
}

// ProviderTranscript is a vendor-neutral view of one transcription job
type ProviderTranscript struct {
	Status string
	Text   string
	Error  string
}

const (
	statusCompleted = "completed"
	statusError     = "error"
)

// Result is a finished transcription
type Result struct {
	Text      string `json:"text"`
	WordCount int    `json:"word_count"`
}

// Service turns an audio URL into a transcript, charging a flat credit
// price with the same debit-then-refund-on-failure shape as analysis.
type Service struct {
	provider    Provider
	ledger      *billing.Ledger
	recorder    *billing.Recorder
	pollTimeout time.Duration
	logger      *zap.Logger
}

// NewService creates the transcription service
func NewService(provider Provider, ledger *billing.Ledger, recorder *billing.Recorder, pollTimeout time.Duration, logger *zap.Logger) *Service {
	if pollTimeout <= 0 {
		pollTimeout = 10 * time.Minute
	}
	return &Service{
		provider:    provider,
		ledger:      ledger,
		recorder:    recorder,
		pollTimeout: pollTimeout,
		logger:      logger,
	}
}

// Transcribe runs one audio transcription end to end
func (s *Service) Transcribe(ctx context.Context, userID uuid.UUID, audioURL, languageCode string) (*Result, error) {
	if audioURL == "" {
		return nil, apperrors.ErrValidationFailed("audio_url is required")
	}

	if err := s.ledger.Preflight(ctx, userID, TranscribeCredits); err != nil {
		return nil, err
	}

	balance, err := s.ledger.Debit(ctx, userID, TranscribeCredits)
	if err != nil {
		s.recorder.Record(ctx, userID, nil, entities.UsageActionTranscribe, entities.UsageOutcomeFailed, 0, balance, nil)
		return nil, err
	}

	start := time.Now()
	text, err := s.run(ctx, audioURL, languageCode)
	if err != nil {
		refundBalance, refundErr := s.ledger.Refund(ctx, userID, TranscribeCredits)
		if refundErr != nil {
			s.logger.Error("refund failed after transcription error",
				zap.String("user_id", userID.String()),
				zap.Error(refundErr))
			refundBalance = balance
		}
		s.recorder.Record(ctx, userID, nil, entities.UsageActionTranscribe, entities.UsageOutcomeRefunded, TranscribeCredits, refundBalance, nil)
		return nil, apperrors.ErrTranscriptionFailed(err)
	}

	result := &Result{Text: text, WordCount: entities.CountWords(text)}
	s.recorder.Record(ctx, userID, nil, entities.UsageActionTranscribe, entities.UsageOutcomeSuccess, TranscribeCredits, balance, &entities.UsageMetadata{
		WordCount:    result.WordCount,
		ProcessingMS: time.Since(start).Milliseconds(),
		Model:        "assemblyai",
	})

	s.logger.Info("transcription completed",
		zap.String("user_id", userID.String()),
		zap.Int("word_count", result.WordCount))

	return result, nil
}

var errStillProcessing = errors.New("transcription still processing")

// run submits the job and polls until it finishes or the poll window closes
func (s *Service) run(ctx context.Context, audioURL, languageCode string) (string, error) {
	transcriptID, err := s.provider.Submit(ctx, audioURL, languageCode)
	if err != nil {
		return "", err
	}

	var text string
	pollFn := func() error {
		transcript, err := s.provider.Fetch(ctx, transcriptID)
		if err != nil {
			return err
		}
		switch transcript.Status {
		case statusCompleted:
			text = transcript.Text
			return nil
		case statusError:
			return backoff.Permanent(fmt.Errorf("provider error: %s", transcript.Error))
		default:
			return errStillProcessing
		}
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 3 * time.Second
	bo.MaxInterval = 15 * time.Second
	bo.MaxElapsedTime = s.pollTimeout

	if err := backoff.Retry(pollFn, backoff.WithContext(bo, ctx)); err != nil {
		return "", err
	}
	if text == "" {
		return "", fmt.Errorf("transcription returned no text")
	}

	return text, nil
}
