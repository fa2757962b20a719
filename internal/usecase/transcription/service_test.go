package transcription

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/recalliq-ai/backend/errors"
	"github.com/recalliq-ai/backend/internal/domain/entities"
	"github.com/recalliq-ai/backend/internal/usecase/billing"
)

type memUserRepo struct {
	balances map[uuid.UUID]int
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{balances: make(map[uuid.UUID]int)}
}

func (m *memUserRepo) Create(ctx context.Context, user *entities.User) error { return nil }
func (m *memUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	balance, ok := m.balances[id]
	if !ok {
		return nil, entities.ErrUserNotFound
	}
	return &entities.User{ID: id, Credits: balance, IsActive: true}, nil
}
func (m *memUserRepo) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	return nil, entities.ErrUserNotFound
}
func (m *memUserRepo) Update(ctx context.Context, user *entities.User) error   { return nil }
func (m *memUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID) error { return nil }
func (m *memUserRepo) Deactivate(ctx context.Context, id uuid.UUID) error      { return nil }
func (m *memUserRepo) List(ctx context.Context, limit, offset int) ([]*entities.User, int64, error) {
	return nil, 0, nil
}
func (m *memUserRepo) DebitCredits(ctx context.Context, userID uuid.UUID, amount int) (int, error) {
	balance := m.balances[userID]
	if balance < amount {
		return balance, entities.ErrInsufficientCredits
	}
	m.balances[userID] = balance - amount
	return m.balances[userID], nil
}
func (m *memUserRepo) CreditCredits(ctx context.Context, userID uuid.UUID, amount int) (int, error) {
	m.balances[userID] += amount
	return m.balances[userID], nil
}

type memUsageRepo struct {
	entries []*entities.UsageEntry
}

func (m *memUsageRepo) Create(ctx context.Context, entry *entities.UsageEntry) error {
	m.entries = append(m.entries, entry)
	return nil
}
func (m *memUsageRepo) ListByUser(ctx context.Context, userID uuid.UUID, since time.Time, limit, offset int) ([]*entities.UsageEntry, int64, error) {
	return m.entries, int64(len(m.entries)), nil
}
func (m *memUsageRepo) SummarizeByAction(ctx context.Context, userID uuid.UUID, since time.Time) ([]entities.UsageSummary, error) {
	return nil, nil
}

type stubProvider struct {
	submitErr error
	polls     int
	pollsLeft int
	finalErr  string
	text      string
}

func (s *stubProvider) Submit(ctx context.Context, audioURL, languageCode string) (string, error) {
	if s.submitErr != nil {
		return "", s.submitErr
	}
	return "tr_123", nil
}

func (s *stubProvider) Fetch(ctx context.Context, transcriptID string) (*ProviderTranscript, error) {
	s.polls++
	if s.pollsLeft > 0 {
		s.pollsLeft--
		return &ProviderTranscript{Status: "processing"}, nil
	}
	if s.finalErr != "" {
		return &ProviderTranscript{Status: "error", Error: s.finalErr}, nil
	}
	return &ProviderTranscript{Status: "completed", Text: s.text}, nil
}

func newTestService(provider Provider, users *memUserRepo, usage *memUsageRepo) *Service {
	logger := zap.NewNop()
	ledger := billing.NewLedger(users, nil, logger)
	recorder := billing.NewRecorder(usage, logger)
	return NewService(provider, ledger, recorder, time.Minute, logger)
}

func TestTranscribe_Success(t *testing.T) {
	users := newMemUserRepo()
	usage := &memUsageRepo{}
	userID := uuid.New()
	users.balances[userID] = 20

	provider := &stubProvider{pollsLeft: 1, text: "hello team this is the recording"}
	svc := newTestService(provider, users, usage)

	result, err := svc.Transcribe(context.Background(), userID, "https://example.com/audio.mp3", "")
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if result.Text != "hello team this is the recording" {
		t.Fatalf("unexpected text %q", result.Text)
	}
	if result.WordCount != 6 {
		t.Fatalf("expected 6 words, got %d", result.WordCount)
	}
	if users.balances[userID] != 15 {
		t.Fatalf("expected 5 credits charged, balance %d", users.balances[userID])
	}
	if len(usage.entries) != 1 || usage.entries[0].Action != entities.UsageActionTranscribe {
		t.Fatal("expected one transcribe usage entry")
	}
	if provider.polls < 2 {
		t.Fatalf("expected polling to retry, polls %d", provider.polls)
	}
}

func TestTranscribe_ProviderErrorRefunds(t *testing.T) {
	users := newMemUserRepo()
	usage := &memUsageRepo{}
	userID := uuid.New()
	users.balances[userID] = 20

	provider := &stubProvider{finalErr: "audio unreadable"}
	svc := newTestService(provider, users, usage)

	_, err := svc.Transcribe(context.Background(), userID, "https://example.com/audio.mp3", "")
	if err == nil {
		t.Fatal("expected error")
	}
	var appErr apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperrors.ErrorCode_TRANSCRIPTION_FAILED {
		t.Fatalf("unexpected error: %v", err)
	}
	if users.balances[userID] != 20 {
		t.Fatalf("credits must be refunded, balance %d", users.balances[userID])
	}
	if len(usage.entries) != 1 || usage.entries[0].Outcome != entities.UsageOutcomeRefunded {
		t.Fatal("expected one refunded usage entry")
	}
}

func TestTranscribe_InsufficientCredits(t *testing.T) {
	users := newMemUserRepo()
	usage := &memUsageRepo{}
	userID := uuid.New()
	users.balances[userID] = 2

	provider := &stubProvider{text: "some text"}
	svc := newTestService(provider, users, usage)

	_, err := svc.Transcribe(context.Background(), userID, "https://example.com/audio.mp3", "")
	if err == nil {
		t.Fatal("expected insufficient credits")
	}
	if users.balances[userID] != 2 {
		t.Fatalf("balance must be untouched, got %d", users.balances[userID])
	}
	if provider.polls != 0 {
		t.Fatal("provider must not be called")
	}
}
