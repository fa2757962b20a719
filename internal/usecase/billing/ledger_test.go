package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/recalliq-ai/backend/errors"
	"github.com/recalliq-ai/backend/internal/domain/entities"
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
	balance, ok := m.balances[userID]
	if !ok {
		return 0, entities.ErrUserNotFound
	}
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
	fail    bool
}

func (m *memUsageRepo) Create(ctx context.Context, entry *entities.UsageEntry) error {
	if m.fail {
		return errors.New("insert failed")
	}
	m.entries = append(m.entries, entry)
	return nil
}
func (m *memUsageRepo) ListByUser(ctx context.Context, userID uuid.UUID, since time.Time, limit, offset int) ([]*entities.UsageEntry, int64, error) {
	return m.entries, int64(len(m.entries)), nil
}
func (m *memUsageRepo) SummarizeByAction(ctx context.Context, userID uuid.UUID, since time.Time) ([]entities.UsageSummary, error) {
	return nil, nil
}

func TestLedger_DebitAndRefund(t *testing.T) {
	users := newMemUserRepo()
	userID := uuid.New()
	users.balances[userID] = 30

	ledger := NewLedger(users, nil, zap.NewNop())

	balance, err := ledger.Debit(context.Background(), userID, 20)
	if err != nil {
		t.Fatalf("Debit failed: %v", err)
	}
	if balance != 10 {
		t.Fatalf("expected balance 10, got %d", balance)
	}

	balance, err = ledger.Refund(context.Background(), userID, 20)
	if err != nil {
		t.Fatalf("Refund failed: %v", err)
	}
	if balance != 30 {
		t.Fatalf("expected balance 30, got %d", balance)
	}
}

func TestLedger_DebitInsufficient(t *testing.T) {
	users := newMemUserRepo()
	userID := uuid.New()
	users.balances[userID] = 5

	ledger := NewLedger(users, nil, zap.NewNop())

	_, err := ledger.Debit(context.Background(), userID, 10)
	if err == nil {
		t.Fatal("expected error")
	}
	var appErr apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperrors.ErrorCode_INSUFFICIENT_CREDITS {
		t.Fatalf("unexpected error: %v", err)
	}
	if appErr.HTTPCode != 402 {
		t.Fatalf("expected 402, got %d", appErr.HTTPCode)
	}
	if users.balances[userID] != 5 {
		t.Fatalf("balance must be untouched, got %d", users.balances[userID])
	}
}

func TestLedger_PreflightDoesNotReserve(t *testing.T) {
	users := newMemUserRepo()
	userID := uuid.New()
	users.balances[userID] = 15

	ledger := NewLedger(users, nil, zap.NewNop())

	if err := ledger.Preflight(context.Background(), userID, 10); err != nil {
		t.Fatalf("Preflight failed: %v", err)
	}
	if users.balances[userID] != 15 {
		t.Fatalf("preflight must not touch the balance, got %d", users.balances[userID])
	}

	if err := ledger.Preflight(context.Background(), userID, 20); err == nil {
		t.Fatal("expected insufficient credits from preflight")
	}
}

func TestRecorder_SwallowsInsertErrors(t *testing.T) {
	usage := &memUsageRepo{fail: true}
	recorder := NewRecorder(usage, zap.NewNop())

	// Must not panic or surface the error
	recorder.Record(context.Background(), uuid.New(), nil,
		entities.UsageActionAnalyzeMeeting, entities.UsageOutcomeSuccess, 10, 40, nil)

	if len(usage.entries) != 0 {
		t.Fatal("entry should not be stored")
	}
}

func TestRecorder_RecordsEntry(t *testing.T) {
	usage := &memUsageRepo{}
	recorder := NewRecorder(usage, zap.NewNop())
	userID := uuid.New()
	meetingID := uuid.New()

	recorder.Record(context.Background(), userID, &meetingID,
		entities.UsageActionRegenerateEmail, entities.UsageOutcomeSuccess, 1, 39,
		&entities.UsageMetadata{Model: "gemini-test"})

	if len(usage.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(usage.entries))
	}
	entry := usage.entries[0]
	if entry.UserID != userID || entry.MeetingID == nil || *entry.MeetingID != meetingID {
		t.Fatal("entry identity fields wrong")
	}
	if entry.CreditsUsed != 1 || entry.CreditsBalance != 39 {
		t.Fatalf("entry amounts wrong: %d/%d", entry.CreditsUsed, entry.CreditsBalance)
	}
}
