package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/recalliq-ai/backend/errors"
	"github.com/recalliq-ai/backend/internal/domain/entities"
	"github.com/recalliq-ai/backend/pkg/jwt"
)

type memUserRepo struct {
	byID    map[uuid.UUID]*entities.User
	byEmail map[string]*entities.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{
		byID:    make(map[uuid.UUID]*entities.User),
		byEmail: make(map[string]*entities.User),
	}
}

func (m *memUserRepo) Create(ctx context.Context, user *entities.User) error {
	if _, ok := m.byEmail[user.Email]; ok {
		return entities.ErrUserAlreadyExists
	}
	m.byID[user.ID] = user
	m.byEmail[user.Email] = user
	return nil
}
func (m *memUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	user, ok := m.byID[id]
	if !ok {
		return nil, entities.ErrUserNotFound
	}
	return user, nil
}
func (m *memUserRepo) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	user, ok := m.byEmail[email]
	if !ok {
		return nil, entities.ErrUserNotFound
	}
	return user, nil
}
func (m *memUserRepo) Update(ctx context.Context, user *entities.User) error   { return nil }
func (m *memUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID) error { return nil }
func (m *memUserRepo) Deactivate(ctx context.Context, id uuid.UUID) error      { return nil }
func (m *memUserRepo) List(ctx context.Context, limit, offset int) ([]*entities.User, int64, error) {
	return nil, 0, nil
}
func (m *memUserRepo) DebitCredits(ctx context.Context, userID uuid.UUID, amount int) (int, error) {
	return 0, nil
}
func (m *memUserRepo) CreditCredits(ctx context.Context, userID uuid.UUID, amount int) (int, error) {
	return 0, nil
}

type memSessionStore struct {
	values map[string]string
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{values: make(map[string]string)}
}

func (m *memSessionStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	m.values[key] = value
	return nil
}
func (m *memSessionStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, ok := m.values[key]
	return value, ok, nil
}
func (m *memSessionStore) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}
func (m *memSessionStore) DeleteByPrefix(ctx context.Context, prefix string) error {
	for key := range m.values {
		if strings.HasPrefix(key, prefix) {
			delete(m.values, key)
		}
	}
	return nil
}

func newTestService() (*Service, *memUserRepo, *memSessionStore) {
	users := newMemUserRepo()
	sessions := newMemSessionStore()
	manager := jwt.NewManager("access-secret", "refresh-secret", 15*time.Minute, 168*time.Hour)
	return NewService(users, sessions, manager, zap.NewNop()), users, sessions
}

func TestRegister_GrantsSignupCredits(t *testing.T) {
	svc, _, sessions := newTestService()

	user, tokens, err := svc.Register(context.Background(), "dana@example.com", "Dana", "Sup3rSecret")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.Credits != entities.DefaultSignupCredits {
		t.Fatalf("expected %d signup credits, got %d", entities.DefaultSignupCredits, user.Credits)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatal("tokens missing")
	}
	if len(sessions.values) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions.values))
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService()

	if _, _, err := svc.Register(context.Background(), "dana@example.com", "Dana", "Sup3rSecret"); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	_, _, err := svc.Register(context.Background(), "dana@example.com", "Other", "Sup3rSecret")
	if err == nil {
		t.Fatal("expected duplicate email error")
	}
	var appErr apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperrors.ErrorCode_AUTH_USER_ALREADY_EXISTS {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLogin_Success(t *testing.T) {
	svc, _, _ := newTestService()

	if _, _, err := svc.Register(context.Background(), "dana@example.com", "Dana", "Sup3rSecret"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	user, tokens, err := svc.Login(context.Background(), "dana@example.com", "Sup3rSecret")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if user.Email != "dana@example.com" || tokens.AccessToken == "" {
		t.Fatal("unexpected login result")
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _, _ := newTestService()

	if _, _, err := svc.Register(context.Background(), "dana@example.com", "Dana", "Sup3rSecret"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	_, _, err := svc.Login(context.Background(), "dana@example.com", "wrong")
	if err == nil {
		t.Fatal("expected invalid credentials")
	}
	var appErr apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperrors.ErrorCode_AUTH_INVALID_CREDENTIALS {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRefresh_RotatesSession(t *testing.T) {
	svc, _, sessions := newTestService()

	_, tokens, err := svc.Register(context.Background(), "dana@example.com", "Dana", "Sup3rSecret")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	_, rotated, err := svc.Refresh(context.Background(), tokens.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if rotated.RefreshToken == tokens.RefreshToken {
		t.Fatal("refresh token must rotate")
	}
	if len(sessions.values) != 1 {
		t.Fatalf("old session must be revoked, have %d", len(sessions.values))
	}

	// Old token is revoked after rotation
	if _, _, err := svc.Refresh(context.Background(), tokens.RefreshToken); err == nil {
		t.Fatal("expected revoked token to be rejected")
	}
}

func TestLogout_RevokesSession(t *testing.T) {
	svc, _, sessions := newTestService()

	_, tokens, err := svc.Register(context.Background(), "dana@example.com", "Dana", "Sup3rSecret")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if err := svc.Logout(context.Background(), tokens.RefreshToken); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if len(sessions.values) != 0 {
		t.Fatal("session must be deleted")
	}
	if _, _, err := svc.Refresh(context.Background(), tokens.RefreshToken); err == nil {
		t.Fatal("expected refresh to fail after logout")
	}
}

func TestLogin_DeactivatedAccount(t *testing.T) {
	svc, users, _ := newTestService()

	user, _, err := svc.Register(context.Background(), "dana@example.com", "Dana", "Sup3rSecret")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	users.byEmail[user.Email].IsActive = false

	_, _, err = svc.Login(context.Background(), "dana@example.com", "Sup3rSecret")
	if err == nil {
		t.Fatal("expected deactivated account error")
	}
	var appErr apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperrors.ErrorCode_AUTH_ACCOUNT_DEACTIVATED {
		t.Fatalf("unexpected error: %v", err)
	}
}
