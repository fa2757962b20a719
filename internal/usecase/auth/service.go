package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/recalliq-ai/backend/errors"
	"github.com/recalliq-ai/backend/internal/domain/entities"
	"github.com/recalliq-ai/backend/internal/domain/repositories"
	"github.com/recalliq-ai/backend/pkg/jwt"
)

// SessionStore is the subset of cache operations the auth service needs.
// Implemented by cache.Store.
type SessionStore interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, bool, error)
	Delete(ctx context.Context, keys ...string) error
	DeleteByPrefix(ctx context.Context, prefix string) error
}

// TokenPair is an issued access/refresh token pair
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Service handles registration, login and token lifecycle. Refresh tokens
// are stored server-side as SHA-256 digests in Redis, so logout and rotation
// can invalidate them before their JWT expiry.
type Service struct {
	users      repositories.UserRepository
	sessions   SessionStore
	jwtManager *jwt.Manager
	logger     *zap.Logger
}

// NewService creates the auth service
func NewService(users repositories.UserRepository, sessions SessionStore, jwtManager *jwt.Manager, logger *zap.Logger) *Service {
	return &Service{
		users:      users,
		sessions:   sessions,
		jwtManager: jwtManager,
		logger:     logger,
	}
}

// Register creates a new account with the signup credit grant and signs the
// user in.
func (s *Service) Register(ctx context.Context, email, name, password string) (*entities.User, *TokenPair, error) {
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, nil, apperrors.ErrUserAlreadyExists(email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, apperrors.ErrInternal(err)
	}

	user := entities.NewUser(email, name, string(hash))
	if err := user.Validate(); err != nil {
		return nil, nil, apperrors.ErrValidationFailed(err.Error())
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, entities.ErrUserAlreadyExists) {
			return nil, nil, apperrors.ErrUserAlreadyExists(email)
		}
		return nil, nil, apperrors.ErrPersistenceFailed("create user", err)
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("user registered",
		zap.String("user_id", user.ID.String()),
		zap.Int("credits", user.Credits))

	return user, tokens, nil
}

// Login verifies credentials and issues a token pair
func (s *Service) Login(ctx context.Context, email, password string) (*entities.User, *TokenPair, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, nil, apperrors.ErrInvalidCredentials()
	}
	if !user.IsActive {
		return nil, nil, apperrors.ErrAccountDeactivated()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, apperrors.ErrInvalidCredentials()
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn("failed to update last login", zap.Error(err))
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	return user, tokens, nil
}

// Refresh rotates a refresh token: the old session is deleted and a new pair
// is issued. A token missing from the session store is treated as revoked.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*entities.User, *TokenPair, error) {
	userID, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, nil, apperrors.ErrInvalidRefreshToken()
	}

	tokenHash, err := s.jwtManager.HashToken(refreshToken)
	if err != nil {
		return nil, nil, apperrors.ErrInvalidRefreshToken()
	}

	key := sessionKey(userID, tokenHash)
	_, found, err := s.sessions.Get(ctx, key)
	if err != nil {
		return nil, nil, apperrors.ErrCacheFailed("read session", err)
	}
	if !found {
		return nil, nil, apperrors.ErrInvalidRefreshToken()
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, nil, apperrors.ErrUserNotFound()
	}
	if !user.IsActive {
		return nil, nil, apperrors.ErrAccountDeactivated()
	}

	if err := s.sessions.Delete(ctx, key); err != nil {
		s.logger.Warn("failed to delete rotated session", zap.Error(err))
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	return user, tokens, nil
}

// Logout revokes the refresh token's session
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	userID, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		// Already invalid, nothing to revoke
		return nil
	}
	tokenHash, err := s.jwtManager.HashToken(refreshToken)
	if err != nil {
		return nil
	}
	if err := s.sessions.Delete(ctx, sessionKey(userID, tokenHash)); err != nil {
		return apperrors.ErrCacheFailed("delete session", err)
	}
	return nil
}

// LogoutAll revokes every session of a user
func (s *Service) LogoutAll(ctx context.Context, userID uuid.UUID) error {
	if err := s.sessions.DeleteByPrefix(ctx, fmt.Sprintf("session:%s:", userID)); err != nil {
		return apperrors.ErrCacheFailed("delete sessions", err)
	}
	return nil
}

func (s *Service) issueTokens(ctx context.Context, user *entities.User) (*TokenPair, error) {
	accessToken, err := s.jwtManager.GenerateAccessToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, apperrors.ErrInternal(err)
	}
	refreshToken, err := s.jwtManager.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, apperrors.ErrInternal(err)
	}

	tokenHash, err := s.jwtManager.HashToken(refreshToken)
	if err != nil {
		return nil, apperrors.ErrInternal(err)
	}
	if err := s.sessions.Set(ctx, sessionKey(user.ID, tokenHash), "1", s.jwtManager.GetRefreshExpiry()); err != nil {
		return nil, apperrors.ErrCacheFailed("store session", err)
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func sessionKey(userID uuid.UUID, tokenHash string) string {
	return fmt.Sprintf("session:%s:%s", userID, tokenHash)
}
