package user

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/recalliq-ai/backend/errors"
	"github.com/recalliq-ai/backend/internal/domain/entities"
	"github.com/recalliq-ai/backend/internal/domain/repositories"
)

// Service covers profile management and usage history
type Service struct {
	users  repositories.UserRepository
	usage  repositories.UsageRepository
	logger *zap.Logger
}

// NewService creates the user service
func NewService(users repositories.UserRepository, usage repositories.UsageRepository, logger *zap.Logger) *Service {
	return &Service{
		users:  users,
		usage:  usage,
		logger: logger,
	}
}

// ProfileUpdate carries the user-editable profile fields
type ProfileUpdate struct {
	Name      *string
	Company   *string
	AvatarURL *string
}

// UpdateProfile applies a partial profile update
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, update ProfileUpdate) (*entities.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, apperrors.ErrUserNotFound()
	}

	if update.Name != nil {
		if *update.Name == "" {
			return nil, apperrors.ErrValidationFailed("name cannot be empty")
		}
		user.Name = *update.Name
	}
	if update.Company != nil {
		user.Company = update.Company
	}
	if update.AvatarURL != nil {
		user.AvatarURL = update.AvatarURL
	}
	user.UpdatedAt = time.Now()

	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.ErrPersistenceFailed("update profile", err)
	}
	return user, nil
}

// ChangePassword verifies the current password and stores a new hash
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return apperrors.ErrUserNotFound()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return apperrors.ErrInvalidCredentials()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.ErrInternal(err)
	}
	user.PasswordHash = string(hash)
	user.UpdatedAt = time.Now()

	if err := s.users.Update(ctx, user); err != nil {
		return apperrors.ErrPersistenceFailed("change password", err)
	}

	s.logger.Info("password changed", zap.String("user_id", userID.String()))
	return nil
}

// Deactivate soft-disables the account
func (s *Service) Deactivate(ctx context.Context, userID uuid.UUID) error {
	if err := s.users.Deactivate(ctx, userID); err != nil {
		return apperrors.ErrPersistenceFailed("deactivate user", err)
	}
	return nil
}

// List pages through all accounts. Admin only; enforced at the route.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*entities.User, int64, error) {
	users, total, err := s.users.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, apperrors.ErrPersistenceFailed("list users", err)
	}
	return users, total, nil
}

// Usage lists the user's usage entries since a point in time
func (s *Service) Usage(ctx context.Context, userID uuid.UUID, since time.Time, limit, offset int) ([]*entities.UsageEntry, int64, error) {
	entries, total, err := s.usage.ListByUser(ctx, userID, since, limit, offset)
	if err != nil {
		return nil, 0, apperrors.ErrPersistenceFailed("list usage", err)
	}
	return entries, total, nil
}

// UsageSummary aggregates credits per action since a point in time
func (s *Service) UsageSummary(ctx context.Context, userID uuid.UUID, since time.Time) ([]entities.UsageSummary, error) {
	summary, err := s.usage.SummarizeByAction(ctx, userID, since)
	if err != nil {
		return nil, apperrors.ErrPersistenceFailed("summarize usage", err)
	}
	return summary, nil
}
