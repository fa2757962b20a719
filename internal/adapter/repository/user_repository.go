package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/recalliq-ai/backend/internal/domain/entities"
)

// UserRepository implements the user repository interface using GORM
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *entities.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindByID finds a user by ID
func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	var user entities.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, entities.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return &user, nil
}

// FindByEmail finds a user by email
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	var user entities.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, entities.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return &user, nil
}

// Update updates a user
func (r *UserRepository) Update(ctx context.Context, user *entities.User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// UpdateLastLogin updates the last login timestamp
func (r *UserRepository) UpdateLastLogin(ctx context.Context, userID uuid.UUID) error {
	now := time.Now()
	if err := r.db.WithContext(ctx).
		Model(&entities.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"last_login_at": now,
			"updated_at":    now,
		}).Error; err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

// Deactivate soft-deactivates a user. Accounts are never deleted.
func (r *UserRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Model(&entities.User{}).
		Where("id = ?", id).
		Update("is_active", false).Error; err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}
	return nil
}

// List lists users with pagination
func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]*entities.User, int64, error) {
	var users []*entities.User
	var total int64

	if err := r.db.WithContext(ctx).Model(&entities.User{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

// DebitCredits decrements the balance with a single conditional update so the
// balance can never go below zero, even under concurrent debits. Returns
// entities.ErrInsufficientCredits when the condition did not match.
func (r *UserRepository) DebitCredits(ctx context.Context, userID uuid.UUID, amount int) (int, error) {
	if amount < 0 {
		return 0, fmt.Errorf("debit amount must be non-negative")
	}

	result := r.db.WithContext(ctx).
		Model(&entities.User{}).
		Where("id = ? AND credits >= ?", userID, amount).
		UpdateColumn("credits", gorm.Expr("credits - ?", amount))
	if result.Error != nil {
		return 0, fmt.Errorf("failed to debit credits: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// Either the user does not exist or the balance is too low;
		// distinguish for the caller.
		var user entities.User
		if err := r.db.WithContext(ctx).Select("credits").Where("id = ?", userID).First(&user).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return 0, entities.ErrUserNotFound
			}
			return 0, fmt.Errorf("failed to debit credits: %w", err)
		}
		return user.Credits, entities.ErrInsufficientCredits
	}

	return r.currentBalance(ctx, userID)
}

// CreditCredits increments the balance atomically and returns the new balance
func (r *UserRepository) CreditCredits(ctx context.Context, userID uuid.UUID, amount int) (int, error) {
	if amount < 0 {
		return 0, fmt.Errorf("credit amount must be non-negative")
	}

	result := r.db.WithContext(ctx).
		Model(&entities.User{}).
		Where("id = ?", userID).
		UpdateColumn("credits", gorm.Expr("credits + ?", amount))
	if result.Error != nil {
		return 0, fmt.Errorf("failed to credit credits: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, entities.ErrUserNotFound
	}

	return r.currentBalance(ctx, userID)
}

func (r *UserRepository) currentBalance(ctx context.Context, userID uuid.UUID) (int, error) {
	var user entities.User
	if err := r.db.WithContext(ctx).Select("credits").Where("id = ?", userID).First(&user).Error; err != nil {
		return 0, fmt.Errorf("failed to read balance: %w", err)
	}
	return user.Credits, nil
}
