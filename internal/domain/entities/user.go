package entities

import (
	"time"

	"github.com/google/uuid"
)

// DefaultSignupCredits is granted to every new account at registration.
const DefaultSignupCredits = 50

// User represents an account in the system
type User struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Email        string    `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	Name         string    `json:"name" gorm:"type:varchar(255);not null"`
	PasswordHash string    `json:"-" gorm:"column:password_hash;type:text;not null"`
	Company      *string   `json:"company,omitempty" gorm:"type:varchar(255)"`
	AvatarURL    *string   `json:"avatar_url,omitempty" gorm:"type:varchar(500)"`

	Role UserRole `json:"role" gorm:"type:varchar(50);default:'user';not null"`
	Plan PlanTier `json:"plan" gorm:"type:varchar(50);default:'free';not null"`

	// Credits is mutated only through the ledger's atomic debit/credit
	// operations; never assign directly outside of them.
	Credits int `json:"credits" gorm:"not null;default:0"`

	IsActive    bool       `json:"is_active" gorm:"default:true;not null"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty" gorm:"type:timestamp"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// UserRole defines user roles
type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

// IsValid checks if the user role is valid
func (r UserRole) IsValid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	}
	return false
}

// PlanTier defines subscription plans
type PlanTier string

const (
	PlanFree     PlanTier = "free"
	PlanPro      PlanTier = "pro"
	PlanBusiness PlanTier = "business"
)

// IsValid checks if the plan tier is valid
func (p PlanTier) IsValid() bool {
	switch p {
	case PlanFree, PlanPro, PlanBusiness:
		return true
	}
	return false
}

// NewUser creates a new account with default values
func NewUser(email, name, passwordHash string) *User {
	now := time.Now()
	return &User{
		ID:           uuid.New(),
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		Role:         RoleUser,
		Plan:         PlanFree,
		Credits:      DefaultSignupCredits,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// UpdateLastLogin updates the last login timestamp
func (u *User) UpdateLastLogin() {
	now := time.Now()
	u.LastLoginAt = &now
	u.UpdatedAt = now
}

// IsAdmin checks if user is admin
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Validate validates user data
func (u *User) Validate() error {
	if u.Email == "" {
		return ErrInvalidEmail
	}
	if u.Name == "" {
		return ErrInvalidName
	}
	if !u.Role.IsValid() {
		return ErrInvalidRole
	}
	if !u.Plan.IsValid() {
		return ErrInvalidPlan
	}
	return nil
}

// PublicUser is a user with sensitive fields removed
type PublicUser struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Company   *string   `json:"company,omitempty"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	Role      UserRole  `json:"role"`
	Plan      PlanTier  `json:"plan"`
	Credits   int       `json:"credits"`
	CreatedAt time.Time `json:"created_at"`
}

// ToPublic converts User to PublicUser
func (u *User) ToPublic() *PublicUser {
	return &PublicUser{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Company:   u.Company,
		AvatarURL: u.AvatarURL,
		Role:      u.Role,
		Plan:      u.Plan,
		Credits:   u.Credits,
		CreatedAt: u.CreatedAt,
	}
}
