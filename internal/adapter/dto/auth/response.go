package auth

import "github.com/recalliq-ai/backend/internal/domain/entities"

// AuthResponse is returned on register, login and refresh
type AuthResponse struct {
	User         *entities.PublicUser `json:"user"`
	AccessToken  string               `json:"access_token"`
	RefreshToken string               `json:"refresh_token"`
}
