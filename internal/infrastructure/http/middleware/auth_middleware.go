package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/recalliq-ai/backend/internal/domain/entities"
	"github.com/recalliq-ai/backend/internal/domain/repositories"
	"github.com/recalliq-ai/backend/pkg/jwt"
)

// AuthMiddleware validates access tokens and loads the authenticated user
type AuthMiddleware struct {
	jwtManager *jwt.Manager
	userRepo   repositories.UserRepository
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(jwtManager *jwt.Manager, userRepo repositories.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager: jwtManager,
		userRepo:   userRepo,
	}
}

// Authenticate returns an Echo middleware that validates the JWT and sets
// "user_id" (uuid.UUID) and "user" (*entities.User) into Echo context
func (m *AuthMiddleware) Authenticate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := extractToken(c)
			if token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing authorization token")
			}

			claims, err := m.jwtManager.ValidateAccessToken(token)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
			}

			user, err := m.userRepo.FindByID(c.Request().Context(), claims.UserID)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "User not found")
			}
			if !user.IsActive {
				return echo.NewHTTPError(http.StatusUnauthorized, "Account is deactivated")
			}

			c.Set("user", user)
			c.Set("user_id", user.ID)

			return next(c)
		}
	}
}

// RequireRole checks if the authenticated user has one of the required roles
func (m *AuthMiddleware) RequireRole(roles ...entities.UserRole) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := c.Get("user").(*entities.User)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
			}

			for _, role := range roles {
				if user.Role == role {
					return next(c)
				}
			}

			return echo.NewHTTPError(http.StatusForbidden, "Insufficient permissions")
		}
	}
}

func extractToken(c echo.Context) string {
	// Try Authorization header first
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader != "" {
		// Expected format: "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			return parts[1]
		}
	}

	// Try cookie as fallback
	if cookie, err := c.Cookie("access_token"); err == nil {
		return cookie.Value
	}

	return ""
}
