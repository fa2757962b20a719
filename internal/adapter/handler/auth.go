package handler

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "github.com/recalliq-ai/backend/errors"
	authdto "github.com/recalliq-ai/backend/internal/adapter/dto/auth"
	"github.com/recalliq-ai/backend/internal/usecase/auth"
)

// Auth handles authentication HTTP requests
type Auth struct {
	authService *auth.Service
	logger      *zap.Logger
}

// NewAuth creates a new auth handler
func NewAuth(authService *auth.Service, logger *zap.Logger) *Auth {
	return &Auth{
		authService: authService,
		logger:      logger,
	}
}

// Register creates a new account
// POST /v1/auth/register
func (h *Auth) Register(c echo.Context) error {
	ctx := c.Request().Context()

	var req authdto.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, apperrors.ErrInvalidArgument("invalid request body"))
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, apperrors.ErrValidationFailed(err.Error()))
	}

	user, tokens, err := h.authService.Register(ctx, req.Email, req.Name, req.Password)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, authdto.AuthResponse{
		User:         user.ToPublic(),
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	})
}

// Login signs a user in
// POST /v1/auth/login
func (h *Auth) Login(c echo.Context) error {
	ctx := c.Request().Context()

	var req authdto.LoginRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, apperrors.ErrInvalidArgument("invalid request body"))
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, apperrors.ErrValidationFailed(err.Error()))
	}

	user, tokens, err := h.authService.Login(ctx, req.Email, req.Password)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, authdto.AuthResponse{
		User:         user.ToPublic(),
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	})
}

// Refresh rotates a refresh token
// POST /v1/auth/refresh
func (h *Auth) Refresh(c echo.Context) error {
	ctx := c.Request().Context()

	var req authdto.RefreshTokenRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, apperrors.ErrInvalidArgument("invalid request body"))
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, apperrors.ErrValidationFailed(err.Error()))
	}

	user, tokens, err := h.authService.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, authdto.AuthResponse{
		User:         user.ToPublic(),
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	})
}

// Logout revokes a refresh token
// POST /v1/auth/logout
func (h *Auth) Logout(c echo.Context) error {
	ctx := c.Request().Context()

	var req authdto.LogoutRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, apperrors.ErrInvalidArgument("invalid request body"))
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, apperrors.ErrValidationFailed(err.Error()))
	}

	if err := h.authService.Logout(ctx, req.RefreshToken); err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, map[string]string{"message": "logged out"})
}

// Me returns the authenticated user's profile
// GET /v1/auth/me
func (h *Auth) Me(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, user.ToPublic())
}
