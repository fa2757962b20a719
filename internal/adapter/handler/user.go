package handler

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "github.com/recalliq-ai/backend/errors"
	authdto "github.com/recalliq-ai/backend/internal/adapter/dto/auth"
	"github.com/recalliq-ai/backend/internal/adapter/dto/common"
	"github.com/recalliq-ai/backend/internal/domain/entities"
	"github.com/recalliq-ai/backend/internal/usecase/auth"
	"github.com/recalliq-ai/backend/internal/usecase/user"
)

// User handles profile and usage HTTP requests
type User struct {
	userService *user.Service
	authService *auth.Service
	logger      *zap.Logger
}

// NewUser creates a new user handler
func NewUser(userService *user.Service, authService *auth.Service, logger *zap.Logger) *User {
	return &User{
		userService: userService,
		authService: authService,
		logger:      logger,
	}
}

// UpdateProfile applies a partial profile update
// PATCH /v1/users/me
func (h *User) UpdateProfile(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := currentUserID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	var req authdto.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, apperrors.ErrInvalidArgument("invalid request body"))
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, apperrors.ErrValidationFailed(err.Error()))
	}

	updated, err := h.userService.UpdateProfile(ctx, userID, user.ProfileUpdate{
		Name:      req.Name,
		Company:   req.Company,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, updated.ToPublic())
}

// ChangePassword changes the account password and revokes all sessions
// POST /v1/users/me/password
func (h *User) ChangePassword(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := currentUserID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	var req authdto.ChangePasswordRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, apperrors.ErrInvalidArgument("invalid request body"))
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, apperrors.ErrValidationFailed(err.Error()))
	}

	if err := h.userService.ChangePassword(ctx, userID, req.CurrentPassword, req.NewPassword); err != nil {
		return HandleError(h.logger, c, err)
	}
	if err := h.authService.LogoutAll(ctx, userID); err != nil {
		h.logger.Warn("failed to revoke sessions after password change", zap.Error(err))
	}

	return HandleSuccess(h.logger, c, map[string]string{"message": "password changed"})
}

// Deactivate soft-disables the account and revokes all sessions
// DELETE /v1/users/me
func (h *User) Deactivate(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := currentUserID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	if err := h.userService.Deactivate(ctx, userID); err != nil {
		return HandleError(h.logger, c, err)
	}
	if err := h.authService.LogoutAll(ctx, userID); err != nil {
		h.logger.Warn("failed to revoke sessions after deactivation", zap.Error(err))
	}

	return HandleSuccess(h.logger, c, map[string]string{"message": "account deactivated"})
}

// List pages through all accounts
// GET /v1/admin/users
func (h *User) List(c echo.Context) error {
	ctx := c.Request().Context()

	page := queryInt(c, "page", 1)
	if page < 1 {
		page = 1
	}
	pageSize := queryInt(c, "page_size", 20)
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	users, total, err := h.userService.List(ctx, pageSize, (page-1)*pageSize)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	public := make([]*entities.PublicUser, 0, len(users))
	for _, u := range users {
		public = append(public, u.ToPublic())
	}

	return HandleSuccess(h.logger, c, common.ListResponse{
		Data:       public,
		Pagination: common.NewPagination(page, pageSize, total),
	})
}

// Usage lists the user's usage entries
// GET /v1/usage
func (h *User) Usage(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := currentUserID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	page := queryInt(c, "page", 1)
	if page < 1 {
		page = 1
	}
	pageSize := queryInt(c, "page_size", 20)
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	days := queryInt(c, "days", 30)
	if days < 1 || days > 365 {
		days = 30
	}
	since := time.Now().AddDate(0, 0, -days)

	entries, total, err := h.userService.Usage(ctx, userID, since, pageSize, (page-1)*pageSize)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, common.ListResponse{
		Data:       entries,
		Pagination: common.NewPagination(page, pageSize, total),
	})
}

// UsageSummary aggregates credits per action
// GET /v1/usage/summary
func (h *User) UsageSummary(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := currentUserID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	days := queryInt(c, "days", 30)
	if days < 1 || days > 365 {
		days = 30
	}
	since := time.Now().AddDate(0, 0, -days)

	summary, err := h.userService.UsageSummary(ctx, userID, since)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, summary)
}
