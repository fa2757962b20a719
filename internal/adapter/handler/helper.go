package handler

import (
	stdErrors "errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/recalliq-ai/backend/errors"
	"github.com/recalliq-ai/backend/internal/domain/entities"
)

// Response shapes
type success struct {
	Code    interface{} `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type errs struct {
	Code    interface{} `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
	Info    string      `json:"info,omitempty"`
}

// getRequestID tries to read X-Request-ID from the request
func getRequestID(c echo.Context) string {
	if c == nil || c.Request() == nil {
		return ""
	}
	return c.Request().Header.Get("X-Request-ID")
}

// HandleSuccess writes a standardized success response
func HandleSuccess(logger *zap.Logger, c echo.Context, data interface{}) error {
	resp := success{
		Code:    int(errors.ErrorCode_HTTP_OK),
		Message: "success",
		Data:    data,
	}

	if logger != nil {
		logger.Info("http.response.success",
			zap.String("request_id", getRequestID(c)),
			zap.String("path", c.Path()),
		)
	}

	return c.JSON(http.StatusOK, resp)
}

// HandleError centralizes error handling and logging
func HandleError(logger *zap.Logger, c echo.Context, err error) error {
	reqID := getRequestID(c)

	var appErr errors.AppError
	if stdErrors.As(err, &appErr) {
		if logger != nil {
			logger.Error("http.response.error",
				zap.String("request_id", reqID),
				zap.String("path", c.Path()),
				zap.Any("app_code", appErr.Code),
				zap.Error(err),
			)
		}

		info := ""
		if appErr.Raw != nil {
			info = appErr.Raw.Error()
		}

		body := errs{
			Code:    appErr.Code,
			Message: appErr.Message,
			Info:    info,
		}

		return c.JSON(appErr.HTTPCode, body)
	}

	if logger != nil {
		logger.Error("http.response.error",
			zap.String("request_id", reqID),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
	}

	body := errs{
		Code:    errors.ErrorCode_INTERNAL,
		Message: "Internal server error",
		Info:    err.Error(),
	}

	return c.JSON(http.StatusInternalServerError, body)
}

// currentUserID reads the authenticated user ID set by the auth middleware
func currentUserID(c echo.Context) (uuid.UUID, error) {
	userID, ok := c.Get("user_id").(uuid.UUID)
	if !ok {
		return uuid.Nil, errors.ErrUnauthenticated()
	}
	return userID, nil
}

// currentUser reads the authenticated user set by the auth middleware
func currentUser(c echo.Context) (*entities.User, error) {
	user, ok := c.Get("user").(*entities.User)
	if !ok {
		return nil, errors.ErrUnauthenticated()
	}
	return user, nil
}

// pathUUID parses a UUID path parameter
func pathUUID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, errors.ErrInvalidArgument("invalid " + name)
	}
	return id, nil
}

// queryInt parses an integer query parameter with a default value
func queryInt(c echo.Context, name string, defaultValue int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return value
}
