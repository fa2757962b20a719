package handler

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "github.com/recalliq-ai/backend/errors"
	"github.com/recalliq-ai/backend/internal/adapter/dto/common"
	meetingdto "github.com/recalliq-ai/backend/internal/adapter/dto/meeting"
	"github.com/recalliq-ai/backend/internal/domain/entities"
	"github.com/recalliq-ai/backend/internal/domain/repositories"
	"github.com/recalliq-ai/backend/internal/usecase/analysis"
	"github.com/recalliq-ai/backend/internal/usecase/meeting"
	"github.com/recalliq-ai/backend/internal/usecase/transcription"
)

// Meeting handles meeting analysis and curation HTTP requests
type Meeting struct {
	workflow       *analysis.Workflow
	meetingService *meeting.Service
	transcription  *transcription.Service
	logger         *zap.Logger
}

// NewMeeting creates a new meeting handler
func NewMeeting(workflow *analysis.Workflow, meetingService *meeting.Service, transcriptionService *transcription.Service, logger *zap.Logger) *Meeting {
	return &Meeting{
		workflow:       workflow,
		meetingService: meetingService,
		transcription:  transcriptionService,
		logger:         logger,
	}
}

// Analyze runs the credit-metered analysis pipeline on a transcript
// POST /v1/meetings/analyze
func (h *Meeting) Analyze(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := currentUserID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	var req meetingdto.AnalyzeMeetingRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, apperrors.ErrInvalidArgument("invalid request body"))
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, apperrors.ErrValidationFailed(err.Error()))
	}

	input := analysis.AnalyzeInput{
		Title:           req.Title,
		Transcript:      req.Transcript,
		Participants:    req.Participants,
		DurationMinutes: req.DurationMinutes,
		Tags:            req.Tags,
	}
	if req.MeetingDate != "" {
		date, err := time.Parse("2006-01-02", req.MeetingDate)
		if err != nil {
			return HandleError(h.logger, c, apperrors.ErrValidationFailed("meeting_date must be YYYY-MM-DD"))
		}
		input.MeetingDate = date
	}

	result, err := h.workflow.Analyze(ctx, userID, input)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, result)
}

// List returns the user's meetings, transcript omitted
// GET /v1/meetings
func (h *Meeting) List(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := currentUserID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	var req meetingdto.ListMeetingsRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, apperrors.ErrInvalidArgument("invalid query parameters"))
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, apperrors.ErrValidationFailed(err.Error()))
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	filters := repositories.MeetingFilters{
		Search: req.Search,
		Limit:  pageSize,
		Offset: (page - 1) * pageSize,
	}
	if req.Status != "" {
		status := entities.MeetingStatus(req.Status)
		filters.Status = &status
	}

	meetings, total, err := h.meetingService.List(ctx, userID, filters)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, common.ListResponse{
		Data:       meetings,
		Pagination: common.NewPagination(page, pageSize, total),
	})
}

// Get returns one meeting with its transcript
// GET /v1/meetings/:id
func (h *Meeting) Get(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := currentUserID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	meetingID, err := pathUUID(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	result, err := h.meetingService.Get(ctx, userID, meetingID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, result)
}

// Archive hides a meeting from listings
// DELETE /v1/meetings/:id
func (h *Meeting) Archive(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := currentUserID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	meetingID, err := pathUUID(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	if err := h.meetingService.Archive(ctx, userID, meetingID); err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, map[string]string{"message": "meeting archived"})
}

// Stats returns dashboard stats for the user
// GET /v1/meetings/stats
func (h *Meeting) Stats(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := currentUserID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	stats, err := h.meetingService.Stats(ctx, userID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, stats)
}

// Reanalyze reruns analysis on the stored transcript, charging again
// POST /v1/meetings/:id/reanalyze
func (h *Meeting) Reanalyze(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := currentUserID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	meetingID, err := pathUUID(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	result, err := h.workflow.Reanalyze(ctx, userID, meetingID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, result)
}

// RegenerateEmail drafts a fresh follow-up email for one credit
// POST /v1/meetings/:id/regenerate-email
func (h *Meeting) RegenerateEmail(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := currentUserID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	meetingID, err := pathUUID(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	result, err := h.workflow.RegenerateEmail(ctx, userID, meetingID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, result)
}

// Export renders a completed meeting as a downloadable report
// POST /v1/meetings/:id/export
func (h *Meeting) Export(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := currentUserID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	meetingID, err := pathUUID(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	url, err := h.meetingService.Export(ctx, userID, meetingID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, meetingdto.ExportResponse{URL: url})
}

// Transcribe turns an audio URL into a transcript for a flat credit price
// POST /v1/meetings/transcribe
func (h *Meeting) Transcribe(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := currentUserID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	var req meetingdto.TranscribeRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, apperrors.ErrInvalidArgument("invalid request body"))
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, apperrors.ErrValidationFailed(err.Error()))
	}

	result, err := h.transcription.Transcribe(ctx, userID, req.AudioURL, req.LanguageCode)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, result)
}

// ActionItems lists the extracted action items of a meeting
// GET /v1/meetings/:id/action-items
func (h *Meeting) ActionItems(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := currentUserID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	meetingID, err := pathUUID(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	// Flip past-due items before listing so the view is current
	if err := h.meetingService.RefreshOverdue(ctx, userID); err != nil {
		h.logger.Warn("failed to refresh overdue items", zap.Error(err))
	}

	items, err := h.meetingService.ActionItems(ctx, userID, meetingID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, items)
}

// UpdateActionItem applies a partial update to an action item
// PATCH /v1/action-items/:id
func (h *Meeting) UpdateActionItem(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := currentUserID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	itemID, err := pathUUID(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	var req meetingdto.UpdateActionItemRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, apperrors.ErrInvalidArgument("invalid request body"))
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, apperrors.ErrValidationFailed(err.Error()))
	}

	update := meeting.ActionItemUpdate{Assignee: req.Assignee}
	if req.Status != nil {
		status := entities.ActionItemStatus(*req.Status)
		update.Status = &status
	}
	if req.Priority != nil {
		priority := entities.ActionItemPriority(*req.Priority)
		update.Priority = &priority
	}
	if req.DueDate != nil {
		due, err := time.Parse("2006-01-02", *req.DueDate)
		if err != nil {
			return HandleError(h.logger, c, apperrors.ErrValidationFailed("due_date must be YYYY-MM-DD"))
		}
		update.DueDate = &due
	}

	item, err := h.meetingService.UpdateActionItem(ctx, userID, itemID, update)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, item)
}

// Decisions lists the extracted decisions of a meeting
// GET /v1/meetings/:id/decisions
func (h *Meeting) Decisions(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := currentUserID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	meetingID, err := pathUUID(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	decisions, err := h.meetingService.Decisions(ctx, userID, meetingID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, decisions)
}

// UpdateDecision updates the post-meeting status of a decision
// PATCH /v1/decisions/:id
func (h *Meeting) UpdateDecision(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := currentUserID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	decisionID, err := pathUUID(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	var req meetingdto.UpdateDecisionRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, apperrors.ErrInvalidArgument("invalid request body"))
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, apperrors.ErrValidationFailed(err.Error()))
	}

	decision, err := h.meetingService.UpdateDecision(ctx, userID, decisionID, entities.DecisionStatus(req.Status))
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, decision)
}
