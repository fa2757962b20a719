package billing

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/recalliq-ai/backend/internal/domain/entities"
	"github.com/recalliq-ai/backend/internal/domain/repositories"
)

// Recorder appends usage entries for audit and billing history. Recording is
// best effort: a failed insert is logged and swallowed so it can never break
// the request that produced it.
type Recorder struct {
	usage  repositories.UsageRepository
	logger *zap.Logger
}

// NewRecorder creates a usage recorder
func NewRecorder(usage repositories.UsageRepository, logger *zap.Logger) *Recorder {
	return &Recorder{
		usage:  usage,
		logger: logger,
	}
}

// Record appends one usage entry. Errors are logged, never returned.
func (r *Recorder) Record(
	ctx context.Context,
	userID uuid.UUID,
	meetingID *uuid.UUID,
	action entities.UsageAction,
	outcome entities.UsageOutcome,
	creditsUsed int,
	balance int,
	meta *entities.UsageMetadata,
) {
	entry := entities.NewUsageEntry(userID, meetingID, action, creditsUsed, balance, outcome, meta)
	if err := r.usage.Create(ctx, entry); err != nil {
		r.logger.Error("failed to record usage",
			zap.String("user_id", userID.String()),
			zap.String("action", string(action)),
			zap.String("outcome", string(outcome)),
			zap.Error(err))
	}
}
