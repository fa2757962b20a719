package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/recalliq-ai/backend/errors"
	"github.com/recalliq-ai/backend/internal/domain/entities"
	"github.com/recalliq-ai/backend/internal/domain/repositories"
	"github.com/recalliq-ai/backend/internal/infrastructure/metrics"
	"github.com/recalliq-ai/backend/internal/usecase/billing"
)

// Transcript bounds enforced before any credits move.
const (
	MaxTitleLength      = 200
	MinTranscriptLength = 50
	MaxTranscriptLength = 100000
	MaxParticipants     = 50
	MaxTags             = 10
)

// AnalyzeInput is the request to analyze one transcript
type AnalyzeInput struct {
	Title           string
	Transcript      string
	Participants    []string
	MeetingDate     time.Time
	DurationMinutes int
	Tags            []string
}

// Workflow orchestrates the credit-metered analysis pipeline: validate,
// check funds, persist a processing record, debit, call the gateway, then
// finalize or refund. Every run ends with the meeting either completed with
// credits kept, or failed with credits back (except when the debit itself
// lost the race, in which case nothing was charged).
type Workflow struct {
	meetings    repositories.MeetingRepository
	actionItems repositories.ActionItemRepository
	decisions   repositories.DecisionRepository
	ledger      *billing.Ledger
	recorder    *billing.Recorder
	gateway     Gateway
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

// NewWorkflow creates the analysis workflow
func NewWorkflow(
	meetings repositories.MeetingRepository,
	actionItems repositories.ActionItemRepository,
	decisions repositories.DecisionRepository,
	ledger *billing.Ledger,
	recorder *billing.Recorder,
	gateway Gateway,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Workflow {
	return &Workflow{
		meetings:    meetings,
		actionItems: actionItems,
		decisions:   decisions,
		ledger:      ledger,
		recorder:    recorder,
		gateway:     gateway,
		metrics:     m,
		logger:      logger,
	}
}

// Analyze runs the full pipeline for a new transcript
func (w *Workflow) Analyze(ctx context.Context, userID uuid.UUID, input AnalyzeInput) (*entities.Meeting, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	cost := EstimateCost(input.Transcript)

	// Cheap rejection before any record exists. Only the debit below is
	// authoritative.
	if err := w.ledger.Preflight(ctx, userID, cost); err != nil {
		return nil, err
	}

	meeting := entities.NewMeeting(userID, input.Title, input.Transcript, input.Participants,
		input.MeetingDate, input.DurationMinutes, input.Tags)
	if err := w.meetings.Create(ctx, meeting); err != nil {
		return nil, apperrors.ErrPersistenceFailed("create meeting", err)
	}

	return w.run(ctx, userID, meeting, cost, entities.UsageActionAnalyzeMeeting)
}

// Reanalyze reruns the pipeline on an existing meeting's stored transcript,
// charging again at current rates and replacing all derived output.
func (w *Workflow) Reanalyze(ctx context.Context, userID, meetingID uuid.UUID) (*entities.Meeting, error) {
	meeting, err := w.meetings.FindByIDForUser(ctx, meetingID, userID)
	if err != nil {
		return nil, apperrors.ErrNotFound("meeting")
	}
	if meeting.Status == entities.MeetingStatusProcessing {
		return nil, apperrors.ErrValidationFailed("meeting is still processing")
	}

	cost := EstimateCost(meeting.Transcript)
	if err := w.ledger.Preflight(ctx, userID, cost); err != nil {
		return nil, err
	}

	// Debit before reopening. A lost balance race here must leave the
	// existing record, including any completed output the user already paid
	// for, exactly as it was.
	balance, err := w.ledger.Debit(ctx, userID, cost)
	if err != nil {
		w.recorder.Record(ctx, userID, &meeting.ID, entities.UsageActionReanalyze, entities.UsageOutcomeFailed, 0, balance, nil)
		w.countOutcome(entities.UsageActionReanalyze, entities.UsageOutcomeFailed)
		return nil, err
	}

	if err := meeting.Reopen(); err != nil {
		w.refund(ctx, userID, meeting, cost, balance)
		return nil, apperrors.ErrValidationFailed("meeting is still processing")
	}
	if err := w.meetings.Update(ctx, meeting); err != nil {
		w.refund(ctx, userID, meeting, cost, balance)
		return nil, apperrors.ErrPersistenceFailed("update meeting", err)
	}

	return w.runDebited(ctx, userID, meeting, cost, entities.UsageActionReanalyze, balance)
}

// run debits then executes the gateway call for a meeting already in the
// processing state.
func (w *Workflow) run(ctx context.Context, userID uuid.UUID, meeting *entities.Meeting, cost int, action entities.UsageAction) (*entities.Meeting, error) {
	balance, err := w.ledger.Debit(ctx, userID, cost)
	if err != nil {
		// Lost the balance race after preflight. Nothing was charged, so
		// nothing is refunded; the record is closed as failed.
		w.failMeeting(ctx, meeting, "insufficient credits")
		w.recorder.Record(ctx, userID, &meeting.ID, action, entities.UsageOutcomeFailed, 0, balance, nil)
		w.countOutcome(action, entities.UsageOutcomeFailed)
		return nil, err
	}

	return w.runDebited(ctx, userID, meeting, cost, action, balance)
}

// runDebited executes the gateway call and finalize/refund for a meeting
// whose credits are already taken.
func (w *Workflow) runDebited(ctx context.Context, userID uuid.UUID, meeting *entities.Meeting, cost int, action entities.UsageAction, balance int) (*entities.Meeting, error) {
	start := time.Now()
	result, meta, err := w.gateway.AnalyzeTranscript(ctx, meeting.Title, meeting.ParticipantNames(), meeting.Transcript)
	w.observeLatency(start)
	if err != nil {
		refundBalance, refundErr := w.ledger.Refund(ctx, userID, cost)
		if refundErr != nil {
			// The refund itself failed; keep the failure reason on the
			// record and surface the gateway error regardless.
			w.logger.Error("refund failed after gateway error",
				zap.String("meeting_id", meeting.ID.String()),
				zap.Error(refundErr))
			refundBalance = balance
		}
		w.failMeeting(ctx, meeting, fmt.Sprintf("analysis failed: %v", err))
		w.recorder.Record(ctx, userID, &meeting.ID, action, entities.UsageOutcomeRefunded, cost, refundBalance, nil)
		w.countOutcome(action, entities.UsageOutcomeRefunded)
		return nil, apperrors.ErrGatewayFailed(err)
	}

	if err := meeting.Complete(result, meta, cost); err != nil {
		return nil, apperrors.ErrPersistenceFailed("complete meeting", err)
	}
	if err := w.meetings.Update(ctx, meeting); err != nil {
		refundBalance, refundErr := w.ledger.Refund(ctx, userID, cost)
		if refundErr != nil {
			w.logger.Error("refund failed after persistence error",
				zap.String("meeting_id", meeting.ID.String()),
				zap.Error(refundErr))
			refundBalance = balance
		}
		w.recorder.Record(ctx, userID, &meeting.ID, action, entities.UsageOutcomeRefunded, cost, refundBalance, nil)
		w.countOutcome(action, entities.UsageOutcomeRefunded)
		return nil, apperrors.ErrPersistenceFailed("save analysis", err)
	}

	w.replaceExtractions(ctx, meeting, userID, result)

	w.recorder.Record(ctx, userID, &meeting.ID, action, entities.UsageOutcomeSuccess, cost, balance, &entities.UsageMetadata{
		WordCount:    meeting.WordCount,
		ProcessingMS: meta.ProcessingMS,
		Model:        meta.Model,
		Tokens:       meta.InputTokens + meta.OutputTokens,
	})
	w.countOutcome(action, entities.UsageOutcomeSuccess)

	w.logger.Info("analysis completed",
		zap.String("meeting_id", meeting.ID.String()),
		zap.Int("credits_used", cost),
		zap.Int("balance", balance))

	return meeting, nil
}

// RegenerateEmail drafts a fresh follow-up email for a completed meeting at
// a flat price, replacing the stored draft.
func (w *Workflow) RegenerateEmail(ctx context.Context, userID, meetingID uuid.UUID) (*entities.Meeting, error) {
	meeting, err := w.meetings.FindByIDForUser(ctx, meetingID, userID)
	if err != nil {
		return nil, apperrors.ErrNotFound("meeting")
	}
	if !meeting.IsCompleted() {
		return nil, apperrors.ErrAnalysisNotCompleted(meeting.ID.String())
	}

	if err := w.ledger.Preflight(ctx, userID, EmailCredits); err != nil {
		return nil, err
	}

	balance, err := w.ledger.Debit(ctx, userID, EmailCredits)
	if err != nil {
		w.recorder.Record(ctx, userID, &meeting.ID, entities.UsageActionRegenerateEmail, entities.UsageOutcomeFailed, 0, balance, nil)
		return nil, err
	}

	actionItems, _ := w.actionItems.FindByMeeting(ctx, meeting.ID)
	decisions, _ := w.decisions.FindByMeeting(ctx, meeting.ID)

	start := time.Now()
	draft, meta, err := w.gateway.GenerateEmail(ctx, meeting, actionItems, decisions)
	w.observeLatency(start)
	if err != nil {
		refundBalance, refundErr := w.ledger.Refund(ctx, userID, EmailCredits)
		if refundErr != nil {
			w.logger.Error("refund failed after email generation error",
				zap.String("meeting_id", meeting.ID.String()),
				zap.Error(refundErr))
			refundBalance = balance
		}
		w.recorder.Record(ctx, userID, &meeting.ID, entities.UsageActionRegenerateEmail, entities.UsageOutcomeRefunded, EmailCredits, refundBalance, nil)
		w.countOutcome(entities.UsageActionRegenerateEmail, entities.UsageOutcomeRefunded)
		return nil, apperrors.ErrGatewayFailed(err)
	}

	if err := meeting.SetFollowUpEmail(draft.Text()); err != nil {
		return nil, apperrors.ErrAnalysisNotCompleted(meeting.ID.String())
	}
	if err := w.meetings.Update(ctx, meeting); err != nil {
		return nil, apperrors.ErrPersistenceFailed("save follow-up email", err)
	}

	w.recorder.Record(ctx, userID, &meeting.ID, entities.UsageActionRegenerateEmail, entities.UsageOutcomeSuccess, EmailCredits, balance, &entities.UsageMetadata{
		Model:        meta.Model,
		ProcessingMS: meta.ProcessingMS,
		Tokens:       meta.InputTokens + meta.OutputTokens,
	})
	w.countOutcome(entities.UsageActionRegenerateEmail, entities.UsageOutcomeSuccess)

	return meeting, nil
}

// replaceExtractions swaps the stored action items and decisions for the
// meeting with the latest extraction. Extraction storage is best effort;
// the analysis result on the meeting row is already the source of truth.
func (w *Workflow) replaceExtractions(ctx context.Context, meeting *entities.Meeting, userID uuid.UUID, result *entities.AnalysisResult) {
	if err := w.actionItems.DeleteByMeeting(ctx, meeting.ID); err != nil {
		w.logger.Error("failed to clear action items", zap.Error(err))
	}
	if err := w.decisions.DeleteByMeeting(ctx, meeting.ID); err != nil {
		w.logger.Error("failed to clear decisions", zap.Error(err))
	}

	items := make([]*entities.ActionItem, 0, len(result.ActionItems))
	for _, extracted := range result.ActionItems {
		items = append(items, entities.NewActionItem(meeting.ID, userID, extracted))
	}
	if len(items) > 0 {
		if err := w.actionItems.CreateBatch(ctx, items); err != nil {
			w.logger.Error("failed to store action items", zap.Error(err))
		}
	}

	decisions := make([]*entities.Decision, 0, len(result.Decisions))
	for _, extracted := range result.Decisions {
		decisions = append(decisions, entities.NewDecision(meeting.ID, userID, extracted))
	}
	if len(decisions) > 0 {
		if err := w.decisions.CreateBatch(ctx, decisions); err != nil {
			w.logger.Error("failed to store decisions", zap.Error(err))
		}
	}
}

// refund returns credits taken for a reanalysis that never reached the
// gateway, leaving the existing record untouched.
func (w *Workflow) refund(ctx context.Context, userID uuid.UUID, meeting *entities.Meeting, cost, balance int) {
	refundBalance, err := w.ledger.Refund(ctx, userID, cost)
	if err != nil {
		w.logger.Error("refund failed before gateway call",
			zap.String("meeting_id", meeting.ID.String()),
			zap.Error(err))
		refundBalance = balance
	}
	w.recorder.Record(ctx, userID, &meeting.ID, entities.UsageActionReanalyze, entities.UsageOutcomeRefunded, cost, refundBalance, nil)
	w.countOutcome(entities.UsageActionReanalyze, entities.UsageOutcomeRefunded)
}

func (w *Workflow) failMeeting(ctx context.Context, meeting *entities.Meeting, reason string) {
	if err := meeting.Fail(reason); err != nil {
		w.logger.Error("failed to mark meeting failed", zap.Error(err))
		return
	}
	if err := w.meetings.Update(ctx, meeting); err != nil {
		w.logger.Error("failed to persist failed meeting", zap.Error(err))
	}
}

func (w *Workflow) countOutcome(action entities.UsageAction, outcome entities.UsageOutcome) {
	if w.metrics != nil {
		w.metrics.AnalysesTotal.WithLabelValues(string(action), string(outcome)).Inc()
	}
}

func (w *Workflow) observeLatency(start time.Time) {
	if w.metrics != nil {
		w.metrics.GatewayLatency.Observe(time.Since(start).Seconds())
	}
}

func validateInput(input AnalyzeInput) error {
	if input.Title == "" {
		return apperrors.ErrValidationFailed("title is required")
	}
	if len(input.Title) > MaxTitleLength {
		return apperrors.ErrValidationFailed(fmt.Sprintf("title exceeds %d characters", MaxTitleLength))
	}
	if len(input.Transcript) < MinTranscriptLength {
		return apperrors.ErrValidationFailed(fmt.Sprintf("transcript must be at least %d characters", MinTranscriptLength))
	}
	if len(input.Transcript) > MaxTranscriptLength {
		return apperrors.ErrValidationFailed(fmt.Sprintf("transcript exceeds %d characters", MaxTranscriptLength))
	}
	if len(input.Participants) > MaxParticipants {
		return apperrors.ErrValidationFailed(fmt.Sprintf("at most %d participants allowed", MaxParticipants))
	}
	if len(input.Tags) > MaxTags {
		return apperrors.ErrValidationFailed(fmt.Sprintf("at most %d tags allowed", MaxTags))
	}
	return nil
}
