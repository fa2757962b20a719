package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/recalliq-ai/backend/errors"
	"github.com/recalliq-ai/backend/internal/domain/entities"
	"github.com/recalliq-ai/backend/internal/domain/repositories"
	"github.com/recalliq-ai/backend/internal/usecase/billing"
)

// In-memory fakes

type fakeUserRepo struct {
	balances map[uuid.UUID]int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{balances: make(map[uuid.UUID]int)}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *entities.User) error { return nil }
func (f *fakeUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	balance, ok := f.balances[id]
	if !ok {
		return nil, entities.ErrUserNotFound
	}
	return &entities.User{ID: id, Credits: balance, IsActive: true}, nil
}
func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	return nil, entities.ErrUserNotFound
}
func (f *fakeUserRepo) Update(ctx context.Context, user *entities.User) error      { return nil }
func (f *fakeUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID) error    { return nil }
func (f *fakeUserRepo) Deactivate(ctx context.Context, id uuid.UUID) error         { return nil }
func (f *fakeUserRepo) List(ctx context.Context, limit, offset int) ([]*entities.User, int64, error) {
	return nil, 0, nil
}

func (f *fakeUserRepo) DebitCredits(ctx context.Context, userID uuid.UUID, amount int) (int, error) {
	balance, ok := f.balances[userID]
	if !ok {
		return 0, entities.ErrUserNotFound
	}
	if balance < amount {
		return balance, entities.ErrInsufficientCredits
	}
	f.balances[userID] = balance - amount
	return f.balances[userID], nil
}

func (f *fakeUserRepo) CreditCredits(ctx context.Context, userID uuid.UUID, amount int) (int, error) {
	f.balances[userID] += amount
	return f.balances[userID], nil
}

type fakeMeetingRepo struct {
	meetings map[uuid.UUID]*entities.Meeting
}

func newFakeMeetingRepo() *fakeMeetingRepo {
	return &fakeMeetingRepo{meetings: make(map[uuid.UUID]*entities.Meeting)}
}

func (f *fakeMeetingRepo) Create(ctx context.Context, m *entities.Meeting) error {
	f.meetings[m.ID] = m
	return nil
}
func (f *fakeMeetingRepo) FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*entities.Meeting, error) {
	m, ok := f.meetings[id]
	if !ok || m.UserID != userID {
		return nil, entities.ErrMeetingNotFound
	}
	return m, nil
}
func (f *fakeMeetingRepo) Update(ctx context.Context, m *entities.Meeting) error {
	f.meetings[m.ID] = m
	return nil
}
func (f *fakeMeetingRepo) List(ctx context.Context, userID uuid.UUID, filters repositories.MeetingFilters) ([]*entities.Meeting, int64, error) {
	return nil, 0, nil
}
func (f *fakeMeetingRepo) Archive(ctx context.Context, id, userID uuid.UUID) error { return nil }
func (f *fakeMeetingRepo) Stats(ctx context.Context, userID uuid.UUID) (*repositories.MeetingStats, error) {
	return &repositories.MeetingStats{}, nil
}

type fakeActionItemRepo struct {
	items map[uuid.UUID][]*entities.ActionItem
}

func newFakeActionItemRepo() *fakeActionItemRepo {
	return &fakeActionItemRepo{items: make(map[uuid.UUID][]*entities.ActionItem)}
}

func (f *fakeActionItemRepo) CreateBatch(ctx context.Context, items []*entities.ActionItem) error {
	for _, item := range items {
		f.items[item.MeetingID] = append(f.items[item.MeetingID], item)
	}
	return nil
}
func (f *fakeActionItemRepo) FindByMeeting(ctx context.Context, meetingID uuid.UUID) ([]*entities.ActionItem, error) {
	return f.items[meetingID], nil
}
func (f *fakeActionItemRepo) FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*entities.ActionItem, error) {
	return nil, entities.ErrActionItemNotFound
}
func (f *fakeActionItemRepo) Update(ctx context.Context, item *entities.ActionItem) error { return nil }
func (f *fakeActionItemRepo) DeleteByMeeting(ctx context.Context, meetingID uuid.UUID) error {
	delete(f.items, meetingID)
	return nil
}
func (f *fakeActionItemRepo) MarkOverdue(ctx context.Context, userID uuid.UUID, now time.Time) error {
	return nil
}

type fakeDecisionRepo struct {
	decisions map[uuid.UUID][]*entities.Decision
}

func newFakeDecisionRepo() *fakeDecisionRepo {
	return &fakeDecisionRepo{decisions: make(map[uuid.UUID][]*entities.Decision)}
}

func (f *fakeDecisionRepo) CreateBatch(ctx context.Context, decisions []*entities.Decision) error {
	for _, d := range decisions {
		f.decisions[d.MeetingID] = append(f.decisions[d.MeetingID], d)
	}
	return nil
}
func (f *fakeDecisionRepo) FindByMeeting(ctx context.Context, meetingID uuid.UUID) ([]*entities.Decision, error) {
	return f.decisions[meetingID], nil
}
func (f *fakeDecisionRepo) FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*entities.Decision, error) {
	return nil, entities.ErrDecisionNotFound
}
func (f *fakeDecisionRepo) Update(ctx context.Context, d *entities.Decision) error { return nil }
func (f *fakeDecisionRepo) DeleteByMeeting(ctx context.Context, meetingID uuid.UUID) error {
	delete(f.decisions, meetingID)
	return nil
}

type fakeUsageRepo struct {
	entries []*entities.UsageEntry
}

func (f *fakeUsageRepo) Create(ctx context.Context, entry *entities.UsageEntry) error {
	f.entries = append(f.entries, entry)
	return nil
}
func (f *fakeUsageRepo) ListByUser(ctx context.Context, userID uuid.UUID, since time.Time, limit, offset int) ([]*entities.UsageEntry, int64, error) {
	return f.entries, int64(len(f.entries)), nil
}
func (f *fakeUsageRepo) SummarizeByAction(ctx context.Context, userID uuid.UUID, since time.Time) ([]entities.UsageSummary, error) {
	return nil, nil
}

type stubGateway struct {
	result   *entities.AnalysisResult
	draft    *entities.EmailDraft
	err      error
	emailErr error
	calls    int
}

func (s *stubGateway) AnalyzeTranscript(ctx context.Context, title string, participants []string, transcript string) (*entities.AnalysisResult, *entities.CallMeta, error) {
	s.calls++
	if s.err != nil {
		return nil, nil, s.err
	}
	return s.result, &entities.CallMeta{Model: "gemini-test", InputTokens: 100, OutputTokens: 50, ProcessingMS: 1200}, nil
}

func (s *stubGateway) GenerateEmail(ctx context.Context, meeting *entities.Meeting, actionItems []*entities.ActionItem, decisions []*entities.Decision) (*entities.EmailDraft, *entities.CallMeta, error) {
	s.calls++
	if s.emailErr != nil {
		return nil, nil, s.emailErr
	}
	return s.draft, &entities.CallMeta{Model: "gemini-test", ProcessingMS: 400}, nil
}

type fixture struct {
	workflow *Workflow
	users    *fakeUserRepo
	meetings *fakeMeetingRepo
	items    *fakeActionItemRepo
	dec      *fakeDecisionRepo
	usage    *fakeUsageRepo
	gateway  *stubGateway
}

func newFixture(gateway *stubGateway) *fixture {
	logger := zap.NewNop()
	users := newFakeUserRepo()
	meetings := newFakeMeetingRepo()
	items := newFakeActionItemRepo()
	dec := newFakeDecisionRepo()
	usage := &fakeUsageRepo{}

	ledger := billing.NewLedger(users, nil, logger)
	recorder := billing.NewRecorder(usage, logger)

	return &fixture{
		workflow: NewWorkflow(meetings, items, dec, ledger, recorder, gateway, nil, logger),
		users:    users,
		meetings: meetings,
		items:    items,
		dec:      dec,
		usage:    usage,
		gateway:  gateway,
	}
}

func validResult() *entities.AnalysisResult {
	return &entities.AnalysisResult{
		Summary:   "Quarterly planning recap",
		KeyTopics: []string{"budget", "hiring"},
		Sentiment: entities.SentimentPositive,
		RiskScore: 35,
		ActionItems: []entities.ExtractedActionItem{
			{Title: "Send budget draft", Assignee: "Dana", DueDate: "2026-09-15", RiskScore: 40},
		},
		Decisions: []entities.ExtractedDecision{
			{Description: "Freeze contractor spend", Type: "hidden", Impact: "high"},
		},
		FollowUp: &entities.EmailDraft{Subject: "Recap", Body: "Thanks all"},
	}
}

func shortTranscript() string {
	return strings.Repeat("budget review discussion ", 10) // ~250 chars, short tier
}

func longTranscript() string {
	return strings.Repeat("detailed roadmap conversation ", 100) // ~3000 chars, long tier
}

func validInput(transcript string) AnalyzeInput {
	return AnalyzeInput{
		Title:        "Q3 Planning",
		Transcript:   transcript,
		Participants: []string{"Dana", "Lee"},
	}
}

func TestAnalyze_Success(t *testing.T) {
	gw := &stubGateway{result: validResult()}
	f := newFixture(gw)
	userID := uuid.New()
	f.users.balances[userID] = 50

	meeting, err := f.workflow.Analyze(context.Background(), userID, validInput(shortTranscript()))
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if meeting.Status != entities.MeetingStatusCompleted {
		t.Fatalf("expected completed status, got %s", meeting.Status)
	}
	if meeting.Summary == nil || *meeting.Summary != "Quarterly planning recap" {
		t.Fatalf("summary not stored")
	}
	if meeting.CreditsUsed != 10 {
		t.Fatalf("expected 10 credits used, got %d", meeting.CreditsUsed)
	}
	if f.users.balances[userID] != 40 {
		t.Fatalf("expected balance 40, got %d", f.users.balances[userID])
	}
	if len(f.items.items[meeting.ID]) != 1 {
		t.Fatalf("expected 1 action item, got %d", len(f.items.items[meeting.ID]))
	}
	if len(f.dec.decisions[meeting.ID]) != 1 {
		t.Fatalf("expected 1 decision, got %d", len(f.dec.decisions[meeting.ID]))
	}

	if len(f.usage.entries) != 1 {
		t.Fatalf("expected 1 usage entry, got %d", len(f.usage.entries))
	}
	entry := f.usage.entries[0]
	if entry.Action != entities.UsageActionAnalyzeMeeting || entry.Outcome != entities.UsageOutcomeSuccess {
		t.Fatalf("unexpected usage entry %s/%s", entry.Action, entry.Outcome)
	}
	if entry.CreditsBalance != 40 {
		t.Fatalf("expected balance snapshot 40, got %d", entry.CreditsBalance)
	}
}

func TestAnalyze_LongTranscriptCostsMore(t *testing.T) {
	gw := &stubGateway{result: validResult()}
	f := newFixture(gw)
	userID := uuid.New()
	f.users.balances[userID] = 50

	meeting, err := f.workflow.Analyze(context.Background(), userID, validInput(longTranscript()))
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if meeting.CreditsUsed != 20 {
		t.Fatalf("expected 20 credits used, got %d", meeting.CreditsUsed)
	}
	if f.users.balances[userID] != 30 {
		t.Fatalf("expected balance 30, got %d", f.users.balances[userID])
	}
}

func TestAnalyze_InsufficientCredits(t *testing.T) {
	gw := &stubGateway{result: validResult()}
	f := newFixture(gw)
	userID := uuid.New()
	f.users.balances[userID] = 5

	_, err := f.workflow.Analyze(context.Background(), userID, validInput(shortTranscript()))
	if err == nil {
		t.Fatal("expected insufficient credits error")
	}

	var appErr apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperrors.ErrorCode_INSUFFICIENT_CREDITS {
		t.Fatalf("unexpected error: %v", err)
	}
	if gw.calls != 0 {
		t.Fatalf("gateway should not be called, got %d calls", gw.calls)
	}
	if len(f.meetings.meetings) != 0 {
		t.Fatal("no meeting record should exist after preflight rejection")
	}
	if f.users.balances[userID] != 5 {
		t.Fatalf("balance must be untouched, got %d", f.users.balances[userID])
	}
}

func TestAnalyze_GatewayFailureRefunds(t *testing.T) {
	gw := &stubGateway{err: errors.New("provider timeout")}
	f := newFixture(gw)
	userID := uuid.New()
	f.users.balances[userID] = 50

	_, err := f.workflow.Analyze(context.Background(), userID, validInput(shortTranscript()))
	if err == nil {
		t.Fatal("expected gateway error")
	}

	var appErr apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperrors.ErrorCode_GATEWAY_FAILED {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.users.balances[userID] != 50 {
		t.Fatalf("credits must be refunded, balance %d", f.users.balances[userID])
	}

	// One failed record, derived fields cleared
	if len(f.meetings.meetings) != 1 {
		t.Fatalf("expected 1 meeting record, got %d", len(f.meetings.meetings))
	}
	for _, m := range f.meetings.meetings {
		if m.Status != entities.MeetingStatusFailed {
			t.Fatalf("expected failed status, got %s", m.Status)
		}
		if m.FailureReason == nil {
			t.Fatal("failure reason missing")
		}
		if m.Summary != nil || m.Sentiment != nil || m.RiskScore != nil {
			t.Fatal("failed record must not carry analysis output")
		}
	}

	if len(f.usage.entries) != 1 || f.usage.entries[0].Outcome != entities.UsageOutcomeRefunded {
		t.Fatal("expected one refunded usage entry")
	}
}

func TestAnalyze_DebitRaceLossFailsWithoutRefund(t *testing.T) {
	gw := &stubGateway{result: validResult()}
	f := newFixture(gw)
	userID := uuid.New()
	f.users.balances[userID] = 50

	// Drop the balance between preflight and debit by wrapping the repo.
	f.users.balances[userID] = 50
	raceUsers := &racingUserRepo{fakeUserRepo: f.users, dropTo: 3}
	logger := zap.NewNop()
	ledger := billing.NewLedger(raceUsers, nil, logger)
	recorder := billing.NewRecorder(f.usage, logger)
	workflow := NewWorkflow(f.meetings, f.items, f.dec, ledger, recorder, gw, nil, logger)

	_, err := workflow.Analyze(context.Background(), userID, validInput(shortTranscript()))
	if err == nil {
		t.Fatal("expected insufficient credits error at debit")
	}

	if gw.calls != 0 {
		t.Fatal("gateway must not be called after losing the debit race")
	}
	// Balance stays at the concurrent value, no refund of the never-charged amount
	if f.users.balances[userID] != 3 {
		t.Fatalf("expected balance 3, got %d", f.users.balances[userID])
	}
	for _, m := range f.meetings.meetings {
		if m.Status != entities.MeetingStatusFailed {
			t.Fatalf("expected failed record, got %s", m.Status)
		}
	}
	if len(f.usage.entries) != 1 || f.usage.entries[0].Outcome != entities.UsageOutcomeFailed {
		t.Fatal("expected one failed usage entry")
	}
}

// racingUserRepo passes preflight reads, then collapses the balance before
// the first debit to simulate a concurrent spender.
type racingUserRepo struct {
	*fakeUserRepo
	dropTo  int
	dropped bool
}

func (r *racingUserRepo) DebitCredits(ctx context.Context, userID uuid.UUID, amount int) (int, error) {
	if !r.dropped {
		r.balances[userID] = r.dropTo
		r.dropped = true
	}
	return r.fakeUserRepo.DebitCredits(ctx, userID, amount)
}

func TestAnalyze_ValidationRejectsBeforeCharging(t *testing.T) {
	gw := &stubGateway{result: validResult()}
	f := newFixture(gw)
	userID := uuid.New()
	f.users.balances[userID] = 50

	cases := []struct {
		name  string
		input AnalyzeInput
	}{
		{"empty title", AnalyzeInput{Title: "", Transcript: shortTranscript()}},
		{"long title", AnalyzeInput{Title: strings.Repeat("x", 201), Transcript: shortTranscript()}},
		{"short transcript", AnalyzeInput{Title: "ok", Transcript: "too short"}},
		{"long transcript", AnalyzeInput{Title: "ok", Transcript: strings.Repeat("x", 100001)}},
		{"too many participants", AnalyzeInput{Title: "ok", Transcript: shortTranscript(), Participants: make([]string, 51)}},
		{"too many tags", AnalyzeInput{Title: "ok", Transcript: shortTranscript(), Tags: make([]string, 11)}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.workflow.Analyze(context.Background(), userID, tc.input)
			if err == nil {
				t.Fatal("expected validation error")
			}
			var appErr apperrors.AppError
			if !errors.As(err, &appErr) || appErr.HTTPCode != 400 {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}

	if f.users.balances[userID] != 50 {
		t.Fatalf("balance must be untouched, got %d", f.users.balances[userID])
	}
	if gw.calls != 0 {
		t.Fatal("gateway must not be called for invalid input")
	}
}

func TestReanalyze_ReplacesOutputAndChargesAgain(t *testing.T) {
	gw := &stubGateway{result: validResult()}
	f := newFixture(gw)
	userID := uuid.New()
	f.users.balances[userID] = 50

	meeting, err := f.workflow.Analyze(context.Background(), userID, validInput(shortTranscript()))
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	gw.result = validResult()
	gw.result.Summary = "Updated recap"

	updated, err := f.workflow.Reanalyze(context.Background(), userID, meeting.ID)
	if err != nil {
		t.Fatalf("Reanalyze failed: %v", err)
	}
	if updated.Summary == nil || *updated.Summary != "Updated recap" {
		t.Fatal("reanalysis must replace derived output")
	}
	if f.users.balances[userID] != 30 {
		t.Fatalf("expected two charges of 10, balance %d", f.users.balances[userID])
	}
	if len(f.items.items[meeting.ID]) != 1 {
		t.Fatalf("action items must be replaced, not appended, got %d", len(f.items.items[meeting.ID]))
	}
	if len(f.usage.entries) != 2 || f.usage.entries[1].Action != entities.UsageActionReanalyze {
		t.Fatal("expected a reanalyze usage entry")
	}
}

func TestReanalyze_DebitRaceLossKeepsCompletedOutput(t *testing.T) {
	gw := &stubGateway{result: validResult()}
	f := newFixture(gw)
	userID := uuid.New()
	f.users.balances[userID] = 50

	meeting, err := f.workflow.Analyze(context.Background(), userID, validInput(shortTranscript()))
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	callsAfterAnalyze := gw.calls

	// Concurrent spender empties the balance between preflight and debit.
	raceUsers := &racingUserRepo{fakeUserRepo: f.users, dropTo: 3}
	logger := zap.NewNop()
	ledger := billing.NewLedger(raceUsers, nil, logger)
	recorder := billing.NewRecorder(f.usage, logger)
	workflow := NewWorkflow(f.meetings, f.items, f.dec, ledger, recorder, gw, nil, logger)

	_, err = workflow.Reanalyze(context.Background(), userID, meeting.ID)
	if err == nil {
		t.Fatal("expected insufficient credits error at debit")
	}
	var appErr apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperrors.ErrorCode_INSUFFICIENT_CREDITS {
		t.Fatalf("unexpected error: %v", err)
	}

	if gw.calls != callsAfterAnalyze {
		t.Fatal("gateway must not be called after losing the debit race")
	}
	// The paid-for analysis output must survive the failed reanalysis.
	stored := f.meetings.meetings[meeting.ID]
	if stored.Status != entities.MeetingStatusCompleted {
		t.Fatalf("meeting must stay completed, got %s", stored.Status)
	}
	if stored.Summary == nil || *stored.Summary != "Quarterly planning recap" {
		t.Fatal("completed summary must be untouched")
	}
	if stored.FollowUpEmail == nil {
		t.Fatal("completed follow-up email must be untouched")
	}
	if f.users.balances[userID] != 3 {
		t.Fatalf("expected balance 3, got %d", f.users.balances[userID])
	}
	last := f.usage.entries[len(f.usage.entries)-1]
	if last.Action != entities.UsageActionReanalyze || last.Outcome != entities.UsageOutcomeFailed || last.CreditsUsed != 0 {
		t.Fatalf("expected a zero-credit failed reanalyze entry, got %s/%s/%d", last.Action, last.Outcome, last.CreditsUsed)
	}
}

func TestRegenerateEmail_Success(t *testing.T) {
	gw := &stubGateway{result: validResult(), draft: &entities.EmailDraft{Subject: "Follow-up", Body: "New body"}}
	f := newFixture(gw)
	userID := uuid.New()
	f.users.balances[userID] = 50

	meeting, err := f.workflow.Analyze(context.Background(), userID, validInput(shortTranscript()))
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	updated, err := f.workflow.RegenerateEmail(context.Background(), userID, meeting.ID)
	if err != nil {
		t.Fatalf("RegenerateEmail failed: %v", err)
	}
	if updated.FollowUpEmail == nil || *updated.FollowUpEmail != "Subject: Follow-up\n\nNew body" {
		t.Fatalf("unexpected follow-up email %v", updated.FollowUpEmail)
	}
	if f.users.balances[userID] != 39 {
		t.Fatalf("email regeneration must cost 1 credit, balance %d", f.users.balances[userID])
	}
}

func TestRegenerateEmail_RequiresCompletedAnalysis(t *testing.T) {
	gw := &stubGateway{err: errors.New("provider down"), draft: &entities.EmailDraft{Body: "x"}}
	f := newFixture(gw)
	userID := uuid.New()
	f.users.balances[userID] = 50

	// Failed analysis leaves the meeting in the failed state
	_, _ = f.workflow.Analyze(context.Background(), userID, validInput(shortTranscript()))

	var meetingID uuid.UUID
	for id := range f.meetings.meetings {
		meetingID = id
	}

	_, err := f.workflow.RegenerateEmail(context.Background(), userID, meetingID)
	if err == nil {
		t.Fatal("expected error for non-completed meeting")
	}
	var appErr apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperrors.ErrorCode_ANALYSIS_NOT_COMPLETED {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRegenerateEmail_GatewayFailureRefunds(t *testing.T) {
	gw := &stubGateway{result: validResult()}
	f := newFixture(gw)
	userID := uuid.New()
	f.users.balances[userID] = 50

	meeting, err := f.workflow.Analyze(context.Background(), userID, validInput(shortTranscript()))
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	gw.emailErr = errors.New("provider down")
	_, err = f.workflow.RegenerateEmail(context.Background(), userID, meeting.ID)
	if err == nil {
		t.Fatal("expected gateway error")
	}
	if f.users.balances[userID] != 40 {
		t.Fatalf("email credit must be refunded, balance %d", f.users.balances[userID])
	}
	// Existing analysis output survives a failed email regeneration
	if meeting.Status != entities.MeetingStatusCompleted {
		t.Fatalf("meeting must stay completed, got %s", meeting.Status)
	}
}

func TestRegenerateEmail_InsufficientCreditsLeavesEmailUnchanged(t *testing.T) {
	gw := &stubGateway{result: validResult(), draft: &entities.EmailDraft{Subject: "Follow-up", Body: "New body"}}
	f := newFixture(gw)
	userID := uuid.New()
	f.users.balances[userID] = 10

	meeting, err := f.workflow.Analyze(context.Background(), userID, validInput(shortTranscript()))
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if f.users.balances[userID] != 0 {
		t.Fatalf("expected empty balance after analysis, got %d", f.users.balances[userID])
	}
	storedEmail := *meeting.FollowUpEmail
	callsAfterAnalyze := gw.calls

	_, err = f.workflow.RegenerateEmail(context.Background(), userID, meeting.ID)
	if err == nil {
		t.Fatal("expected insufficient credits error")
	}
	var appErr apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperrors.ErrorCode_INSUFFICIENT_CREDITS {
		t.Fatalf("unexpected error: %v", err)
	}

	if gw.calls != callsAfterAnalyze {
		t.Fatal("gateway must not be called without credits")
	}
	stored := f.meetings.meetings[meeting.ID]
	if stored.FollowUpEmail == nil || *stored.FollowUpEmail != storedEmail {
		t.Fatal("stored follow-up email must be unchanged")
	}
	if f.users.balances[userID] != 0 {
		t.Fatalf("balance must stay 0, got %d", f.users.balances[userID])
	}
}

func TestEstimateCost(t *testing.T) {
	if got := EstimateCost(strings.Repeat("x", 2495)); got != 10 {
		t.Fatalf("expected 10 for 499 estimated words, got %d", got)
	}
	if got := EstimateCost(strings.Repeat("x", 2500)); got != 20 {
		t.Fatalf("expected 20 for 500 estimated words, got %d", got)
	}
}
