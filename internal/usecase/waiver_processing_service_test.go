package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/fantasy-waivers/internal/domain/league"
	"github.com/riskibarqy/fantasy-waivers/internal/domain/waiver"
	leaguemock "github.com/riskibarqy/fantasy-waivers/internal/mocks/domain/league"
	"github.com/riskibarqy/fantasy-waivers/internal/infrastructure/repository/memory"
	waivermock "github.com/riskibarqy/fantasy-waivers/internal/mocks/domain/waiver"
	"github.com/riskibarqy/fantasy-waivers/internal/platform/lock"
	"github.com/riskibarqy/fantasy-waivers/internal/platform/logging"
	"github.com/stretchr/testify/mock"
)

func TestWaiverProcessingService_ProcessLeague_SettlesFAABContest(t *testing.T) {
	t.Parallel()

	f := newWaiverFixture(t, waiver.ModeFAAB, testTeams())
	low := f.submit(t, "user-1", "ft-1", "fa-1", "", 10)
	f.clock.set(f.clock.now().Add(time.Minute))
	high := f.submit(t, "user-2", "ft-2", "fa-1", "", 20)
	other := f.submit(t, "user-3", "ft-3", "fa-2", "", 5)

	f.clock.set(testCutoff.Add(time.Hour))
	result, err := f.processSvc.ProcessLeague(t.Context(), ProcessPassInput{LeagueID: testLeagueID, Cutoff: testCutoff})
	if err != nil {
		t.Fatalf("process league: %v", err)
	}
	if result.Replayed {
		t.Fatalf("first run must not be a replay")
	}
	if got := result.Report.Count(waiver.OutcomeSuccessful); got != 2 {
		t.Fatalf("unexpected successful count: %d", got)
	}

	if c := f.claimStatus(t, high.ID); c.Status != waiver.StatusSuccessful || c.ProcessedAt == nil {
		t.Fatalf("unexpected winner claim: %+v", c)
	}
	if c := f.claimStatus(t, low.ID); c.Status != waiver.StatusFailed || c.FailureReason != waiver.ReasonOutbid {
		t.Fatalf("unexpected loser claim: %+v", c)
	}
	if c := f.claimStatus(t, other.ID); c.Status != waiver.StatusSuccessful {
		t.Fatalf("unexpected uncontested claim: %+v", c)
	}

	if team := f.team(t, "ft-2"); team.SpentFaab != 20 || !team.Has("fa-1") {
		t.Fatalf("unexpected winner state: %+v", team)
	}
	if team := f.team(t, "ft-1"); team.SpentFaab != 0 || team.Has("fa-1") {
		t.Fatalf("loser must be untouched: %+v", team)
	}

	record, err := f.processSvc.GetPass(t.Context(), testLeagueID, testCutoff)
	if err != nil {
		t.Fatalf("get pass: %v", err)
	}
	if record.Status != waiver.PassCompleted || record.Report == nil || record.ID != result.PassID {
		t.Fatalf("unexpected pass record: %+v", record)
	}
}

func TestWaiverProcessingService_ProcessLeague_RerunReturnsStoredReport(t *testing.T) {
	t.Parallel()

	f := newWaiverFixture(t, waiver.ModeFAAB, testTeams())
	f.submit(t, "user-1", "ft-1", "fa-1", "", 10)

	f.clock.set(testCutoff.Add(time.Hour))
	first, err := f.processSvc.ProcessLeague(t.Context(), ProcessPassInput{LeagueID: testLeagueID, Cutoff: testCutoff})
	if err != nil {
		t.Fatalf("first run: %v", err)
	}

	f.clock.set(testCutoff.Add(2 * time.Hour))
	second, err := f.processSvc.ProcessLeague(t.Context(), ProcessPassInput{LeagueID: testLeagueID, Cutoff: testCutoff})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !second.Replayed || second.PassID != first.PassID {
		t.Fatalf("expected replay of pass %s, got %+v", first.PassID, second)
	}
	if !second.Report.ProcessedAt.Equal(first.Report.ProcessedAt) || len(second.Report.Results) != len(first.Report.Results) {
		t.Fatalf("replayed report differs: first=%+v second=%+v", first.Report, second.Report)
	}
	if team := f.team(t, "ft-1"); team.SpentFaab != 10 {
		t.Fatalf("budget must be charged once, spent=%d", team.SpentFaab)
	}
}

func TestWaiverProcessingService_ProcessLeague_LateClaimRollsToNextCutoff(t *testing.T) {
	t.Parallel()

	f := newWaiverFixture(t, waiver.ModeFAAB, testTeams())
	onTime := f.submit(t, "user-1", "ft-1", "fa-1", "", 10)

	f.clock.set(testCutoff.Add(30 * time.Minute))
	late := f.submit(t, "user-2", "ft-2", "fa-2", "", 10)
	if !late.ExpiresAt.Equal(testCutoff.AddDate(0, 0, 7)) {
		t.Fatalf("late claim should target next week, got %s", late.ExpiresAt)
	}

	f.clock.set(testCutoff.Add(time.Hour))
	if _, err := f.processSvc.ProcessLeague(t.Context(), ProcessPassInput{LeagueID: testLeagueID, Cutoff: testCutoff}); err != nil {
		t.Fatalf("process league: %v", err)
	}

	if c := f.claimStatus(t, onTime.ID); c.Status != waiver.StatusSuccessful {
		t.Fatalf("unexpected on-time claim: %+v", c)
	}
	c := f.claimStatus(t, late.ID)
	if c.Status != waiver.StatusPending || c.ProcessingPassID != "" {
		t.Fatalf("late claim must stay pending and unstamped: %+v", c)
	}
}

func TestWaiverProcessingService_ProcessLeague_RejectsFutureCutoff(t *testing.T) {
	t.Parallel()

	f := newWaiverFixture(t, waiver.ModeFAAB, testTeams())
	_, err := f.processSvc.ProcessLeague(t.Context(), ProcessPassInput{LeagueID: testLeagueID, Cutoff: testCutoff})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestWaiverProcessingService_ProcessLeague_IntegrityFaultReleasesClaims(t *testing.T) {
	t.Parallel()

	teams := testTeams()
	teams[2].WaiverPriority = teams[1].WaiverPriority
	f := newWaiverFixture(t, waiver.ModePriority, teams)
	submitted := f.submit(t, "user-1", "ft-1", "fa-1", "", 0)

	f.clock.set(testCutoff.Add(time.Hour))
	_, err := f.processSvc.ProcessLeague(t.Context(), ProcessPassInput{LeagueID: testLeagueID, Cutoff: testCutoff})
	if !errors.Is(err, waiver.ErrIntegrityFault) {
		t.Fatalf("expected ErrIntegrityFault, got %v", err)
	}

	c := f.claimStatus(t, submitted.ID)
	if c.Status != waiver.StatusPending || c.ProcessingPassID != "" {
		t.Fatalf("claim must be back in the ledger: %+v", c)
	}
	if team := f.team(t, "ft-1"); team.Has("fa-1") {
		t.Fatalf("roster must be untouched after abort")
	}

	record, exists, err := f.passes.GetByCutoff(t.Context(), testLeagueID, testCutoff)
	if err != nil || !exists {
		t.Fatalf("get pass record: exists=%v err=%v", exists, err)
	}
	if record.Status != waiver.PassAborted || record.LastError == "" {
		t.Fatalf("unexpected aborted record: %+v", record)
	}

	if _, err := f.claimSvc.Cancel(t.Context(), CancelClaimInput{LeagueID: testLeagueID, ClaimID: submitted.ID, UserID: "user-1"}); err != nil {
		t.Fatalf("released claim should be cancellable: %v", err)
	}
}

func TestWaiverProcessingService_ProcessLeague_ConcurrentTriggersSettleOnce(t *testing.T) {
	t.Parallel()

	f := newWaiverFixture(t, waiver.ModeFAAB, testTeams())
	f.submit(t, "user-1", "ft-1", "fa-1", "", 10)
	f.submit(t, "user-2", "ft-2", "fa-1", "", 30)

	f.clock.set(testCutoff.Add(time.Hour))

	const triggers = 8
	var wg sync.WaitGroup
	results := make([]PassResult, triggers)
	errs := make([]error, triggers)
	for i := range triggers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = f.processSvc.ProcessLeague(context.Background(), ProcessPassInput{LeagueID: testLeagueID, Cutoff: testCutoff})
		}()
	}
	wg.Wait()

	for i := range triggers {
		if errs[i] != nil {
			t.Fatalf("trigger %d failed: %v", i, errs[i])
		}
		if results[i].PassID != results[0].PassID {
			t.Fatalf("triggers saw different passes: %s vs %s", results[i].PassID, results[0].PassID)
		}
	}
	if team := f.team(t, "ft-2"); team.SpentFaab != 30 {
		t.Fatalf("winner must be charged once, spent=%d", team.SpentFaab)
	}
}

func TestWaiverProcessingService_ProcessLeague_PriorityRotation(t *testing.T) {
	t.Parallel()

	f := newWaiverFixture(t, waiver.ModePriority, testTeams())
	f.submit(t, "user-1", "ft-1", "fa-3", "", 0)
	f.submit(t, "user-2", "ft-2", "fa-1", "", 0)
	f.submit(t, "user-3", "ft-3", "fa-2", "", 0)

	f.clock.set(testCutoff.Add(time.Hour))
	result, err := f.processSvc.ProcessLeague(t.Context(), ProcessPassInput{LeagueID: testLeagueID, Cutoff: testCutoff})
	if err != nil {
		t.Fatalf("process league: %v", err)
	}

	want := []string{"ft-2", "ft-3", "ft-1"}
	got := result.Report.PriorityOrder
	if len(got) != len(want) {
		t.Fatalf("unexpected priority order: %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected priority order: got=%v want=%v", got, want)
		}
	}
	if team := f.team(t, "ft-1"); team.WaiverPriority != 3 {
		t.Fatalf("ft-1 should be last, priority=%d", team.WaiverPriority)
	}
}

func TestWaiverProcessingService_ProcessDue(t *testing.T) {
	t.Parallel()

	f := newWaiverFixture(t, waiver.ModeFAAB, testTeams())
	f.submit(t, "user-1", "ft-1", "fa-1", "", 10)

	f.clock.set(testCutoff.Add(90 * time.Minute))
	result, err := f.processSvc.ProcessDue(t.Context())
	if err != nil {
		t.Fatalf("process due: %v", err)
	}
	if result.LeagueCount != 1 || len(result.Passes) != 1 || len(result.Failures) != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if !result.Passes[0].Cutoff.Equal(testCutoff) {
		t.Fatalf("unexpected cutoff: %s", result.Passes[0].Cutoff)
	}
}

func TestWaiverProcessingService_ProcessLeague_CompletedPassUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	leagueRepo := leaguemock.NewRepository(t)
	claimRepo := waivermock.NewClaimRepository(t)
	passRepo := waivermock.NewPassRepository(t)

	service := NewWaiverProcessingService(
		leagueRepo,
		nil,
		claimRepo,
		passRepo,
		nil,
		lock.NewKeyed(),
		&sequenceIDGenerator{prefix: "pass"},
		WaiverProcessingConfig{},
		logging.NewNop(),
	)
	service.now = func() time.Time { return testCutoff.Add(time.Hour) }

	report := waiver.SettlementReport{PassID: "pass-old", LeagueID: testLeagueID, Cutoff: testCutoff}
	leagueRepo.
		On("GetByID", mock.Anything, testLeagueID).
		Return(league.League{ID: testLeagueID, Waiver: waiver.Settings{Mode: waiver.ModeFAAB, RosterCap: 5}}, true, nil).
		Once()
	passRepo.
		On("GetByCutoff", mock.Anything, testLeagueID, mock.MatchedBy(func(v time.Time) bool { return v.Equal(testCutoff) })).
		Return(waiver.PassRecord{ID: "pass-old", LeagueID: testLeagueID, Cutoff: testCutoff, Status: waiver.PassCompleted, Report: &report}, true, nil).
		Once()

	got, err := service.ProcessLeague(ctx, ProcessPassInput{LeagueID: testLeagueID, Cutoff: testCutoff})
	if err != nil {
		t.Fatalf("process league: %v", err)
	}
	if !got.Replayed || got.PassID != "pass-old" {
		t.Fatalf("unexpected result: %+v", got)
	}
	claimRepo.AssertNotCalled(t, "BeginPass", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestWaiverProcessingService_ProcessLeague_LeagueNotFoundUsingMockery(t *testing.T) {
	t.Parallel()

	leagueRepo := leaguemock.NewRepository(t)
	service := NewWaiverProcessingService(leagueRepo, nil, nil, nil, nil, lock.NewKeyed(), nil, WaiverProcessingConfig{}, logging.NewNop())
	service.now = func() time.Time { return testCutoff.Add(time.Hour) }

	leagueRepo.
		On("GetByID", mock.Anything, "missing").
		Return(league.League{}, false, nil).
		Once()

	_, err := service.ProcessLeague(t.Context(), ProcessPassInput{LeagueID: "missing", Cutoff: testCutoff})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestWaiverProcessingService_ProcessLeague_RetriesFinishUsingMockery(t *testing.T) {
	t.Parallel()

	f := newWaiverFixture(t, waiver.ModeFAAB, testTeams())
	submitted := f.submit(t, "user-1", "ft-1", "fa-1", "", 10)
	f.clock.set(testCutoff.Add(time.Hour))

	passRepo := waivermock.NewPassRepository(t)
	service := NewWaiverProcessingService(
		memory.NewLeagueRepository([]league.League{f.league}),
		f.rosters,
		f.claims,
		passRepo,
		memory.NewSettlementWriter(f.rosters, f.claims),
		lock.NewKeyed(),
		&sequenceIDGenerator{prefix: "pass"},
		WaiverProcessingConfig{},
		logging.NewNop(),
	)
	service.now = f.clock.now
	service.finishBackoff = 0

	completed := mock.MatchedBy(func(r waiver.PassRecord) bool {
		return r.Status == waiver.PassCompleted && r.Report != nil && len(r.Report.Results) == 1
	})
	passRepo.
		On("GetByCutoff", mock.Anything, testLeagueID, mock.Anything).
		Return(waiver.PassRecord{}, false, nil).
		Once()
	passRepo.
		On("Start", mock.Anything, mock.Anything).
		Return(nil).
		Once()
	passRepo.
		On("Finish", mock.Anything, completed).
		Return(errors.New("connection reset")).
		Once()
	passRepo.
		On("Finish", mock.Anything, completed).
		Return(nil).
		Once()

	result, err := service.ProcessLeague(t.Context(), ProcessPassInput{LeagueID: testLeagueID, Cutoff: testCutoff})
	if err != nil {
		t.Fatalf("process league: %v", err)
	}
	if result.Report.Count(waiver.OutcomeSuccessful) != 1 {
		t.Fatalf("unexpected report: %+v", result.Report)
	}
	if c := f.claimStatus(t, submitted.ID); c.Status != waiver.StatusSuccessful {
		t.Fatalf("unexpected claim: %+v", c)
	}
	passRepo.AssertNumberOfCalls(t, "Finish", 2)
}

// unfinishablePassRepository loses every completed record write.
type unfinishablePassRepository struct {
	*memory.PassRepository
}

func (r unfinishablePassRepository) Finish(ctx context.Context, record waiver.PassRecord) error {
	if record.Status == waiver.PassCompleted {
		return errors.New("connection reset")
	}
	return r.PassRepository.Finish(ctx, record)
}

func TestWaiverProcessingService_ProcessLeague_SettledPassIsNeverReplaced(t *testing.T) {
	t.Parallel()

	f := newWaiverFixture(t, waiver.ModeFAAB, testTeams())
	submitted := f.submit(t, "user-1", "ft-1", "fa-1", "", 10)
	f.clock.set(testCutoff.Add(time.Hour))
	f.processSvc.passRepo = unfinishablePassRepository{f.passes}
	f.processSvc.finishBackoff = 0

	if _, err := f.processSvc.ProcessLeague(t.Context(), ProcessPassInput{LeagueID: testLeagueID, Cutoff: testCutoff}); err == nil {
		t.Fatalf("expected error when the completed record cannot be stored")
	}
	interrupted, err := f.processSvc.GetPass(t.Context(), testLeagueID, testCutoff)
	if err != nil || interrupted.Status != waiver.PassRunning {
		t.Fatalf("expected running record, got %+v err=%v", interrupted, err)
	}
	if c := f.claimStatus(t, submitted.ID); c.Status != waiver.StatusSuccessful {
		t.Fatalf("claim must stay settled: %+v", c)
	}

	f.clock.set(f.clock.now().Add(time.Minute))
	_, err = f.processSvc.ProcessLeague(t.Context(), ProcessPassInput{LeagueID: testLeagueID, Cutoff: testCutoff})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	record, err := f.processSvc.GetPass(t.Context(), testLeagueID, testCutoff)
	if err != nil {
		t.Fatalf("get pass: %v", err)
	}
	if record.ID != interrupted.ID || record.Status != waiver.PassAborted || record.Report != nil || record.LastError == "" {
		t.Fatalf("settled pass record was replaced: %+v", record)
	}
	if team := f.team(t, "ft-1"); team.SpentFaab != 10 || !team.Has("fa-1") {
		t.Fatalf("unexpected team state: %+v", team)
	}
}
