package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	"github.com/riskibarqy/fantasy-waivers/internal/domain/league"
	"github.com/riskibarqy/fantasy-waivers/internal/domain/roster"
	"github.com/riskibarqy/fantasy-waivers/internal/domain/waiver"
	"github.com/riskibarqy/fantasy-waivers/internal/platform/id"
	"github.com/riskibarqy/fantasy-waivers/internal/platform/logging"
)

// PassLocker serializes processing passes per league.
type PassLocker interface {
	Lock(ctx context.Context, leagueID string) (func(), error)
}

type ProcessPassInput struct {
	LeagueID string
	Cutoff   time.Time
}

type PassResult struct {
	PassID   string                  `json:"pass_id"`
	LeagueID string                  `json:"league_id"`
	Cutoff   time.Time               `json:"cutoff"`
	Replayed bool                    `json:"replayed"`
	Report   waiver.SettlementReport `json:"report"`
}

type PassFailure struct {
	LeagueID string    `json:"league_id"`
	Cutoff   time.Time `json:"cutoff"`
	Error    string    `json:"error"`
}

type ProcessDueResult struct {
	LeagueCount int           `json:"league_count"`
	Passes      []PassResult  `json:"passes"`
	Failures    []PassFailure `json:"failures"`
}

type WaiverProcessingConfig struct {
	Workers int
}

const finishAttempts = 3

// WaiverProcessingService runs processing passes: one league and cutoff at a
// time, exactly once per cutoff.
type WaiverProcessingService struct {
	leagueRepo  league.Repository
	rosterStore roster.Store
	claimRepo   waiver.ClaimRepository
	passRepo    waiver.PassRepository
	settler     waiver.Settler
	locker      PassLocker
	idGen       id.Generator
	cfg         WaiverProcessingConfig
	logger      *logging.Logger
	now         func() time.Time
	inflight    singleflight.Group

	finishBackoff time.Duration
}

func NewWaiverProcessingService(
	leagueRepo league.Repository,
	rosterStore roster.Store,
	claimRepo waiver.ClaimRepository,
	passRepo waiver.PassRepository,
	settler waiver.Settler,
	locker PassLocker,
	idGen id.Generator,
	cfg WaiverProcessingConfig,
	logger *logging.Logger,
) *WaiverProcessingService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}

	return &WaiverProcessingService{
		leagueRepo:  leagueRepo,
		rosterStore: rosterStore,
		claimRepo:   claimRepo,
		passRepo:    passRepo,
		settler:     settler,
		locker:      locker,
		idGen:       idGen,
		cfg:         cfg,
		logger:      logger,
		now:         time.Now,

		finishBackoff: 250 * time.Millisecond,
	}
}

// ProcessLeague settles every claim of the league due at the cutoff. A cutoff
// that already completed returns its stored report untouched.
func (s *WaiverProcessingService) ProcessLeague(ctx context.Context, input ProcessPassInput) (PassResult, error) {
	leagueID := strings.TrimSpace(input.LeagueID)
	ctx, span := startUsecaseSpan(ctx, "usecase.WaiverProcessingService.ProcessLeague",
		attribute.String("waiver.league_id", leagueID),
		attribute.String("waiver.cutoff", input.Cutoff.UTC().Format(time.RFC3339)),
	)
	defer span.End()

	if leagueID == "" {
		return PassResult{}, fmt.Errorf("%w: league id is required", ErrInvalidInput)
	}
	if input.Cutoff.IsZero() {
		return PassResult{}, fmt.Errorf("%w: cutoff is required", ErrInvalidInput)
	}
	cutoff := input.Cutoff.UTC()
	if cutoff.After(s.now()) {
		return PassResult{}, fmt.Errorf("%w: cutoff %s has not been reached", ErrInvalidInput, cutoff.Format(time.RFC3339))
	}

	key := leagueID + "|" + cutoff.Format(time.RFC3339)
	value, err, shared := s.inflight.Do(key, func() (any, error) {
		return s.process(ctx, leagueID, cutoff)
	})
	if err != nil {
		recordSpanError(span, err)
		return PassResult{}, err
	}
	result := value.(PassResult)
	if shared {
		s.logger.DebugContext(ctx, "waiver pass trigger coalesced", "league_id", leagueID, "cutoff", cutoff)
	}

	return result, nil
}

func (s *WaiverProcessingService) process(ctx context.Context, leagueID string, cutoff time.Time) (PassResult, error) {
	lg, exists, err := s.leagueRepo.GetByID(ctx, leagueID)
	if err != nil {
		return PassResult{}, fmt.Errorf("get league: %w", err)
	}
	if !exists {
		return PassResult{}, fmt.Errorf("%w: league=%s", ErrNotFound, leagueID)
	}

	unlock, err := s.locker.Lock(ctx, leagueID)
	if err != nil {
		return PassResult{}, fmt.Errorf("lock league=%s for waiver pass: %w", leagueID, err)
	}
	defer unlock()

	previous, exists, err := s.passRepo.GetByCutoff(ctx, leagueID, cutoff)
	if err != nil {
		return PassResult{}, fmt.Errorf("get pass record: %w", err)
	}
	if exists && previous.Status == waiver.PassCompleted && previous.Report != nil {
		return PassResult{
			PassID:   previous.ID,
			LeagueID: leagueID,
			Cutoff:   cutoff,
			Replayed: true,
			Report:   *previous.Report,
		}, nil
	}
	if exists && previous.Status != waiver.PassCompleted {
		if err := s.takeOver(ctx, previous); err != nil {
			return PassResult{}, err
		}
	}

	passID, err := s.idGen.NewID()
	if err != nil {
		return PassResult{}, fmt.Errorf("generate pass id: %w", err)
	}
	record := waiver.PassRecord{
		ID:        passID,
		LeagueID:  leagueID,
		Cutoff:    cutoff,
		Mode:      lg.Waiver.Mode,
		Status:    waiver.PassRunning,
		StartedAt: s.now().UTC(),
	}
	if err := s.passRepo.Start(ctx, record); err != nil {
		return PassResult{}, fmt.Errorf("start pass record: %w", err)
	}

	var (
		snap   roster.Snapshot
		claims []waiver.Claim
	)
	loaders := pool.New().WithContext(ctx).WithCancelOnError()
	loaders.Go(func(ctx context.Context) error {
		loaded, err := s.rosterStore.LoadSnapshot(ctx, leagueID)
		if err != nil {
			return fmt.Errorf("load roster snapshot: %w", err)
		}
		snap = loaded
		return nil
	})
	loaders.Go(func(ctx context.Context) error {
		taken, err := s.claimRepo.BeginPass(ctx, leagueID, passID, cutoff, record.StartedAt)
		if err != nil {
			return fmt.Errorf("begin pass: %w", err)
		}
		claims = taken
		return nil
	})
	if err := loaders.Wait(); err != nil {
		return PassResult{}, s.abort(ctx, record, err)
	}

	outcome, err := waiver.NewEngine(s.settler).WithClock(s.now).Run(ctx, waiver.PassInput{
		PassID:   passID,
		LeagueID: leagueID,
		Cutoff:   cutoff,
		Settings: lg.Waiver,
		Snapshot: snap,
		Claims:   claims,
	})
	if err != nil {
		return PassResult{}, s.abort(ctx, record, err)
	}

	completedAt := s.now().UTC()
	record.Status = waiver.PassCompleted
	record.CompletedAt = &completedAt
	record.Report = &outcome.Report
	if err := s.finish(ctx, record); err != nil {
		return PassResult{}, fmt.Errorf("finish pass record: %w", err)
	}

	s.logger.InfoContext(ctx, "waiver pass completed",
		"league_id", leagueID,
		"pass_id", passID,
		"cutoff", cutoff,
		"mode", lg.Waiver.Mode,
		"claims", len(claims),
		"successful", outcome.Report.Count(waiver.OutcomeSuccessful),
		"failed", outcome.Report.Count(waiver.OutcomeFailed),
		"rejected", outcome.Report.Count(waiver.OutcomeRejected),
	)

	return PassResult{
		PassID:   passID,
		LeagueID: leagueID,
		Cutoff:   cutoff,
		Report:   outcome.Report,
	}, nil
}

// takeOver hands the claims of an unfinished pass back to the ledger. Holding
// the lock means the owner of a running record is gone. A pass that already
// settled claims is never replaced: its record is marked aborted and the
// cutoff is refused, so a fresh empty report cannot hide the settled outcome.
func (s *WaiverProcessingService) takeOver(ctx context.Context, previous waiver.PassRecord) error {
	if previous.Status == waiver.PassRunning {
		s.logger.WarnContext(ctx, "releasing claims of interrupted waiver pass",
			"league_id", previous.LeagueID,
			"pass_id", previous.ID,
		)
	}
	if err := s.claimRepo.ReleasePass(ctx, previous.LeagueID, previous.ID); err != nil {
		return fmt.Errorf("release interrupted pass=%s: %w", previous.ID, err)
	}

	stamped, err := s.claimRepo.ListByLeague(ctx, previous.LeagueID, waiver.ClaimFilter{PassID: previous.ID})
	if err != nil {
		return fmt.Errorf("list claims of pass=%s: %w", previous.ID, err)
	}
	settled := 0
	for _, c := range stamped {
		if c.Status.Terminal() {
			settled++
		}
	}
	if settled == 0 {
		return nil
	}

	if previous.Status == waiver.PassRunning {
		completedAt := s.now().UTC()
		previous.Status = waiver.PassAborted
		previous.CompletedAt = &completedAt
		previous.LastError = fmt.Sprintf("interrupted after settling %d claims", settled)
		if err := s.passRepo.Finish(context.WithoutCancel(ctx), previous); err != nil {
			return fmt.Errorf("mark interrupted pass=%s aborted: %w", previous.ID, err)
		}
	}
	s.logger.ErrorContext(ctx, "waiver pass settled claims without a stored report",
		"league_id", previous.LeagueID,
		"pass_id", previous.ID,
		"cutoff", previous.Cutoff,
		"settled", settled,
	)
	return fmt.Errorf("%w: pass=%s already settled %d claims for cutoff %s",
		ErrConflict, previous.ID, settled, previous.Cutoff.UTC().Format(time.RFC3339))
}

// finish stores the completed record. Every claim is settled by now, so the
// write outlives the caller's cancellation and is retried.
func (s *WaiverProcessingService) finish(ctx context.Context, record waiver.PassRecord) error {
	ctx = context.WithoutCancel(ctx)

	var err error
	for attempt := 1; attempt <= finishAttempts; attempt++ {
		if err = s.passRepo.Finish(ctx, record); err == nil {
			return nil
		}
		s.logger.WarnContext(ctx, "store completed waiver pass failed",
			"league_id", record.LeagueID,
			"pass_id", record.ID,
			"attempt", attempt,
			"error", err,
		)
		if attempt < finishAttempts {
			time.Sleep(time.Duration(attempt) * s.finishBackoff)
		}
	}
	return err
}

// abort hands unsettled claims back to the ledger and marks the record so a
// later trigger for the same cutoff can run again.
func (s *WaiverProcessingService) abort(ctx context.Context, record waiver.PassRecord, cause error) error {
	cleanupCtx := context.WithoutCancel(ctx)
	if err := s.claimRepo.ReleasePass(cleanupCtx, record.LeagueID, record.ID); err != nil {
		s.logger.ErrorContext(ctx, "release claims of aborted waiver pass failed",
			"league_id", record.LeagueID,
			"pass_id", record.ID,
			"error", err,
		)
	}

	completedAt := s.now().UTC()
	record.Status = waiver.PassAborted
	record.CompletedAt = &completedAt
	record.LastError = cause.Error()
	if err := s.passRepo.Finish(cleanupCtx, record); err != nil {
		s.logger.ErrorContext(ctx, "mark waiver pass aborted failed",
			"league_id", record.LeagueID,
			"pass_id", record.ID,
			"error", err,
		)
	}

	s.logger.ErrorContext(ctx, "waiver pass aborted",
		"league_id", record.LeagueID,
		"pass_id", record.ID,
		"cutoff", record.Cutoff,
		"integrity_fault", errors.Is(cause, waiver.ErrIntegrityFault),
		"error", cause,
	)
	return fmt.Errorf("process waivers league=%s: %w", record.LeagueID, cause)
}

// ProcessDue runs the most recent cutoff of every league in parallel.
func (s *WaiverProcessingService) ProcessDue(ctx context.Context) (ProcessDueResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.WaiverProcessingService.ProcessDue")
	defer span.End()

	leagues, err := s.leagueRepo.List(ctx)
	if err != nil {
		return ProcessDueResult{}, fmt.Errorf("list leagues: %w", err)
	}
	result := ProcessDueResult{
		LeagueCount: len(leagues),
		Passes:      make([]PassResult, 0, len(leagues)),
	}
	if len(leagues) == 0 {
		return result, nil
	}

	workerCount := min(s.cfg.Workers, len(leagues))
	workerPool, err := ants.NewPool(workerCount)
	if err != nil {
		return ProcessDueResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer workerPool.Release()

	now := s.now()
	var (
		mu      sync.Mutex
		workers sync.WaitGroup
	)
	for _, item := range leagues {
		cutoff := item.Schedule.PreviousCutoff(now).UTC()
		workers.Add(1)
		if err := workerPool.Submit(func() {
			defer workers.Done()
			pass, err := s.ProcessLeague(ctx, ProcessPassInput{LeagueID: item.ID, Cutoff: cutoff})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failures = append(result.Failures, PassFailure{LeagueID: item.ID, Cutoff: cutoff, Error: err.Error()})
				return
			}
			result.Passes = append(result.Passes, pass)
		}); err != nil {
			workers.Done()
			workers.Wait()
			return ProcessDueResult{}, fmt.Errorf("submit task to worker pool: %w", err)
		}
	}
	workers.Wait()

	sort.Slice(result.Passes, func(i, j int) bool { return result.Passes[i].LeagueID < result.Passes[j].LeagueID })
	sort.Slice(result.Failures, func(i, j int) bool { return result.Failures[i].LeagueID < result.Failures[j].LeagueID })

	return result, nil
}

// GetPass returns the stored record of a league cutoff.
func (s *WaiverProcessingService) GetPass(ctx context.Context, leagueID string, cutoff time.Time) (waiver.PassRecord, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.WaiverProcessingService.GetPass")
	defer span.End()

	leagueID = strings.TrimSpace(leagueID)
	if leagueID == "" || cutoff.IsZero() {
		return waiver.PassRecord{}, fmt.Errorf("%w: league id and cutoff are required", ErrInvalidInput)
	}

	record, exists, err := s.passRepo.GetByCutoff(ctx, leagueID, cutoff.UTC())
	if err != nil {
		return waiver.PassRecord{}, fmt.Errorf("get pass record: %w", err)
	}
	if !exists {
		return waiver.PassRecord{}, fmt.Errorf("%w: no pass for league=%s cutoff=%s", ErrNotFound, leagueID, cutoff.UTC().Format(time.RFC3339))
	}

	return record, nil
}
