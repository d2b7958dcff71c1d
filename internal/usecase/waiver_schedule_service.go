package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/fantasy-waivers/internal/domain/jobscheduler"
	"github.com/riskibarqy/fantasy-waivers/internal/domain/league"
	"github.com/riskibarqy/fantasy-waivers/internal/platform/logging"
	"go.opentelemetry.io/otel/trace"
)

const processWaiversPath = "/v1/internal/jobs/process-waivers"

type JobQueue interface {
	Enqueue(ctx context.Context, path string, payload any, delay time.Duration, deduplicationID string) error
}

type noopJobQueue struct{}

func (noopJobQueue) Enqueue(_ context.Context, _ string, _ any, _ time.Duration, _ string) error {
	return nil
}

func NewNoopJobQueue() JobQueue {
	return noopJobQueue{}
}

type ScheduleResult struct {
	LeagueCount      int      `json:"league_count"`
	QueuedCount      int      `json:"queued_count"`
	QueuedOperations []string `json:"queued_operations"`
}

type ProcessJobInput struct {
	LeagueID   string
	Cutoff     time.Time
	DispatchID string
}

// WaiverScheduleService enqueues a delayed processing job for each league's
// next cutoff and chains the following one after every completed pass.
type WaiverScheduleService struct {
	leagueRepo   league.Repository
	processing   *WaiverProcessingService
	queue        JobQueue
	dispatchRepo jobscheduler.Repository
	logger       *logging.Logger
	now          func() time.Time
}

func NewWaiverScheduleService(
	leagueRepo league.Repository,
	processing *WaiverProcessingService,
	queue JobQueue,
	dispatchRepo jobscheduler.Repository,
	logger *logging.Logger,
) *WaiverScheduleService {
	if queue == nil {
		queue = NewNoopJobQueue()
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &WaiverScheduleService{
		leagueRepo:   leagueRepo,
		processing:   processing,
		queue:        queue,
		dispatchRepo: dispatchRepo,
		logger:       logger,
		now:          time.Now,
	}
}

// Schedule queues the next cutoff of one league, or of every league when
// leagueID is empty.
func (s *WaiverScheduleService) Schedule(ctx context.Context, leagueID string) (ScheduleResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.WaiverScheduleService.Schedule")
	defer span.End()

	leagues, err := s.pickLeagues(ctx, leagueID)
	if err != nil {
		return ScheduleResult{}, err
	}

	now := s.now().UTC()
	result := ScheduleResult{
		LeagueCount:      len(leagues),
		QueuedOperations: make([]string, 0, len(leagues)),
	}
	for _, item := range leagues {
		cutoff := item.Schedule.NextCutoff(now)
		if err := s.enqueueProcess(ctx, item.ID, cutoff, now); err != nil {
			return ScheduleResult{}, err
		}
		result.QueuedCount++
		result.QueuedOperations = append(result.QueuedOperations, jobscheduler.JobProcessWaivers+":"+item.ID)
	}

	return result, nil
}

// RunProcessJob executes a queued pass. A zero cutoff means the league's most
// recent one.
func (s *WaiverScheduleService) RunProcessJob(ctx context.Context, input ProcessJobInput) (PassResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.WaiverScheduleService.RunProcessJob")
	defer span.End()

	if strings.TrimSpace(input.LeagueID) == "" {
		return PassResult{}, fmt.Errorf("%w: league id is required", ErrInvalidInput)
	}
	leagues, err := s.pickLeagues(ctx, input.LeagueID)
	if err != nil {
		return PassResult{}, err
	}
	item := leagues[0]

	now := s.now().UTC()
	cutoff := input.Cutoff
	if cutoff.IsZero() {
		cutoff = item.Schedule.PreviousCutoff(now)
	}
	cutoff = cutoff.UTC()
	dispatchID := strings.TrimSpace(input.DispatchID)
	if dispatchID == "" {
		dispatchID = jobscheduler.DispatchID(jobscheduler.JobProcessWaivers, item.ID, cutoff)
	}
	payload := processPayload(item.ID, cutoff, dispatchID)

	result, err := s.processing.ProcessLeague(ctx, ProcessPassInput{LeagueID: item.ID, Cutoff: cutoff})
	if err != nil {
		recordSpanError(span, err)
		s.recordDispatchEvent(ctx, jobscheduler.DispatchEvent{
			DispatchID:   dispatchID,
			JobName:      jobscheduler.JobProcessWaivers,
			JobPath:      processWaiversPath,
			LeagueID:     item.ID,
			Cutoff:       cutoff,
			Status:       jobscheduler.StatusFailed,
			Payload:      payload,
			ErrorMessage: err.Error(),
		})
		return PassResult{}, err
	}
	s.recordDispatchEvent(ctx, jobscheduler.DispatchEvent{
		DispatchID: dispatchID,
		JobName:    jobscheduler.JobProcessWaivers,
		JobPath:    processWaiversPath,
		LeagueID:   item.ID,
		Cutoff:     cutoff,
		Status:     jobscheduler.StatusCompleted,
		Payload:    payload,
	})

	if err := s.enqueueProcess(ctx, item.ID, item.Schedule.NextCutoff(now), now); err != nil {
		// The pass is settled; the next cutoff can still be queued by the schedule job.
		s.logger.WarnContext(ctx, "enqueue next waiver pass failed", "league_id", item.ID, "error", err)
	}

	return result, nil
}

func (s *WaiverScheduleService) pickLeagues(ctx context.Context, leagueID string) ([]league.League, error) {
	leagueID = strings.TrimSpace(leagueID)
	if leagueID == "" {
		items, err := s.leagueRepo.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("list leagues for jobs: %w", err)
		}
		return items, nil
	}

	item, exists, err := s.leagueRepo.GetByID(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("get league for jobs: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: league=%s", ErrNotFound, leagueID)
	}

	return []league.League{item}, nil
}

func (s *WaiverScheduleService) enqueueProcess(ctx context.Context, leagueID string, cutoff, now time.Time) error {
	dispatchID := jobscheduler.DispatchID(jobscheduler.JobProcessWaivers, leagueID, cutoff)
	payload := processPayload(leagueID, cutoff, dispatchID)
	delay := cutoff.Sub(now)
	if delay < 0 {
		delay = 0
	}

	if err := s.queue.Enqueue(ctx, processWaiversPath, payload, delay, dispatchID); err != nil {
		s.recordDispatchEvent(ctx, jobscheduler.DispatchEvent{
			DispatchID:   dispatchID,
			JobName:      jobscheduler.JobProcessWaivers,
			JobPath:      processWaiversPath,
			LeagueID:     leagueID,
			Cutoff:       cutoff,
			Status:       jobscheduler.StatusFailed,
			Payload:      payload,
			ErrorMessage: err.Error(),
			OccurredAt:   now.UTC(),
		})
		return fmt.Errorf("enqueue %s league=%s: %w", jobscheduler.JobProcessWaivers, leagueID, err)
	}
	s.recordDispatchEvent(ctx, jobscheduler.DispatchEvent{
		DispatchID: dispatchID,
		JobName:    jobscheduler.JobProcessWaivers,
		JobPath:    processWaiversPath,
		LeagueID:   leagueID,
		Cutoff:     cutoff,
		Status:     jobscheduler.StatusSent,
		Payload:    payload,
		OccurredAt: now.UTC(),
	})
	return nil
}

func processPayload(leagueID string, cutoff time.Time, dispatchID string) map[string]any {
	return map[string]any{
		"league_id":   leagueID,
		"cutoff":      cutoff.UTC().Format(time.RFC3339),
		"dispatch_id": dispatchID,
	}
}

func (s *WaiverScheduleService) recordDispatchEvent(ctx context.Context, event jobscheduler.DispatchEvent) {
	if s.dispatchRepo == nil || strings.TrimSpace(event.DispatchID) == "" {
		return
	}
	traceID, spanID := traceMetaFromContext(ctx)
	event.TraceID = traceID
	event.SpanID = spanID
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.now().UTC()
	}
	if err := s.dispatchRepo.UpsertEvent(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "record job dispatch event failed",
			"dispatch_id", event.DispatchID,
			"status", event.Status,
			"error", err,
		)
	}
}

func traceMetaFromContext(ctx context.Context) (string, string) {
	spanContext := trace.SpanFromContext(ctx).SpanContext()
	if !spanContext.IsValid() {
		return "", ""
	}
	return spanContext.TraceID().String(), spanContext.SpanID().String()
}
