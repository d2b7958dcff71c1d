package app

import (
	"context"
	"sync"
	"time"

	"github.com/riskibarqy/fantasy-waivers/internal/platform/logging"
	"github.com/riskibarqy/fantasy-waivers/internal/usecase"
)

type duePassRunner interface {
	ProcessDue(ctx context.Context) (usecase.ProcessDueResult, error)
}

// waiverPoller runs every due pass on a fixed interval. Completed cutoffs
// replay from their stored report, so overlapping ticks are harmless.
type waiverPoller struct {
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func startWaiverPoller(runner duePassRunner, interval time.Duration, logger *logging.Logger) *waiverPoller {
	if interval <= 0 {
		interval = time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &waiverPoller{cancel: cancel}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		logger.Info("waiver poller started", "interval", interval)
		for {
			select {
			case <-ctx.Done():
				logger.Info("waiver poller stopped")
				return
			case <-ticker.C:
				p.tick(ctx, runner, logger)
			}
		}
	}()

	return p
}

func (p *waiverPoller) tick(ctx context.Context, runner duePassRunner, logger *logging.Logger) {
	result, err := runner.ProcessDue(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "process due waiver passes failed", "error", err)
		return
	}

	settled := 0
	for _, pass := range result.Passes {
		if !pass.Replayed {
			settled++
		}
	}
	if settled > 0 || len(result.Failures) > 0 {
		logger.InfoContext(ctx, "waiver poller tick",
			"leagues", result.LeagueCount,
			"settled", settled,
			"failures", len(result.Failures),
		)
	}
}

func (p *waiverPoller) stop() {
	p.cancel()
	p.wg.Wait()
}
