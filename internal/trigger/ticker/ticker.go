// Package ticker runs the daily invocation from inside the server process,
// for deployments without an external cron.
package ticker

import (
	"context"
	"sync"
	"time"

	execdomain "digest-backend/internal/execution/domain"
	"digest-backend/internal/pipeline"

	"go.uber.org/zap"
)

// DefaultInterval is how often the ticker checks for a new UTC day.
const DefaultInterval = time.Minute

// Invoker runs one invocation.
type Invoker interface {
	RunDue(ctx context.Context, trigger pipeline.Trigger) (*pipeline.InvocationResult, error)
}

// DailyTicker fires at most once per UTC calendar day.
type DailyTicker struct {
	invoker  Invoker
	interval time.Duration
	now      func() time.Time
	log      *zap.Logger

	lastDay  string
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewDailyTicker creates a ticker checking every interval.
func NewDailyTicker(invoker Invoker, interval time.Duration, log *zap.Logger) *DailyTicker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &DailyTicker{
		invoker:  invoker,
		interval: interval,
		now:      time.Now,
		log:      log.Named("ticker"),
		stopChan: make(chan struct{}),
	}
}

// Start begins the loop. The first check runs immediately.
func (t *DailyTicker) Start(ctx context.Context) {
	t.log.Info("Starting daily ticker", zap.Duration("interval", t.interval))

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()

		t.tick(ctx)

		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				t.tick(ctx)
			case <-ctx.Done():
				t.log.Info("Ticker stopped", zap.Error(ctx.Err()))
				return
			case <-t.stopChan:
				t.log.Info("Ticker stopped")
				return
			}
		}
	}()
}

// Stop ends the loop and waits for a running invocation to finish.
func (t *DailyTicker) Stop() {
	close(t.stopChan)
	t.wg.Wait()
}

// tick runs an invocation when the UTC day changed since the last one. It
// reports whether it ran.
func (t *DailyTicker) tick(ctx context.Context) bool {
	day := execdomain.AutomaticSlot(t.now())
	if day == t.lastDay {
		return false
	}
	t.lastDay = day

	result, err := t.invoker.RunDue(ctx, pipeline.TriggerTicker)
	if err != nil {
		t.log.Error("Daily invocation failed", zap.String("day", day), zap.Error(err))
		return true
	}
	t.log.Info("Daily invocation complete",
		zap.String("day", day),
		zap.Int("due", result.Due),
		zap.Int("executed", result.Executed),
		zap.Int("skipped", result.Skipped))
	return true
}
