// Package pipeline runs digest schedules end to end: discover, extract,
// summarize, deliver and record.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"digest-backend/internal/content/discovery"
	"digest-backend/internal/content/extractor"
	"digest-backend/internal/delivery/deliverer"
	"digest-backend/internal/delivery/formatter"
	execdomain "digest-backend/internal/execution/domain"
	"digest-backend/internal/execution/recorder"
	intdomain "digest-backend/internal/integration/domain"
	intrepo "digest-backend/internal/integration/repository"
	"digest-backend/internal/schedule/domain"
	"digest-backend/internal/summary/engine"
	"digest-backend/pkg/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Discoverer finds candidate documents for one owner.
type Discoverer interface {
	Discover(ctx context.Context, token string, windowDays int) (*discovery.Result, error)
}

// Summarizer produces the digest text.
type Summarizer interface {
	Summarize(ctx context.Context, content extractor.Content, cfg domain.SummaryConfig, tag engine.ContextTag) (*engine.SummaryResult, error)
}

// Deliverer sends one formatted message to one chat.
type Deliverer interface {
	Deliver(ctx context.Context, address, message string) (*deliverer.Ack, error)
}

// Trigger labels how an invocation was started.
type Trigger string

const (
	TriggerCron   Trigger = "cron"
	TriggerPubSub Trigger = "pubsub"
	TriggerTicker Trigger = "ticker"
	TriggerCLI    Trigger = "cli"
	TriggerManual Trigger = "manual"
)

// Invocation identifies the logical cycle a run belongs to.
type Invocation struct {
	// Slot is the dedup key for automatic runs; manual runs get their own.
	Slot    string
	Manual  bool
	Trigger Trigger
}

// RunStatus is the per-schedule outcome reported to the trigger.
type RunStatus string

const (
	RunSuccess RunStatus = "success"
	RunFailed  RunStatus = "failed"
	RunSkipped RunStatus = "skipped"
)

// RunResult is what the trigger reports for one schedule.
type RunResult struct {
	ScheduleID       string                               `json:"schedule_id"`
	ExecutionID      string                               `json:"execution_id,omitempty"`
	Status           RunStatus                            `json:"status"`
	Error            string                               `json:"error,omitempty"`
	ContentProcessed int                                  `json:"content_processed"`
	Deliveries       map[string]execdomain.DeliveryResult `json:"deliveries,omitempty"`
	Recorded         bool                                 `json:"recorded"`
}

// Deps are the collaborators of a Runner.
type Deps struct {
	Integrations intrepo.IntegrationRepository
	Discovery    Discoverer
	Extractor    *extractor.Extractor
	Summarizer   Summarizer
	Deliverer    Deliverer
	Recorder     *recorder.Recorder
	// StageTimeout bounds each external stage; zero disables it.
	StageTimeout time.Duration
}

// Runner executes one schedule at a time.
type Runner struct {
	deps Deps
	now  func() time.Time
	log  *zap.Logger
}

// NewRunner creates a Runner.
func NewRunner(deps Deps, log *zap.Logger) *Runner {
	return &Runner{deps: deps, now: time.Now, log: log.Named("runner")}
}

// WithClock overrides the time source, for tests.
func (r *Runner) WithClock(now func() time.Time) *Runner {
	r.now = now
	return r
}

// run is the mutable state of one schedule run.
type run struct {
	schedule *domain.Schedule
	inv      Invocation
	stages   *stageTracker
	record   *execdomain.ExecutionRecord
	log      *zap.Logger
}

// Run executes s and always attempts to record the outcome. It never
// returns an error: failures are reported in the result.
func (r *Runner) Run(ctx context.Context, s *domain.Schedule, inv Invocation) *RunResult {
	start := r.now()
	id := uuid.New().String()
	slot := inv.Slot
	if inv.Manual || slot == "" {
		slot = execdomain.ManualSlot(id)
	}

	processed := 0
	st := &run{
		schedule: s,
		inv:      inv,
		stages:   newStageTracker(),
		record: &execdomain.ExecutionRecord{
			ID:               id,
			ScheduleID:       s.ID,
			InvocationSlot:   slot,
			UserID:           s.UserID,
			ExecutedAt:       start.UTC(),
			Status:           execdomain.StatusRunning,
			ContentProcessed: &processed,
			Manual:           inv.Manual,
			DeliveryResults:  map[string]execdomain.DeliveryResult{},
		},
		log: r.log.With(
			zap.String("schedule_id", s.ID),
			zap.String("execution_id", id),
			zap.String("trigger", string(inv.Trigger))),
	}

	st.log.Info("Schedule run started", zap.Bool("manual", inv.Manual))

	runErr := r.execute(ctx, st)
	rec := st.record
	if runErr != nil {
		st.stages.fail()
		stage, _ := st.stages.failedAt()
		msg := fmt.Sprintf("%s: %v", stage, runErr)
		rec.Status = execdomain.StatusFailed
		rec.Stage = stage.String()
		rec.Error = &msg
		r.abandonPendingDeliveries(st, stage)
		metrics.RecordStageFailure(stage.String())
		st.log.Warn("Schedule run failed", zap.String("stage", stage.String()), zap.Error(runErr))
	} else {
		rec.Status = execdomain.StatusSuccess
		rec.Stage = StageSuccess.String()
	}

	if err := st.stages.advance(StageRecording); err != nil {
		st.log.Error("Stage machine rejected recording", zap.Error(err))
	}
	finished := r.now().UTC()
	duration := finished.Sub(start).Milliseconds()
	rec.FinishedAt = &finished
	rec.DurationMs = &duration

	// The run is over; recording must not be cut short by the caller's budget.
	recordCtx, cancel := r.stageContext(context.WithoutCancel(ctx))
	recordErr := r.deps.Recorder.Record(recordCtx, rec)
	cancel()

	final := StageSuccess
	if rec.Status == execdomain.StatusFailed {
		final = StageFailed
	}
	if err := st.stages.advance(final); err != nil {
		st.log.Error("Stage machine rejected final stage", zap.Error(err))
	}

	metrics.RecordRun(string(rec.Status), string(inv.Trigger), r.now().Sub(start).Seconds())

	res := &RunResult{
		ScheduleID:       s.ID,
		ExecutionID:      id,
		Status:           RunStatus(rec.Status),
		ContentProcessed: *rec.ContentProcessed,
		Deliveries:       rec.DeliveryResults,
		Recorded:         recordErr == nil,
	}
	if rec.Error != nil {
		res.Error = *rec.Error
	}
	st.log.Info("Schedule run finished",
		zap.String("status", string(res.Status)),
		zap.Int("content_processed", res.ContentProcessed),
		zap.Bool("recorded", res.Recorded),
		zap.Int64("duration_ms", duration))
	return res
}

// execute drives the working stages. The returned error belongs to the
// tracker's current stage.
func (r *Runner) execute(ctx context.Context, st *run) error {
	s := st.schedule
	rec := st.record

	if err := st.stages.advance(StageDiscovering); err != nil {
		return err
	}
	channels, err := s.ParseDeliveryConfig()
	if err != nil {
		return fmt.Errorf("invalid delivery config: %w", err)
	}
	for name, ch := range channels {
		if ch.Enabled {
			rec.DeliveryResults[name] = execdomain.DeliveryResult{Status: execdomain.DeliveryPending, Timestamp: rec.ExecutedAt}
		}
	}
	cfg, err := s.ParseSummaryConfig()
	if err != nil {
		return fmt.Errorf("invalid summary config: %w", err)
	}

	token, err := r.deps.Integrations.AccessToken(ctx, s.UserID, intdomain.ProviderNotion)
	if err != nil {
		return err
	}

	found, err := withTimeout(ctx, r.deps.StageTimeout, func(ctx context.Context) (*discovery.Result, error) {
		return r.deps.Discovery.Discover(ctx, token, cfg.WindowDays())
	})
	if err != nil {
		return err
	}
	windowDays := found.WindowDays
	rec.WindowDays = &windowDays

	if err := st.stages.advance(StageExtracting); err != nil {
		return err
	}
	content := r.deps.Extractor.Extract(found.Pages)
	rec.ContentProcessed = &content.DocumentsProcessed

	if err := st.stages.advance(StageSummarizing); err != nil {
		return err
	}
	tag := contextTag(found, st.inv.Manual)
	tagName := string(tag)
	rec.ContextTag = &tagName

	summary, err := withTimeout(ctx, r.deps.StageTimeout, func(ctx context.Context) (*engine.SummaryResult, error) {
		return r.deps.Summarizer.Summarize(ctx, content, cfg, tag)
	})
	if err != nil {
		return err
	}
	text := summary.Text
	if tag == engine.ContextNoContent && !strings.HasPrefix(text, engine.NoContentLabel) {
		text = engine.NoContentLabel + "\n\n" + text
	}

	if err := st.stages.advance(StageDelivering); err != nil {
		return err
	}
	message := formatter.Format(text, r.now())
	return r.deliverAll(ctx, st, channels, message)
}

// deliverAll attempts every channel independently. It fails only when no
// channel received the message.
func (r *Runner) deliverAll(ctx context.Context, st *run, channels map[string]domain.ChannelConfig, message string) error {
	names := make([]string, 0, len(channels))
	for name := range channels {
		names = append(names, name)
	}
	sort.Strings(names)

	delivered := 0
	var errs []error
	for _, name := range names {
		ch := channels[name]
		result := r.deliverOne(ctx, name, ch, message)
		st.record.DeliveryResults[name] = result
		metrics.RecordDelivery(name, string(result.Status))

		switch result.Status {
		case execdomain.DeliverySuccess:
			delivered++
		case execdomain.DeliveryFailed:
			errs = append(errs, fmt.Errorf("%s: %s", name, *result.Error))
			st.log.Warn("Channel delivery failed", zap.String("channel", name), zap.String("error", *result.Error))
		}
	}

	if delivered > 0 {
		return nil
	}
	if len(errs) == 0 {
		return errors.New("no enabled delivery channel")
	}
	return errors.Join(errs...)
}

func (r *Runner) deliverOne(ctx context.Context, name string, ch domain.ChannelConfig, message string) execdomain.DeliveryResult {
	skipped := func(reason string) execdomain.DeliveryResult {
		return execdomain.DeliveryResult{Status: execdomain.DeliverySkipped, Error: &reason, Timestamp: r.now().UTC()}
	}
	if !ch.Enabled {
		return skipped("channel disabled")
	}
	if name != domain.ChannelTelegram {
		return skipped("channel not supported")
	}

	ack, err := withTimeout(ctx, r.deps.StageTimeout, func(ctx context.Context) (*deliverer.Ack, error) {
		return r.deps.Deliverer.Deliver(ctx, ch.Address, message)
	})
	if err != nil {
		msg := err.Error()
		return execdomain.DeliveryResult{Status: execdomain.DeliveryFailed, Error: &msg, Timestamp: r.now().UTC()}
	}
	id := ack.MessageID
	return execdomain.DeliveryResult{Status: execdomain.DeliverySuccess, Timestamp: ack.DeliveredAt, MessageID: &id}
}

// abandonPendingDeliveries marks channels that were never attempted because
// the run failed earlier.
func (r *Runner) abandonPendingDeliveries(st *run, failedAt Stage) {
	reason := "not attempted: run failed while " + failedAt.String()
	for name, d := range st.record.DeliveryResults {
		if d.Status == execdomain.DeliveryPending {
			d.Status = execdomain.DeliverySkipped
			d.Error = &reason
			st.record.DeliveryResults[name] = d
		}
	}
}

func (r *Runner) stageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.deps.StageTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.deps.StageTimeout)
}

func withTimeout[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return fn(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(ctx)
}

// contextTag picks the tag the summary prompt should reflect. Sparse or stale
// input outranks the manual flag.
func contextTag(found *discovery.Result, manual bool) engine.ContextTag {
	switch {
	case found.NoContent || len(found.Pages) == 0:
		return engine.ContextNoContent
	case found.Mode == discovery.ModeExtendedWindow:
		return engine.ContextExtendedWindow
	case found.Mode == discovery.ModeMostRecentFallback:
		return engine.ContextMostRecentFallback
	case manual:
		return engine.ContextManual
	default:
		return engine.ContextNormal
	}
}
