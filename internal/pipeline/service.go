package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	execdomain "digest-backend/internal/execution/domain"
	"digest-backend/internal/execution/recorder"
	"digest-backend/internal/schedule/repository"
	"digest-backend/internal/schedule/selector"

	"go.uber.org/zap"
)

// ErrScheduleNotFound is returned for a manual run of an unknown schedule.
var ErrScheduleNotFound = errors.New("schedule not found")

// DefaultHistoryLimit caps History when no limit is given.
const DefaultHistoryLimit = 20

// InvocationResult is the synchronous response of one invocation.
type InvocationResult struct {
	Due      int          `json:"due"`
	Executed int          `json:"executed"`
	Skipped  int          `json:"skipped"`
	Results  []*RunResult `json:"results"`
}

// Service processes invocations: it selects due schedules and runs them one
// after another.
type Service struct {
	schedules repository.ScheduleRepository
	runner    *Runner
	recorder  *recorder.Recorder
	now       func() time.Time
	log       *zap.Logger

	// mu keeps concurrent triggers from interleaving invocations.
	mu sync.Mutex
}

// NewService creates a Service.
func NewService(schedules repository.ScheduleRepository, runner *Runner, rec *recorder.Recorder, log *zap.Logger) *Service {
	return &Service{
		schedules: schedules,
		runner:    runner,
		recorder:  rec,
		now:       time.Now,
		log:       log.Named("invocation"),
	}
}

// WithClock overrides the time source, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// RunDue runs every schedule due on the current UTC date that has not
// already run in today's slot. Only a failure to list schedules is returned
// as an error; per-schedule failures are in the result.
//
// The slot check and the mutex guard one process only; the record that
// marks a slot is written after delivery.
func (s *Service) RunDue(ctx context.Context, trigger Trigger) (*InvocationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	enabled, err := s.schedules.ListEnabled(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}

	due := selector.SelectDue(enabled, now, s.log)
	slot := execdomain.AutomaticSlot(now)
	out := &InvocationResult{Due: len(due), Results: make([]*RunResult, 0, len(due))}

	s.log.Info("Invocation started",
		zap.String("trigger", string(trigger)),
		zap.String("slot", slot),
		zap.Int("enabled", len(enabled)),
		zap.Int("due", len(due)))

	for _, sched := range due {
		if err := ctx.Err(); err != nil {
			s.log.Warn("Invocation budget exhausted, leaving remaining schedules",
				zap.Int("remaining", len(due)-len(out.Results)), zap.Error(err))
			break
		}

		processed, err := s.recorder.AlreadyProcessed(ctx, sched.ID, slot)
		if err != nil {
			s.log.Error("Could not check invocation slot, skipping schedule",
				zap.String("schedule_id", sched.ID), zap.Error(err))
			out.Skipped++
			out.Results = append(out.Results, &RunResult{ScheduleID: sched.ID, Status: RunSkipped, Error: err.Error()})
			continue
		}
		if processed {
			s.log.Info("Schedule already processed in this slot",
				zap.String("schedule_id", sched.ID), zap.String("slot", slot))
			out.Skipped++
			out.Results = append(out.Results, &RunResult{ScheduleID: sched.ID, Status: RunSkipped, Error: "already processed"})
			continue
		}

		res := s.runner.Run(ctx, sched, Invocation{Slot: slot, Trigger: trigger})
		out.Executed++
		out.Results = append(out.Results, res)
	}

	s.log.Info("Invocation finished",
		zap.Int("due", out.Due),
		zap.Int("executed", out.Executed),
		zap.Int("skipped", out.Skipped))
	return out, nil
}

// RunManual runs one schedule now, bypassing the due check and slot dedup.
func (s *Service) RunManual(ctx context.Context, scheduleID string) (*RunResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sched, err := s.schedules.FindByID(ctx, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to load schedule: %w", err)
	}
	if sched == nil {
		return nil, ErrScheduleNotFound
	}
	if !sched.Enabled {
		s.log.Info("Manual run of disabled schedule", zap.String("schedule_id", sched.ID))
	}
	return s.runner.Run(ctx, sched, Invocation{Manual: true, Trigger: TriggerManual}), nil
}

// History returns the latest execution records of a schedule, newest first.
func (s *Service) History(ctx context.Context, scheduleID string, limit int) ([]*execdomain.ExecutionRecord, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return s.recorder.History(ctx, scheduleID, limit)
}
