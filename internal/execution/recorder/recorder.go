// Package recorder persists one execution record per schedule run.
package recorder

import (
	"context"
	"time"

	"digest-backend/internal/execution/domain"
	"digest-backend/internal/execution/repository"

	"go.uber.org/zap"
)

// Recorder appends finished execution records.
type Recorder struct {
	repo repository.ExecutionRepository
	log  *zap.Logger
}

// New creates a Recorder.
func New(repo repository.ExecutionRepository, log *zap.Logger) *Recorder {
	return &Recorder{repo: repo, log: log.Named("recorder")}
}

// Record scrubs and appends rec. It must be called once, after every
// delivery attempt has finished. The returned error is informational: the
// run's status is already decided.
func (r *Recorder) Record(ctx context.Context, rec *domain.ExecutionRecord) error {
	doc := Scrub(Document(rec))
	if err := r.repo.Append(ctx, doc); err != nil {
		r.log.Error("Failed to persist execution record",
			zap.String("execution_id", rec.ID),
			zap.String("schedule_id", rec.ScheduleID),
			zap.String("status", string(rec.Status)),
			zap.Error(err))
		return err
	}
	r.log.Info("Execution recorded",
		zap.String("execution_id", rec.ID),
		zap.String("schedule_id", rec.ScheduleID),
		zap.String("status", string(rec.Status)))
	return nil
}

// AlreadyProcessed reports whether (scheduleID, slot) has a record.
func (r *Recorder) AlreadyProcessed(ctx context.Context, scheduleID, slot string) (bool, error) {
	return r.repo.AlreadyProcessed(ctx, scheduleID, slot)
}

// History returns recent records for a schedule.
func (r *Recorder) History(ctx context.Context, scheduleID string, limit int) ([]*domain.ExecutionRecord, error) {
	return r.repo.ListBySchedule(ctx, scheduleID, limit)
}

// Document flattens rec into column -> value form. Values that were never
// computed are nil so Scrub can drop them.
func Document(rec *domain.ExecutionRecord) map[string]interface{} {
	deliveries := make(map[string]interface{}, len(rec.DeliveryResults))
	for channel, d := range rec.DeliveryResults {
		deliveries[channel] = map[string]interface{}{
			"status":     string(d.Status),
			"error":      optional(d.Error),
			"timestamp":  d.Timestamp.UTC().Format(time.RFC3339Nano),
			"message_id": optional(d.MessageID),
		}
	}

	return map[string]interface{}{
		"id":                rec.ID,
		"schedule_id":       rec.ScheduleID,
		"invocation_slot":   rec.InvocationSlot,
		"user_id":           rec.UserID,
		"executed_at":       rec.ExecutedAt.UTC(),
		"finished_at":       optional(rec.FinishedAt),
		"status":            string(rec.Status),
		"stage":             rec.Stage,
		"content_processed": optional(rec.ContentProcessed),
		"window_days":       optional(rec.WindowDays),
		"context_tag":       optional(rec.ContextTag),
		"error":             optional(rec.Error),
		"manual":            rec.Manual,
		"duration_ms":       optional(rec.DurationMs),
		"deliveries":        deliveries,
	}
}

// optional turns a nil pointer into an untyped nil and dereferences the rest.
func optional[T any](p *T) interface{} {
	if p == nil {
		return nil
	}
	return *p
}
