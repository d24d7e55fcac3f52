package domain

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// ExecutionStatus represents the outcome of one schedule run
type ExecutionStatus string

const (
	StatusRunning ExecutionStatus = "running"
	StatusSuccess ExecutionStatus = "success"
	StatusFailed  ExecutionStatus = "failed"
)

// DeliveryStatus represents the outcome of one channel delivery
type DeliveryStatus string

const (
	DeliverySuccess DeliveryStatus = "success"
	DeliveryFailed  DeliveryStatus = "failed"
	DeliverySkipped DeliveryStatus = "skipped"
	DeliveryPending DeliveryStatus = "pending"
)

// DeliveryResult is the per-channel entry of an execution record.
// Nil pointers mean the value was never computed.
type DeliveryResult struct {
	Status    DeliveryStatus `json:"status"`
	Error     *string        `json:"error,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	MessageID *int64         `json:"message_id,omitempty"`
}

// ExecutionRecord is the durable, append-only outcome of one schedule run.
// It is written once when the run finishes and never updated. Pointer fields
// stay nil when the run never got far enough to compute them.
type ExecutionRecord struct {
	ID               string          `json:"id" gorm:"primaryKey"`
	ScheduleID       string          `json:"schedule_id" gorm:"uniqueIndex:idx_schedule_slot;not null"`
	InvocationSlot   string          `json:"invocation_slot" gorm:"uniqueIndex:idx_schedule_slot;not null"`
	UserID           string          `json:"user_id" gorm:"index;not null"`
	ExecutedAt       time.Time       `json:"executed_at" gorm:"index;not null"`
	FinishedAt       *time.Time      `json:"finished_at,omitempty"`
	Status           ExecutionStatus `json:"status" gorm:"not null"`
	Stage            string          `json:"stage"`
	ContentProcessed *int            `json:"content_processed,omitempty"`
	WindowDays       *int            `json:"window_days,omitempty"`
	ContextTag       *string         `json:"context_tag,omitempty"`
	Error            *string         `json:"error,omitempty"`
	Manual           bool            `json:"manual"`
	DurationMs       *int64          `json:"duration_ms,omitempty"`
	Deliveries       datatypes.JSON  `json:"deliveries"`

	// DeliveryResults is the in-memory form of Deliveries.
	DeliveryResults map[string]DeliveryResult `json:"-" gorm:"-"`
}

// TableName specifies the table name for GORM
func (ExecutionRecord) TableName() string {
	return "execution_records"
}

// DecodeDeliveries fills DeliveryResults from the stored JSON column.
func (r *ExecutionRecord) DecodeDeliveries() error {
	r.DeliveryResults = map[string]DeliveryResult{}
	if len(r.Deliveries) == 0 {
		return nil
	}
	return json.Unmarshal(r.Deliveries, &r.DeliveryResults)
}

// AutomaticSlot is the invocation slot for scheduled runs: the UTC date.
func AutomaticSlot(now time.Time) string {
	return now.UTC().Format("2006-01-02")
}

// ManualSlot gives every manual run its own slot.
func ManualSlot(executionID string) string {
	return "manual:" + executionID
}
