package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"digest-backend/internal/execution/domain"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrUnsetField is returned when a document still carries a nil value.
// Callers must scrub never-computed fields before appending.
var ErrUnsetField = errors.New("document contains unset field")

// ExecutionRepository defines the interface for execution log operations
type ExecutionRepository interface {
	// Append inserts one scrubbed execution document
	Append(ctx context.Context, doc map[string]interface{}) error

	// AlreadyProcessed reports whether a record exists for (schedule, slot)
	AlreadyProcessed(ctx context.Context, scheduleID, slot string) (bool, error)

	// ListBySchedule returns the newest records first
	ListBySchedule(ctx context.Context, scheduleID string, limit int) ([]*domain.ExecutionRecord, error)
}

// executionRepository implements ExecutionRepository interface
type executionRepository struct {
	db *gorm.DB
}

// NewExecutionRepository creates a new instance of executionRepository
func NewExecutionRepository(db *gorm.DB) ExecutionRepository {
	return &executionRepository{db: db}
}

func (r *executionRepository) Append(ctx context.Context, doc map[string]interface{}) error {
	row := make(map[string]interface{}, len(doc))
	for key, value := range doc {
		if value == nil {
			return fmt.Errorf("%w: %s", ErrUnsetField, key)
		}
		if nested, ok := value.(map[string]interface{}); ok {
			if err := rejectUnset(key, nested); err != nil {
				return err
			}
			data, err := json.Marshal(nested)
			if err != nil {
				return fmt.Errorf("failed to marshal %s: %w", key, err)
			}
			value = datatypes.JSON(data)
		}
		row[key] = value
	}

	return r.db.WithContext(ctx).Model(&domain.ExecutionRecord{}).Create(row).Error
}

func rejectUnset(path string, doc map[string]interface{}) error {
	for key, value := range doc {
		if value == nil {
			return fmt.Errorf("%w: %s.%s", ErrUnsetField, path, key)
		}
		if nested, ok := value.(map[string]interface{}); ok {
			if err := rejectUnset(path+"."+key, nested); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *executionRepository) AlreadyProcessed(ctx context.Context, scheduleID, slot string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.ExecutionRecord{}).
		Where("schedule_id = ? AND invocation_slot = ?", scheduleID, slot).
		Count(&count).Error
	return count > 0, err
}

func (r *executionRepository) ListBySchedule(ctx context.Context, scheduleID string, limit int) ([]*domain.ExecutionRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	var records []*domain.ExecutionRecord
	err := r.db.WithContext(ctx).
		Where("schedule_id = ?", scheduleID).
		Order("executed_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		if err := rec.DecodeDeliveries(); err != nil {
			return nil, fmt.Errorf("failed to decode deliveries for %s: %w", rec.ID, err)
		}
	}
	return records, nil
}
