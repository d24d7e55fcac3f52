package repository

import (
	"context"

	"digest-backend/internal/schedule/domain"
)

// ScheduleRepository defines the read access the pipeline needs
type ScheduleRepository interface {
	// ListEnabled returns every enabled schedule
	ListEnabled(ctx context.Context) ([]*domain.Schedule, error)

	// FindByID returns nil, nil when the schedule does not exist
	FindByID(ctx context.Context, id string) (*domain.Schedule, error)

	// Create is used by seeding and tests; the UI owns schedule writes
	Create(ctx context.Context, schedule *domain.Schedule) error
}
