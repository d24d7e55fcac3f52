package repository

import (
	"context"
	"errors"
	"time"

	"digest-backend/internal/schedule/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// gormScheduleRepository implements ScheduleRepository using GORM
type gormScheduleRepository struct {
	db *gorm.DB
}

// NewGormScheduleRepository creates a new GORM-based ScheduleRepository
func NewGormScheduleRepository(db *gorm.DB) ScheduleRepository {
	return &gormScheduleRepository{db: db}
}

func (r *gormScheduleRepository) ListEnabled(ctx context.Context) ([]*domain.Schedule, error) {
	var schedules []*domain.Schedule
	err := r.db.WithContext(ctx).Where("enabled = ?", true).Order("created_at ASC").Find(&schedules).Error
	return schedules, err
}

func (r *gormScheduleRepository) FindByID(ctx context.Context, id string) (*domain.Schedule, error) {
	var schedule domain.Schedule
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&schedule).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &schedule, nil
}

func (r *gormScheduleRepository) Create(ctx context.Context, schedule *domain.Schedule) error {
	if schedule.ID == "" {
		schedule.ID = uuid.New().String()
	}
	now := time.Now()
	schedule.CreatedAt = now
	schedule.UpdatedAt = now
	return r.db.WithContext(ctx).Create(schedule).Error
}
