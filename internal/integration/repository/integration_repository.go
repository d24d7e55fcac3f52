package repository

import (
	"context"
	"errors"
	"time"

	"digest-backend/internal/integration/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IntegrationRepository looks up owner credentials for the workspace service
type IntegrationRepository interface {
	// AccessToken returns domain.ErrIntegrationNotConnected when the owner
	// has no usable token for provider
	AccessToken(ctx context.Context, userID, provider string) (string, error)

	// Save upserts the token for (user, provider)
	Save(ctx context.Context, integration *domain.Integration) error
}

// integrationRepository implements IntegrationRepository interface
type integrationRepository struct {
	db *gorm.DB
}

// NewIntegrationRepository creates a new instance of integrationRepository
func NewIntegrationRepository(db *gorm.DB) IntegrationRepository {
	return &integrationRepository{db: db}
}

func (r *integrationRepository) AccessToken(ctx context.Context, userID, provider string) (string, error) {
	var integration domain.Integration
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND provider = ?", userID, provider).
		First(&integration).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", domain.ErrIntegrationNotConnected
		}
		return "", err
	}
	if integration.AccessToken == "" {
		return "", domain.ErrIntegrationNotConnected
	}
	return integration.AccessToken, nil
}

// Save upserts atomically: INSERT ... ON CONFLICT (user_id, provider) DO UPDATE
func (r *integrationRepository) Save(ctx context.Context, integration *domain.Integration) error {
	if integration.ID == "" {
		integration.ID = uuid.New().String()
	}
	now := time.Now()
	integration.CreatedAt = now
	integration.UpdatedAt = now

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "provider"}},
		DoUpdates: clause.AssignmentColumns([]string{"access_token", "workspace_name", "updated_at"}),
	}).Create(integration).Error
}
