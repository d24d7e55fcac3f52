package repository

import (
	"context"
	"testing"

	"digest-backend/internal/integration/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Integration{}))
	return db
}

func TestIntegrationRepository_AccessToken(t *testing.T) {
	ctx := context.Background()
	repo := NewIntegrationRepository(newTestDB(t))

	_, err := repo.AccessToken(ctx, "user-1", domain.ProviderNotion)
	assert.ErrorIs(t, err, domain.ErrIntegrationNotConnected)

	require.NoError(t, repo.Save(ctx, &domain.Integration{UserID: "user-1", Provider: domain.ProviderNotion, AccessToken: "secret_1"}))
	token, err := repo.AccessToken(ctx, "user-1", domain.ProviderNotion)
	require.NoError(t, err)
	assert.Equal(t, "secret_1", token)

	// Reconnecting replaces the token
	require.NoError(t, repo.Save(ctx, &domain.Integration{UserID: "user-1", Provider: domain.ProviderNotion, AccessToken: "secret_2"}))
	token, err = repo.AccessToken(ctx, "user-1", domain.ProviderNotion)
	require.NoError(t, err)
	assert.Equal(t, "secret_2", token)
}
