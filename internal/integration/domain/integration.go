package domain

import (
	"errors"
	"time"
)

// ProviderNotion is the workspace provider the pipeline reads from.
const ProviderNotion = "notion"

// ErrIntegrationNotConnected is returned when the owner has not connected
// the workspace (or disconnected it).
var ErrIntegrationNotConnected = errors.New("integration not connected")

// Integration stores the token obtained when the owner connected a workspace.
// The OAuth exchange itself happens outside this service.
type Integration struct {
	ID            string    `json:"id" gorm:"primaryKey"`
	UserID        string    `json:"user_id" gorm:"uniqueIndex:idx_user_provider;not null"`
	Provider      string    `json:"provider" gorm:"uniqueIndex:idx_user_provider;not null"`
	AccessToken   string    `json:"-" gorm:"not null"` // Never return token in JSON
	WorkspaceName string    `json:"workspace_name"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Integration) TableName() string {
	return "integrations"
}
