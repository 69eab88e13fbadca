package models

import (
	"time"

	"github.com/google/uuid"
)

// StateModel is the singleton document row. The whole application state
// lives in the jsonb data column; version backs optimistic locking.
type StateModel struct {
	Key       string    `gorm:"primaryKey;size:64"`
	Data      []byte    `gorm:"type:jsonb;not null"`
	Version   int64     `gorm:"not null;default:1"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName specifies the table name for GORM
func (StateModel) TableName() string {
	return "app_state"
}

// SessionModel persists login sessions keyed by opaque token
type SessionModel struct {
	Token     string    `gorm:"primaryKey;size:64"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index"`
	ExpiresAt time.Time `gorm:"not null;index"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName specifies the table name for GORM
func (SessionModel) TableName() string {
	return "sessions"
}
