package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cfm/backend/internal/domain/identity"
	"github.com/cfm/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormSessionStore implements identity.SessionStore on the sessions table
type GormSessionStore struct {
	db *gorm.DB
}

// NewGormSessionStore creates a new GormSessionStore
func NewGormSessionStore(db *gorm.DB) *GormSessionStore {
	return &GormSessionStore{db: db}
}

// Create persists a new session
func (s *GormSessionStore) Create(ctx context.Context, session *identity.Session) error {
	model := models.SessionModel{
		Token:     session.Token,
		UserID:    session.UserID,
		ExpiresAt: session.ExpiresAt,
		CreatedAt: time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// Find returns the session for the token, or nil when the token is
// unknown. Expired sessions are deleted on the way out.
func (s *GormSessionStore) Find(ctx context.Context, token string) (*identity.Session, error) {
	var model models.SessionModel
	err := s.db.WithContext(ctx).First(&model, "token = ?", token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}

	session := &identity.Session{
		Token:     model.Token,
		UserID:    model.UserID,
		ExpiresAt: model.ExpiresAt,
	}
	if session.IsExpired(time.Now()) {
		if err := s.Delete(ctx, token); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return session, nil
}

// Delete removes the session for the token, succeeding if already gone
func (s *GormSessionStore) Delete(ctx context.Context, token string) error {
	if err := s.db.WithContext(ctx).Delete(&models.SessionModel{}, "token = ?", token).Error; err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpired removes every session past its expiry. Called
// opportunistically at startup.
func (s *GormSessionStore) DeleteExpired(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Delete(&models.SessionModel{}, "expires_at < ?", time.Now())
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", res.Error)
	}
	return res.RowsAffected, nil
}
