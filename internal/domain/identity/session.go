package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SessionTTL is the fixed server-side session lifetime
const SessionTTL = 12 * time.Hour

// Session maps an opaque bearer token to a user identity with expiry.
// Sessions live in their own store, never inside the state document.
type Session struct {
	Token     string    `json:"token"`
	UserID    uuid.UUID `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// NewSession issues a session for the user with a fresh random token
func NewSession(userID uuid.UUID) (*Session, error) {
	token, err := newSessionToken()
	if err != nil {
		return nil, err
	}
	return &Session{
		Token:     token,
		UserID:    userID,
		ExpiresAt: time.Now().Add(SessionTTL),
	}, nil
}

// IsExpired reports whether the session is past its expiry at the given time
func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// newSessionToken returns 32 random bytes hex encoded
func newSessionToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// SessionStore persists sessions keyed by token
type SessionStore interface {
	// Create persists a new session
	Create(ctx context.Context, session *Session) error

	// Find returns the session for the token, or nil when the token is
	// unknown or expired. Implementations remove expired records as they
	// are encountered.
	Find(ctx context.Context, token string) (*Session, error)

	// Delete removes the session for the token, succeeding if already gone
	Delete(ctx context.Context, token string) error
}
