package state

import (
	"context"

	"github.com/cfm/backend/internal/domain/identity"
	"github.com/cfm/backend/internal/domain/shared"
	domainstate "github.com/cfm/backend/internal/domain/state"
	"go.uber.org/zap"
)

// Service exposes the whole-document read/replace surface that the
// client's optimistic cache works against.
type Service struct {
	states domainstate.Repository
	logger *zap.Logger
}

// NewService creates a new state Service
func NewService(states domainstate.Repository, logger *zap.Logger) *Service {
	return &Service{states: states, logger: logger}
}

// View is the document as served to clients: the stored state plus the
// caller's identity and the version to echo back on replace.
type View struct {
	*domainstate.Document
	Version int64 `json:"version"`
}

// Read returns the current document. When a user is logged in the
// response carries their id so the client can resolve its own identity
// from the same payload.
func (s *Service) Read(ctx context.Context, currentUser *identity.User) (*View, error) {
	snap, err := s.states.Load(ctx)
	if err != nil {
		return nil, err
	}
	if currentUser != nil {
		snap.Doc.CurrentUserID = currentUser.ID.String()
	}
	return &View{Document: snap.Doc, Version: snap.Version}, nil
}

// Replace swaps in a full replacement document after a structural check.
// A non-zero version makes the write conditional; clients that omit it
// keep the legacy last-write-wins behavior.
func (s *Service) Replace(ctx context.Context, doc *domainstate.Document, version int64) (int64, error) {
	if doc == nil {
		return 0, shared.NewDomainError("INVALID_DOCUMENT", "Request body must be a state document")
	}
	if err := doc.Validate(); err != nil {
		return 0, err
	}

	newVersion, err := s.states.Save(ctx, doc, version)
	if err != nil {
		return 0, err
	}

	s.logger.Info("State document replaced",
		zap.Int64("version", newVersion),
		zap.Bool("conditional", version != 0),
		zap.Int("users", len(doc.Users)),
		zap.Int("students", len(doc.Students)),
		zap.Int("payments", len(doc.Payments)),
	)
	return newVersion, nil
}
