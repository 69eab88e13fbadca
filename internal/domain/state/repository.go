package state

import (
	"context"
	"errors"

	"github.com/cfm/backend/internal/domain/shared"
)

// Snapshot is a loaded document with the version it was read at
type Snapshot struct {
	Doc     *Document
	Version int64
}

// Repository persists the singleton document with optimistic locking
type Repository interface {
	// Load returns the current document and version, seeding the empty
	// default when no row exists yet.
	Load(ctx context.Context) (*Snapshot, error)

	// Save replaces the document. A non-zero expectedVersion makes the
	// write conditional and returns ErrConcurrencyConflict when the
	// stored version moved; zero skips the check for legacy clients.
	Save(ctx context.Context, doc *Document, expectedVersion int64) (int64, error)
}

// mutateRetries bounds the CAS retry loop for server-side mutations
const mutateRetries = 3

// Mutate applies fn to a clone of the current document and saves it
// conditionally, retrying on version conflicts. Domain errors from fn
// abort without retrying.
func Mutate(ctx context.Context, repo Repository, fn func(doc *Document) error) (*Snapshot, error) {
	var lastErr error
	for attempt := 0; attempt < mutateRetries; attempt++ {
		snap, err := repo.Load(ctx)
		if err != nil {
			return nil, err
		}
		doc, err := snap.Doc.Clone()
		if err != nil {
			return nil, err
		}
		if err := fn(doc); err != nil {
			return nil, err
		}
		version, err := repo.Save(ctx, doc, snap.Version)
		if err == nil {
			return &Snapshot{Doc: doc, Version: version}, nil
		}
		if !errors.Is(err, shared.ErrConcurrencyConflict) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}
