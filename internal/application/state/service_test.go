package state

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/cfm/backend/internal/domain/identity"
	"github.com/cfm/backend/internal/domain/shared"
	domainstate "github.com/cfm/backend/internal/domain/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memStateRepo struct {
	doc     *domainstate.Document
	version int64
}

func newMemStateRepo() *memStateRepo {
	return &memStateRepo{doc: domainstate.Empty(), version: 1}
}

func (r *memStateRepo) Load(_ context.Context) (*domainstate.Snapshot, error) {
	doc, err := r.doc.Clone()
	if err != nil {
		return nil, err
	}
	return &domainstate.Snapshot{Doc: doc, Version: r.version}, nil
}

func (r *memStateRepo) Save(_ context.Context, doc *domainstate.Document, expectedVersion int64) (int64, error) {
	if expectedVersion != 0 && expectedVersion != r.version {
		return 0, shared.ErrConcurrencyConflict
	}
	r.doc = doc
	r.version++
	return r.version, nil
}

func TestRead(t *testing.T) {
	ctx := context.Background()

	t.Run("anonymous read has no current user", func(t *testing.T) {
		svc := NewService(newMemStateRepo(), zap.NewNop())

		view, err := svc.Read(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, view.CurrentUserID)
		assert.Equal(t, int64(1), view.Version)
	})

	t.Run("authenticated read carries the caller id", func(t *testing.T) {
		repo := newMemStateRepo()
		user, err := identity.NewUser("admin@x.edu", "secret123", identity.RoleAdmin)
		require.NoError(t, err)
		repo.doc.Users = append(repo.doc.Users, *user)
		svc := NewService(repo, zap.NewNop())

		view, err := svc.Read(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, user.ID.String(), view.CurrentUserID)

		// the view serializes with both the document and the version
		raw, err := json.Marshal(view)
		require.NoError(t, err)
		var m map[string]any
		require.NoError(t, json.Unmarshal(raw, &m))
		assert.Equal(t, user.ID.String(), m["currentUserId"])
		assert.Equal(t, float64(1), m["version"])
	})
}

func TestReplace(t *testing.T) {
	ctx := context.Background()

	t.Run("replaces with a version check", func(t *testing.T) {
		repo := newMemStateRepo()
		svc := NewService(repo, zap.NewNop())

		doc := domainstate.Empty()
		doc.RegistrationOpen = false
		version, err := svc.Replace(ctx, doc, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(2), version)
		assert.False(t, repo.doc.RegistrationOpen)
	})

	t.Run("stale version conflicts", func(t *testing.T) {
		repo := newMemStateRepo()
		svc := NewService(repo, zap.NewNop())

		_, err := svc.Replace(ctx, domainstate.Empty(), 1)
		require.NoError(t, err)

		_, err = svc.Replace(ctx, domainstate.Empty(), 1)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	})

	t.Run("version zero writes unconditionally", func(t *testing.T) {
		repo := newMemStateRepo()
		svc := NewService(repo, zap.NewNop())

		_, err := svc.Replace(ctx, domainstate.Empty(), 0)
		require.NoError(t, err)
		_, err = svc.Replace(ctx, domainstate.Empty(), 0)
		require.NoError(t, err)
	})

	t.Run("structurally invalid document is rejected", func(t *testing.T) {
		repo := newMemStateRepo()
		svc := NewService(repo, zap.NewNop())

		doc := domainstate.Empty()
		doc.Users = nil
		_, err := svc.Replace(ctx, doc, 1)
		require.Error(t, err)
		assert.Equal(t, int64(1), repo.version)
	})

	t.Run("nil document is rejected", func(t *testing.T) {
		svc := NewService(newMemStateRepo(), zap.NewNop())
		_, err := svc.Replace(ctx, nil, 1)
		assert.Error(t, err)
	})
}
