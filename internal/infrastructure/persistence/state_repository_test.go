package persistence

import (
	"context"
	"testing"

	"github.com/cfm/backend/internal/domain/shared"
	"github.com/cfm/backend/internal/domain/state"
	"github.com/cfm/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.StateModel{}, &models.SessionModel{}))
	return db
}

func TestGormStateRepository_Load(t *testing.T) {
	ctx := context.Background()

	t.Run("seeds the empty document on first load", func(t *testing.T) {
		repo := NewGormStateRepository(newTestDB(t))

		snap, err := repo.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), snap.Version)
		assert.False(t, snap.Doc.SetupComplete)
		assert.Len(t, snap.Doc.Fees, 4)

		// second load sees the same seeded row
		again, err := repo.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), again.Version)
	})
}

func TestGormStateRepository_Save(t *testing.T) {
	ctx := context.Background()

	t.Run("conditional save bumps the version", func(t *testing.T) {
		repo := NewGormStateRepository(newTestDB(t))
		snap, err := repo.Load(ctx)
		require.NoError(t, err)

		snap.Doc.SetupComplete = true
		version, err := repo.Save(ctx, snap.Doc, snap.Version)
		require.NoError(t, err)
		assert.Equal(t, int64(2), version)

		reloaded, err := repo.Load(ctx)
		require.NoError(t, err)
		assert.True(t, reloaded.Doc.SetupComplete)
		assert.Equal(t, int64(2), reloaded.Version)
	})

	t.Run("stale version is rejected", func(t *testing.T) {
		repo := NewGormStateRepository(newTestDB(t))
		snap, err := repo.Load(ctx)
		require.NoError(t, err)

		_, err = repo.Save(ctx, snap.Doc, snap.Version)
		require.NoError(t, err)

		// writing again with the old version must conflict
		_, err = repo.Save(ctx, snap.Doc, snap.Version)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	})

	t.Run("version zero writes unconditionally", func(t *testing.T) {
		repo := NewGormStateRepository(newTestDB(t))
		snap, err := repo.Load(ctx)
		require.NoError(t, err)

		snap.Doc.RegistrationOpen = false
		version, err := repo.Save(ctx, snap.Doc, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(2), version)

		// still unconditional after the row moved
		snap.Doc.RegistrationOpen = true
		version, err = repo.Save(ctx, snap.Doc, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(3), version)
	})

	t.Run("caller session id is stripped before persisting", func(t *testing.T) {
		repo := NewGormStateRepository(newTestDB(t))
		snap, err := repo.Load(ctx)
		require.NoError(t, err)

		snap.Doc.CurrentUserID = "some-user"
		_, err = repo.Save(ctx, snap.Doc, snap.Version)
		require.NoError(t, err)

		reloaded, err := repo.Load(ctx)
		require.NoError(t, err)
		assert.Empty(t, reloaded.Doc.CurrentUserID)
	})

	t.Run("works with the Mutate helper", func(t *testing.T) {
		repo := NewGormStateRepository(newTestDB(t))

		snap, err := state.Mutate(ctx, repo, func(doc *state.Document) error {
			doc.FrozenDepartments = append(doc.FrozenDepartments, "CSE")
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, int64(2), snap.Version)

		reloaded, err := repo.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"CSE"}, reloaded.Doc.FrozenDepartments)
	})
}
