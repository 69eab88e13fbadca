package students

import (
	"context"
	"testing"

	"github.com/cfm/backend/internal/domain/academics"
	"github.com/cfm/backend/internal/domain/shared"
	"github.com/cfm/backend/internal/domain/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memStateRepo struct {
	doc     *state.Document
	version int64
}

func newMemStateRepo() *memStateRepo {
	return &memStateRepo{doc: state.Empty(), version: 1}
}

func (r *memStateRepo) Load(_ context.Context) (*state.Snapshot, error) {
	doc, err := r.doc.Clone()
	if err != nil {
		return nil, err
	}
	return &state.Snapshot{Doc: doc, Version: r.version}, nil
}

func (r *memStateRepo) Save(_ context.Context, doc *state.Document, expectedVersion int64) (int64, error) {
	if expectedVersion != 0 && expectedVersion != r.version {
		return 0, shared.ErrConcurrencyConflict
	}
	r.doc = doc
	r.version++
	return r.version, nil
}

func TestImport(t *testing.T) {
	ctx := context.Background()

	t.Run("imports valid rows", func(t *testing.T) {
		repo := newMemStateRepo()
		svc := NewImportService(repo, zap.NewNop())

		csv := "roll,name,email,department,year\n" +
			"101,Jane Doe,jane@x.edu,CSE,2\n" +
			"102,Ravi Kumar,ravi@x.edu,ECE,1\n"
		res, err := svc.Import(ctx, []byte(csv))
		require.NoError(t, err)
		assert.Equal(t, 2, res.Added)
		assert.False(t, res.HasErrors())

		require.NotNil(t, repo.doc.FindStudentByRegNo("101"))
		assert.Equal(t, "jane@x.edu", repo.doc.FindStudentByRegNo("101").Email)
	})

	t.Run("commits good rows and reports bad ones", func(t *testing.T) {
		repo := newMemStateRepo()
		svc := NewImportService(repo, zap.NewNop())

		csv := "roll,name,email,department,year\n" +
			"101,Jane,jane@x.edu,CSE,2\n" +
			"102,,missing-name@x.edu,CSE,2\n" +
			"103,Bad Email,not-an-email,CSE,2\n" +
			"101,Dup Roll,dup@x.edu,CSE,2\n" +
			"104,Dup Mail,jane@x.edu,CSE,2\n"
		res, err := svc.Import(ctx, []byte(csv))
		require.NoError(t, err)
		assert.Equal(t, 1, res.Added)
		require.Len(t, res.Errors, 4)
		assert.Contains(t, res.Errors[0], "row 3")
		assert.Contains(t, res.Errors[0], "missing required fields")
		assert.Contains(t, res.Errors[1], "invalid email")
		assert.Contains(t, res.Errors[2], "duplicate register number")
		assert.Contains(t, res.Errors[3], "duplicate email")
	})

	t.Run("rejects rolls already in the document", func(t *testing.T) {
		repo := newMemStateRepo()
		existing, err := academics.NewStudent("Existing", "101", "CSE", "2")
		require.NoError(t, err)
		repo.doc.Students = append(repo.doc.Students, *existing)
		svc := NewImportService(repo, zap.NewNop())

		res, err := svc.Import(ctx, []byte("roll,name,email,department,year\n101,Jane,jane@x.edu,CSE,2\n"))
		require.NoError(t, err)
		assert.Equal(t, 0, res.Added)
		require.Len(t, res.Errors, 1)
		assert.Contains(t, res.Errors[0], "duplicate register number")
	})

	t.Run("missing column fails the whole upload", func(t *testing.T) {
		repo := newMemStateRepo()
		svc := NewImportService(repo, zap.NewNop())

		_, err := svc.Import(ctx, []byte("roll,name,email\n101,Jane,jane@x.edu\n"))
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_INPUT", domainErr.Code)
	})

	t.Run("empty payload fails", func(t *testing.T) {
		repo := newMemStateRepo()
		svc := NewImportService(repo, zap.NewNop())

		_, err := svc.Import(ctx, nil)
		assert.Error(t, err)
	})
}
