package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cfm/backend/internal/domain/shared"
	"github.com/cfm/backend/internal/domain/state"
	"github.com/cfm/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStateRepository implements state.Repository on a single jsonb row
type GormStateRepository struct {
	db *gorm.DB
}

// NewGormStateRepository creates a new GormStateRepository
func NewGormStateRepository(db *gorm.DB) *GormStateRepository {
	return &GormStateRepository{db: db}
}

// Load returns the current document and its version. A missing row is
// seeded with the empty default document at version 1.
func (r *GormStateRepository) Load(ctx context.Context) (*state.Snapshot, error) {
	var model models.StateModel
	err := r.db.WithContext(ctx).First(&model, "key = ?", state.DocumentKey).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.seed(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load state document: %w", err)
	}

	var doc state.Document
	if err := json.Unmarshal(model.Data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode state document: %w", err)
	}
	return &state.Snapshot{Doc: &doc, Version: model.Version}, nil
}

// Save replaces the document. With a non-zero expectedVersion the write
// is conditional on the stored version and fails with
// ErrConcurrencyConflict when another writer got there first; zero keeps
// the legacy last-write-wins behavior.
func (r *GormStateRepository) Save(ctx context.Context, doc *state.Document, expectedVersion int64) (int64, error) {
	// the caller's session id is per-request state, never persisted
	persisted := *doc
	persisted.CurrentUserID = ""

	data, err := json.Marshal(&persisted)
	if err != nil {
		return 0, fmt.Errorf("failed to encode state document: %w", err)
	}

	if expectedVersion == 0 {
		return r.saveUnconditional(ctx, data)
	}

	res := r.db.WithContext(ctx).Model(&models.StateModel{}).
		Where("key = ? AND version = ?", state.DocumentKey, expectedVersion).
		Updates(map[string]any{
			"data":       data,
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to save state document: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, shared.ErrConcurrencyConflict
	}
	return expectedVersion + 1, nil
}

func (r *GormStateRepository) saveUnconditional(ctx context.Context, data []byte) (int64, error) {
	model := models.StateModel{
		Key:       state.DocumentKey,
		Data:      data,
		Version:   1,
		UpdatedAt: time.Now(),
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]any{
			"data":       data,
			"version":    gorm.Expr("app_state.version + 1"),
			"updated_at": time.Now(),
		}),
	}).Create(&model).Error
	if err != nil {
		return 0, fmt.Errorf("failed to save state document: %w", err)
	}

	var saved models.StateModel
	if err := r.db.WithContext(ctx).First(&saved, "key = ?", state.DocumentKey).Error; err != nil {
		return 0, fmt.Errorf("failed to read back state version: %w", err)
	}
	return saved.Version, nil
}

// seed writes the empty default document, tolerating a concurrent seeder
func (r *GormStateRepository) seed(ctx context.Context) (*state.Snapshot, error) {
	doc := state.Empty()
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode empty state document: %w", err)
	}

	model := models.StateModel{
		Key:       state.DocumentKey,
		Data:      data,
		Version:   1,
		UpdatedAt: time.Now(),
	}
	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoNothing: true,
	}).Create(&model).Error
	if err != nil {
		return nil, fmt.Errorf("failed to seed state document: %w", err)
	}

	// re-read in case another instance seeded first
	var saved models.StateModel
	if err := r.db.WithContext(ctx).First(&saved, "key = ?", state.DocumentKey).Error; err != nil {
		return nil, fmt.Errorf("failed to load seeded state document: %w", err)
	}
	var loaded state.Document
	if err := json.Unmarshal(saved.Data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to decode state document: %w", err)
	}
	return &state.Snapshot{Doc: &loaded, Version: saved.Version}, nil
}
