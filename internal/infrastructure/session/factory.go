package session

import (
	"fmt"

	"github.com/cfm/backend/internal/domain/identity"
	"github.com/cfm/backend/internal/infrastructure/config"
	"github.com/cfm/backend/internal/infrastructure/persistence"
	"gorm.io/gorm"
)

// NewStore builds the configured session store. The database store is
// the default; redis is opt-in for deployments that want session lookups
// off the primary database.
func NewStore(cfg *config.Config, db *gorm.DB) (identity.SessionStore, error) {
	switch cfg.Session.Store {
	case "database":
		return persistence.NewGormSessionStore(db), nil
	case "redis":
		return NewRedisSessionStore(&cfg.Redis)
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.Session.Store)
	}
}
