package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity provides the identity and creation timestamp shared by
// every record stored in the state document.
type BaseEntity struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewBaseEntity creates a base entity with a generated ID
func NewBaseEntity() BaseEntity {
	return BaseEntity{
		ID:        uuid.New(),
		CreatedAt: time.Now(),
	}
}
