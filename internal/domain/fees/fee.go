package fees

import (
	"strings"

	"github.com/cfm/backend/internal/domain/shared"
	"github.com/cfm/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// FeeDefinition is a chargeable fee head. The four built-in fees carry
// stable string ids so allocations created before a redeploy keep
// resolving; custom fees use generated uuids.
type FeeDefinition struct {
	ID            string            `json:"id"`
	Type          string            `json:"type"`
	Name          string            `json:"name"`
	Active        bool              `json:"active"`
	DefaultAmount valueobject.Money `json:"defaultAmount"`
	IsCustom      bool              `json:"isCustom,omitempty"`
}

// NewFeeDefinition creates a custom fee with a generated id
func NewFeeDefinition(feeType, name string, defaultAmount valueobject.Money) (*FeeDefinition, error) {
	feeType = strings.TrimSpace(feeType)
	name = strings.TrimSpace(name)
	if feeType == "" {
		return nil, shared.NewDomainError("INVALID_FEE_TYPE", "Fee type cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Fee name cannot be empty")
	}
	return &FeeDefinition{
		ID:            "fee_" + uuid.NewString(),
		Type:          feeType,
		Name:          name,
		Active:        true,
		DefaultAmount: defaultAmount,
		IsCustom:      true,
	}, nil
}

// SeedFees returns the built-in fee heads present in a fresh deployment.
// Bus fees ship inactive until the office enables them.
func SeedFees() []FeeDefinition {
	zero := valueobject.ZeroINR()
	return []FeeDefinition{
		{ID: "fee_tuition", Type: "tuition", Name: "Tuition Fees", Active: true, DefaultAmount: zero},
		{ID: "fee_books", Type: "books", Name: "Book Fees", Active: true, DefaultAmount: zero},
		{ID: "fee_exam", Type: "exam", Name: "Exam Fees", Active: true, DefaultAmount: zero},
		{ID: "fee_bus", Type: "bus", Name: "Bus Fees", Active: false, DefaultAmount: zero},
	}
}
