package fees

import (
	"github.com/cfm/backend/internal/domain/shared"
	"github.com/cfm/backend/internal/domain/shared/valueobject"
)

// FeeAllocation charges a fee amount to a student. Many allocations may
// exist for the same (student, fee) pair; sums are additive. Rows are
// immutable once created.
type FeeAllocation struct {
	shared.BaseEntity
	StudentRegisterNo string            `json:"studentRegisterNo"`
	FeeID             string            `json:"feeId"`
	Amount            valueobject.Money `json:"amount"`
	Discount          valueobject.Money `json:"discount,omitempty"`
}

// NewFeeAllocation creates an allocation of a positive amount
func NewFeeAllocation(studentRegisterNo, feeID string, amount valueobject.Money) (*FeeAllocation, error) {
	if studentRegisterNo == "" {
		return nil, shared.NewDomainError("INVALID_REGISTER_NO", "Register number cannot be empty")
	}
	if feeID == "" {
		return nil, shared.NewDomainError("INVALID_FEE_ID", "Fee id cannot be empty")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Allocation amount must be positive")
	}
	return &FeeAllocation{
		BaseEntity:        shared.NewBaseEntity(),
		StudentRegisterNo: studentRegisterNo,
		FeeID:             feeID,
		Amount:            amount,
		Discount:          valueobject.ZeroINR(),
	}, nil
}
