package fees

import (
	"github.com/cfm/backend/internal/domain/shared/valueobject"
)

// Ledger math. All functions are pure views over the allocation and
// payment slices; only approved payments count as paid.

// AllocatedByFee sums allocation amounts per fee id for one student
func AllocatedByFee(allocations []FeeAllocation, studentRegisterNo string) map[string]valueobject.Money {
	out := make(map[string]valueobject.Money)
	for _, a := range allocations {
		if a.StudentRegisterNo != studentRegisterNo {
			continue
		}
		prev, ok := out[a.FeeID]
		if !ok {
			prev = valueobject.ZeroINR()
		}
		sum, err := prev.Add(a.Amount)
		if err != nil {
			continue
		}
		out[a.FeeID] = sum
	}
	return out
}

// PaidByFee sums approved payment line amounts per fee id for one student
func PaidByFee(payments []PaymentSubmission, studentRegisterNo string) map[string]valueobject.Money {
	out := make(map[string]valueobject.Money)
	for _, p := range payments {
		if p.StudentRegisterNo != studentRegisterNo || p.Status != PaymentStatusApproved {
			continue
		}
		for _, line := range p.Allocations {
			prev, ok := out[line.FeeID]
			if !ok {
				prev = valueobject.ZeroINR()
			}
			sum, err := prev.Add(line.Amount)
			if err != nil {
				continue
			}
			out[line.FeeID] = sum
		}
	}
	return out
}

// OutstandingByFee computes max(0, allocated - paid) over the union of
// fee ids seen in either map. A fee that was paid but never allocated
// still appears, floored at zero.
func OutstandingByFee(allocations []FeeAllocation, payments []PaymentSubmission, studentRegisterNo string) map[string]valueobject.Money {
	allocated := AllocatedByFee(allocations, studentRegisterNo)
	paid := PaidByFee(payments, studentRegisterNo)

	for feeID := range paid {
		if _, ok := allocated[feeID]; !ok {
			allocated[feeID] = valueobject.ZeroINR()
		}
	}

	out := make(map[string]valueobject.Money, len(allocated))
	for feeID, alloc := range allocated {
		p, ok := paid[feeID]
		if !ok {
			p = valueobject.ZeroINR()
		}
		diff, err := alloc.Subtract(p)
		if err != nil {
			continue
		}
		out[feeID] = diff.FlooredAtZero()
	}
	return out
}

// TotalOutstanding sums the per-fee outstanding amounts
func TotalOutstanding(allocations []FeeAllocation, payments []PaymentSubmission, studentRegisterNo string) valueobject.Money {
	total := valueobject.ZeroINR()
	for _, amount := range OutstandingByFee(allocations, payments, studentRegisterNo) {
		sum, err := total.Add(amount)
		if err != nil {
			continue
		}
		total = sum
	}
	return total
}
