package fees

import (
	"testing"

	"github.com/cfm/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func inr(amount float64) valueobject.Money {
	return valueobject.NewMoneyINRFromFloat(amount)
}

func allocate(t *testing.T, regNo, feeID string, amount float64) FeeAllocation {
	t.Helper()
	a, err := NewFeeAllocation(regNo, feeID, inr(amount))
	require.NoError(t, err)
	return *a
}

func approvedPayment(t *testing.T, regNo, feeID string, amount float64) PaymentSubmission {
	t.Helper()
	p, err := NewPaymentSubmission(regNo, []PaymentLine{{FeeID: feeID, Amount: inr(amount)}}, "", "")
	require.NoError(t, err)
	p.Status = PaymentStatusApproved
	return *p
}

func TestOutstandingByFee(t *testing.T) {
	t.Run("allocated minus approved paid", func(t *testing.T) {
		allocations := []FeeAllocation{allocate(t, "S1", "fee_tuition", 1000)}
		payments := []PaymentSubmission{approvedPayment(t, "S1", "fee_tuition", 600)}

		outstanding := OutstandingByFee(allocations, payments, "S1")
		assert.True(t, outstanding["fee_tuition"].Equals(inr(400)))
	})

	t.Run("reaches zero and never goes negative", func(t *testing.T) {
		allocations := []FeeAllocation{allocate(t, "S1", "fee_tuition", 1000)}
		payments := []PaymentSubmission{
			approvedPayment(t, "S1", "fee_tuition", 600),
			approvedPayment(t, "S1", "fee_tuition", 400),
		}
		outstanding := OutstandingByFee(allocations, payments, "S1")
		assert.True(t, outstanding["fee_tuition"].IsZero())

		// a mistaken extra approval must not create a credit
		payments = append(payments, approvedPayment(t, "S1", "fee_tuition", 100))
		outstanding = OutstandingByFee(allocations, payments, "S1")
		assert.True(t, outstanding["fee_tuition"].IsZero())
	})

	t.Run("submitted and rejected payments do not count", func(t *testing.T) {
		allocations := []FeeAllocation{allocate(t, "S1", "fee_tuition", 1000)}

		submitted, err := NewPaymentSubmission("S1",
			[]PaymentLine{{FeeID: "fee_tuition", Amount: inr(300)}}, "", "")
		require.NoError(t, err)

		rejected, err := NewPaymentSubmission("S1",
			[]PaymentLine{{FeeID: "fee_tuition", Amount: inr(200)}}, "", "")
		require.NoError(t, err)
		rejected.Status = PaymentStatusRejected

		outstanding := OutstandingByFee(allocations, []PaymentSubmission{*submitted, *rejected}, "S1")
		assert.True(t, outstanding["fee_tuition"].Equals(inr(1000)))
	})

	t.Run("allocations are additive per fee", func(t *testing.T) {
		allocations := []FeeAllocation{
			allocate(t, "S1", "fee_tuition", 500),
			allocate(t, "S1", "fee_tuition", 500),
			allocate(t, "S1", "fee_books", 250),
		}
		outstanding := OutstandingByFee(allocations, nil, "S1")
		assert.True(t, outstanding["fee_tuition"].Equals(inr(1000)))
		assert.True(t, outstanding["fee_books"].Equals(inr(250)))
	})

	t.Run("students are independent", func(t *testing.T) {
		allocations := []FeeAllocation{
			allocate(t, "S1", "fee_tuition", 1000),
			allocate(t, "S2", "fee_tuition", 800),
		}
		payments := []PaymentSubmission{approvedPayment(t, "S2", "fee_tuition", 800)}

		assert.True(t, OutstandingByFee(allocations, payments, "S1")["fee_tuition"].Equals(inr(1000)))
		assert.True(t, OutstandingByFee(allocations, payments, "S2")["fee_tuition"].IsZero())
	})

	t.Run("fee paid without an allocation appears at zero", func(t *testing.T) {
		payments := []PaymentSubmission{approvedPayment(t, "S1", "fee_bus", 100)}
		outstanding := OutstandingByFee(nil, payments, "S1")
		amount, ok := outstanding["fee_bus"]
		require.True(t, ok, "a fee present only in payments is part of the union")
		assert.True(t, amount.IsZero())
	})

	t.Run("repeated decimal sums stay exact", func(t *testing.T) {
		allocations := []FeeAllocation{allocate(t, "S1", "fee_exam", 100)}
		var payments []PaymentSubmission
		for i := 0; i < 1000; i++ {
			payments = append(payments, approvedPayment(t, "S1", "fee_exam", 0.10))
		}
		outstanding := OutstandingByFee(allocations, payments, "S1")
		assert.True(t, outstanding["fee_exam"].IsZero())
		assert.Equal(t, "100.00", PaidByFee(payments, "S1")["fee_exam"].StringFixed(2))
	})
}

func TestTotalOutstanding(t *testing.T) {
	allocations := []FeeAllocation{
		allocate(t, "S1", "fee_tuition", 1000),
		allocate(t, "S1", "fee_books", 250),
	}
	payments := []PaymentSubmission{approvedPayment(t, "S1", "fee_tuition", 600)}

	assert.True(t, TotalOutstanding(allocations, payments, "S1").Equals(inr(650)))
	assert.True(t, TotalOutstanding(allocations, payments, "S9").IsZero())
}
