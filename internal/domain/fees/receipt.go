package fees

import (
	"fmt"
	"time"

	"github.com/cfm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Receipt is issued exactly once per approved payment
type Receipt struct {
	ID        uuid.UUID `json:"id"`
	PaymentID uuid.UUID `json:"paymentId"`
	Number    string    `json:"number"`
	IssuedAt  time.Time `json:"issuedAt"`
}

// FormatReceiptNumber builds a receipt number like PMC-2026-00042. The
// sequence is the running count of receipts ever issued; it does not
// reset at year boundaries.
func FormatReceiptNumber(year, seq int) string {
	return fmt.Sprintf("PMC-%d-%05d", year, seq)
}

// NewReceipt issues a receipt for an approved payment
func NewReceipt(payment *PaymentSubmission, seq int, at time.Time) (*Receipt, error) {
	if payment.Status != PaymentStatusApproved {
		return nil, shared.NewDomainError("INVALID_STATE", "Receipts are only issued for approved payments")
	}
	if seq < 1 {
		return nil, shared.NewDomainError("INVALID_SEQUENCE", "Receipt sequence must be positive")
	}
	return &Receipt{
		ID:        uuid.New(),
		PaymentID: payment.ID,
		Number:    FormatReceiptNumber(at.Year(), seq),
		IssuedAt:  at,
	}, nil
}
