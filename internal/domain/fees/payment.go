package fees

import (
	"strings"
	"time"

	"github.com/cfm/backend/internal/domain/shared"
	"github.com/cfm/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// PaymentStatus is the lifecycle state of a payment submission
type PaymentStatus string

const (
	PaymentStatusDraft     PaymentStatus = "draft"
	PaymentStatusSubmitted PaymentStatus = "submitted"
	PaymentStatusApproved  PaymentStatus = "approved"
	PaymentStatusRejected  PaymentStatus = "rejected"
)

// IsValid checks if the status is a known payment status
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusDraft, PaymentStatusSubmitted, PaymentStatusApproved, PaymentStatusRejected:
		return true
	}
	return false
}

// IsDecided returns true once an approver has acted on the submission
func (s PaymentStatus) IsDecided() bool {
	return s == PaymentStatusApproved || s == PaymentStatusRejected
}

// String returns the string representation of the status
func (s PaymentStatus) String() string {
	return string(s)
}

// PaymentLine is one {fee, amount} entry inside a submission
type PaymentLine struct {
	FeeID  string            `json:"feeId"`
	Amount valueobject.Money `json:"amount"`
}

// PaymentSubmission is a student's claim of having paid a set of fee
// lines. It is append-only: only an approver may move it out of the
// submitted state, and nothing deletes it.
type PaymentSubmission struct {
	shared.BaseEntity
	StudentRegisterNo string            `json:"studentRegisterNo"`
	Allocations       []PaymentLine     `json:"allocations"`
	Total             valueobject.Money `json:"total"`
	UPITransactionID  string            `json:"upiTransactionId,omitempty"`
	ScreenshotDataURL string            `json:"screenshotDataUrl,omitempty"`
	Status            PaymentStatus     `json:"status"`
	SubmittedAt       *time.Time        `json:"submittedAt,omitempty"`
	DecidedAt         *time.Time        `json:"decidedAt,omitempty"`
	DecidedBy         string            `json:"decidedBy,omitempty"`
	RejectReason      string            `json:"rejectReason,omitempty"`
}

// NewPaymentSubmission creates a submission in the submitted state. The
// total is computed from the lines, never trusted from the caller.
func NewPaymentSubmission(studentRegisterNo string, lines []PaymentLine, upiTxnID, screenshotDataURL string) (*PaymentSubmission, error) {
	if studentRegisterNo == "" {
		return nil, shared.NewDomainError("INVALID_REGISTER_NO", "Register number cannot be empty")
	}
	if len(lines) == 0 {
		return nil, shared.NewDomainError("INVALID_PAYMENT", "Payment must contain at least one fee line")
	}

	total := valueobject.ZeroINR()
	for _, line := range lines {
		if line.FeeID == "" {
			return nil, shared.NewDomainError("INVALID_FEE_ID", "Payment line fee id cannot be empty")
		}
		if !line.Amount.IsPositive() {
			return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment line amount must be positive")
		}
		sum, err := total.Add(line.Amount)
		if err != nil {
			return nil, shared.NewDomainError("INVALID_AMOUNT", err.Error())
		}
		total = sum
	}

	now := time.Now()
	return &PaymentSubmission{
		BaseEntity:        shared.NewBaseEntity(),
		StudentRegisterNo: studentRegisterNo,
		Allocations:       lines,
		Total:             total,
		UPITransactionID:  strings.TrimSpace(upiTxnID),
		ScreenshotDataURL: screenshotDataURL,
		Status:            PaymentStatusSubmitted,
		SubmittedAt:       &now,
	}, nil
}

// Approve transitions submitted -> approved
func (p *PaymentSubmission) Approve(deciderID uuid.UUID, at time.Time) error {
	if p.Status != PaymentStatusSubmitted {
		return shared.NewDomainError("INVALID_STATE",
			"Only submitted payments can be approved, current status: "+p.Status.String())
	}
	p.Status = PaymentStatusApproved
	p.DecidedAt = &at
	p.DecidedBy = deciderID.String()
	return nil
}

// Reject transitions submitted -> rejected; a reason is mandatory
func (p *PaymentSubmission) Reject(deciderID uuid.UUID, reason string, at time.Time) error {
	if p.Status != PaymentStatusSubmitted {
		return shared.NewDomainError("INVALID_STATE",
			"Only submitted payments can be rejected, current status: "+p.Status.String())
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return shared.NewDomainError("REASON_REQUIRED", "Rejection reason cannot be empty")
	}
	p.Status = PaymentStatusRejected
	p.DecidedAt = &at
	p.DecidedBy = deciderID.String()
	p.RejectReason = reason
	return nil
}
