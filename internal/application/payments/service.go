package payments

import (
	"context"
	"strings"
	"time"

	"github.com/cfm/backend/internal/domain/fees"
	"github.com/cfm/backend/internal/domain/shared"
	"github.com/cfm/backend/internal/domain/shared/valueobject"
	"github.com/cfm/backend/internal/domain/state"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service handles payment submission and the approval workflow
type Service struct {
	states state.Repository
	logger *zap.Logger
}

// NewService creates a new payments Service
func NewService(states state.Repository, logger *zap.Logger) *Service {
	return &Service{states: states, logger: logger}
}

// LineInput is one fee line of a submission
type LineInput struct {
	FeeID  string  `json:"feeId" binding:"required"`
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

// SubmitInput is a student's payment claim
type SubmitInput struct {
	StudentRegisterNo string      `json:"studentRegisterNo" binding:"required"`
	Lines             []LineInput `json:"lines" binding:"required,min=1,dive"`
	UPITransactionID  string      `json:"upiTransactionId"`
	ScreenshotDataURL string      `json:"screenshotDataUrl"`
}

// RejectInput carries the mandatory rejection reason
type RejectInput struct {
	Reason string `json:"reason" binding:"required"`
}

// OutstandingResult is the per-fee ledger view for one student
type OutstandingResult struct {
	StudentRegisterNo string                       `json:"studentRegisterNo"`
	ByFee             map[string]valueobject.Money `json:"byFee"`
	Total             valueobject.Money            `json:"total"`
}

// Submit validates and appends a new payment submission. Each line must
// stay within the student's current outstanding balance for that fee.
func (s *Service) Submit(ctx context.Context, input SubmitInput) (*fees.PaymentSubmission, error) {
	var submitted *fees.PaymentSubmission

	// Stored transaction ids are trimmed, so the duplicate check must
	// run on the trimmed form too.
	upiTxnID := strings.TrimSpace(input.UPITransactionID)

	_, err := state.Mutate(ctx, s.states, func(doc *state.Document) error {
		student := doc.FindStudentByRegNo(input.StudentRegisterNo)
		if student == nil {
			return shared.NewDomainError("NOT_FOUND", "Student not found")
		}
		if doc.IsFrozen(student) {
			return shared.ErrAccountFrozen
		}
		if upiTxnID != "" && doc.IsUPITxnUsed(upiTxnID) {
			return shared.NewDomainError("ALREADY_EXISTS", "This UPI transaction id has already been used")
		}

		outstanding := fees.OutstandingByFee(doc.Allocations, doc.Payments, student.RegisterNo)
		lines := make([]fees.PaymentLine, 0, len(input.Lines))
		for _, in := range input.Lines {
			if doc.FindFeeByID(in.FeeID) == nil {
				return shared.NewDomainError("NOT_FOUND", "Unknown fee id "+in.FeeID)
			}
			amount := valueobject.NewMoneyINRFromFloat(in.Amount)
			limit, ok := outstanding[in.FeeID]
			if !ok {
				limit = valueobject.ZeroINR()
			}
			over, err := amount.GreaterThan(limit)
			if err != nil {
				return err
			}
			if over {
				return shared.NewDomainError("INVALID_AMOUNT",
					"Amount for fee "+in.FeeID+" exceeds the outstanding balance")
			}
			lines = append(lines, fees.PaymentLine{FeeID: in.FeeID, Amount: amount})
		}

		p, err := fees.NewPaymentSubmission(student.RegisterNo, lines, upiTxnID, input.ScreenshotDataURL)
		if err != nil {
			return err
		}
		doc.Payments = append(doc.Payments, *p)
		submitted = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Payment submitted",
		zap.String("payment_id", submitted.ID.String()),
		zap.String("register_no", submitted.StudentRegisterNo),
		zap.String("total", submitted.Total.String()),
	)
	return submitted, nil
}

// Approve transitions a submitted payment to approved and issues its
// receipt in the same document write.
func (s *Service) Approve(ctx context.Context, paymentID, deciderID uuid.UUID) (*fees.PaymentSubmission, *fees.Receipt, error) {
	var (
		approved *fees.PaymentSubmission
		receipt  *fees.Receipt
	)

	_, err := state.Mutate(ctx, s.states, func(doc *state.Document) error {
		p := doc.FindPaymentByID(paymentID)
		if p == nil {
			return shared.NewDomainError("NOT_FOUND", "Payment not found")
		}
		now := time.Now()
		if err := p.Approve(deciderID, now); err != nil {
			return err
		}
		r, err := fees.NewReceipt(p, doc.NextReceiptSeq(), now)
		if err != nil {
			return err
		}
		doc.Receipts = append(doc.Receipts, *r)
		approved = p
		receipt = r
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("Payment approved",
		zap.String("payment_id", approved.ID.String()),
		zap.String("receipt_number", receipt.Number),
	)
	return approved, receipt, nil
}

// Reject transitions a submitted payment to rejected with a reason
func (s *Service) Reject(ctx context.Context, paymentID, deciderID uuid.UUID, reason string) (*fees.PaymentSubmission, error) {
	var rejected *fees.PaymentSubmission

	_, err := state.Mutate(ctx, s.states, func(doc *state.Document) error {
		p := doc.FindPaymentByID(paymentID)
		if p == nil {
			return shared.NewDomainError("NOT_FOUND", "Payment not found")
		}
		if err := p.Reject(deciderID, reason, time.Now()); err != nil {
			return err
		}
		rejected = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Payment rejected", zap.String("payment_id", rejected.ID.String()))
	return rejected, nil
}

// Outstanding computes the ledger view for one student
func (s *Service) Outstanding(ctx context.Context, registerNo string) (*OutstandingResult, error) {
	snap, err := s.states.Load(ctx)
	if err != nil {
		return nil, err
	}
	if snap.Doc.FindStudentByRegNo(registerNo) == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Student not found")
	}
	return &OutstandingResult{
		StudentRegisterNo: registerNo,
		ByFee:             fees.OutstandingByFee(snap.Doc.Allocations, snap.Doc.Payments, registerNo),
		Total:             fees.TotalOutstanding(snap.Doc.Allocations, snap.Doc.Payments, registerNo),
	}, nil
}
