package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"sort"
	"strings"
	"time"

	"github.com/cfm/backend/internal/domain/fees"
	"github.com/cfm/backend/internal/domain/state"
	"go.uber.org/zap"
)

// Service renders the office-facing CSV exports
type Service struct {
	states state.Repository
	logger *zap.Logger
}

// NewService creates a new reports Service
func NewService(states state.Repository, logger *zap.Logger) *Service {
	return &Service{states: states, logger: logger}
}

// PaymentsCSV exports decided payments with the given status. Rows are
// ordered by decision time.
func (s *Service) PaymentsCSV(ctx context.Context, status fees.PaymentStatus) ([]byte, error) {
	snap, err := s.states.Load(ctx)
	if err != nil {
		return nil, err
	}
	doc := snap.Doc

	receiptByPayment := make(map[string]string, len(doc.Receipts))
	for _, r := range doc.Receipts {
		receiptByPayment[r.PaymentID.String()] = r.Number
	}

	var rows []fees.PaymentSubmission
	for _, p := range doc.Payments {
		if p.Status == status {
			rows = append(rows, p)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		return decidedAt(rows[i]).Before(decidedAt(rows[j]))
	})

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := []string{"Register No", "Student", "Amount", "UPI Txn", "Decided At"}
	if status == fees.PaymentStatusApproved {
		header = append(header, "Receipt")
	}
	if status == fees.PaymentStatusRejected {
		header = append(header, "Reason")
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, p := range rows {
		name := ""
		if student := doc.FindStudentByRegNo(p.StudentRegisterNo); student != nil {
			name = student.Name
		}
		record := []string{
			p.StudentRegisterNo,
			name,
			p.Total.DisplayINR(),
			p.UPITransactionID,
			decidedAt(p).Format(time.RFC3339),
		}
		if status == fees.PaymentStatusApproved {
			record = append(record, receiptByPayment[p.ID.String()])
		}
		if status == fees.PaymentStatusRejected {
			record = append(record, p.RejectReason)
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// OutstandingCSV exports every student's per-fee outstanding balance.
// Students with nothing outstanding appear with a zero total. A
// non-empty department limits the export to that department's students.
func (s *Service) OutstandingCSV(ctx context.Context, department string) ([]byte, error) {
	snap, err := s.states.Load(ctx)
	if err != nil {
		return nil, err
	}
	doc := snap.Doc

	feeName := make(map[string]string, len(doc.Fees))
	for _, f := range doc.Fees {
		feeName[f.ID] = f.Name
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"Register No", "Student", "Department", "Fee", "Outstanding"}); err != nil {
		return nil, err
	}

	for _, student := range doc.Students {
		if department != "" && !strings.EqualFold(student.Department, department) {
			continue
		}
		byFee := fees.OutstandingByFee(doc.Allocations, doc.Payments, student.RegisterNo)
		if len(byFee) == 0 {
			record := []string{student.RegisterNo, student.Name, student.Department, "-", "₹ 0.00"}
			if err := w.Write(record); err != nil {
				return nil, err
			}
			continue
		}

		feeIDs := make([]string, 0, len(byFee))
		for id := range byFee {
			feeIDs = append(feeIDs, id)
		}
		sort.Strings(feeIDs)

		for _, feeID := range feeIDs {
			name := feeName[feeID]
			if name == "" {
				name = feeID
			}
			record := []string{
				student.RegisterNo,
				student.Name,
				student.Department,
				name,
				byFee[feeID].DisplayINR(),
			}
			if err := w.Write(record); err != nil {
				return nil, err
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decidedAt(p fees.PaymentSubmission) time.Time {
	if p.DecidedAt != nil {
		return *p.DecidedAt
	}
	return p.CreatedAt
}
