package state

import (
	"encoding/json"
	"time"

	"github.com/cfm/backend/internal/domain/academics"
	"github.com/cfm/backend/internal/domain/fees"
	"github.com/cfm/backend/internal/domain/identity"
	"github.com/cfm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// DocumentKey identifies the singleton state row. The value is part of
// the storage contract and must survive redeployments.
const DocumentKey = "cfm-db-v1"

// RegistrationWindow optionally bounds self-registration in time. A zero
// bound means that side is open.
type RegistrationWindow struct {
	From *time.Time `json:"from,omitempty"`
	To   *time.Time `json:"to,omitempty"`
}

// UPIConfig is the simulated payment target shown to students
type UPIConfig struct {
	UPIID     string `json:"upiId"`
	QRDataURL string `json:"qrDataUrl,omitempty"`
}

// Document is the singleton aggregate holding every collection and all
// global configuration. It is loaded, mutated and replaced as a whole;
// there is no per-entity persistence.
type Document struct {
	Users       []identity.User          `json:"users"`
	Students    []academics.Student      `json:"students"`
	Fees        []fees.FeeDefinition     `json:"fees"`
	Allocations []fees.FeeAllocation     `json:"allocations"`
	Payments    []fees.PaymentSubmission `json:"payments"`
	Receipts    []fees.Receipt           `json:"receipts"`

	SetupComplete      bool                `json:"setupComplete"`
	RegistrationOpen   bool                `json:"registrationOpen"`
	RegistrationWindow *RegistrationWindow `json:"registrationWindow,omitempty"`
	FrozenDepartments  []string            `json:"frozenDepartments"`
	FrozenStudents     []string            `json:"frozenStudents"`
	UPIConfig          UPIConfig           `json:"upiConfig"`

	// CurrentUserID is filled in per request for the caller's session
	// and never persisted.
	CurrentUserID string `json:"currentUserId,omitempty"`
}

// Empty returns the default document shape of a fresh deployment
func Empty() *Document {
	return &Document{
		Users:             []identity.User{},
		Students:          []academics.Student{},
		Fees:              fees.SeedFees(),
		Allocations:       []fees.FeeAllocation{},
		Payments:          []fees.PaymentSubmission{},
		Receipts:          []fees.Receipt{},
		SetupComplete:     false,
		RegistrationOpen:  true,
		FrozenDepartments: []string{},
		FrozenStudents:    []string{},
		UPIConfig:         UPIConfig{UPIID: "college@upi"},
	}
}

// Validate performs the structural check applied before a full-document
// replace is accepted.
func (d *Document) Validate() error {
	if d.Users == nil || d.Students == nil {
		return shared.NewDomainError("INVALID_DOCUMENT", "Document must carry users and students arrays")
	}
	return nil
}

// Clone deep-copies the document via a JSON round trip. Mutation helpers
// work on a clone so a failed save never leaves a half-patched document
// in memory.
func (d *Document) Clone() (*Document, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	var out Document
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// HasAdmin reports whether an admin user already exists
func (d *Document) HasAdmin() bool {
	for i := range d.Users {
		if d.Users[i].Role == identity.RoleAdmin {
			return true
		}
	}
	return false
}

// FindUserByID returns the user with the id, or nil
func (d *Document) FindUserByID(id uuid.UUID) *identity.User {
	for i := range d.Users {
		if d.Users[i].ID == id {
			return &d.Users[i]
		}
	}
	return nil
}

// FindUserByEmail returns the user with the email, or nil
func (d *Document) FindUserByEmail(email string) *identity.User {
	for i := range d.Users {
		if d.Users[i].Email == email {
			return &d.Users[i]
		}
	}
	return nil
}

// FindStudentByRegNo returns the student with the register number, or nil
func (d *Document) FindStudentByRegNo(registerNo string) *academics.Student {
	for i := range d.Students {
		if d.Students[i].RegisterNo == registerNo {
			return &d.Students[i]
		}
	}
	return nil
}

// FindStudentByPhone returns the student with the phone number, or nil
func (d *Document) FindStudentByPhone(phone string) *academics.Student {
	if phone == "" {
		return nil
	}
	for i := range d.Students {
		if d.Students[i].Phone == phone {
			return &d.Students[i]
		}
	}
	return nil
}

// FindPaymentByID returns the payment with the id, or nil
func (d *Document) FindPaymentByID(id uuid.UUID) *fees.PaymentSubmission {
	for i := range d.Payments {
		if d.Payments[i].ID == id {
			return &d.Payments[i]
		}
	}
	return nil
}

// FindFeeByID returns the fee definition with the id, or nil
func (d *Document) FindFeeByID(id string) *fees.FeeDefinition {
	for i := range d.Fees {
		if d.Fees[i].ID == id {
			return &d.Fees[i]
		}
	}
	return nil
}

// IsFrozen reports whether the student is blocked from mutations, either
// individually or through their department.
func (d *Document) IsFrozen(student *academics.Student) bool {
	if student == nil {
		return false
	}
	for _, regNo := range d.FrozenStudents {
		if regNo == student.RegisterNo {
			return true
		}
	}
	for _, dept := range d.FrozenDepartments {
		if dept == student.Department {
			return true
		}
	}
	return false
}

// IsUPITxnUsed reports whether any payment already carries the
// transaction id. Empty ids are never considered used.
func (d *Document) IsUPITxnUsed(txnID string) bool {
	if txnID == "" {
		return false
	}
	for i := range d.Payments {
		if d.Payments[i].UPITransactionID == txnID {
			return true
		}
	}
	return false
}

// IsRegistrationOpen evaluates the flag and the optional time window
func (d *Document) IsRegistrationOpen(now time.Time) bool {
	if !d.RegistrationOpen {
		return false
	}
	if w := d.RegistrationWindow; w != nil {
		if w.From != nil && now.Before(*w.From) {
			return false
		}
		if w.To != nil && now.After(*w.To) {
			return false
		}
	}
	return true
}

// NextReceiptSeq returns the sequence number for the next receipt. The
// counter is the running receipt count plus one and never resets.
func (d *Document) NextReceiptSeq() int {
	return len(d.Receipts) + 1
}
