package academics

import (
	"strings"
	"time"

	"github.com/cfm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// EmergencyPreference selects which family contact is called first
type EmergencyPreference string

const (
	EmergencyFather   EmergencyPreference = "father"
	EmergencyMother   EmergencyPreference = "mother"
	EmergencyGuardian EmergencyPreference = "guardian"
)

// FamilyInfo holds parent/guardian details filled in by the student
type FamilyInfo struct {
	FatherName         string              `json:"fatherName,omitempty"`
	FatherOccupation   string              `json:"fatherOccupation,omitempty"`
	FatherPhone        string              `json:"fatherPhone,omitempty"`
	MotherName         string              `json:"motherName,omitempty"`
	MotherOccupation   string              `json:"motherOccupation,omitempty"`
	MotherPhone        string              `json:"motherPhone,omitempty"`
	GuardianName       string              `json:"guardianName,omitempty"`
	GuardianOccupation string              `json:"guardianOccupation,omitempty"`
	GuardianPhone      string              `json:"guardianPhone,omitempty"`
	EmergencyPref      EmergencyPreference `json:"emergencyPreference,omitempty"`
}

// Documents holds inline-encoded document images. PDF/file storage is out
// of scope, so everything is carried as data URLs inside the record.
type Documents struct {
	TC12          string `json:"tc12,omitempty"`
	Birth         string `json:"birth,omitempty"`
	FirstGraduate string `json:"firstGraduate,omitempty"`
	Mark10        string `json:"mark10,omitempty"`
	Mark12        string `json:"mark12,omitempty"`
}

// CustomCertificate is an arbitrary named upload beyond the fixed slots
type CustomCertificate struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	DataURL string    `json:"dataUrl,omitempty"`
}

// AuditEntry records one edit to the student profile
type AuditEntry struct {
	At     time.Time `json:"at"`
	By     string    `json:"by"`
	Action string    `json:"action"`
}

// Student is the academic profile aggregate. The register number is the
// natural key used by allocations, payments and freeze flags; it never
// changes after creation.
type Student struct {
	shared.BaseEntity
	Name       string `json:"name"`
	RegisterNo string `json:"registerNo"`
	Department string `json:"department"`
	Branch     string `json:"branch,omitempty"`
	Year       string `json:"year"`
	Batch      string `json:"batch,omitempty"`
	UMIS       string `json:"umis,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Email      string `json:"email,omitempty"`

	Family FamilyInfo `json:"family,omitempty"`

	Docs               Documents           `json:"docs,omitempty"`
	CustomCertificates []CustomCertificate `json:"customCertificates,omitempty"`

	ProfileCompleted bool         `json:"profileCompleted,omitempty"`
	AuditTrail       []AuditEntry `json:"auditTrail,omitempty"`
	PhotoDataURL     string       `json:"photoDataUrl,omitempty"`
}

// NewStudent creates a student profile with the required fields
func NewStudent(name, registerNo, department, year string) (*Student, error) {
	name = strings.TrimSpace(name)
	registerNo = strings.TrimSpace(registerNo)
	department = strings.TrimSpace(department)
	year = strings.TrimSpace(year)

	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Student name cannot be empty")
	}
	if registerNo == "" {
		return nil, shared.NewDomainError("INVALID_REGISTER_NO", "Register number cannot be empty")
	}
	if department == "" {
		return nil, shared.NewDomainError("INVALID_DEPARTMENT", "Department cannot be empty")
	}
	if year == "" {
		return nil, shared.NewDomainError("INVALID_YEAR", "Year cannot be empty")
	}

	return &Student{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		RegisterNo: registerNo,
		Department: department,
		Year:       year,
	}, nil
}

// RecordEdit appends an audit entry for a profile mutation
func (s *Student) RecordEdit(by, action string, at time.Time) {
	s.AuditTrail = append(s.AuditTrail, AuditEntry{At: at, By: by, Action: action})
}

// CompleteProfile marks the profile as filled in and logs the edit
func (s *Student) CompleteProfile(by string, at time.Time) {
	s.ProfileCompleted = true
	s.RecordEdit(by, "profile-completed", at)
}

// AddCertificate attaches a named custom certificate
func (s *Student) AddCertificate(name, dataURL string) (*CustomCertificate, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Certificate name cannot be empty")
	}
	cert := CustomCertificate{ID: uuid.New(), Name: name, DataURL: dataURL}
	s.CustomCertificates = append(s.CustomCertificates, cert)
	return &cert, nil
}
