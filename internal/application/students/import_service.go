package students

import (
	"context"
	"fmt"
	"strings"

	"github.com/cfm/backend/internal/domain/academics"
	"github.com/cfm/backend/internal/domain/shared"
	"github.com/cfm/backend/internal/domain/state"
	"github.com/cfm/backend/internal/infrastructure/importcsv"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Bulk upload CSV header columns
const (
	columnRoll       = "roll"
	columnName       = "name"
	columnEmail      = "email"
	columnDepartment = "department"
	columnYear       = "year"
)

// SampleCSV is the template served for download
const SampleCSV = "roll,name,email,department,year\n" +
	"20230001,Jane Doe,jane@college.edu,CSE,2\n" +
	"20230002,Ravi Kumar,ravi@college.edu,ECE,1\n"

// ImportService creates student profiles from an uploaded CSV
type ImportService struct {
	states   state.Repository
	validate *validator.Validate
	logger   *zap.Logger
}

// NewImportService creates a new ImportService
func NewImportService(states state.Repository, logger *zap.Logger) *ImportService {
	return &ImportService{
		states:   states,
		validate: validator.New(),
		logger:   logger,
	}
}

// ImportResult summarizes a bulk upload. Errors are per-row messages for
// rows that were skipped; accepted rows are committed regardless.
type ImportResult struct {
	Added  int      `json:"added"`
	Errors []string `json:"errors"`
}

// HasErrors returns true when at least one row was skipped
func (r *ImportResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// Import parses the CSV payload and creates a student per valid row.
// Valid rows from a partially bad file are still committed.
func (s *ImportService) Import(ctx context.Context, payload []byte) (*ImportResult, error) {
	parser, err := importcsv.ParseFromBytes(payload)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", err.Error())
	}
	if err := parser.ParseHeader(); err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", err.Error())
	}
	for _, col := range []string{columnRoll, columnName, columnEmail, columnDepartment, columnYear} {
		if !parser.HasHeader(col) {
			return nil, shared.NewDomainError("INVALID_INPUT",
				fmt.Sprintf("CSV is missing required column %q", col))
		}
	}

	rows, err := parser.ReadAllRows()
	if err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", err.Error())
	}

	result := &ImportResult{Errors: []string{}}
	_, err = state.Mutate(ctx, s.states, func(doc *state.Document) error {
		// reset per attempt so CAS retries do not double-count
		result.Added = 0
		result.Errors = result.Errors[:0]
		seenRolls := make(map[string]bool)
		seenEmails := make(map[string]bool)

		for _, row := range rows {
			student, rowErr := s.buildStudent(doc, row, seenRolls, seenEmails)
			if rowErr != "" {
				result.Errors = append(result.Errors, rowErr)
				continue
			}
			doc.Students = append(doc.Students, *student)
			seenRolls[student.RegisterNo] = true
			seenEmails[student.Email] = true
			result.Added++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Student bulk upload processed",
		zap.Int("added", result.Added),
		zap.Int("skipped", len(result.Errors)),
	)
	return result, nil
}

// buildStudent validates one row; a non-empty string return is the
// user-facing row error.
func (s *ImportService) buildStudent(doc *state.Document, row *importcsv.Row, seenRolls, seenEmails map[string]bool) (*academics.Student, string) {
	roll := row.Get(columnRoll)
	name := row.Get(columnName)
	email := strings.ToLower(row.Get(columnEmail))
	department := row.Get(columnDepartment)
	year := row.Get(columnYear)

	if roll == "" || name == "" || email == "" || department == "" || year == "" {
		return nil, fmt.Sprintf("row %d: missing required fields", row.LineNumber)
	}
	if err := s.validate.Var(email, "email"); err != nil {
		return nil, fmt.Sprintf("row %d: invalid email %q", row.LineNumber, email)
	}
	if seenRolls[roll] || doc.FindStudentByRegNo(roll) != nil {
		return nil, fmt.Sprintf("row %d: duplicate register number %q", row.LineNumber, roll)
	}
	if seenEmails[email] || s.emailInUse(doc, email) {
		return nil, fmt.Sprintf("row %d: duplicate email %q", row.LineNumber, email)
	}

	student, err := academics.NewStudent(name, roll, department, year)
	if err != nil {
		return nil, fmt.Sprintf("row %d: %s", row.LineNumber, err.Error())
	}
	student.Email = email
	return student, ""
}

func (s *ImportService) emailInUse(doc *state.Document, email string) bool {
	if doc.FindUserByEmail(email) != nil {
		return true
	}
	for i := range doc.Students {
		if doc.Students[i].Email == email {
			return true
		}
	}
	return false
}
