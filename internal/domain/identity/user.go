package identity

import (
	"github.com/cfm/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// Password cost for bcrypt
const bcryptCost = 12

// FacultyScope restricts a faculty user's visibility to a slice of the
// student body. Year and batch are optional refinements of department.
type FacultyScope struct {
	Department string `json:"department"`
	Year       string `json:"year,omitempty"`
	Batch      string `json:"batch,omitempty"`
}

// User is a login credential record. Users are created at admin setup,
// student registration or staff provisioning and are never deleted.
type User struct {
	shared.BaseEntity
	Email        string        `json:"email"`
	PasswordHash string        `json:"passwordHash"`
	Role         Role          `json:"role"`
	StudentRegNo string        `json:"studentRegNo,omitempty"`
	FacultyScope *FacultyScope `json:"facultyScope,omitempty"`
}

// NewUser creates a user with a hashed password
func NewUser(email, password string, role Role) (*User, error) {
	if email == "" {
		return nil, shared.NewDomainError("INVALID_EMAIL", "Email cannot be empty")
	}
	if !role.IsValid() {
		return nil, shared.NewDomainError("INVALID_ROLE", "Role is not valid")
	}
	u := &User{
		BaseEntity: shared.NewBaseEntity(),
		Email:      email,
		Role:       role,
	}
	if err := u.SetPassword(password); err != nil {
		return nil, err
	}
	return u, nil
}

// NewStudentUser creates the login record linked to a student profile
func NewStudentUser(email, password, registerNo string) (*User, error) {
	if registerNo == "" {
		return nil, shared.NewDomainError("INVALID_REGISTER_NO", "Register number cannot be empty")
	}
	u, err := NewUser(email, password, RoleStudent)
	if err != nil {
		return nil, err
	}
	u.StudentRegNo = registerNo
	return u, nil
}

// SetPassword hashes and sets a new password
func (u *User) SetPassword(password string) error {
	if len(password) < 6 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must be at least 6 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to hash password")
	}
	u.PasswordHash = string(hash)
	return nil
}

// VerifyPassword verifies the supplied password against the stored hash
func (u *User) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// Can reports whether this user's role holds the capability
func (u *User) Can(cap Capability) bool {
	return u.Role.Can(cap)
}
