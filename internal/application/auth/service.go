package auth

import (
	"context"
	"strings"
	"time"

	"github.com/cfm/backend/internal/domain/academics"
	"github.com/cfm/backend/internal/domain/identity"
	"github.com/cfm/backend/internal/domain/shared"
	"github.com/cfm/backend/internal/domain/state"
	"go.uber.org/zap"
)

// Service handles account setup, registration, login and sessions
type Service struct {
	states   state.Repository
	sessions identity.SessionStore
	logger   *zap.Logger
}

// NewService creates a new auth Service
func NewService(states state.Repository, sessions identity.SessionStore, logger *zap.Logger) *Service {
	return &Service{
		states:   states,
		sessions: sessions,
		logger:   logger,
	}
}

// Result is a successful authentication outcome
type Result struct {
	User    *identity.User
	Session *identity.Session
}

// SetupAdminInput creates the first admin account
type SetupAdminInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// RegisterInput is a student self-registration request
type RegisterInput struct {
	Name       string `json:"name" binding:"required"`
	RegisterNo string `json:"registerNo" binding:"required"`
	Department string `json:"department" binding:"required"`
	Year       string `json:"year" binding:"required"`
	Batch      string `json:"batch"`
	Email      string `json:"email" binding:"required,email"`
	Phone      string `json:"phone"`
	Password   string `json:"password" binding:"required,min=6"`
}

// LoginInput identifies a user by role plus identifier: email for staff
// roles, register number or phone for students.
type LoginInput struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
	Role       string `json:"role" binding:"required"`
}

// SetupAdmin creates the very first admin user. Exactly one admin can be
// created this way; later attempts conflict.
func (s *Service) SetupAdmin(ctx context.Context, input SetupAdminInput) (*Result, error) {
	var admin *identity.User

	email := strings.ToLower(strings.TrimSpace(input.Email))

	_, err := state.Mutate(ctx, s.states, func(doc *state.Document) error {
		if doc.HasAdmin() {
			return shared.NewDomainError("ALREADY_EXISTS", "Admin account already exists")
		}
		if doc.FindUserByEmail(email) != nil {
			return shared.NewDomainError("ALREADY_EXISTS", "A user with this email already exists")
		}
		u, err := identity.NewUser(email, input.Password, identity.RoleAdmin)
		if err != nil {
			return err
		}
		doc.Users = append(doc.Users, *u)
		doc.SetupComplete = true
		admin = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Admin account created", zap.String("user_id", admin.ID.String()))
	return s.openSession(ctx, admin)
}

// Register creates a student profile with a linked login and opens a
// session for it.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*Result, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	var user *identity.User

	_, err := state.Mutate(ctx, s.states, func(doc *state.Document) error {
		if !doc.IsRegistrationOpen(time.Now()) {
			return shared.ErrRegistrationClosed
		}
		if doc.FindStudentByRegNo(strings.TrimSpace(input.RegisterNo)) != nil {
			return shared.NewDomainError("ALREADY_EXISTS", "A student with this register number already exists")
		}
		if doc.FindUserByEmail(email) != nil {
			return shared.NewDomainError("ALREADY_EXISTS", "A user with this email already exists")
		}

		student, err := academics.NewStudent(input.Name, input.RegisterNo, input.Department, input.Year)
		if err != nil {
			return err
		}
		student.Batch = strings.TrimSpace(input.Batch)
		student.Email = email
		student.Phone = strings.TrimSpace(input.Phone)

		u, err := identity.NewStudentUser(email, input.Password, student.RegisterNo)
		if err != nil {
			return err
		}

		doc.Students = append(doc.Students, *student)
		doc.Users = append(doc.Users, *u)
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Student registered",
		zap.String("user_id", user.ID.String()),
		zap.String("register_no", user.StudentRegNo),
	)
	return s.openSession(ctx, user)
}

// Login authenticates by role and identifier and opens a session
func (s *Service) Login(ctx context.Context, input LoginInput) (*Result, error) {
	role := identity.Role(input.Role)
	if !role.IsValid() {
		return nil, shared.NewDomainError("INVALID_ROLE", "Role is not valid")
	}

	snap, err := s.states.Load(ctx)
	if err != nil {
		return nil, err
	}

	user := s.findUser(snap.Doc, role, strings.TrimSpace(input.Identifier))
	if user == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "No account matches this role and identifier")
	}
	if !user.VerifyPassword(input.Password) {
		return nil, shared.NewDomainError("INVALID_CREDENTIALS", "Invalid credentials")
	}

	return s.openSession(ctx, user)
}

// findUser resolves the login identifier: staff log in by email, students
// by register number or phone via their profile.
func (s *Service) findUser(doc *state.Document, role identity.Role, identifier string) *identity.User {
	if role.IsStaff() {
		u := doc.FindUserByEmail(strings.ToLower(identifier))
		if u == nil || u.Role != role {
			return nil
		}
		return u
	}

	regNo := identifier
	if student := doc.FindStudentByRegNo(identifier); student == nil {
		if student = doc.FindStudentByPhone(identifier); student != nil {
			regNo = student.RegisterNo
		}
	}
	for i := range doc.Users {
		if doc.Users[i].Role == identity.RoleStudent && doc.Users[i].StudentRegNo == regNo {
			return &doc.Users[i]
		}
	}
	return nil
}

// Logout discards the session for the token
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.Delete(ctx, token)
}

// Authenticate resolves a session token to its user. A missing, expired
// or orphaned session yields ErrUnauthorized.
func (s *Service) Authenticate(ctx context.Context, token string) (*identity.User, error) {
	if token == "" {
		return nil, shared.ErrUnauthorized
	}
	session, err := s.sessions.Find(ctx, token)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, shared.ErrUnauthorized
	}

	snap, err := s.states.Load(ctx)
	if err != nil {
		return nil, err
	}
	user := snap.Doc.FindUserByID(session.UserID)
	if user == nil {
		// stale session for a user no longer in the document
		_ = s.sessions.Delete(ctx, token)
		return nil, shared.ErrUnauthorized
	}
	return user, nil
}

func (s *Service) openSession(ctx context.Context, user *identity.User) (*Result, error) {
	session, err := identity.NewSession(user.ID)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}
	return &Result{User: user, Session: session}, nil
}
