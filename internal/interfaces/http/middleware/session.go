package middleware

import (
	"context"
	"net/http"

	"github.com/cfm/backend/internal/domain/identity"
	"github.com/cfm/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// ContextUserKey is the gin context key holding the authenticated user
const ContextUserKey = "current_user"

// Authenticator resolves a session token to its user
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*identity.User, error)
}

// SessionAuth builds the session middleware pair for one cookie name
type SessionAuth struct {
	cookieName string
	auth       Authenticator
}

// NewSessionAuth creates session middleware reading the given cookie
func NewSessionAuth(cookieName string, auth Authenticator) *SessionAuth {
	return &SessionAuth{cookieName: cookieName, auth: auth}
}

// Required rejects requests without a valid session cookie
func (s *SessionAuth) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := s.resolve(c)
		if err != nil || user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewErrorResponse(dto.ErrCodeUnauthorized, "Authentication required"))
			return
		}
		c.Set(ContextUserKey, user)
		c.Next()
	}
}

// Optional attaches the user when a valid session cookie is present and
// continues anonymously otherwise.
func (s *SessionAuth) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		if user, err := s.resolve(c); err == nil && user != nil {
			c.Set(ContextUserKey, user)
		}
		c.Next()
	}
}

func (s *SessionAuth) resolve(c *gin.Context) (*identity.User, error) {
	token, err := c.Cookie(s.cookieName)
	if err != nil {
		return nil, err
	}
	return s.auth.Authenticate(c.Request.Context(), token)
}

// RequireCapability guards a route behind one role capability. It must
// run after Required.
func RequireCapability(cap identity.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewErrorResponse(dto.ErrCodeUnauthorized, "Authentication required"))
			return
		}
		if !user.Role.Can(cap) {
			c.AbortWithStatusJSON(http.StatusForbidden,
				dto.NewErrorResponse(dto.ErrCodeForbidden, "Insufficient permissions"))
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user, or nil for anonymous
// requests.
func CurrentUser(c *gin.Context) *identity.User {
	v, ok := c.Get(ContextUserKey)
	if !ok {
		return nil
	}
	user, ok := v.(*identity.User)
	if !ok {
		return nil
	}
	return user
}
