package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cfm/backend/internal/domain/identity"
	"github.com/cfm/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuthenticator struct {
	users map[string]*identity.User
}

func (f *fakeAuthenticator) Authenticate(_ context.Context, token string) (*identity.User, error) {
	if user, ok := f.users[token]; ok {
		return user, nil
	}
	return nil, shared.ErrUnauthorized
}

func newTestUser(t *testing.T, role identity.Role) *identity.User {
	t.Helper()
	user, err := identity.NewUser("user@college.edu", "secret123", role)
	require.NoError(t, err)
	return user
}

func serve(engine *gin.Engine, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestSessionAuthRequired(t *testing.T) {
	gin.SetMode(gin.TestMode)
	user := newTestUser(t, identity.RoleOffice)
	auth := NewSessionAuth("cfm_session", &fakeAuthenticator{
		users: map[string]*identity.User{"good-token": user},
	})

	engine := gin.New()
	engine.GET("/", auth.Required(), func(c *gin.Context) {
		c.String(http.StatusOK, CurrentUser(c).Email)
	})

	t.Run("valid cookie attaches the user", func(t *testing.T) {
		rec := serve(engine, &http.Cookie{Name: "cfm_session", Value: "good-token"})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "user@college.edu", rec.Body.String())
	})

	t.Run("missing cookie is a 401", func(t *testing.T) {
		rec := serve(engine, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown token is a 401", func(t *testing.T) {
		rec := serve(engine, &http.Cookie{Name: "cfm_session", Value: "bad-token"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestSessionAuthOptional(t *testing.T) {
	gin.SetMode(gin.TestMode)
	user := newTestUser(t, identity.RoleOffice)
	auth := NewSessionAuth("cfm_session", &fakeAuthenticator{
		users: map[string]*identity.User{"good-token": user},
	})

	engine := gin.New()
	engine.GET("/", auth.Optional(), func(c *gin.Context) {
		if u := CurrentUser(c); u != nil {
			c.String(http.StatusOK, u.Email)
			return
		}
		c.String(http.StatusOK, "anonymous")
	})

	t.Run("valid cookie attaches the user", func(t *testing.T) {
		rec := serve(engine, &http.Cookie{Name: "cfm_session", Value: "good-token"})
		assert.Equal(t, "user@college.edu", rec.Body.String())
	})

	t.Run("missing cookie continues anonymously", func(t *testing.T) {
		rec := serve(engine, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "anonymous", rec.Body.String())
	})

	t.Run("bad token continues anonymously", func(t *testing.T) {
		rec := serve(engine, &http.Cookie{Name: "cfm_session", Value: "bad-token"})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "anonymous", rec.Body.String())
	})
}

func TestRequireCapability(t *testing.T) {
	gin.SetMode(gin.TestMode)

	office := newTestUser(t, identity.RoleOffice)
	student := newTestUser(t, identity.RoleStudent)
	auth := NewSessionAuth("cfm_session", &fakeAuthenticator{
		users: map[string]*identity.User{
			"office-token":  office,
			"student-token": student,
		},
	})

	engine := gin.New()
	engine.GET("/", auth.Required(), RequireCapability(identity.CapApprovePayments), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	t.Run("capable role passes", func(t *testing.T) {
		rec := serve(engine, &http.Cookie{Name: "cfm_session", Value: "office-token"})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("incapable role is forbidden", func(t *testing.T) {
		rec := serve(engine, &http.Cookie{Name: "cfm_session", Value: "student-token"})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
