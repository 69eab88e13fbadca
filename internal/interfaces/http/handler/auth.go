package handler

import (
	"net/http"

	"github.com/cfm/backend/internal/application/auth"
	"github.com/cfm/backend/internal/domain/identity"
	"github.com/cfm/backend/internal/infrastructure/config"
	"github.com/gin-gonic/gin"
)

// AuthHandler handles account setup, registration, login and logout
type AuthHandler struct {
	BaseHandler
	authService *auth.Service
	cookies     config.CookieConfig
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *auth.Service, cookies config.CookieConfig) *AuthHandler {
	return &AuthHandler{authService: authService, cookies: cookies}
}

// RegisterRoutes registers the auth routes
func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	grp := rg.Group("/auth")
	grp.POST("/setup-admin", h.SetupAdmin)
	grp.POST("/register", h.Register)
	grp.POST("/login", h.Login)
	grp.POST("/logout", h.Logout)
}

// UserResponse is the public shape of an authenticated user
type UserResponse struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	StudentRegNo string `json:"studentRegNo,omitempty"`
}

func newUserResponse(u *identity.User) UserResponse {
	return UserResponse{
		ID:           u.ID.String(),
		Email:        u.Email,
		Role:         u.Role.String(),
		StudentRegNo: u.StudentRegNo,
	}
}

// SetupAdmin creates the first admin account
func (h *AuthHandler) SetupAdmin(c *gin.Context) {
	var input auth.SetupAdminInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.authService.SetupAdmin(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.setSessionCookie(c, result.Session.Token)
	h.Created(c, newUserResponse(result.User))
}

// Register creates a student account and profile
func (h *AuthHandler) Register(c *gin.Context) {
	var input auth.RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.authService.Register(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.setSessionCookie(c, result.Session.Token)
	h.Created(c, newUserResponse(result.User))
}

// Login authenticates by role plus identifier
func (h *AuthHandler) Login(c *gin.Context) {
	var input auth.LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.authService.Login(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.setSessionCookie(c, result.Session.Token)
	h.Success(c, newUserResponse(result.User))
}

// Logout discards the current session and clears the cookie
func (h *AuthHandler) Logout(c *gin.Context) {
	token, _ := c.Cookie(h.cookies.Name)
	if err := h.authService.Logout(c.Request.Context(), token); err != nil {
		h.HandleError(c, err)
		return
	}
	h.clearSessionCookie(c)
	h.NoContent(c)
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, token string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     h.cookies.Name,
		Value:    token,
		MaxAge:   int(identity.SessionTTL.Seconds()),
		Path:     h.cookies.Path,
		Domain:   h.cookies.Domain,
		Secure:   h.cookies.Secure,
		HttpOnly: true,
		SameSite: sameSiteMode(h.cookies.SameSite),
	})
}

func (h *AuthHandler) clearSessionCookie(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     h.cookies.Name,
		Value:    "",
		MaxAge:   -1,
		Path:     h.cookies.Path,
		Domain:   h.cookies.Domain,
		Secure:   h.cookies.Secure,
		HttpOnly: true,
		SameSite: sameSiteMode(h.cookies.SameSite),
	})
}

func sameSiteMode(mode string) http.SameSite {
	switch mode {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
