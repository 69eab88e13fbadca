package handler

import (
	appstate "github.com/cfm/backend/internal/application/state"
	domainstate "github.com/cfm/backend/internal/domain/state"
	"github.com/cfm/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// StateHandler serves the whole-document read/replace surface
type StateHandler struct {
	BaseHandler
	stateService *appstate.Service
	sessions     *middleware.SessionAuth
}

// NewStateHandler creates a new state handler
func NewStateHandler(stateService *appstate.Service, sessions *middleware.SessionAuth) *StateHandler {
	return &StateHandler{stateService: stateService, sessions: sessions}
}

// RegisterRoutes registers the state document routes. Replace answers
// on both verbs; older clients POST the full document.
func (h *StateHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/db", h.sessions.Optional(), h.Read)
	rg.PUT("/db", h.sessions.Required(), h.Replace)
	rg.POST("/db", h.sessions.Required(), h.Replace)
}

// ReplaceRequest is a full replacement document plus the version the
// client read it at. Version zero skips the concurrency check.
type ReplaceRequest struct {
	domainstate.Document
	Version int64 `json:"version"`
}

// Read returns the current state document. Authenticated callers get
// their own id echoed in the payload.
func (h *StateHandler) Read(c *gin.Context) {
	view, err := h.stateService.Read(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// Replace swaps in a full replacement document
func (h *StateHandler) Replace(c *gin.Context) {
	var req ReplaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	version, err := h.stateService.Replace(c.Request.Context(), &req.Document, req.Version)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"version": version})
}
