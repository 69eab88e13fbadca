package handler

import (
	"github.com/gin-gonic/gin"
)

// SystemHandler serves liveness and build info endpoints
type SystemHandler struct {
	BaseHandler
	appName string
	version string
}

// NewSystemHandler creates a new system handler
func NewSystemHandler(appName, version string) *SystemHandler {
	return &SystemHandler{appName: appName, version: version}
}

// RegisterRoutes registers the system routes
func (h *SystemHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", h.Health)
}

// Health reports liveness
func (h *SystemHandler) Health(c *gin.Context) {
	h.Success(c, gin.H{
		"status":  "ok",
		"service": h.appName,
		"version": h.version,
	})
}
