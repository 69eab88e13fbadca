package handler

import (
	"io"
	"net/http"

	"github.com/cfm/backend/internal/application/students"
	"github.com/cfm/backend/internal/domain/identity"
	"github.com/cfm/backend/internal/interfaces/http/dto"
	"github.com/cfm/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// StudentHandler handles the office-side student bulk upload
type StudentHandler struct {
	BaseHandler
	importService *students.ImportService
	sessions      *middleware.SessionAuth
}

// NewStudentHandler creates a new student handler
func NewStudentHandler(importService *students.ImportService, sessions *middleware.SessionAuth) *StudentHandler {
	return &StudentHandler{importService: importService, sessions: sessions}
}

// RegisterRoutes registers the student import routes. The sample
// template is public so the office can share the link around.
func (h *StudentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	grp := rg.Group("/students")
	grp.POST("/bulk-upload", h.sessions.Required(), middleware.RequireCapability(identity.CapManageStudents), h.BulkUpload)
	grp.GET("/sample-csv", h.SampleCSV)
}

// BulkUpload accepts a CSV file and creates a student per valid row.
// A partially bad file still commits its good rows and reports the rest
// as 207 Multi-Status.
func (h *StudentHandler) BulkUpload(c *gin.Context) {
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		h.BadRequest(c, "A CSV file upload named \"file\" is required")
		return
	}
	defer file.Close()

	payload, err := io.ReadAll(file)
	if err != nil {
		h.BadRequest(c, "Failed to read uploaded file")
		return
	}

	result, err := h.importService.Import(c.Request.Context(), payload)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	status := http.StatusOK
	if result.HasErrors() {
		status = http.StatusMultiStatus
	}
	c.JSON(status, dto.NewSuccessResponse(result))
}

// SampleCSV serves the upload template
func (h *StudentHandler) SampleCSV(c *gin.Context) {
	c.Header("Content-Disposition", `attachment; filename="students-sample.csv"`)
	c.Data(http.StatusOK, "text/csv", []byte(students.SampleCSV))
}
