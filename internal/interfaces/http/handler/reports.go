package handler

import (
	"net/http"

	"github.com/cfm/backend/internal/application/reports"
	"github.com/cfm/backend/internal/domain/fees"
	"github.com/cfm/backend/internal/domain/identity"
	"github.com/cfm/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// ReportHandler serves the CSV exports
type ReportHandler struct {
	BaseHandler
	reportService *reports.Service
	sessions      *middleware.SessionAuth
}

// NewReportHandler creates a new report handler
func NewReportHandler(reportService *reports.Service, sessions *middleware.SessionAuth) *ReportHandler {
	return &ReportHandler{reportService: reportService, sessions: sessions}
}

// RegisterRoutes registers the report routes
func (h *ReportHandler) RegisterRoutes(rg *gin.RouterGroup) {
	grp := rg.Group("/reports", h.sessions.Required(), middleware.RequireCapability(identity.CapViewReports))
	grp.GET("/approved.csv", h.Approved)
	grp.GET("/rejected.csv", h.Rejected)
	grp.GET("/outstanding.csv", h.Outstanding)
}

// Approved exports approved payments with receipt numbers
func (h *ReportHandler) Approved(c *gin.Context) {
	h.payments(c, fees.PaymentStatusApproved, "approved-payments.csv")
}

// Rejected exports rejected payments with reasons
func (h *ReportHandler) Rejected(c *gin.Context) {
	h.payments(c, fees.PaymentStatusRejected, "rejected-payments.csv")
}

func (h *ReportHandler) payments(c *gin.Context, status fees.PaymentStatus, filename string) {
	out, err := h.reportService.PaymentsCSV(c.Request.Context(), status)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.serveCSV(c, filename, out)
}

// Outstanding exports every student's per-fee outstanding balance. An
// optional department query parameter scopes the export.
func (h *ReportHandler) Outstanding(c *gin.Context) {
	out, err := h.reportService.OutstandingCSV(c.Request.Context(), c.Query("department"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.serveCSV(c, "outstanding-balances.csv", out)
}

func (h *ReportHandler) serveCSV(c *gin.Context, filename string, payload []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv", payload)
}
