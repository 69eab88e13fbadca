package handler

import (
	"github.com/cfm/backend/internal/application/payments"
	"github.com/cfm/backend/internal/domain/identity"
	"github.com/cfm/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PaymentHandler handles payment submission, the approval workflow and
// the per-student ledger view.
type PaymentHandler struct {
	BaseHandler
	paymentService *payments.Service
	sessions       *middleware.SessionAuth
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService *payments.Service, sessions *middleware.SessionAuth) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService, sessions: sessions}
}

// RegisterRoutes registers the payment routes
func (h *PaymentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	grp := rg.Group("/payments", h.sessions.Required())
	grp.POST("", h.Submit)
	grp.POST("/:id/approve", middleware.RequireCapability(identity.CapApprovePayments), h.Approve)
	grp.POST("/:id/reject", middleware.RequireCapability(identity.CapApprovePayments), h.Reject)

	rg.GET("/students/:registerNo/outstanding", h.sessions.Required(), h.Outstanding)
}

// Submit records a new payment claim. Students can only submit for
// their own register number.
func (h *PaymentHandler) Submit(c *gin.Context) {
	var input payments.SubmitInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	user := middleware.CurrentUser(c)
	if user.Role == identity.RoleStudent && input.StudentRegisterNo != user.StudentRegNo {
		h.Forbidden(c, "Students can only submit payments for their own account")
		return
	}

	submitted, err := h.paymentService.Submit(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, submitted)
}

// ApproveResponse carries the decided payment and its receipt
type ApproveResponse struct {
	Payment any `json:"payment"`
	Receipt any `json:"receipt"`
}

// Approve transitions a submitted payment to approved and issues the
// receipt.
func (h *PaymentHandler) Approve(c *gin.Context) {
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payment id")
		return
	}

	user := middleware.CurrentUser(c)
	payment, receipt, err := h.paymentService.Approve(c.Request.Context(), paymentID, user.ID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ApproveResponse{Payment: payment, Receipt: receipt})
}

// Reject transitions a submitted payment to rejected with a reason
func (h *PaymentHandler) Reject(c *gin.Context) {
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payment id")
		return
	}

	var input payments.RejectInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.BadRequest(c, "Rejection reason is required")
		return
	}

	user := middleware.CurrentUser(c)
	rejected, err := h.paymentService.Reject(c.Request.Context(), paymentID, user.ID, input.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rejected)
}

// Outstanding returns the per-fee ledger view for one student.
// Students can only view their own balance.
func (h *PaymentHandler) Outstanding(c *gin.Context) {
	registerNo := c.Param("registerNo")

	user := middleware.CurrentUser(c)
	if user.Role == identity.RoleStudent && registerNo != user.StudentRegNo {
		h.Forbidden(c, "Students can only view their own balance")
		return
	}

	result, err := h.paymentService.Outstanding(c.Request.Context(), registerNo)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
