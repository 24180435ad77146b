package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/expenseflow-api/internal/middleware"
	"github.com/sjperalta/expenseflow-api/internal/models"
	"github.com/sjperalta/expenseflow-api/internal/services"
)

type ApprovalHandler struct {
	approvalService *services.ApprovalService
}

func NewApprovalHandler(approvalService *services.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{approvalService: approvalService}
}

// Pending returns the approval queue for the authenticated approver
func (h *ApprovalHandler) Pending(c *gin.Context) {
	records, err := h.approvalService.PendingForApprover(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]models.ApprovalRecordResponse, 0, len(records))
	for i := range records {
		responses = append(responses, records[i].ToResponse())
	}
	c.JSON(http.StatusOK, gin.H{"approvals": responses})
}

type DecisionRequest struct {
	Comments *string `json:"comments"`
}

// Approve records an approval decision for the current level
func (h *ApprovalHandler) Approve(c *gin.Context) {
	h.resolve(c, services.DecisionApprove)
}

// Reject records a rejection, finalizing the expense
func (h *ApprovalHandler) Reject(c *gin.Context) {
	h.resolve(c, services.DecisionReject)
}

func (h *ApprovalHandler) resolve(c *gin.Context, decision string) {
	var req DecisionRequest
	// Body is optional; a bare POST means no comments.
	_ = BindNestedOrFlat(c, "approval", &req)

	expense, err := h.approvalService.Resolve(
		c.Request.Context(),
		paramID(c, "expense_id"),
		middleware.GetUserID(c),
		decision,
		req.Comments,
	)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"expense": expense.ToResponse()})
}

// History returns the approval trail for an expense, ordered by level
func (h *ApprovalHandler) History(c *gin.Context) {
	records, err := h.approvalService.HistoryForExpense(c.Request.Context(), paramID(c, "expense_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]models.ApprovalRecordResponse, 0, len(records))
	for i := range records {
		responses = append(responses, records[i].ToResponse())
	}
	c.JSON(http.StatusOK, gin.H{"approvals": responses})
}
