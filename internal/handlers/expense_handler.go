package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/expenseflow-api/internal/middleware"
	"github.com/sjperalta/expenseflow-api/internal/models"
	"github.com/sjperalta/expenseflow-api/internal/repository"
	"github.com/sjperalta/expenseflow-api/internal/services"
)

type ExpenseHandler struct {
	expenseService  *services.ExpenseService
	approvalService *services.ApprovalService
}

func NewExpenseHandler(expenseService *services.ExpenseService, approvalService *services.ApprovalService) *ExpenseHandler {
	return &ExpenseHandler{
		expenseService:  expenseService,
		approvalService: approvalService,
	}
}

// Create submits a new expense claim for the authenticated employee and
// routes it through the approval workflow.
func (h *ExpenseHandler) Create(c *gin.Context) {
	var input services.SubmitExpenseInput
	if err := BindNestedOrFlat(c, "expense", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	expense, err := h.approvalService.Submit(c.Request.Context(), middleware.GetUserID(c), input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"expense": expense.ToResponse()})
}

// Index lists expenses. Employees see their own; managers and admins see all,
// with pagination and filters.
func (h *ExpenseHandler) Index(c *gin.Context) {
	role := middleware.GetUserRole(c)
	if role == models.RoleEmployee {
		expenses, err := h.expenseService.FindByEmployee(c.Request.Context(), middleware.GetUserID(c), c.Query("status"))
		if err != nil {
			respondError(c, err)
			return
		}
		responses := make([]models.ExpenseResponse, 0, len(expenses))
		for i := range expenses {
			responses = append(responses, expenses[i].ToResponse())
		}
		c.JSON(http.StatusOK, gin.H{"expenses": responses})
		return
	}

	query := repository.NewListQuery()
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	query.Filters["status"] = c.Query("status")
	query.Filters["category"] = c.Query("category")
	query.Filters["employee_id"] = c.Query("employee_id")

	expenses, total, err := h.expenseService.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]models.ExpenseResponse, 0, len(expenses))
	for i := range expenses {
		responses = append(responses, expenses[i].ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"expenses": responses,
		"pagination": gin.H{
			"page":        query.Page,
			"per_page":    query.PerPage,
			"total":       total,
			"total_pages": (total + int64(query.PerPage) - 1) / int64(query.PerPage),
		},
	})
}

// Show returns an expense with its approval records. Employees may only view
// their own expenses.
func (h *ExpenseHandler) Show(c *gin.Context) {
	expense, err := h.expenseService.FindByID(c.Request.Context(), paramID(c, "expense_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	if middleware.GetUserRole(c) == models.RoleEmployee && expense.EmployeeID != middleware.GetUserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"expense": expense.ToResponse()})
}

// Delete withdraws an expense no approver has acted on yet. Only the owner
// may delete.
func (h *ExpenseHandler) Delete(c *gin.Context) {
	if err := h.expenseService.Delete(c.Request.Context(), paramID(c, "expense_id"), middleware.GetUserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "expense deleted"})
}
