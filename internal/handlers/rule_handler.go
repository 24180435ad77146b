package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/expenseflow-api/internal/middleware"
	"github.com/sjperalta/expenseflow-api/internal/services"
)

type RuleHandler struct {
	ruleService *services.RuleService
}

func NewRuleHandler(ruleService *services.RuleService) *RuleHandler {
	return &RuleHandler{ruleService: ruleService}
}

// Index lists approval rules. Admins see everything with include_inactive=1;
// everyone else sees the active rule set.
func (h *RuleHandler) Index(c *gin.Context) {
	if c.Query("include_inactive") == "1" && middleware.IsAdmin(c) {
		rules, err := h.ruleService.FindAll(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"rules": rules})
		return
	}

	rules, err := h.ruleService.FindActive(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rules": rules})
}

// Create adds a new approval rule (admin only)
func (h *RuleHandler) Create(c *gin.Context) {
	var input services.CreateRuleInput
	if err := BindNestedOrFlat(c, "rule", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rule, err := h.ruleService.Create(c.Request.Context(), middleware.GetUserID(c), input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"rule": rule})
}

// Deactivate retires a rule so future routing plans stop using it (admin only)
func (h *RuleHandler) Deactivate(c *gin.Context) {
	if err := h.ruleService.Deactivate(c.Request.Context(), middleware.GetUserID(c), paramID(c, "rule_id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "rule deactivated"})
}
