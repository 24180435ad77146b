package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/expenseflow-api/internal/services"
)

// respondError maps service sentinel errors to HTTP status codes. Unknown
// errors become 500 without leaking internals.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	switch {
	case errors.Is(err, services.ErrValidation):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, services.ErrUnauthorized),
		errors.Is(err, services.ErrNotEligibleApprover):
		status = http.StatusForbidden
		message = err.Error()
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
		message = err.Error()
	case errors.Is(err, services.ErrDuplicate),
		errors.Is(err, services.ErrAlreadyResolved),
		errors.Is(err, services.ErrExpenseFinalized),
		errors.Is(err, services.ErrOutOfOrderApproval),
		errors.Is(err, services.ErrInvalidState):
		status = http.StatusConflict
		message = err.Error()
	case errors.Is(err, services.ErrUnroutableExpense):
		status = http.StatusUnprocessableEntity
		message = err.Error()
	case errors.Is(err, services.ErrStorageUnavailable):
		status = http.StatusServiceUnavailable
		message = err.Error()
	default:
		_ = c.Error(err)
	}

	c.JSON(status, gin.H{"error": message})
}

// paramID parses a numeric path parameter, returning 0 when absent or invalid
func paramID(c *gin.Context, name string) uint {
	id, err := parseUint(c.Param(name))
	if err != nil {
		return 0
	}
	return id
}
