package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/expenseflow-api/internal/jobs"
)

type HealthHandler struct {
	worker *jobs.Worker
}

func NewHealthHandler(worker *jobs.Worker) *HealthHandler {
	return &HealthHandler{worker: worker}
}

// Check reports service liveness and background worker activity
func (h *HealthHandler) Check(c *gin.Context) {
	resp := gin.H{"status": "ok"}
	if h.worker != nil {
		resp["worker"] = h.worker.GetStats()
	}
	c.JSON(http.StatusOK, resp)
}
