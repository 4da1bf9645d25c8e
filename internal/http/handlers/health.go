package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/edupulse/a11y-backend/internal/http/response"
)

type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// GET /healthcheck
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	response.RespondOK(c, gin.H{"status": "ok"})
}
