package handlers

import (
	"net/http"

	"github.com/ailat-kz/aaoifi-chat/backend/internal/health"
	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	checker *health.HealthChecker
}

func NewHealthHandler(checker *health.HealthChecker) *HealthHandler {
	return &HealthHandler{checker: checker}
}

// HandleHealth reports dependency status. A cached result from the periodic
// check is preferred; ?fresh=1 forces a live check.
func (h *HealthHandler) HandleHealth(c *gin.Context) {
	ctx := c.Request.Context()

	var result health.OverallHealth
	cached, err := h.checker.CheckCached(ctx)
	if err == nil && c.Query("fresh") == "" {
		result = *cached
	} else {
		result = h.checker.CheckAll(ctx)
	}

	code := http.StatusOK
	if result.Status == health.StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, result)
}
