package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ListActivities returns the most recent audit trail entries.
func (h *Handler) ListActivities(c *gin.Context) {
	limit := 20
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	activities, err := h.store.ListActivityLogs(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch activities"})
		return
	}
	c.JSON(http.StatusOK, activities)
}
