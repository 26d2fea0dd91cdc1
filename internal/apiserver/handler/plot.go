package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/plotdesk/plotdesk/internal/apiserver/database"
	"github.com/plotdesk/plotdesk/internal/common/dto"
	"github.com/plotdesk/plotdesk/internal/realtime"
)

// ListPlots returns the full inventory. With ?projectId= it is scoped to one
// project.
func (h *Handler) ListPlots(c *gin.Context) {
	var (
		plots []*database.Plot
		err   error
	)
	if projectID := c.Query("projectId"); projectID != "" {
		plots, err = h.store.ListPlotsByProject(c.Request.Context(), projectID)
	} else {
		plots, err = h.store.ListPlots(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch plots"})
		return
	}
	c.JSON(http.StatusOK, plots)
}

// PlotsByCategory returns plots in one category.
func (h *Handler) PlotsByCategory(c *gin.Context) {
	plots, err := h.store.ListPlotsByCategory(c.Request.Context(), c.Param("category"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch plots"})
		return
	}
	c.JSON(http.StatusOK, plots)
}

// CreatePlot adds a plot to the inventory. Admin only.
func (h *Handler) CreatePlot(c *gin.Context) {
	var req dto.CreatePlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if _, err := h.store.GetProject(c.Request.Context(), req.ProjectID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
		return
	}

	status := req.Status
	if status == "" {
		status = database.PlotStatusAvailable
	}

	plot := &database.Plot{
		ProjectID:  req.ProjectID,
		PlotNumber: req.PlotNumber,
		Size:       req.Size,
		Price:      req.Price,
		Facing:     req.Facing,
		Status:     status,
		Category:   req.Category,
		Amenities:  req.Amenities,
	}
	if err := h.store.CreatePlot(c.Request.Context(), plot); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create plot"})
		return
	}

	h.logActivity(c, "Created Plot", "plot", plot.ID, fmt.Sprintf("Created plot %s", plot.PlotNumber))
	h.publish(realtime.TopicPlotCreated, realtime.Payload{
		"plotId":    plot.ID,
		"projectId": plot.ProjectID,
	})

	c.JSON(http.StatusCreated, plot)
}

// UpdatePlot edits a plot. Admin only.
func (h *Handler) UpdatePlot(c *gin.Context) {
	var req dto.CreatePlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	plot, err := h.store.GetPlot(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "plot not found"})
		return
	}

	plot.ProjectID = req.ProjectID
	plot.PlotNumber = req.PlotNumber
	plot.Size = req.Size
	plot.Price = req.Price
	plot.Facing = req.Facing
	if req.Status != "" {
		plot.Status = req.Status
	}
	plot.Category = req.Category
	plot.Amenities = req.Amenities
	plot.UpdatedAt = time.Now()

	if err := h.store.UpdatePlot(c.Request.Context(), plot); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update plot"})
		return
	}

	h.publish(realtime.TopicPlotUpdated, realtime.Payload{
		"plotId":    plot.ID,
		"projectId": plot.ProjectID,
	})
	c.JSON(http.StatusOK, plot)
}

// DeletePlot removes a plot from the inventory. Admin only.
func (h *Handler) DeletePlot(c *gin.Context) {
	id := c.Param("id")
	if err := h.store.DeletePlot(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete plot"})
		return
	}
	h.publish(realtime.TopicPlotDeleted, realtime.Payload{"plotId": id})
	c.JSON(http.StatusOK, gin.H{"message": "plot deleted"})
}

// PlotStats summarizes buyer demand for one plot.
func (h *Handler) PlotStats(c *gin.Context) {
	interests, err := h.store.ListBuyerInterestsByPlot(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch plot statistics"})
		return
	}

	stats := dto.PlotStats{TotalInterestedBuyers: len(interests)}
	var total float64
	for _, interest := range interests {
		total += interest.OfferedPrice
		if interest.OfferedPrice > stats.HighestOffer {
			stats.HighestOffer = interest.OfferedPrice
		}
	}
	if len(interests) > 0 {
		stats.AverageOfferedPrice = total / float64(len(interests))
	}

	c.JSON(http.StatusOK, gin.H{
		"totalInterestedBuyers": stats.TotalInterestedBuyers,
		"averageOfferedPrice":   stats.AverageOfferedPrice,
		"highestOffer":          stats.HighestOffer,
		"buyerInterests":        interests,
	})
}
