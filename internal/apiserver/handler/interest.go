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

// ---- Buyer interests (walk-in offers on a plot) ----

// ListBuyerInterestsByPlot returns the offers recorded against one plot,
// highest first.
func (h *Handler) ListBuyerInterestsByPlot(c *gin.Context) {
	interests, err := h.store.ListBuyerInterestsByPlot(c.Request.Context(), c.Param("plotId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch buyer interests"})
		return
	}
	c.JSON(http.StatusOK, interests)
}

// CreateBuyerInterest records a walk-in buyer's offer.
func (h *Handler) CreateBuyerInterest(c *gin.Context) {
	var req dto.CreateBuyerInterestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	salesperson, err := h.store.GetUserByID(c.Request.Context(), req.SalespersonID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "salesperson not found"})
		return
	}

	interest := &database.BuyerInterest{
		PlotID:          req.PlotID,
		BuyerName:       req.BuyerName,
		BuyerContact:    req.BuyerContact,
		BuyerEmail:      req.BuyerEmail,
		OfferedPrice:    req.OfferedPrice,
		SalespersonID:   salesperson.ID,
		SalespersonName: salesperson.Name,
		Notes:           req.Notes,
	}
	if err := h.store.CreateBuyerInterest(c.Request.Context(), interest); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create buyer interest"})
		return
	}

	details := fmt.Sprintf("%s interested with offer %.0f", req.BuyerName, req.OfferedPrice)
	if plot, err := h.store.GetPlot(c.Request.Context(), req.PlotID); err == nil {
		details = fmt.Sprintf("%s interested in plot %s with offer %.0f", req.BuyerName, plot.PlotNumber, req.OfferedPrice)
	}
	h.logActivity(c, "Added Buyer Interest", "plot", req.PlotID, details)
	h.publish(realtime.TopicBuyerInterestCreated, realtime.Payload{
		"buyerInterestId": interest.ID,
		"plotId":          interest.PlotID,
	})

	c.JSON(http.StatusCreated, interest)
}

// UpdateBuyerInterest revises an offer.
func (h *Handler) UpdateBuyerInterest(c *gin.Context) {
	var req dto.UpdateBuyerInterestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	interest, err := h.store.GetBuyerInterest(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "buyer interest not found"})
		return
	}

	if req.OfferedPrice > 0 {
		interest.OfferedPrice = req.OfferedPrice
	}
	if req.Notes != "" {
		interest.Notes = req.Notes
	}
	interest.UpdatedAt = time.Now()

	if err := h.store.UpdateBuyerInterest(c.Request.Context(), interest); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update buyer interest"})
		return
	}

	h.publish(realtime.TopicBuyerInterestUpdated, realtime.Payload{
		"buyerInterestId": interest.ID,
		"plotId":          interest.PlotID,
	})
	c.JSON(http.StatusOK, interest)
}

// DeleteBuyerInterest withdraws an offer.
func (h *Handler) DeleteBuyerInterest(c *gin.Context) {
	interest, err := h.store.GetBuyerInterest(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "buyer interest not found"})
		return
	}
	if err := h.store.DeleteBuyerInterest(c.Request.Context(), interest.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete buyer interest"})
		return
	}
	h.publish(realtime.TopicBuyerInterestUpdated, realtime.Payload{
		"buyerInterestId": interest.ID,
		"plotId":          interest.PlotID,
	})
	c.JSON(http.StatusOK, gin.H{"message": "buyer interest deleted"})
}

// ---- Lead interests (pipeline leads negotiating on plots) ----

// ListLeadInterests returns all lead interests.
func (h *Handler) ListLeadInterests(c *gin.Context) {
	interests, err := h.store.ListLeadInterests(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch lead interests"})
		return
	}
	c.JSON(http.StatusOK, interests)
}

// ListLeadInterestsByLead returns the interests recorded for one lead.
func (h *Handler) ListLeadInterestsByLead(c *gin.Context) {
	interests, err := h.store.ListLeadInterestsByLead(c.Request.Context(), c.Param("leadId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch lead interests"})
		return
	}
	c.JSON(http.StatusOK, interests)
}

// ListLeadInterestsByProject returns the interests recorded against one
// project.
func (h *Handler) ListLeadInterestsByProject(c *gin.Context) {
	interests, err := h.store.ListLeadInterestsByProject(c.Request.Context(), c.Param("projectId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch lead interests"})
		return
	}
	c.JSON(http.StatusOK, interests)
}

// CreateLeadInterest links a lead to the project and plots it is negotiating
// on. Salespersons may only add interests for their own leads, and every plot
// must belong to the named project.
func (h *Handler) CreateLeadInterest(c *gin.Context) {
	var req dto.CreateLeadInterestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	ctx := c.Request.Context()
	lead, err := h.store.GetLead(ctx, req.LeadID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "lead not found"})
		return
	}

	cl := claims(c)
	if cl != nil && cl.Role != "admin" && lead.AssignedTo != cl.UserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
		return
	}

	project, err := h.store.GetProject(ctx, req.ProjectID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
		return
	}

	if err := h.plotsBelongToProject(c, req.PlotIDs, req.ProjectID); err != nil {
		return
	}

	interest := &database.LeadInterest{
		LeadID:       req.LeadID,
		ProjectID:    req.ProjectID,
		PlotIDs:      req.PlotIDs,
		HighestOffer: req.HighestOffer,
		Notes:        req.Notes,
	}
	if err := h.store.CreateLeadInterest(ctx, interest); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create lead interest"})
		return
	}

	h.logActivity(c, "Added Lead Interest", "lead", req.LeadID,
		fmt.Sprintf("Added interest for %s in %s", lead.Name, project.Name))
	h.publish(realtime.TopicLeadInterestCreated, realtime.Payload{
		"leadId":    req.LeadID,
		"projectId": req.ProjectID,
		"plotIds":   req.PlotIDs,
	})

	c.JSON(http.StatusCreated, interest)
}

// UpdateLeadInterest revises an existing lead interest. Only admins may move
// an interest to a different project.
func (h *Handler) UpdateLeadInterest(c *gin.Context) {
	var req dto.UpdateLeadInterestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	ctx := c.Request.Context()
	interest, err := h.store.GetLeadInterest(ctx, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "lead interest not found"})
		return
	}

	lead, err := h.store.GetLead(ctx, interest.LeadID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "lead not found"})
		return
	}

	cl := claims(c)
	if cl != nil && cl.Role != "admin" && lead.AssignedTo != cl.UserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
		return
	}

	if req.ProjectID != "" && req.ProjectID != interest.ProjectID {
		if cl == nil || cl.Role != "admin" {
			c.JSON(http.StatusForbidden, gin.H{"error": "only admins can change project assignments"})
			return
		}
		if len(req.PlotIDs) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "plotIds must be provided when updating projectId"})
			return
		}
		if _, err := h.store.GetProject(ctx, req.ProjectID); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
			return
		}
		interest.ProjectID = req.ProjectID
	}

	if len(req.PlotIDs) > 0 {
		if err := h.plotsBelongToProject(c, req.PlotIDs, interest.ProjectID); err != nil {
			return
		}
		interest.PlotIDs = req.PlotIDs
	}
	if req.HighestOffer > 0 {
		interest.HighestOffer = req.HighestOffer
	}
	if req.Notes != "" {
		interest.Notes = req.Notes
	}
	interest.UpdatedAt = time.Now()

	if err := h.store.UpdateLeadInterest(ctx, interest); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update lead interest"})
		return
	}
	c.JSON(http.StatusOK, interest)
}

// DeleteLeadInterest removes a lead interest. Salespersons may only remove
// interests on their own leads.
func (h *Handler) DeleteLeadInterest(c *gin.Context) {
	ctx := c.Request.Context()
	interest, err := h.store.GetLeadInterest(ctx, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "lead interest not found"})
		return
	}

	lead, err := h.store.GetLead(ctx, interest.LeadID)
	if err == nil {
		cl := claims(c)
		if cl != nil && cl.Role != "admin" && lead.AssignedTo != cl.UserID {
			c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}
	}

	if err := h.store.DeleteLeadInterest(ctx, interest.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete lead interest"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "lead interest deleted"})
}

// plotsBelongToProject verifies every plot exists and belongs to projectID.
// On failure it writes the error response and returns a non-nil error.
func (h *Handler) plotsBelongToProject(c *gin.Context, plotIDs []string, projectID string) error {
	for _, plotID := range plotIDs {
		plot, err := h.store.GetPlot(c.Request.Context(), plotID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "one or more plots not found"})
			return err
		}
		if plot.ProjectID != projectID {
			c.JSON(http.StatusBadRequest, gin.H{"error": "all plots must belong to the specified project"})
			return fmt.Errorf("plot %s not in project %s", plotID, projectID)
		}
	}
	return nil
}
