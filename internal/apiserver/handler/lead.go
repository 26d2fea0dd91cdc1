package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/plotdesk/plotdesk/internal/apiserver/database"
	"github.com/plotdesk/plotdesk/internal/common/dto"
	"github.com/plotdesk/plotdesk/internal/realtime"
)

// ListLeads returns the pipeline. Every authenticated user sees all leads;
// ownership only matters for edits and transfers.
func (h *Handler) ListLeads(c *gin.Context) {
	leads, err := h.store.ListLeads(c.Request.Context(), "")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch leads"})
		return
	}
	c.JSON(http.StatusOK, leads)
}

// GetLead returns a single lead.
func (h *Handler) GetLead(c *gin.Context) {
	lead, err := h.store.GetLead(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "lead not found"})
		return
	}
	c.JSON(http.StatusOK, lead)
}

// TodayFollowUps returns leads with a follow-up scheduled today. Admins see
// everyone's, salespersons only their own.
func (h *Handler) TodayFollowUps(c *gin.Context) {
	cl := claims(c)
	assignedTo := ""
	if cl != nil && cl.Role != "admin" {
		assignedTo = cl.UserID
	}

	now := time.Now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	end := start.Add(24*time.Hour - time.Nanosecond)

	leads, err := h.store.ListLeadsWithFollowUpBetween(c.Request.Context(), start, end, assignedTo)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch follow-ups"})
		return
	}
	c.JSON(http.StatusOK, leads)
}

// MissedFollowUps returns the caller's leads whose follow-up date has passed
// and that are still in play.
func (h *Handler) MissedFollowUps(c *gin.Context) {
	cl := claims(c)
	if cl == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	leads, err := h.store.ListLeadsWithFollowUpBetween(c.Request.Context(), time.Time{}, time.Now(), cl.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch missed follow-ups"})
		return
	}

	missed := make([]*database.Lead, 0, len(leads))
	for _, lead := range leads {
		if lead.Status != database.LeadStatusBooked && lead.Status != database.LeadStatusLost {
			missed = append(missed, lead)
		}
	}
	c.JSON(http.StatusOK, missed)
}

// ContactedLeads returns recently contacted leads, role-scoped.
func (h *Handler) ContactedLeads(c *gin.Context) {
	cl := claims(c)
	assignedTo := ""
	if cl != nil && cl.Role != "admin" {
		assignedTo = cl.UserID
	}

	leads, err := h.store.ListLeadsByStatus(c.Request.Context(), []string{database.LeadStatusContacted}, assignedTo)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch contacted leads"})
		return
	}
	c.JSON(http.StatusOK, leads)
}

// CreateLead adds a lead to the pipeline. A salesperson creating a lead
// without an explicit assignee gets it assigned to themselves. When project
// and plots are supplied the matching lead interest is created alongside.
func (h *Handler) CreateLead(c *gin.Context) {
	var req dto.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	cl := claims(c)
	assignedTo := req.AssignedTo
	if assignedTo == "" && cl != nil && cl.Role == "salesperson" {
		assignedTo = cl.UserID
	}

	status := req.Status
	if status == "" {
		status = database.LeadStatusNew
	}

	lead := &database.Lead{
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		Source:         req.Source,
		Status:         status,
		Rating:         req.Rating,
		Classification: req.Classification,
		AssignedTo:     assignedTo,
		FollowUpDate:   req.FollowUpDate,
		Notes:          req.Notes,
		ProjectID:      req.ProjectID,
		PlotIDs:        req.PlotIDs,
		HighestOffer:   req.HighestOffer,
	}
	if err := h.store.CreateLead(c.Request.Context(), lead); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create lead"})
		return
	}

	if req.ProjectID != "" && len(req.PlotIDs) > 0 {
		interest := &database.LeadInterest{
			LeadID:       lead.ID,
			ProjectID:    req.ProjectID,
			PlotIDs:      req.PlotIDs,
			HighestOffer: req.HighestOffer,
			Notes:        "Initial interest from lead creation",
		}
		if err := h.store.CreateLeadInterest(c.Request.Context(), interest); err != nil {
			h.logger.Warn("failed to create lead interest", zap.Error(err))
		} else {
			h.publish(realtime.TopicLeadInterestCreated, realtime.Payload{
				"leadId":    lead.ID,
				"projectId": req.ProjectID,
				"plotIds":   req.PlotIDs,
			})
		}
	}

	h.logActivity(c, "Created Lead", "lead", lead.ID, fmt.Sprintf("Created lead for %s", lead.Name))
	h.publish(realtime.TopicLeadCreated, realtime.Payload{
		"leadId":     lead.ID,
		"assignedTo": lead.AssignedTo,
	})

	c.JSON(http.StatusCreated, lead)
}

// AssignLead assigns a lead to a salesperson. Admin only.
func (h *Handler) AssignLead(c *gin.Context) {
	var req dto.AssignLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	lead, err := h.store.GetLead(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "lead not found"})
		return
	}

	cl := claims(c)
	lead.AssignedTo = req.SalespersonID
	if cl != nil {
		lead.AssignedBy = cl.UserID
	}
	if err := h.store.UpdateLead(c.Request.Context(), lead); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to assign lead"})
		return
	}

	details := fmt.Sprintf("Assigned lead %s", lead.Name)
	if sp, err := h.store.GetUserByID(c.Request.Context(), req.SalespersonID); err == nil {
		details = fmt.Sprintf("Assigned lead %s to %s", lead.Name, sp.Name)
	}
	h.logActivity(c, "Assigned Lead", "lead", lead.ID, details)
	h.publish(realtime.TopicLeadAssigned, realtime.Payload{
		"leadId":        lead.ID,
		"salespersonId": req.SalespersonID,
	})

	c.JSON(http.StatusOK, lead)
}

// TransferLead moves a lead between salespersons. A salesperson may only
// transfer leads assigned to them; admins may transfer any lead.
func (h *Handler) TransferLead(c *gin.Context) {
	var req dto.AssignLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	lead, err := h.store.GetLead(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "lead not found"})
		return
	}

	cl := claims(c)
	if cl != nil && cl.Role == "salesperson" && lead.AssignedTo != cl.UserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "you can only transfer leads assigned to you"})
		return
	}

	lead.AssignedTo = req.SalespersonID
	if cl != nil {
		lead.AssignedBy = cl.UserID
	}
	if err := h.store.UpdateLead(c.Request.Context(), lead); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to transfer lead"})
		return
	}

	details := fmt.Sprintf("Transferred lead %s", lead.Name)
	if sp, err := h.store.GetUserByID(c.Request.Context(), req.SalespersonID); err == nil {
		details = fmt.Sprintf("Transferred lead %s to %s", lead.Name, sp.Name)
	}
	h.logActivity(c, "Transferred Lead", "lead", lead.ID, details)
	h.publish(realtime.TopicLeadAssigned, realtime.Payload{
		"leadId":        lead.ID,
		"salespersonId": req.SalespersonID,
	})

	c.JSON(http.StatusOK, lead)
}

// UpdateLead edits a lead. Project and plot selections keep the matching
// lead interest in sync: present means upsert, absent means the interests
// for this lead are removed so stale demand never shows in overviews.
func (h *Handler) UpdateLead(c *gin.Context) {
	var req dto.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	lead, err := h.store.GetLead(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "lead not found"})
		return
	}

	cl := claims(c)
	assignedTo := req.AssignedTo
	if assignedTo == "" {
		assignedTo = lead.AssignedTo
		if assignedTo == "" && cl != nil && cl.Role == "salesperson" {
			assignedTo = cl.UserID
		}
	}

	lead.Name = req.Name
	lead.Email = req.Email
	lead.Phone = req.Phone
	lead.Source = req.Source
	if req.Status != "" {
		lead.Status = req.Status
	}
	lead.Rating = req.Rating
	lead.Classification = req.Classification
	lead.AssignedTo = assignedTo
	lead.FollowUpDate = req.FollowUpDate
	lead.Notes = req.Notes
	lead.ProjectID = req.ProjectID
	lead.PlotIDs = req.PlotIDs
	lead.HighestOffer = req.HighestOffer

	if err := h.store.UpdateLead(c.Request.Context(), lead); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update lead"})
		return
	}

	if err := h.syncLeadInterest(c, lead, &req); err != nil {
		h.logger.Warn("failed to sync lead interest", zap.Error(err))
	}

	h.logActivity(c, "Updated Lead", "lead", lead.ID, fmt.Sprintf("Updated lead %s", lead.Name))
	h.publish(realtime.TopicLeadUpdated, realtime.Payload{
		"leadId":     lead.ID,
		"assignedTo": lead.AssignedTo,
	})

	c.JSON(http.StatusOK, lead)
}

func (h *Handler) syncLeadInterest(c *gin.Context, lead *database.Lead, req *dto.CreateLeadRequest) error {
	ctx := c.Request.Context()
	interests, err := h.store.ListLeadInterestsByLead(ctx, lead.ID)
	if err != nil {
		return err
	}

	if req.ProjectID == "" || len(req.PlotIDs) == 0 {
		// Project cleared or plots emptied: drop every interest for this lead.
		for _, interest := range interests {
			if err := h.store.DeleteLeadInterest(ctx, interest.ID); err != nil {
				return err
			}
		}
		return nil
	}

	for _, interest := range interests {
		if interest.ProjectID == req.ProjectID {
			interest.PlotIDs = req.PlotIDs
			interest.HighestOffer = req.HighestOffer
			interest.Notes = "Updated from lead edit"
			return h.store.UpdateLeadInterest(ctx, interest)
		}
	}

	interest := &database.LeadInterest{
		LeadID:       lead.ID,
		ProjectID:    req.ProjectID,
		PlotIDs:      req.PlotIDs,
		HighestOffer: req.HighestOffer,
		Notes:        "Added from lead edit",
	}
	if err := h.store.CreateLeadInterest(ctx, interest); err != nil {
		return err
	}
	h.publish(realtime.TopicLeadInterestCreated, realtime.Payload{
		"leadId":    lead.ID,
		"projectId": req.ProjectID,
		"plotIds":   req.PlotIDs,
	})
	return nil
}

// DeleteLead removes a lead from the pipeline.
func (h *Handler) DeleteLead(c *gin.Context) {
	id := c.Param("id")
	if err := h.store.DeleteLead(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete lead"})
		return
	}
	h.publish(realtime.TopicLeadDeleted, realtime.Payload{"leadId": id})
	c.JSON(http.StatusOK, gin.H{"message": "lead deleted"})
}
