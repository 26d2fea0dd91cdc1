package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/plotdesk/plotdesk/internal/apiserver/database"
	"github.com/plotdesk/plotdesk/internal/common/dto"
	"github.com/plotdesk/plotdesk/internal/realtime"
)

// CreateCallLog records a call against a lead. The call outcome drives the
// lead's pipeline status, and a next follow-up date reschedules the lead.
func (h *Handler) CreateCallLog(c *gin.Context) {
	var req dto.CreateCallLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	cl := claims(c)
	if cl == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	ctx := c.Request.Context()
	lead, err := h.store.GetLead(ctx, req.LeadID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "lead not found"})
		return
	}

	callLog := &database.CallLog{
		LeadID:           req.LeadID,
		SalespersonID:    cl.UserID,
		SalespersonName:  cl.Name,
		CallStatus:       req.CallStatus,
		CallDuration:     req.CallDuration,
		Notes:            req.Notes,
		NextFollowUpDate: req.NextFollowUpDate,
	}
	if err := h.store.CreateCallLog(ctx, callLog); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create call log"})
		return
	}

	switch req.CallStatus {
	case "Called - Answered":
		lead.Status = database.LeadStatusContacted
	case "Interested", "Meeting Scheduled":
		lead.Status = database.LeadStatusInterested
	}
	if req.NextFollowUpDate != nil {
		lead.FollowUpDate = req.NextFollowUpDate
	}
	if err := h.store.UpdateLead(ctx, lead); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update lead"})
		return
	}

	h.logActivity(c, "Call Logged", "lead", req.LeadID,
		fmt.Sprintf("%s - %s", req.CallStatus, lead.Name))

	h.publish(realtime.TopicCallLogCreated, realtime.Payload{
		"callLogId":     callLog.ID,
		"leadId":        req.LeadID,
		"salespersonId": cl.UserID,
		"callStatus":    req.CallStatus,
	})
	h.publish(realtime.TopicMetricsUpdated, realtime.Payload{
		"salespersonId": cl.UserID,
	})

	c.JSON(http.StatusCreated, callLog)
}

// CallLogsByLead returns the call history for one lead, newest first.
func (h *Handler) CallLogsByLead(c *gin.Context) {
	logs, err := h.store.ListCallLogsByLead(c.Request.Context(), c.Param("leadId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch call logs"})
		return
	}
	c.JSON(http.StatusOK, logs)
}

// CallLogsBySalesperson returns one salesperson's call history.
func (h *Handler) CallLogsBySalesperson(c *gin.Context) {
	logs, err := h.store.ListCallLogsBySalesperson(c.Request.Context(), c.Param("salespersonId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch call logs"})
		return
	}
	c.JSON(http.StatusOK, logs)
}

// AllCallLogs returns the full call history. Admin only.
func (h *Handler) AllCallLogs(c *gin.Context) {
	logs, err := h.store.ListCallLogs(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch call logs"})
		return
	}
	c.JSON(http.StatusOK, logs)
}
