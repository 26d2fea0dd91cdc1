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

// CreatePayment records a booking payment. The plot moves to Booked (Sold
// for a full payment) and the lead moves to Booked. Envelopes go out only
// after every write succeeded.
func (h *Handler) CreatePayment(c *gin.Context) {
	var req dto.CreatePaymentRequest
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
	plot, err := h.store.GetPlot(ctx, req.PlotID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "plot not found"})
		return
	}

	payment := &database.Payment{
		LeadID:        req.LeadID,
		PlotID:        req.PlotID,
		Amount:        req.Amount,
		Mode:          req.Mode,
		BookingType:   req.BookingType,
		TransactionID: req.TransactionID,
		Notes:         req.Notes,
	}
	if err := h.store.CreatePayment(ctx, payment); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create payment"})
		return
	}

	plot.Status = database.PlotStatusBooked
	if req.BookingType == database.BookingTypeFull {
		plot.Status = database.PlotStatusSold
	}
	plot.BookedBy = req.LeadID
	plot.UpdatedAt = time.Now()
	if err := h.store.UpdatePlot(ctx, plot); err != nil {
		h.logger.Error("payment recorded but plot update failed",
			zap.String("paymentId", payment.ID), zap.Error(err))
	}

	lead.Status = database.LeadStatusBooked
	if err := h.store.UpdateLead(ctx, lead); err != nil {
		h.logger.Error("payment recorded but lead update failed",
			zap.String("paymentId", payment.ID), zap.Error(err))
	}

	h.logActivity(c, "Created Booking", "payment", payment.ID,
		fmt.Sprintf("Booked plot %s for %s - %.0f", plot.PlotNumber, lead.Name, req.Amount))

	h.publish(realtime.TopicPaymentCreated, realtime.Payload{
		"paymentId": payment.ID,
		"leadId":    req.LeadID,
		"plotId":    req.PlotID,
	})
	h.publish(realtime.TopicPlotUpdated, realtime.Payload{"plotId": req.PlotID})
	h.publish(realtime.TopicMetricsUpdated, realtime.Payload{})

	c.JSON(http.StatusCreated, payment)
}

// ListPayments returns every recorded payment.
func (h *Handler) ListPayments(c *gin.Context) {
	payments, err := h.store.ListPayments(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch payments"})
		return
	}
	c.JSON(http.StatusOK, payments)
}

// ListPaymentsByLead returns the payments recorded against one lead.
func (h *Handler) ListPaymentsByLead(c *gin.Context) {
	payments, err := h.store.ListPaymentsByLead(c.Request.Context(), c.Param("leadId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch payments"})
		return
	}
	c.JSON(http.StatusOK, payments)
}
