package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/plotdesk/plotdesk/internal/apiserver/database"
	"github.com/plotdesk/plotdesk/internal/common/dto"
)

func dayBounds(now time.Time) (time.Time, time.Time) {
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return start, start.Add(24*time.Hour - time.Nanosecond)
}

// AdminDashboard returns the company-wide summary. Admin only. Served from
// the query cache under the request path, so any envelope whose routing
// targets include /api/dashboard refreshes it.
func (h *Handler) AdminDashboard(c *gin.Context) {
	h.respondCached(c, "/api/dashboard/admin", func(ctx context.Context) (any, error) {
		leads, err := h.store.ListLeads(ctx, "")
		if err != nil {
			return nil, err
		}
		projects, err := h.store.ListProjects(ctx)
		if err != nil {
			return nil, err
		}
		plots, err := h.store.ListPlots(ctx)
		if err != nil {
			return nil, err
		}
		revenue, err := h.store.SumPayments(ctx)
		if err != nil {
			return nil, err
		}

		dayStart, dayEnd := dayBounds(time.Now())
		stats := dto.DashboardStats{
			TotalProjects: int64(len(projects)),
			TotalPlots:    int64(len(plots)),
			TotalRevenue:  revenue,
		}
		for _, lead := range leads {
			stats.TotalLeads++
			switch lead.Status {
			case database.LeadStatusBooked:
				stats.ConvertedLeads++
			case database.LeadStatusLost:
				stats.LostLeads++
			}
			if lead.AssignedTo == "" {
				stats.UnassignedLeads++
			}
			if lead.FollowUpDate != nil && !lead.FollowUpDate.Before(dayStart) && !lead.FollowUpDate.After(dayEnd) {
				stats.TodayFollowUps++
			}
		}
		for _, plot := range plots {
			switch plot.Status {
			case database.PlotStatusAvailable:
				stats.AvailablePlots++
			case database.PlotStatusBooked, database.PlotStatusSold:
				stats.BookedPlots++
			}
		}
		return stats, nil
	})
}

// SalespersonDashboard returns the caller's personal summary.
func (h *Handler) SalespersonDashboard(c *gin.Context) {
	cl := claims(c)
	if cl == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	h.respondCached(c, "/api/dashboard/salesperson/"+cl.UserID, func(ctx context.Context) (any, error) {
		leads, err := h.store.ListLeads(ctx, cl.UserID)
		if err != nil {
			return nil, err
		}

		dayStart, dayEnd := dayBounds(time.Now())
		stats := dto.SalespersonStats{AssignedLeads: int64(len(leads))}
		for _, lead := range leads {
			if lead.FollowUpDate != nil && !lead.FollowUpDate.Before(dayStart) && !lead.FollowUpDate.After(dayEnd) {
				stats.TodayFollowUps++
			}
			if lead.Status == database.LeadStatusBooked {
				stats.ConvertedLeads++
				payments, err := h.store.ListPaymentsByLead(ctx, lead.ID)
				if err != nil {
					return nil, err
				}
				for _, p := range payments {
					stats.TotalRevenue += p.Amount
				}
			}
		}
		return stats, nil
	})
}
