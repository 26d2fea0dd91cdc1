package handler

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/plotdesk/plotdesk/internal/apiserver/database"
	"github.com/plotdesk/plotdesk/internal/common/dto"
)

// analyticsRange reads the optional startDate/endDate query parameters
// (RFC 3339 dates). The default window is the current month to date.
func analyticsRange(c *gin.Context) (time.Time, time.Time) {
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	_, end := dayBounds(now)

	if v := c.Query("startDate"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			start = t
		}
	}
	if v := c.Query("endDate"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			_, end = dayBounds(t)
		}
	}
	return start, end
}

func within(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}

func rate(part, whole int64) string {
	if whole == 0 {
		return "0.00"
	}
	return fmt.Sprintf("%.2f", float64(part)/float64(whole)*100)
}

// AnalyticsOverview returns the company-wide summary for a date range.
// Admin only.
func (h *Handler) AnalyticsOverview(c *gin.Context) {
	start, end := analyticsRange(c)
	key := fmt.Sprintf("/api/analytics/overview/%s/%s", start.Format("2006-01-02"), end.Format("2006-01-02"))

	h.respondCached(c, key, func(ctx context.Context) (any, error) {
		leads, err := h.store.ListLeads(ctx, "")
		if err != nil {
			return nil, err
		}
		salespersons, err := h.store.ListSalespersons(ctx)
		if err != nil {
			return nil, err
		}
		payments, err := h.store.ListPayments(ctx)
		if err != nil {
			return nil, err
		}
		buyerInterests, err := h.store.ListBuyerInterests(ctx)
		if err != nil {
			return nil, err
		}
		leadInterests, err := h.store.ListLeadInterests(ctx)
		if err != nil {
			return nil, err
		}

		overview := dto.AnalyticsOverview{TotalSalespersons: int64(len(salespersons))}
		for _, lead := range leads {
			if !within(lead.CreatedAt, start, end) {
				continue
			}
			overview.TotalLeads++
			if lead.Status == database.LeadStatusBooked {
				overview.ConvertedLeads++
			}
		}
		for _, p := range payments {
			if within(p.CreatedAt, start, end) {
				overview.TotalBookings++
				overview.TotalRevenue += p.Amount
			}
		}
		for _, bi := range buyerInterests {
			if within(bi.CreatedAt, start, end) {
				overview.TotalBuyerInterests++
			}
		}
		for _, li := range leadInterests {
			if within(li.CreatedAt, start, end) {
				overview.TotalBuyerInterests++
			}
		}
		overview.ConversionRate = rate(overview.ConvertedLeads, overview.TotalLeads)
		overview.ActiveLeads = overview.TotalLeads - overview.ConvertedLeads
		return overview, nil
	})
}

// SalespersonPerformance aggregates each salesperson's pipeline activity for
// a date range. Admin only.
func (h *Handler) SalespersonPerformance(c *gin.Context) {
	start, end := analyticsRange(c)
	key := fmt.Sprintf("/api/analytics/salesperson-performance/%s/%s", start.Format("2006-01-02"), end.Format("2006-01-02"))

	h.respondCached(c, key, func(ctx context.Context) (any, error) {
		salespersons, err := h.store.ListSalespersons(ctx)
		if err != nil {
			return nil, err
		}

		performance := make([]dto.SalespersonPerformance, 0, len(salespersons))
		for _, sp := range salespersons {
			leads, err := h.store.ListLeads(ctx, sp.ID)
			if err != nil {
				return nil, err
			}
			callLogs, err := h.store.ListCallLogsBySalesperson(ctx, sp.ID)
			if err != nil {
				return nil, err
			}

			perf := dto.SalespersonPerformance{
				SalespersonID: sp.ID,
				Name:          sp.Name,
				Email:         sp.Email,
			}
			for _, lead := range leads {
				if within(lead.CreatedAt, start, end) {
					perf.LeadsAssigned++
				}
				switch lead.Status {
				case database.LeadStatusBooked:
					if within(lead.UpdatedAt, start, end) {
						perf.Conversions++
					}
					payments, err := h.store.ListPaymentsByLead(ctx, lead.ID)
					if err != nil {
						return nil, err
					}
					for _, p := range payments {
						if within(p.CreatedAt, start, end) {
							perf.Revenue += p.Amount
						}
					}
				case database.LeadStatusContacted:
					perf.Contacted++
				case database.LeadStatusInterested:
					perf.Interested++
				case database.LeadStatusSiteVisit:
					perf.SiteVisits++
				case database.LeadStatusLost:
					perf.Lost++
				}
			}
			for _, log := range callLogs {
				if within(log.CreatedAt, start, end) {
					perf.CallsLogged++
					perf.TotalContacts++
				}
			}
			perf.ConversionRate = rate(perf.Conversions, perf.LeadsAssigned)
			performance = append(performance, perf)
		}

		sort.Slice(performance, func(i, j int) bool {
			return performance[i].Revenue > performance[j].Revenue
		})
		return performance, nil
	})
}

// DailyMetrics returns per-day pipeline activity for the trailing N days
// (default 30). Admin only.
func (h *Handler) DailyMetrics(c *gin.Context) {
	days := 30
	if v := c.Query("days"); v != "" {
		if n, err := parsePositive(v, 365); err == nil {
			days = n
		}
	}
	key := fmt.Sprintf("/api/analytics/daily-metrics/%d", days)

	h.respondCached(c, key, func(ctx context.Context) (any, error) {
		leads, err := h.store.ListLeads(ctx, "")
		if err != nil {
			return nil, err
		}
		payments, err := h.store.ListPayments(ctx)
		if err != nil {
			return nil, err
		}
		buyerInterests, err := h.store.ListBuyerInterests(ctx)
		if err != nil {
			return nil, err
		}
		leadInterests, err := h.store.ListLeadInterests(ctx)
		if err != nil {
			return nil, err
		}

		dayStart, _ := dayBounds(time.Now())
		metrics := make([]dto.DailyMetric, 0, days)
		for i := days - 1; i >= 0; i-- {
			start := dayStart.AddDate(0, 0, -i)
			end := start.Add(24*time.Hour - time.Nanosecond)
			m := dto.DailyMetric{Date: start.Format("2006-01-02")}

			for _, lead := range leads {
				if within(lead.CreatedAt, start, end) {
					m.LeadsCreated++
				}
				if lead.Status == database.LeadStatusBooked && within(lead.UpdatedAt, start, end) {
					m.Conversions++
				}
			}
			for _, p := range payments {
				if within(p.CreatedAt, start, end) {
					m.Bookings++
				}
			}
			for _, bi := range buyerInterests {
				if within(bi.CreatedAt, start, end) {
					m.BuyerInterests++
				}
			}
			for _, li := range leadInterests {
				if within(li.CreatedAt, start, end) {
					m.BuyerInterests++
				}
			}
			metrics = append(metrics, m)
		}
		return metrics, nil
	})
}

// MonthlyMetrics returns per-month pipeline activity for the trailing N
// months (default 12). Admin only.
func (h *Handler) MonthlyMetrics(c *gin.Context) {
	months := 12
	if v := c.Query("months"); v != "" {
		if n, err := parsePositive(v, 60); err == nil {
			months = n
		}
	}
	key := fmt.Sprintf("/api/analytics/monthly-metrics/%d", months)

	h.respondCached(c, key, func(ctx context.Context) (any, error) {
		leads, err := h.store.ListLeads(ctx, "")
		if err != nil {
			return nil, err
		}
		payments, err := h.store.ListPayments(ctx)
		if err != nil {
			return nil, err
		}

		now := time.Now()
		metrics := make([]dto.MonthlyMetric, 0, months)
		for i := months - 1; i >= 0; i-- {
			start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -i, 0)
			end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)
			m := dto.MonthlyMetric{Month: start.Format("Jan 2006")}

			for _, lead := range leads {
				if within(lead.CreatedAt, start, end) {
					m.LeadsCreated++
				}
				if lead.Status == database.LeadStatusBooked && within(lead.UpdatedAt, start, end) {
					m.Conversions++
				}
			}
			for _, p := range payments {
				if within(p.CreatedAt, start, end) {
					m.Revenue += p.Amount
				}
			}
			metrics = append(metrics, m)
		}
		return metrics, nil
	})
}

// LeadSourceAnalysis groups leads by acquisition source for a date range.
// Admin only.
func (h *Handler) LeadSourceAnalysis(c *gin.Context) {
	start, end := analyticsRange(c)
	key := fmt.Sprintf("/api/analytics/lead-source-analysis/%s/%s", start.Format("2006-01-02"), end.Format("2006-01-02"))

	h.respondCached(c, key, func(ctx context.Context) (any, error) {
		leads, err := h.store.ListLeads(ctx, "")
		if err != nil {
			return nil, err
		}

		bySource := make(map[string]*dto.SourcePerformance)
		for _, lead := range leads {
			if !within(lead.CreatedAt, start, end) {
				continue
			}
			sp, ok := bySource[lead.Source]
			if !ok {
				sp = &dto.SourcePerformance{Source: lead.Source}
				bySource[lead.Source] = sp
			}
			sp.TotalLeads++
			if lead.Status == database.LeadStatusBooked {
				sp.Conversions++
			}
		}

		result := make([]dto.SourcePerformance, 0, len(bySource))
		for _, sp := range bySource {
			sp.ConversionRate = rate(sp.Conversions, sp.TotalLeads)
			result = append(result, *sp)
		}
		sort.Slice(result, func(i, j int) bool { return result[i].TotalLeads > result[j].TotalLeads })
		return result, nil
	})
}

// PlotCategoryPerformance groups the inventory by category. Admin only.
func (h *Handler) PlotCategoryPerformance(c *gin.Context) {
	h.respondCached(c, "/api/analytics/plot-category-performance", func(ctx context.Context) (any, error) {
		plots, err := h.store.ListPlots(ctx)
		if err != nil {
			return nil, err
		}

		byCategory := make(map[string]*dto.CategoryPerformance)
		priceSum := make(map[string]float64)
		for _, plot := range plots {
			cp, ok := byCategory[plot.Category]
			if !ok {
				cp = &dto.CategoryPerformance{Category: plot.Category}
				byCategory[plot.Category] = cp
			}
			cp.TotalPlots++
			priceSum[plot.Category] += plot.Price
			switch plot.Status {
			case database.PlotStatusAvailable:
				cp.Available++
			case database.PlotStatusBooked:
				cp.Booked++
			case database.PlotStatusSold:
				cp.Sold++
			}
		}

		result := make([]dto.CategoryPerformance, 0, len(byCategory))
		for category, cp := range byCategory {
			cp.AvgPrice = priceSum[category] / float64(cp.TotalPlots)
			cp.OccupancyRate = rate(cp.Booked+cp.Sold, cp.TotalPlots)
			result = append(result, *cp)
		}
		sort.Slice(result, func(i, j int) bool { return result[i].TotalPlots > result[j].TotalPlots })
		return result, nil
	})
}

// ActivityTimeline returns the audit trail, optionally filtered by
// salesperson. Admin only.
func (h *Handler) ActivityTimeline(c *gin.Context) {
	limit := 50
	if v := c.Query("limit"); v != "" {
		if n, err := parsePositive(v, 500); err == nil {
			limit = n
		}
	}

	activities, err := h.store.ListActivityLogs(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch activity timeline"})
		return
	}

	if salespersonID := c.Query("salespersonId"); salespersonID != "" {
		filtered := make([]*database.ActivityLog, 0, len(activities))
		for _, a := range activities {
			if a.UserID == salespersonID {
				filtered = append(filtered, a)
			}
		}
		activities = filtered
	}
	c.JSON(http.StatusOK, activities)
}

// CustomerContacts returns every lead assigned to one salesperson. Admin
// only.
func (h *Handler) CustomerContacts(c *gin.Context) {
	leads, err := h.store.ListLeads(c.Request.Context(), c.Param("salespersonId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch customer contacts"})
		return
	}
	c.JSON(http.StatusOK, leads)
}

func parsePositive(s string, upper int) (int, error) {
	var n int
	if _, err := fmt.Sscanf(s, "%d", &n); err != nil {
		return 0, err
	}
	if n <= 0 || n > upper {
		return 0, fmt.Errorf("out of range: %d", n)
	}
	return n, nil
}
