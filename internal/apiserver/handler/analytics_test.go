package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plotdesk/plotdesk/internal/apiserver/database"
	"github.com/plotdesk/plotdesk/internal/common/dto"
)

func TestLeadSourceAnalysis(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedUser(t, "Admin", "admin@plotdesk.local", "secret123", database.RoleAdmin)

	for _, src := range []string{"Walk-in", "Walk-in", "Referral"} {
		lead := &database.Lead{Name: "L", Phone: "9", Source: src, Status: database.LeadStatusNew}
		require.NoError(t, env.store.CreateLead(t.Context(), lead))
	}
	booked := &database.Lead{Name: "B", Phone: "9", Source: "Walk-in", Status: database.LeadStatusBooked}
	require.NoError(t, env.store.CreateLead(t.Context(), booked))

	router := gin.New()
	router.GET("/api/analytics/lead-source-analysis", asUser(admin), env.handler.LeadSourceAnalysis)

	w := performJSON(router, http.MethodGet, "/api/analytics/lead-source-analysis", nil)
	require.Equal(t, http.StatusOK, w.Code)

	result := decodeBody[[]dto.SourcePerformance](t, w)
	require.Len(t, result, 2)
	// Sorted by lead count, Walk-in first.
	assert.Equal(t, "Walk-in", result[0].Source)
	assert.Equal(t, int64(3), result[0].TotalLeads)
	assert.Equal(t, int64(1), result[0].Conversions)
	assert.Equal(t, "33.33", result[0].ConversionRate)
}

func TestPlotCategoryPerformance(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedUser(t, "Admin", "admin@plotdesk.local", "secret123", database.RoleAdmin)
	project, _ := env.seedProjectWithPlot(t)

	sold := &database.Plot{ProjectID: project.ID, PlotNumber: "A-2", Price: 2000000, Status: database.PlotStatusSold, Category: "Residential"}
	require.NoError(t, env.store.CreatePlot(t.Context(), sold))

	router := gin.New()
	router.GET("/api/analytics/plot-category-performance", asUser(admin), env.handler.PlotCategoryPerformance)

	w := performJSON(router, http.MethodGet, "/api/analytics/plot-category-performance", nil)
	require.Equal(t, http.StatusOK, w.Code)

	result := decodeBody[[]dto.CategoryPerformance](t, w)
	require.Len(t, result, 1)
	assert.Equal(t, "Residential", result[0].Category)
	assert.Equal(t, int64(2), result[0].TotalPlots)
	assert.Equal(t, int64(1), result[0].Available)
	assert.Equal(t, int64(1), result[0].Sold)
	assert.Equal(t, "50.00", result[0].OccupancyRate)
}

func TestAnalyticsOverview(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedUser(t, "Admin", "admin@plotdesk.local", "secret123", database.RoleAdmin)
	env.seedUser(t, "Ravi", "ravi@plotdesk.local", "secret123", database.RoleSalesperson)
	_, plot := env.seedProjectWithPlot(t)

	booked := env.seedLead(t, "Booked", "")
	booked.Status = database.LeadStatusBooked
	require.NoError(t, env.store.UpdateLead(t.Context(), booked))
	env.seedLead(t, "Active", "")

	require.NoError(t, env.store.CreatePayment(t.Context(), &database.Payment{
		LeadID: booked.ID, PlotID: plot.ID, Amount: 300000, BookingType: database.BookingTypeToken,
	}))

	router := gin.New()
	router.GET("/api/analytics/overview", asUser(admin), env.handler.AnalyticsOverview)

	w := performJSON(router, http.MethodGet, "/api/analytics/overview", nil)
	require.Equal(t, http.StatusOK, w.Code)

	overview := decodeBody[dto.AnalyticsOverview](t, w)
	assert.Equal(t, int64(2), overview.TotalLeads)
	assert.Equal(t, int64(1), overview.ConvertedLeads)
	assert.Equal(t, "50.00", overview.ConversionRate)
	assert.Equal(t, int64(1), overview.TotalSalespersons)
	assert.Equal(t, 300000.0, overview.TotalRevenue)
	assert.Equal(t, int64(1), overview.TotalBookings)
}
