package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plotdesk/plotdesk/internal/apiserver/database"
	"github.com/plotdesk/plotdesk/internal/common/dto"
	"github.com/plotdesk/plotdesk/internal/realtime"
)

func TestCreateBuyerInterest_PublishesAndStampsSalesperson(t *testing.T) {
	env := newTestEnv(t)
	sales := env.seedUser(t, "Ravi", "ravi@plotdesk.local", "secret123", database.RoleSalesperson)
	_, plot := env.seedProjectWithPlot(t)

	router := gin.New()
	router.POST("/api/buyer-interests", asUser(sales), env.handler.CreateBuyerInterest)

	w := performJSON(router, http.MethodPost, "/api/buyer-interests", dto.CreateBuyerInterestRequest{
		PlotID:        plot.ID,
		BuyerName:     "Walk-in",
		BuyerContact:  "9000000003",
		OfferedPrice:  1300000,
		SalespersonID: sales.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	interest := decodeBody[database.BuyerInterest](t, w)
	assert.Equal(t, "Ravi", interest.SalespersonName)
	assert.True(t, env.recorder.contains(realtime.TopicBuyerInterestCreated))
}

func TestCreateLeadInterest_RejectsPlotFromAnotherProject(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedUser(t, "Admin", "admin@plotdesk.local", "secret123", database.RoleAdmin)
	project, _ := env.seedProjectWithPlot(t)
	lead := env.seedLead(t, "Buyer", "")

	otherProject := &database.Project{Name: "Lake View", Location: "Nashik"}
	require.NoError(t, env.store.CreateProject(t.Context(), otherProject))
	foreignPlot := &database.Plot{ProjectID: otherProject.ID, PlotNumber: "B-1", Status: database.PlotStatusAvailable}
	require.NoError(t, env.store.CreatePlot(t.Context(), foreignPlot))

	router := gin.New()
	router.POST("/api/lead-interests", asUser(admin), env.handler.CreateLeadInterest)

	w := performJSON(router, http.MethodPost, "/api/lead-interests", dto.CreateLeadInterestRequest{
		LeadID:    lead.ID,
		ProjectID: project.ID,
		PlotIDs:   []string{foreignPlot.ID},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.recorder.contains(realtime.TopicLeadInterestCreated))
}

func TestCreateLeadInterest_SalespersonNeedsOwnership(t *testing.T) {
	env := newTestEnv(t)
	owner := env.seedUser(t, "Owner", "owner@plotdesk.local", "secret123", database.RoleSalesperson)
	other := env.seedUser(t, "Other", "other@plotdesk.local", "secret123", database.RoleSalesperson)
	project, plot := env.seedProjectWithPlot(t)
	lead := env.seedLead(t, "Buyer", owner.ID)

	router := gin.New()
	router.POST("/api/lead-interests", asUser(other), env.handler.CreateLeadInterest)

	w := performJSON(router, http.MethodPost, "/api/lead-interests", dto.CreateLeadInterestRequest{
		LeadID:    lead.ID,
		ProjectID: project.ID,
		PlotIDs:   []string{plot.ID},
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCreateLeadInterest_Success(t *testing.T) {
	env := newTestEnv(t)
	owner := env.seedUser(t, "Owner", "owner@plotdesk.local", "secret123", database.RoleSalesperson)
	project, plot := env.seedProjectWithPlot(t)
	lead := env.seedLead(t, "Buyer", owner.ID)

	router := gin.New()
	router.POST("/api/lead-interests", asUser(owner), env.handler.CreateLeadInterest)

	w := performJSON(router, http.MethodPost, "/api/lead-interests", dto.CreateLeadInterestRequest{
		LeadID:       lead.ID,
		ProjectID:    project.ID,
		PlotIDs:      []string{plot.ID},
		HighestOffer: 1450000,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, env.recorder.contains(realtime.TopicLeadInterestCreated))

	interests, err := env.store.ListLeadInterestsByProject(t.Context(), project.ID)
	require.NoError(t, err)
	require.Len(t, interests, 1)
	assert.Equal(t, []string{plot.ID}, []string(interests[0].PlotIDs))
}
