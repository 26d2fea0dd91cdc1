package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/plotdesk/plotdesk/internal/apiserver/database"
	"github.com/plotdesk/plotdesk/internal/common/dto"
)

// ListProjects returns every project, newest first.
func (h *Handler) ListProjects(c *gin.Context) {
	projects, err := h.store.ListProjects(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch projects"})
		return
	}
	c.JSON(http.StatusOK, projects)
}

// CreateProject creates a project. Admin only.
func (h *Handler) CreateProject(c *gin.Context) {
	var req dto.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	project := &database.Project{
		Name:        req.Name,
		Location:    req.Location,
		TotalPlots:  req.TotalPlots,
		Description: req.Description,
	}
	if err := h.store.CreateProject(c.Request.Context(), project); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create project"})
		return
	}

	h.logActivity(c, "Created Project", "plot", project.ID, fmt.Sprintf("Created project %s", project.Name))
	c.JSON(http.StatusCreated, project)
}

// projectOverview is one project enriched with inventory and demand data.
type projectOverview struct {
	*database.Project
	TotalPlots            int            `json:"totalPlots"`
	AvailablePlots        int            `json:"availablePlots"`
	BookedPlots           int            `json:"bookedPlots"`
	SoldPlots             int            `json:"soldPlots"`
	TotalInterestedBuyers int            `json:"totalInterestedBuyers"`
	Plots                 []enrichedPlot `json:"plots"`
}

type enrichedPlot struct {
	*database.Plot
	InterestCount int     `json:"buyerInterestCount"`
	HighestOffer  float64 `json:"highestOffer"`
}

// ProjectsOverview returns every project with its plots, per-plot interest
// counts and highest offers. Served from the query cache; any lead interest
// or plot mutation invalidates it through the routing table.
func (h *Handler) ProjectsOverview(c *gin.Context) {
	h.respondCached(c, "/api/projects/overview", func(ctx context.Context) (any, error) {
		projects, err := h.store.ListProjects(ctx)
		if err != nil {
			return nil, err
		}
		interests, err := h.store.ListLeadInterests(ctx)
		if err != nil {
			return nil, err
		}

		// Index demand per plot once rather than per project.
		interestCount := make(map[string]int)
		highestOffer := make(map[string]float64)
		interestsByProject := make(map[string]int)
		for _, interest := range interests {
			interestsByProject[interest.ProjectID]++
			for _, plotID := range interest.PlotIDs {
				interestCount[plotID]++
				if interest.HighestOffer > highestOffer[plotID] {
					highestOffer[plotID] = interest.HighestOffer
				}
			}
		}

		overview := make([]projectOverview, 0, len(projects))
		for _, project := range projects {
			plots, err := h.store.ListPlotsByProject(ctx, project.ID)
			if err != nil {
				return nil, err
			}

			po := projectOverview{
				Project:               project,
				TotalPlots:            len(plots),
				TotalInterestedBuyers: interestsByProject[project.ID],
				Plots:                 make([]enrichedPlot, 0, len(plots)),
			}
			for _, plot := range plots {
				switch plot.Status {
				case database.PlotStatusAvailable:
					po.AvailablePlots++
				case database.PlotStatusBooked:
					po.BookedPlots++
				case database.PlotStatusSold:
					po.SoldPlots++
				}
				po.Plots = append(po.Plots, enrichedPlot{
					Plot:          plot,
					InterestCount: interestCount[plot.ID],
					HighestOffer:  highestOffer[plot.ID],
				})
			}
			overview = append(overview, po)
		}
		return overview, nil
	})
}
