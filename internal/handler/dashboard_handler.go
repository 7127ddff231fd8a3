package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/gtd_admin/internal/auth"
	"github.com/GTDGit/gtd_admin/internal/middleware"
	"github.com/GTDGit/gtd_admin/internal/service"
	"github.com/GTDGit/gtd_admin/internal/utils"
)

const defaultRecentOrders = 5

// DashboardHandler serves the console home page.
type DashboardHandler struct {
	dashboardService *service.DashboardService
}

// NewDashboardHandler constructs a DashboardHandler.
func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// GetDashboard handles GET /admin
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	recent := defaultRecentOrders
	if raw := c.Query("recent"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			recent = n
		}
	}
	summary, err := h.dashboardService.Summary(c.Request.Context(), recent)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Dashboard retrieved", gin.H{
		"summary":    summary,
		"navigation": auth.VisibleNavigation(middleware.GetIdentity(c)),
	})
}
