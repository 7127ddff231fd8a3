package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/gtd_admin/internal/models"
	"github.com/GTDGit/gtd_admin/internal/utils"
	"github.com/GTDGit/gtd_admin/pkg/catalogapi"
)

// Page size options offered by list views.
var pageSizeOptions = []int{5, 10, 25, 50, 100}

// SettingsHandler exposes the console's static configuration.
type SettingsHandler struct {
	limits ListConfig
}

// NewSettingsHandler constructs a SettingsHandler.
func NewSettingsHandler(limits ListConfig) *SettingsHandler {
	return &SettingsHandler{limits: limits}
}

// GetSettings handles GET /admin/settings
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	sizes := make([]int, 0, len(pageSizeOptions))
	for _, n := range pageSizeOptions {
		if n <= h.limits.MaxLimit {
			sizes = append(sizes, n)
		}
	}
	utils.Success(c, http.StatusOK, "Settings retrieved", gin.H{
		"pagination": gin.H{
			"defaultLimit": h.limits.DefaultLimit,
			"maxLimit":     h.limits.MaxLimit,
			"options":      sizes,
		},
		"units":         models.UnitsOfMeasurement,
		"orderStatuses": models.OrderStatuses,
		"permissions":   models.AllPermissions,
		"rolePresets":   models.RolePresets,
		"uploads": gin.H{
			"maxProductImageBytes": catalogapi.MaxProductImageBytes,
			"maxLogoBytes":         catalogapi.MaxLogoBytes,
			"maxProductImages":     catalogapi.MaxProductImages,
		},
	})
}
