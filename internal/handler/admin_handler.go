package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/gtd_admin/internal/listview"
	"github.com/GTDGit/gtd_admin/internal/models"
	"github.com/GTDGit/gtd_admin/internal/service"
	"github.com/GTDGit/gtd_admin/internal/utils"
)

var adminFilters = []string{"role"}

// AdminHandler serves the admin management page.
type AdminHandler struct {
	adminService *service.AdminService
	view         *listView[models.AdminUser]
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(adminService *service.AdminService, registry *listview.Registry, limits ListConfig) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
		view:         newListView[models.AdminUser](registry, adminService.Name(), adminFilters, adminService.List, models.AdminUser.Key, limits),
	}
}

// Register mounts the admin routes on g.
func (h *AdminHandler) Register(g *gin.RouterGroup) {
	g.GET("", h.ListUsers)
	g.GET("/admins", h.ListAdmins)
	g.GET("/stats", h.Stats)
	g.GET("/export", h.ExportUsers)
	g.POST("/bulk-assign-roles", h.BulkAssignRoles)
	g.POST("/bulk-remove-admin", h.BulkRemoveAdminRoles)
	g.GET("/:id", h.GetUser)
	g.GET("/:id/activity", h.Activity)
	g.POST("/:id/make-admin", h.MakeAdmin)
	g.DELETE("/:id/admin", h.RemoveAdmin)
	g.PATCH("/:id/permissions", h.UpdatePermissions)
	g.PATCH("/:id/role", h.UpdateRole)
}

// ListUsers handles GET /admin/admins
func (h *AdminHandler) ListUsers(c *gin.Context) {
	h.view.serve(c)
}

// ListAdmins handles GET /admin/admins/admins
func (h *AdminHandler) ListAdmins(c *gin.Context) {
	admins, err := h.adminService.Admins(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Admins retrieved", admins)
}

// GetUser handles GET /admin/admins/:id
func (h *AdminHandler) GetUser(c *gin.Context) {
	user, err := h.adminService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "User retrieved", user)
}

// Activity handles GET /admin/admins/:id/activity
func (h *AdminHandler) Activity(c *gin.Context) {
	activity, err := h.adminService.Activity(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Activity retrieved", activity)
}

type makeAdminRequest struct {
	Role        models.Role `json:"role" binding:"required"`
	Permissions []string    `json:"permissions"`
}

// MakeAdmin handles POST /admin/admins/:id/make-admin
func (h *AdminHandler) MakeAdmin(c *gin.Context) {
	var req makeAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, utils.ErrInvalidRole)
		return
	}
	id := c.Param("id")
	user, err := h.adminService.MakeAdmin(c.Request.Context(), id, req.Role, req.Permissions)
	if err != nil {
		respondError(c, err)
		return
	}
	h.applyUser(c, id, user)
	utils.Success(c, http.StatusOK, "Admin role assigned", user)
}

// RemoveAdmin handles DELETE /admin/admins/:id/admin
func (h *AdminHandler) RemoveAdmin(c *gin.Context) {
	id := c.Param("id")
	user, err := h.adminService.RemoveAdmin(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	h.applyUser(c, id, user)
	utils.Success(c, http.StatusOK, "Admin role removed", user)
}

type permissionsRequest struct {
	Permissions []string `json:"permissions"`
}

// UpdatePermissions handles PATCH /admin/admins/:id/permissions
func (h *AdminHandler) UpdatePermissions(c *gin.Context) {
	var req permissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}
	id := c.Param("id")
	user, err := h.adminService.UpdatePermissions(c.Request.Context(), id, req.Permissions)
	if err != nil {
		respondError(c, err)
		return
	}
	h.applyUser(c, id, user)
	utils.Success(c, http.StatusOK, "Permissions updated", user)
}

type roleRequest struct {
	Role models.Role `json:"role" binding:"required"`
}

// UpdateRole handles PATCH /admin/admins/:id/role
func (h *AdminHandler) UpdateRole(c *gin.Context) {
	var req roleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, utils.ErrInvalidRole)
		return
	}
	id := c.Param("id")
	user, err := h.adminService.UpdateRole(c.Request.Context(), id, req.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	h.applyUser(c, id, user)
	utils.Success(c, http.StatusOK, "Role updated", user)
}

type bulkAssignRequest struct {
	Assignments []models.AdminAssignment `json:"assignments" binding:"required"`
}

// BulkAssignRoles handles POST /admin/admins/bulk-assign-roles. Partial
// failures are reported, not rolled back; the list is reloaded either way.
func (h *AdminHandler) BulkAssignRoles(c *gin.Context) {
	var req bulkAssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, utils.ErrEmptySelection)
		return
	}
	result, err := h.adminService.BulkAssignRoles(c.Request.Context(), req.Assignments)
	if err != nil {
		respondError(c, err)
		return
	}
	h.view.controller(c).Refetch(c.Request.Context())
	utils.Success(c, http.StatusOK, "Roles assigned", result)
}

type bulkRemoveRequest struct {
	UserIDs []string `json:"userIds" binding:"required"`
}

// BulkRemoveAdminRoles handles POST /admin/admins/bulk-remove-admin
func (h *AdminHandler) BulkRemoveAdminRoles(c *gin.Context) {
	var req bulkRemoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, utils.ErrEmptySelection)
		return
	}
	result, err := h.adminService.BulkRemoveAdminRoles(c.Request.Context(), req.UserIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	h.view.controller(c).Refetch(c.Request.Context())
	utils.Success(c, http.StatusOK, "Admin roles removed", result)
}

// Stats handles GET /admin/admins/stats
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.adminService.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Admin stats retrieved", stats)
}

// ExportUsers handles GET /admin/admins/export
func (h *AdminHandler) ExportUsers(c *gin.Context) {
	blob, err := h.adminService.Export(c.Request.Context(), h.view.params(c))
	if err != nil {
		respondError(c, err)
		return
	}
	sendExport(c, h.adminService.Name(), blob)
}

// applyUser swaps the returned user into the list, or reloads the list
// when the API answered without a body.
func (h *AdminHandler) applyUser(c *gin.Context, id string, user *models.AdminUser) {
	ctrl := h.view.controller(c)
	if user == nil {
		ctrl.Refetch(c.Request.Context())
		return
	}
	ctrl.OptimisticPatch([]string{id}, func(u *models.AdminUser) { *u = *user })
}
