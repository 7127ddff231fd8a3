package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/gtd_admin/internal/form"
	"github.com/GTDGit/gtd_admin/internal/listview"
	"github.com/GTDGit/gtd_admin/internal/models"
	"github.com/GTDGit/gtd_admin/internal/service"
	"github.com/GTDGit/gtd_admin/internal/utils"
)

var userFilters = []string{"status", "userType"}

// UserHandler serves the storefront users page.
type UserHandler struct {
	userService *service.UserService
	view        *listView[models.User]
	form        *formView[form.UserDraft, models.User]
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(userService *service.UserService, registry *listview.Registry, limits ListConfig) *UserHandler {
	h := &UserHandler{userService: userService}
	h.view = newListView[models.User](registry, userService.Name(), userFilters, userService.List, models.User.Key, limits)
	h.form = &formView[form.UserDraft, models.User]{
		registry: registry,
		name:     "users.form",
		create: func(owner string) *form.Controller[form.UserDraft, models.User] {
			return form.NewUserForm(userService, replaceItem(h.view, owner))
		},
		load:  userService.Get,
		saved: refetchOnCreate[models.User](h.view),
	}
	return h
}

// Register mounts the user routes on g.
func (h *UserHandler) Register(g *gin.RouterGroup) {
	g.GET("", h.ListUsers)
	g.GET("/export", h.ExportUsers)
	g.GET("/stats", h.Stats)
	g.GET("/recent", h.Recent)
	g.POST("/bulk-delete", h.BulkDelete)
	g.PATCH("/bulk-status", h.BulkStatus)
	h.form.mount(g)
	g.GET("/:id", h.GetUser)
	g.DELETE("/:id", h.DeleteUser)
	g.PATCH("/:id/status", h.UpdateStatus)
	g.POST("/:id/reset-password", h.ResetPassword)
	g.POST("/:id/send-verification", h.SendVerification)
}

// ListUsers handles GET /admin/users
func (h *UserHandler) ListUsers(c *gin.Context) {
	h.view.serve(c)
}

// GetUser handles GET /admin/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.userService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "User retrieved", user)
}

// DeleteUser handles DELETE /admin/users/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id := c.Param("id")
	if err := h.userService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	ctrl := h.view.controller(c)
	ctrl.OptimisticRemove([]string{id})
	utils.Success(c, http.StatusOK, "User deleted", ctrl.State())
}

type userStatusRequest struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

// UpdateStatus handles PATCH /admin/users/:id/status
func (h *UserHandler) UpdateStatus(c *gin.Context) {
	var req userStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, utils.ErrInvalidStatus)
		return
	}
	id := c.Param("id")
	user, err := h.userService.UpdateStatus(c.Request.Context(), id, *req.IsActive)
	if err != nil {
		respondError(c, err)
		return
	}
	h.view.controller(c).OptimisticPatch([]string{id}, func(u *models.User) { u.IsActive = *req.IsActive })
	utils.Success(c, http.StatusOK, "User status updated", user)
}

// BulkDelete handles POST /admin/users/bulk-delete
func (h *UserHandler) BulkDelete(c *gin.Context) {
	var req idsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, utils.ErrEmptySelection)
		return
	}
	if err := h.userService.BulkDelete(c.Request.Context(), req.IDs); err != nil {
		respondError(c, err)
		return
	}
	ctrl := h.view.controller(c)
	ctrl.OptimisticRemove(req.IDs)
	utils.Success(c, http.StatusOK, "Users deleted", ctrl.State())
}

// BulkStatus handles PATCH /admin/users/bulk-status
func (h *UserHandler) BulkStatus(c *gin.Context) {
	var req bulkStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, utils.ErrEmptySelection)
		return
	}
	if err := h.userService.BulkUpdateStatus(c.Request.Context(), req.IDs, *req.IsActive); err != nil {
		respondError(c, err)
		return
	}
	ctrl := h.view.controller(c)
	ctrl.OptimisticPatch(req.IDs, func(u *models.User) { u.IsActive = *req.IsActive })
	utils.Success(c, http.StatusOK, "Users updated", ctrl.State())
}

// ResetPassword handles POST /admin/users/:id/reset-password
func (h *UserHandler) ResetPassword(c *gin.Context) {
	if err := h.userService.ResetPassword(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Password reset email sent", nil)
}

// SendVerification handles POST /admin/users/:id/send-verification
func (h *UserHandler) SendVerification(c *gin.Context) {
	if err := h.userService.SendVerification(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Verification email sent", nil)
}

// Stats handles GET /admin/users/stats
func (h *UserHandler) Stats(c *gin.Context) {
	stats, err := h.userService.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "User stats retrieved", stats)
}

// Recent handles GET /admin/users/recent
func (h *UserHandler) Recent(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	users, err := h.userService.Recent(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Recent users retrieved", users)
}

// ExportUsers handles GET /admin/users/export
func (h *UserHandler) ExportUsers(c *gin.Context) {
	blob, err := h.userService.Export(c.Request.Context(), h.view.params(c))
	if err != nil {
		respondError(c, err)
		return
	}
	sendExport(c, h.userService.Name(), blob)
}
