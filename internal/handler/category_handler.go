package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/gtd_admin/internal/form"
	"github.com/GTDGit/gtd_admin/internal/listview"
	"github.com/GTDGit/gtd_admin/internal/models"
	"github.com/GTDGit/gtd_admin/internal/service"
	"github.com/GTDGit/gtd_admin/internal/utils"
	"github.com/GTDGit/gtd_admin/pkg/catalogapi"
)

var categoryFilters = []string{"status", "parent"}

// CategoryHandler serves the categories page.
type CategoryHandler struct {
	categoryService *service.CategoryService
	view            *listView[models.Category]
	form            *formView[form.CategoryDraft, models.Category]
}

// NewCategoryHandler constructs a CategoryHandler.
func NewCategoryHandler(categoryService *service.CategoryService, registry *listview.Registry, limits ListConfig) *CategoryHandler {
	h := &CategoryHandler{categoryService: categoryService}
	h.view = newListView[models.Category](registry, categoryService.Name(), categoryFilters, categoryService.List, models.Category.Key, limits)
	h.form = &formView[form.CategoryDraft, models.Category]{
		registry: registry,
		name:     "categories.form",
		create: func(owner string) *form.Controller[form.CategoryDraft, models.Category] {
			known := func() []models.Category {
				return h.view.controllerFor(owner).State().Items
			}
			return form.NewCategoryForm(categoryService, known, replaceItem(h.view, owner))
		},
		load:  categoryService.Get,
		saved: refetchOnCreate[models.Category](h.view),
	}
	return h
}

// Register mounts the category routes on g.
func (h *CategoryHandler) Register(g *gin.RouterGroup) {
	g.GET("", h.ListCategories)
	g.GET("/tree", h.Tree)
	g.GET("/export", h.ExportCategories)
	g.PATCH("/reorder", h.Reorder)
	g.POST("/bulk-delete", h.BulkDelete)
	g.PATCH("/bulk-status", h.BulkStatus)
	h.form.mount(g)
	g.GET("/:id", h.GetCategory)
	g.DELETE("/:id", h.DeleteCategory)
	g.POST("/:id/icon", h.UploadIcon)
}

// ListCategories handles GET /admin/categories
func (h *CategoryHandler) ListCategories(c *gin.Context) {
	h.view.serve(c)
}

// Tree handles GET /admin/categories/tree
func (h *CategoryHandler) Tree(c *gin.Context) {
	tree, err := h.categoryService.Tree(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Category tree retrieved", tree)
}

// GetCategory handles GET /admin/categories/:id
func (h *CategoryHandler) GetCategory(c *gin.Context) {
	category, err := h.categoryService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Category retrieved", category)
}

// DeleteCategory handles DELETE /admin/categories/:id
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	id := c.Param("id")
	if err := h.categoryService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	ctrl := h.view.controller(c)
	ctrl.OptimisticRemove([]string{id})
	utils.Success(c, http.StatusOK, "Category deleted", ctrl.State())
}

// BulkDelete handles POST /admin/categories/bulk-delete
func (h *CategoryHandler) BulkDelete(c *gin.Context) {
	var req idsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, utils.ErrEmptySelection)
		return
	}
	if err := h.categoryService.BulkDelete(c.Request.Context(), req.IDs); err != nil {
		respondError(c, err)
		return
	}
	ctrl := h.view.controller(c)
	ctrl.OptimisticRemove(req.IDs)
	utils.Success(c, http.StatusOK, "Categories deleted", ctrl.State())
}

// BulkStatus handles PATCH /admin/categories/bulk-status
func (h *CategoryHandler) BulkStatus(c *gin.Context) {
	var req bulkStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, utils.ErrEmptySelection)
		return
	}
	if err := h.categoryService.BulkUpdateStatus(c.Request.Context(), req.IDs, *req.IsActive); err != nil {
		respondError(c, err)
		return
	}
	ctrl := h.view.controller(c)
	ctrl.OptimisticPatch(req.IDs, func(cat *models.Category) { cat.IsActive = *req.IsActive })
	utils.Success(c, http.StatusOK, "Categories updated", ctrl.State())
}

type reorderRequest struct {
	CategoryOrders []models.CategoryOrder `json:"categoryOrders" binding:"required"`
}

// Reorder handles PATCH /admin/categories/reorder
func (h *CategoryHandler) Reorder(c *gin.Context) {
	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, utils.ErrEmptySelection)
		return
	}
	if err := h.categoryService.Reorder(c.Request.Context(), req.CategoryOrders); err != nil {
		respondError(c, err)
		return
	}
	order := make(map[string]int, len(req.CategoryOrders))
	ids := make([]string, 0, len(req.CategoryOrders))
	for _, o := range req.CategoryOrders {
		order[o.ID] = o.DisplayOrder
		ids = append(ids, o.ID)
	}
	ctrl := h.view.controller(c)
	ctrl.OptimisticPatch(ids, func(cat *models.Category) { cat.DisplayOrder = order[cat.ID] })
	utils.Success(c, http.StatusOK, "Categories reordered", ctrl.State())
}

// UploadIcon handles POST /admin/categories/:id/icon
func (h *CategoryHandler) UploadIcon(c *gin.Context) {
	files, err := readParts(c, catalogapi.FieldIcon, catalogapi.MaxLogoBytes)
	if err != nil {
		respondError(c, err)
		return
	}
	id := c.Param("id")
	url, err := h.categoryService.UploadIcon(c.Request.Context(), id, files[0])
	if err != nil {
		respondError(c, err)
		return
	}
	h.view.controller(c).OptimisticPatch([]string{id}, func(cat *models.Category) { cat.IconURL = url })
	utils.Success(c, http.StatusCreated, "Icon uploaded", gin.H{"url": url})
}

// ExportCategories handles GET /admin/categories/export
func (h *CategoryHandler) ExportCategories(c *gin.Context) {
	blob, err := h.categoryService.Export(c.Request.Context(), h.view.params(c))
	if err != nil {
		respondError(c, err)
		return
	}
	sendExport(c, h.categoryService.Name(), blob)
}
