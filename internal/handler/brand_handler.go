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

var brandFilters = []string{"status", "country"}

// BrandHandler serves the brands page.
type BrandHandler struct {
	brandService *service.BrandService
	view         *listView[models.Brand]
	form         *formView[form.BrandDraft, models.Brand]
}

// NewBrandHandler constructs a BrandHandler.
func NewBrandHandler(brandService *service.BrandService, registry *listview.Registry, limits ListConfig) *BrandHandler {
	h := &BrandHandler{brandService: brandService}
	h.view = newListView[models.Brand](registry, brandService.Name(), brandFilters, brandService.List, models.Brand.Key, limits)
	h.form = &formView[form.BrandDraft, models.Brand]{
		registry: registry,
		name:     "brands.form",
		create: func(owner string) *form.Controller[form.BrandDraft, models.Brand] {
			return form.NewBrandForm(brandService, replaceItem(h.view, owner))
		},
		load:  brandService.Get,
		saved: refetchOnCreate[models.Brand](h.view),
	}
	return h
}

// Register mounts the brand routes on g.
func (h *BrandHandler) Register(g *gin.RouterGroup) {
	g.GET("", h.ListBrands)
	g.GET("/export", h.ExportBrands)
	g.GET("/country/:country", h.ByCountry)
	g.POST("/bulk-delete", h.BulkDelete)
	g.PATCH("/bulk-status", h.BulkStatus)
	h.form.mount(g)
	g.GET("/:id", h.GetBrand)
	g.GET("/:id/stats", h.Stats)
	g.DELETE("/:id", h.DeleteBrand)
	g.POST("/:id/logo", h.UploadLogo)
}

// ListBrands handles GET /admin/brands
func (h *BrandHandler) ListBrands(c *gin.Context) {
	h.view.serve(c)
}

// GetBrand handles GET /admin/brands/:id
func (h *BrandHandler) GetBrand(c *gin.Context) {
	brand, err := h.brandService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Brand retrieved", brand)
}

// Stats handles GET /admin/brands/:id/stats
func (h *BrandHandler) Stats(c *gin.Context) {
	stats, err := h.brandService.Stats(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Brand stats retrieved", stats)
}

// ByCountry handles GET /admin/brands/country/:country
func (h *BrandHandler) ByCountry(c *gin.Context) {
	brands, err := h.brandService.ByCountry(c.Request.Context(), c.Param("country"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Brands retrieved", brands)
}

// DeleteBrand handles DELETE /admin/brands/:id
func (h *BrandHandler) DeleteBrand(c *gin.Context) {
	id := c.Param("id")
	if err := h.brandService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	ctrl := h.view.controller(c)
	ctrl.OptimisticRemove([]string{id})
	utils.Success(c, http.StatusOK, "Brand deleted", ctrl.State())
}

// BulkDelete handles POST /admin/brands/bulk-delete
func (h *BrandHandler) BulkDelete(c *gin.Context) {
	var req idsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, utils.ErrEmptySelection)
		return
	}
	if err := h.brandService.BulkDelete(c.Request.Context(), req.IDs); err != nil {
		respondError(c, err)
		return
	}
	ctrl := h.view.controller(c)
	ctrl.OptimisticRemove(req.IDs)
	utils.Success(c, http.StatusOK, "Brands deleted", ctrl.State())
}

// BulkStatus handles PATCH /admin/brands/bulk-status
func (h *BrandHandler) BulkStatus(c *gin.Context) {
	var req bulkStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, utils.ErrEmptySelection)
		return
	}
	if err := h.brandService.BulkUpdateStatus(c.Request.Context(), req.IDs, *req.IsActive); err != nil {
		respondError(c, err)
		return
	}
	ctrl := h.view.controller(c)
	ctrl.OptimisticPatch(req.IDs, func(b *models.Brand) { b.IsActive = *req.IsActive })
	utils.Success(c, http.StatusOK, "Brands updated", ctrl.State())
}

// UploadLogo handles POST /admin/brands/:id/logo
func (h *BrandHandler) UploadLogo(c *gin.Context) {
	files, err := readParts(c, catalogapi.FieldLogo, catalogapi.MaxLogoBytes)
	if err != nil {
		respondError(c, err)
		return
	}
	id := c.Param("id")
	url, err := h.brandService.UploadLogo(c.Request.Context(), id, files[0])
	if err != nil {
		respondError(c, err)
		return
	}
	h.view.controller(c).OptimisticPatch([]string{id}, func(b *models.Brand) { b.LogoURL = url })
	utils.Success(c, http.StatusCreated, "Logo uploaded", gin.H{"url": url})
}

// ExportBrands handles GET /admin/brands/export
func (h *BrandHandler) ExportBrands(c *gin.Context) {
	blob, err := h.brandService.Export(c.Request.Context(), h.view.params(c))
	if err != nil {
		respondError(c, err)
		return
	}
	sendExport(c, h.brandService.Name(), blob)
}
