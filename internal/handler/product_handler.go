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
	"github.com/GTDGit/gtd_admin/pkg/catalogapi"
)

// Product list filters.
var productFilters = []string{"category", "status", "stock"}

// ProductHandler serves the products page.
type ProductHandler struct {
	productService *service.ProductService
	view           *listView[models.Product]
	form           *formView[form.ProductDraft, models.Product]
}

// NewProductHandler constructs a ProductHandler.
func NewProductHandler(productService *service.ProductService, registry *listview.Registry, limits ListConfig) *ProductHandler {
	h := &ProductHandler{productService: productService}
	h.view = newListView[models.Product](registry, productService.Name(), productFilters, productService.List, models.Product.Key, limits)
	h.form = &formView[form.ProductDraft, models.Product]{
		registry: registry,
		name:     "products.form",
		create: func(owner string) *form.Controller[form.ProductDraft, models.Product] {
			return form.NewProductForm(productService, replaceItem(h.view, owner))
		},
		load:  productService.Get,
		saved: refetchOnCreate[models.Product](h.view),
	}
	return h
}

// Register mounts the product routes on g.
func (h *ProductHandler) Register(g *gin.RouterGroup) {
	g.GET("", h.ListProducts)
	g.GET("/export", h.ExportProducts)
	g.GET("/low-stock", h.LowStock)
	g.GET("/categories", h.Categories)
	g.POST("/import", h.ImportProducts)
	g.POST("/bulk-delete", h.BulkDelete)
	g.PATCH("/bulk-status", h.BulkStatus)
	g.DELETE("/images/:imageId", h.DeleteImage)
	g.PATCH("/images/:imageId/primary", h.SetPrimaryImage)
	h.form.mount(g)
	g.GET("/:id", h.GetProduct)
	g.DELETE("/:id", h.DeleteProduct)
	g.PATCH("/:id/stock", h.UpdateStock)
	g.POST("/:id/images", h.UploadImages)
}

// ListProducts handles GET /admin/products
func (h *ProductHandler) ListProducts(c *gin.Context) {
	h.view.serve(c)
}

// GetProduct handles GET /admin/products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	product, err := h.productService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Product retrieved", product)
}

// DeleteProduct handles DELETE /admin/products/:id
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id := c.Param("id")
	if err := h.productService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	ctrl := h.view.controller(c)
	ctrl.OptimisticRemove([]string{id})
	utils.Success(c, http.StatusOK, "Product deleted", ctrl.State())
}

// BulkDelete handles POST /admin/products/bulk-delete
func (h *ProductHandler) BulkDelete(c *gin.Context) {
	var req idsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, utils.ErrEmptySelection)
		return
	}
	if err := h.productService.BulkDelete(c.Request.Context(), req.IDs); err != nil {
		respondError(c, err)
		return
	}
	ctrl := h.view.controller(c)
	ctrl.OptimisticRemove(req.IDs)
	utils.Success(c, http.StatusOK, "Products deleted", ctrl.State())
}

// BulkStatus handles PATCH /admin/products/bulk-status
func (h *ProductHandler) BulkStatus(c *gin.Context) {
	var req bulkStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, utils.ErrEmptySelection)
		return
	}
	if err := h.productService.BulkUpdateStatus(c.Request.Context(), req.IDs, *req.IsActive); err != nil {
		respondError(c, err)
		return
	}
	ctrl := h.view.controller(c)
	ctrl.OptimisticPatch(req.IDs, func(p *models.Product) { p.IsActive = *req.IsActive })
	utils.Success(c, http.StatusOK, "Products updated", ctrl.State())
}

type stockRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// UpdateStock handles PATCH /admin/products/:id/stock
func (h *ProductHandler) UpdateStock(c *gin.Context) {
	var req stockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, utils.ErrInvalidQuantity)
		return
	}
	id := c.Param("id")
	product, err := h.productService.UpdateStock(c.Request.Context(), id, *req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	h.view.controller(c).OptimisticPatch([]string{id}, func(p *models.Product) {
		if product != nil {
			*p = *product
			return
		}
		p.StockQuantity = *req.Quantity
	})
	utils.Success(c, http.StatusOK, "Stock updated", product)
}

// UploadImages handles POST /admin/products/:id/images
func (h *ProductHandler) UploadImages(c *gin.Context) {
	files, err := readParts(c, catalogapi.FieldImages, catalogapi.MaxProductImageBytes)
	if err != nil {
		respondError(c, err)
		return
	}
	urls, err := h.productService.UploadImages(c.Request.Context(), c.Param("id"), files)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusCreated, "Images uploaded", gin.H{"urls": urls})
}

// DeleteImage handles DELETE /admin/products/images/:imageId
func (h *ProductHandler) DeleteImage(c *gin.Context) {
	if err := h.productService.DeleteImage(c.Request.Context(), c.Param("imageId")); err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Image deleted", nil)
}

// SetPrimaryImage handles PATCH /admin/products/images/:imageId/primary
func (h *ProductHandler) SetPrimaryImage(c *gin.Context) {
	imageID := c.Param("imageId")
	if err := h.productService.SetPrimaryImage(c.Request.Context(), imageID); err != nil {
		respondError(c, err)
		return
	}
	if productID := c.Query("productId"); productID != "" {
		h.view.controller(c).OptimisticPatch([]string{productID}, func(p *models.Product) {
			p.Images = models.WithPrimaryImage(p.Images, imageID)
		})
	}
	utils.Success(c, http.StatusOK, "Primary image updated", nil)
}

// ImportProducts handles POST /admin/products/import
func (h *ProductHandler) ImportProducts(c *gin.Context) {
	files, err := readParts(c, catalogapi.FieldFile, maxImportBytes)
	if err != nil {
		respondError(c, err)
		return
	}
	result, err := h.productService.Import(c.Request.Context(), files[0])
	if err != nil {
		respondError(c, err)
		return
	}
	h.view.controller(c).Refetch(c.Request.Context())
	utils.Success(c, http.StatusOK, "Products imported", result)
}

// ExportProducts handles GET /admin/products/export
func (h *ProductHandler) ExportProducts(c *gin.Context) {
	blob, err := h.productService.Export(c.Request.Context(), h.view.params(c))
	if err != nil {
		respondError(c, err)
		return
	}
	sendExport(c, h.productService.Name(), blob)
}

// LowStock handles GET /admin/products/low-stock
func (h *ProductHandler) LowStock(c *gin.Context) {
	threshold := service.DefaultLowStockThreshold
	if raw := c.Query("threshold"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(c, utils.ErrInvalidQuantity)
			return
		}
		threshold = n
	}
	products, err := h.productService.LowStock(c.Request.Context(), threshold)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Low stock products retrieved", products)
}

// Categories handles GET /admin/products/categories
func (h *ProductHandler) Categories(c *gin.Context) {
	categories, err := h.productService.Categories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Categories retrieved", categories)
}
