package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/gtd_admin/internal/form"
	"github.com/GTDGit/gtd_admin/internal/listview"
	"github.com/GTDGit/gtd_admin/internal/models"
	"github.com/GTDGit/gtd_admin/internal/service"
	"github.com/GTDGit/gtd_admin/internal/utils"
)

var orderFilters = []string{"status", "paymentStatus", "deliveryType", "dateFrom", "dateTo"}

// OrderHandler serves the orders page.
type OrderHandler struct {
	orderService *service.OrderService
	view         *listView[models.Order]
	form         *formView[form.OrderStatusDraft, models.Order]
}

// NewOrderHandler constructs an OrderHandler.
func NewOrderHandler(orderService *service.OrderService, registry *listview.Registry, limits ListConfig) *OrderHandler {
	h := &OrderHandler{orderService: orderService}
	h.view = newListView[models.Order](registry, orderService.Name(), orderFilters, orderService.List, models.Order.Key, limits)
	h.form = &formView[form.OrderStatusDraft, models.Order]{
		registry: registry,
		name:     "orders.form",
		create: func(owner string) *form.Controller[form.OrderStatusDraft, models.Order] {
			return form.NewOrderStatusForm(orderService, h.patchStatus(owner))
		},
		load:     orderService.Get,
		editOnly: true,
		saved: func(c *gin.Context, order *models.Order, _ bool) {
			if order == nil {
				h.view.controller(c).Refetch(c.Request.Context())
			}
		},
	}
	return h
}

// Register mounts the order routes on g.
func (h *OrderHandler) Register(g *gin.RouterGroup) {
	g.GET("", h.ListOrders)
	g.GET("/export", h.ExportOrders)
	g.GET("/stats", h.Stats)
	g.GET("/recent", h.Recent)
	g.PATCH("/bulk-status", h.BulkStatus)
	h.form.mount(g)
	g.GET("/:id", h.GetOrder)
	g.PATCH("/:id/status", h.UpdateStatus)
	g.PATCH("/:id/cancel", h.Cancel)
	g.POST("/:id/refund", h.Refund)
}

// ListOrders handles GET /admin/orders
func (h *OrderHandler) ListOrders(c *gin.Context) {
	h.view.serve(c)
}

// GetOrder handles GET /admin/orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.orderService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Order retrieved", order)
}

type orderStatusRequest struct {
	Status                models.OrderStatus `json:"status" binding:"required"`
	Notes                 string             `json:"notes"`
	TrackingNumber        string             `json:"trackingNumber"`
	EstimatedDeliveryDate *time.Time         `json:"estimatedDeliveryDate"`
}

// UpdateStatus handles PATCH /admin/orders/:id/status
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var req orderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, utils.ErrInvalidStatus)
		return
	}
	id := c.Param("id")
	current, err := h.currentStatus(c, id)
	if err != nil {
		respondError(c, err)
		return
	}
	order, err := h.orderService.UpdateStatus(c.Request.Context(), id, current, service.StatusUpdate{
		Status:            req.Status,
		Notes:             req.Notes,
		EstimatedDelivery: req.EstimatedDeliveryDate,
		TrackingNumber:    req.TrackingNumber,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	h.applyStatus(c, id, req.Status, order)
	utils.Success(c, http.StatusOK, "Order status updated", order)
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

// Cancel handles PATCH /admin/orders/:id/cancel
func (h *OrderHandler) Cancel(c *gin.Context) {
	var req cancelRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
			return
		}
	}
	id := c.Param("id")
	current, err := h.currentStatus(c, id)
	if err != nil {
		respondError(c, err)
		return
	}
	order, err := h.orderService.Cancel(c.Request.Context(), id, current, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	h.applyStatus(c, id, models.OrderStatusCancelled, order)
	utils.Success(c, http.StatusOK, "Order cancelled", order)
}

type refundRequest struct {
	Amount float64 `json:"amount"`
	Reason string  `json:"reason"`
}

// Refund handles POST /admin/orders/:id/refund
func (h *OrderHandler) Refund(c *gin.Context) {
	var req refundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, utils.ErrInvalidAmount)
		return
	}
	id := c.Param("id")
	order, err := h.orderService.Refund(c.Request.Context(), id, req.Amount, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	if order != nil {
		h.view.controller(c).OptimisticPatch([]string{id}, func(o *models.Order) { *o = *order })
	}
	utils.Success(c, http.StatusOK, "Refund issued", order)
}

type bulkOrderStatusRequest struct {
	IDs    []string           `json:"ids" binding:"required"`
	Status models.OrderStatus `json:"status" binding:"required"`
}

// BulkStatus handles PATCH /admin/orders/bulk-status
func (h *OrderHandler) BulkStatus(c *gin.Context) {
	var req bulkOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, utils.ErrEmptySelection)
		return
	}
	if err := h.orderService.BulkUpdateStatus(c.Request.Context(), req.IDs, req.Status); err != nil {
		respondError(c, err)
		return
	}
	ctrl := h.view.controller(c)
	ctrl.OptimisticPatch(req.IDs, func(o *models.Order) { o.Status = req.Status })
	utils.Success(c, http.StatusOK, "Orders updated", ctrl.State())
}

// Stats handles GET /admin/orders/stats?from=2024-01-01&to=2024-01-31
func (h *OrderHandler) Stats(c *gin.Context) {
	var r service.DateRange
	for key, dst := range map[string]*time.Time{"from": &r.From, "to": &r.To} {
		raw := c.Query(key)
		if raw == "" {
			continue
		}
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			utils.Error(c, http.StatusBadRequest, "INVALID_DATE", "Dates must be formatted as YYYY-MM-DD")
			return
		}
		*dst = t
	}
	stats, err := h.orderService.Stats(c.Request.Context(), r)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Order stats retrieved", stats)
}

// Recent handles GET /admin/orders/recent
func (h *OrderHandler) Recent(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	orders, err := h.orderService.Recent(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Recent orders retrieved", orders)
}

// ExportOrders handles GET /admin/orders/export
func (h *OrderHandler) ExportOrders(c *gin.Context) {
	blob, err := h.orderService.Export(c.Request.Context(), h.view.params(c))
	if err != nil {
		respondError(c, err)
		return
	}
	sendExport(c, h.orderService.Name(), blob)
}

// currentStatus returns the status of id as shown in the session's list,
// loading the order when it is not on the current page.
func (h *OrderHandler) currentStatus(c *gin.Context, id string) (models.OrderStatus, error) {
	for _, o := range h.view.controller(c).State().Items {
		if o.ID == id {
			return o.Status, nil
		}
	}
	return h.loadStatus(c.Request.Context(), id)
}

func (h *OrderHandler) loadStatus(ctx context.Context, id string) (models.OrderStatus, error) {
	order, err := h.orderService.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if order == nil {
		return "", nil
	}
	return order.Status, nil
}

func (h *OrderHandler) applyStatus(c *gin.Context, id string, status models.OrderStatus, order *models.Order) {
	h.view.controller(c).OptimisticPatch([]string{id}, func(o *models.Order) {
		if order != nil {
			*o = *order
			return
		}
		o.Status = status
	})
}

// patchStatus returns the OnSaved callback of the status form.
func (h *OrderHandler) patchStatus(owner string) func(*models.Order) {
	return replaceItem(h.view, owner)
}
