package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/GTDGit/gtd_admin/internal/models"
	"github.com/GTDGit/gtd_admin/internal/utils"
	"github.com/GTDGit/gtd_admin/pkg/catalogapi"
)

// StatusUpdate is the body of an order status change.
type StatusUpdate struct {
	Status            models.OrderStatus `json:"status"`
	Notes             string             `json:"notes,omitempty"`
	EstimatedDelivery *time.Time         `json:"estimatedDeliveryDate,omitempty"`
	TrackingNumber    string             `json:"trackingNumber,omitempty"`
}

// DateRange bounds a stats query. Zero values are omitted.
type DateRange struct {
	From time.Time
	To   time.Time
}

func (r DateRange) query() url.Values {
	q := url.Values{}
	if !r.From.IsZero() {
		q.Set("from", r.From.Format("2006-01-02"))
	}
	if !r.To.IsZero() {
		q.Set("to", r.To.Format("2006-01-02"))
	}
	return q
}

// OrderService wraps the order endpoints.
type OrderService struct {
	*Resource[models.Order]
	client *catalogapi.Client
}

// NewOrderService constructs an OrderService.
func NewOrderService(client *catalogapi.Client) *OrderService {
	return &OrderService{
		Resource: NewResource[models.Order](client, "orders", "/orders"),
		client:   client,
	}
}

// UpdateStatus moves order id from current to update.Status. The transition
// is checked locally before the request is sent.
func (s *OrderService) UpdateStatus(ctx context.Context, id string, current models.OrderStatus, update StatusUpdate) (*models.Order, error) {
	if id == "" {
		return nil, utils.ErrInvalidID
	}
	if !update.Status.Valid() {
		return nil, fmt.Errorf("%w: %q", utils.ErrInvalidStatus, update.Status)
	}
	if current != "" && !current.CanTransitionTo(update.Status) {
		return nil, fmt.Errorf("%w: %s -> %s", utils.ErrStatusTransition, current, update.Status)
	}
	var raw json.RawMessage
	if err := s.client.Patch(ctx, s.itemPath(id, "status"), update, &raw); err != nil {
		return nil, err
	}
	return decodeOptional[models.Order](raw)
}

// Cancel cancels order id with an optional reason.
func (s *OrderService) Cancel(ctx context.Context, id string, current models.OrderStatus, reason string) (*models.Order, error) {
	if id == "" {
		return nil, utils.ErrInvalidID
	}
	if current != "" && !current.CanTransitionTo(models.OrderStatusCancelled) {
		return nil, fmt.Errorf("%w: cannot cancel a %s order", utils.ErrStatusTransition, current)
	}
	body := map[string]string{}
	if reason != "" {
		body["reason"] = reason
	}
	var raw json.RawMessage
	if err := s.client.Patch(ctx, s.itemPath(id, "cancel"), body, &raw); err != nil {
		return nil, err
	}
	return decodeOptional[models.Order](raw)
}

// Refund issues a refund of amount against order id.
func (s *OrderService) Refund(ctx context.Context, id string, amount float64, reason string) (*models.Order, error) {
	if id == "" {
		return nil, utils.ErrInvalidID
	}
	if amount <= 0 {
		return nil, utils.ErrInvalidAmount
	}
	body := map[string]any{"amount": amount}
	if reason != "" {
		body["reason"] = reason
	}
	var raw json.RawMessage
	if err := s.client.Post(ctx, s.itemPath(id, "refund"), body, &raw); err != nil {
		return nil, err
	}
	return decodeOptional[models.Order](raw)
}

// Stats returns order aggregates over an optional date range.
func (s *OrderService) Stats(ctx context.Context, r DateRange) (*models.OrderStats, error) {
	return fetchData[models.OrderStats](ctx, s.client, s.path+"/stats", r.query())
}

// Recent lists the latest orders.
func (s *OrderService) Recent(ctx context.Context, limit int) ([]models.Order, error) {
	if limit <= 0 {
		limit = catalogapi.DefaultLimit
	}
	return fetchList[models.Order](ctx, s.client, s.name, s.path+"/recent", url.Values{"limit": {strconv.Itoa(limit)}})
}

// BulkUpdateStatus sets status on ids in one request. It replaces the
// isActive variant, which orders do not have.
func (s *OrderService) BulkUpdateStatus(ctx context.Context, ids []string, status models.OrderStatus) error {
	if err := validateSelection(ids); err != nil {
		return err
	}
	if !status.Valid() {
		return fmt.Errorf("%w: %q", utils.ErrInvalidStatus, status)
	}
	return s.client.Patch(ctx, s.path+"/bulk-status", map[string]any{"ids": ids, "status": status}, nil)
}
