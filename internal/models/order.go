package models

import (
	"math"
	"time"
)

// OrderStatus is the fulfilment state of an order.
type OrderStatus string

const (
	OrderStatusPending          OrderStatus = "pending"
	OrderStatusConfirmed        OrderStatus = "confirmed"
	OrderStatusProcessing       OrderStatus = "processing"
	OrderStatusReadyForDelivery OrderStatus = "ready_for_delivery"
	OrderStatusInTransit        OrderStatus = "in_transit"
	OrderStatusDelivered        OrderStatus = "delivered"
	OrderStatusCancelled        OrderStatus = "cancelled"
)

// OrderStatuses lists statuses in fulfilment order.
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusProcessing,
	OrderStatusReadyForDelivery,
	OrderStatusInTransit,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// orderTransitions maps a status to the statuses it may move to.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:          {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:        {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing:       {OrderStatusReadyForDelivery, OrderStatusCancelled},
	OrderStatusReadyForDelivery: {OrderStatusInTransit, OrderStatusCancelled},
	OrderStatusInTransit:        {OrderStatusDelivered},
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s OrderStatus) Terminal() bool {
	return len(orderTransitions[s]) == 0
}

// CanTransitionTo reports whether an order in s may move to next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, v := range orderTransitions[s] {
		if v == next {
			return true
		}
	}
	return false
}

// NextStatuses returns the statuses reachable from s.
func (s OrderStatus) NextStatuses() []OrderStatus {
	return append([]OrderStatus(nil), orderTransitions[s]...)
}

// PaymentStatus is the payment state of an order.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
	PaymentStatusPartial  PaymentStatus = "partial"
)

// DeliveryType is the requested delivery speed.
type DeliveryType string

const (
	DeliveryTypeStandard  DeliveryType = "standard"
	DeliveryTypeExpress   DeliveryType = "express"
	DeliveryTypeScheduled DeliveryType = "scheduled"
)

// Order is a customer order with a snapshot delivery address.
type Order struct {
	ID                    string         `json:"id"`
	OrderNumber           string         `json:"orderNumber"`
	UserID                string         `json:"userId"`
	Status                OrderStatus    `json:"status"`
	Subtotal              float64        `json:"subtotal"`
	DeliveryFee           float64        `json:"deliveryFee"`
	TaxAmount             float64        `json:"taxAmount"`
	DiscountAmount        float64        `json:"discountAmount"`
	TotalAmount           float64        `json:"totalAmount"`
	Currency              string         `json:"currency"`
	PaymentStatus         PaymentStatus  `json:"paymentStatus"`
	PaymentMethod         string         `json:"paymentMethod,omitempty"`
	DeliveryAddress       map[string]any `json:"deliveryAddress"`
	DeliveryInstructions  string         `json:"deliveryInstructions,omitempty"`
	DeliveryType          DeliveryType   `json:"deliveryType"`
	ScheduledDeliveryDate *time.Time     `json:"scheduledDeliveryDate,omitempty"`
	EstimatedDeliveryDate *time.Time     `json:"estimatedDeliveryDate,omitempty"`
	ActualDeliveryDate    *time.Time     `json:"actualDeliveryDate,omitempty"`
	CreatedAt             time.Time      `json:"createdAt"`
	UpdatedAt             time.Time      `json:"updatedAt"`
	User                  *User          `json:"user,omitempty"`
	Items                 []OrderItem    `json:"items"`
}

// OrderItem is one line of an order with a product snapshot.
type OrderItem struct {
	ID               string         `json:"id"`
	OrderID          string         `json:"orderId"`
	ProductID        string         `json:"productId"`
	ProductVariantID string         `json:"productVariantId,omitempty"`
	Quantity         int            `json:"quantity"`
	UnitPrice        float64        `json:"unitPrice"`
	TotalPrice       float64        `json:"totalPrice"`
	Specifications   map[string]any `json:"specifications,omitempty"`
	Product          *Product       `json:"product,omitempty"`
}

// Key returns the order id.
func (o Order) Key() string { return o.ID }

// ExpectedTotal is subtotal + delivery fee + tax - discount.
func (o Order) ExpectedTotal() float64 {
	return o.Subtotal + o.DeliveryFee + o.TaxAmount - o.DiscountAmount
}

// TotalConsistent reports whether TotalAmount matches ExpectedTotal to the cent.
func (o Order) TotalConsistent() bool {
	return math.Abs(o.ExpectedTotal()-o.TotalAmount) < 0.005
}

// OrderStats is the aggregate returned by the order stats endpoint.
type OrderStats struct {
	TotalOrders       int            `json:"totalOrders"`
	TotalRevenue      float64        `json:"totalRevenue"`
	AverageOrderValue float64        `json:"averageOrderValue"`
	StatusBreakdown   map[string]int `json:"statusBreakdown"`
	RevenueGrowth     float64        `json:"revenueGrowth"`
	OrderGrowth       float64        `json:"orderGrowth"`
}
