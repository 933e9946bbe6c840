package model

import (
	"time"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// IsValid reports whether s is one of the known order statuses.
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo enforces the forward-only order lifecycle.
// Delivered and cancelled are terminal.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case OrderStatusPending:
		return next == OrderStatusConfirmed || next == OrderStatusCancelled
	case OrderStatusConfirmed:
		return next == OrderStatusShipped || next == OrderStatusCancelled
	case OrderStatusShipped:
		return next == OrderStatusDelivered
	}
	return false
}

// Order captures a snapshot of the crop and both parties at purchase time.
// The snapshot fields are not live-linked: later crop edits do not change
// existing orders. CustomerID and FarmerID are immutable.
type Order struct {
	ID              string      `json:"id"`
	CustomerID      string      `json:"customer_id"`
	CustomerName    string      `json:"customer_name"`
	CustomerEmail   string      `json:"customer_email"`
	FarmerID        string      `json:"farmer_id"`
	FarmerName      string      `json:"farmer_name"`
	CropID          string      `json:"crop_id"`
	CropName        string      `json:"crop_name"`
	CropImage       string      `json:"crop_image"`
	Quantity        float64     `json:"quantity"`
	PricePerUnit    float64     `json:"price_per_unit"`
	TotalPrice      float64     `json:"total_price"`
	DeliveryAddress string      `json:"delivery_address"`
	Status          OrderStatus `json:"status"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}
