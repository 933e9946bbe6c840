package service

import (
	"context"
	"fmt"
	"math"

	"agrimarket/internal/common"
	"agrimarket/internal/domain/model"
	"agrimarket/internal/domain/repository"

	"github.com/google/uuid"
)

type OrderService struct {
	orderRepo repository.OrderRepository
	cropRepo  repository.CropRepository
	userRepo  repository.UserRepository
}

func NewOrderService(orderRepo repository.OrderRepository, cropRepo repository.CropRepository, userRepo repository.UserRepository) *OrderService {
	return &OrderService{orderRepo: orderRepo, cropRepo: cropRepo, userRepo: userRepo}
}

type CreateOrderRequest struct {
	CropID          string  `json:"crop_id"`
	Quantity        float64 `json:"quantity"`
	DeliveryAddress string  `json:"delivery_address"`
}

// CreateOrder places an order against a published crop. The total is always
// recomputed from the crop's authoritative price; a client-supplied total is
// not part of the contract and would not be trusted anyway. The order row
// and the crop's orders counter move in one transaction.
func (s *OrderService) CreateOrder(ctx context.Context, userID string, req CreateOrderRequest) (*model.Order, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve principal: %w", err)
	}
	if user.Role != model.RoleCustomer {
		return nil, common.Errorf("only customers can place orders: %w", common.ErrForbidden)
	}

	if req.CropID == "" || req.DeliveryAddress == "" {
		return nil, common.Errorf("crop_id and delivery_address are required: %w", common.ErrBadRequest)
	}
	if req.Quantity <= 0 {
		return nil, common.Errorf("quantity must be positive: %w", common.ErrValidation)
	}

	crop, err := s.cropRepo.FindByID(ctx, req.CropID)
	if err != nil {
		return nil, err
	}
	if !crop.Published {
		return nil, common.Errorf("crop is not published: %w", common.ErrValidation)
	}
	if crop.FarmerID == user.ID {
		return nil, common.Errorf("farmers cannot order their own crops: %w", common.ErrValidation)
	}
	if req.Quantity > crop.Quantity {
		return nil, common.Errorf("insufficient quantity: requested %.2f %s, available %.2f %s: %w",
			req.Quantity, crop.Unit, crop.Quantity, crop.Unit, common.ErrValidation)
	}

	order := &model.Order{
		ID:              uuid.NewString(),
		CustomerID:      user.ID,
		CustomerName:    user.DisplayName(),
		CustomerEmail:   user.Email,
		FarmerID:        crop.FarmerID,
		FarmerName:      crop.FarmerName,
		CropID:          crop.ID,
		CropName:        crop.Name,
		CropImage:       crop.ImageURL,
		Quantity:        req.Quantity,
		PricePerUnit:    crop.PricePerUnit,
		TotalPrice:      roundMoney(req.Quantity * crop.PricePerUnit),
		DeliveryAddress: req.DeliveryAddress,
		Status:          model.OrderStatusPending,
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	return order, nil
}

func (s *OrderService) GetCustomerOrders(ctx context.Context, userID string) ([]model.Order, error) {
	return s.orderRepo.ListByCustomer(ctx, userID)
}

func (s *OrderService) GetFarmerOrders(ctx context.Context, userID string) ([]model.Order, error) {
	return s.orderRepo.ListByFarmer(ctx, userID)
}

type UpdateOrderStatusRequest struct {
	Status model.OrderStatus `json:"status"`
}

// UpdateOrderStatus moves an order along its lifecycle. Only the farmer the
// order was placed against may change it, and only along forward
// transitions; delivered and cancelled orders are frozen.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, userID, orderID string, req UpdateOrderStatusRequest) (*model.Order, error) {
	if !req.Status.IsValid() {
		return nil, common.Errorf("unknown order status %q: %w", req.Status, common.ErrValidation)
	}

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.FarmerID != userID {
		return nil, common.Errorf("order %s does not belong to the caller's crops: %w", orderID, common.ErrForbidden)
	}
	if !order.Status.CanTransitionTo(req.Status) {
		return nil, common.Errorf("cannot move order from %q to %q: %w", order.Status, req.Status, common.ErrValidation)
	}

	if err := s.orderRepo.UpdateStatus(ctx, orderID, req.Status); err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	order.Status = req.Status
	return order, nil
}

func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
