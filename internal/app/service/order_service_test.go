package service

import (
	"context"
	"errors"
	"testing"

	"agrimarket/internal/common"
	"agrimarket/internal/domain/model"
)

func newOrderTestEnv() (*OrderService, *fakeCropRepo, *fakeOrderRepo, *fakeUserRepo) {
	crops := newFakeCropRepo()
	orders := newFakeOrderRepo(crops)
	users := newFakeUserRepo()
	users.add(model.User{ID: "farmer-1", Username: "greenacres", Email: "ga@example.com", Name: "Green Acres", Role: model.RoleFarmer})
	users.add(model.User{ID: "customer-1", Username: "buyer", Email: "buyer@example.com", Name: "Bea Buyer", Role: model.RoleCustomer})

	crops.add(model.Crop{
		ID: "c1", FarmerID: "farmer-1", FarmerName: "Green Acres",
		Name: "Roma Tomatoes", Type: "vegetable", ImageURL: "https://img.example.com/t.jpg",
		Quantity: 100, Unit: "kg", PricePerUnit: 50, Published: true,
	})
	return NewOrderService(orders, crops, users), crops, orders, users
}

func TestCreateOrder(t *testing.T) {
	svc, crops, _, _ := newOrderTestEnv()
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, "customer-1", CreateOrderRequest{
		CropID: "c1", Quantity: 3, DeliveryAddress: "42 Market Lane",
	})
	if err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}

	if order.Status != model.OrderStatusPending {
		t.Errorf("expected initial status pending, got %s", order.Status)
	}
	// Total is computed from the crop's authoritative price, never the client
	if order.TotalPrice != 150 {
		t.Errorf("expected total 150, got %f", order.TotalPrice)
	}
	if order.CustomerName != "Bea Buyer" || order.FarmerName != "Green Acres" || order.CropName != "Roma Tomatoes" {
		t.Errorf("snapshot fields wrong: %+v", order)
	}

	crop, _ := crops.FindByID(ctx, "c1")
	if crop.Orders != 1 {
		t.Errorf("expected crop orders counter 1, got %d", crop.Orders)
	}

	// The farmer sees the order
	farmerOrders, err := svc.GetFarmerOrders(ctx, "farmer-1")
	if err != nil {
		t.Fatalf("GetFarmerOrders failed: %v", err)
	}
	if len(farmerOrders) != 1 || farmerOrders[0].ID != order.ID {
		t.Errorf("farmer order list wrong: %+v", farmerOrders)
	}
}

func TestCreateOrderInsufficientQuantity(t *testing.T) {
	svc, _, _, _ := newOrderTestEnv()
	ctx := context.Background()

	// Crop has quantity=100; ordering 150 must be rejected server-side
	_, err := svc.CreateOrder(ctx, "customer-1", CreateOrderRequest{
		CropID: "c1", Quantity: 150, DeliveryAddress: "42 Market Lane",
	})
	if !errors.Is(err, common.ErrValidation) {
		t.Errorf("expected ErrValidation for insufficient quantity, got %v", err)
	}
}

func TestCreateOrderRejections(t *testing.T) {
	svc, crops, _, _ := newOrderTestEnv()
	ctx := context.Background()

	crops.add(model.Crop{ID: "c2", FarmerID: "farmer-1", Quantity: 10, PricePerUnit: 5, Published: false})

	cases := []struct {
		name   string
		userID string
		req    CreateOrderRequest
		want   error
	}{
		{"missing crop", "customer-1", CreateOrderRequest{CropID: "ghost", Quantity: 1, DeliveryAddress: "x"}, common.ErrNotFound},
		{"unpublished crop", "customer-1", CreateOrderRequest{CropID: "c2", Quantity: 1, DeliveryAddress: "x"}, common.ErrValidation},
		{"zero quantity", "customer-1", CreateOrderRequest{CropID: "c1", Quantity: 0, DeliveryAddress: "x"}, common.ErrValidation},
		{"negative quantity", "customer-1", CreateOrderRequest{CropID: "c1", Quantity: -2, DeliveryAddress: "x"}, common.ErrValidation},
		{"missing address", "customer-1", CreateOrderRequest{CropID: "c1", Quantity: 1}, common.ErrBadRequest},
		{"farmer ordering", "farmer-1", CreateOrderRequest{CropID: "c1", Quantity: 1, DeliveryAddress: "x"}, common.ErrForbidden},
		{"unknown principal", "nobody", CreateOrderRequest{CropID: "c1", Quantity: 1, DeliveryAddress: "x"}, common.ErrNotFound},
	}
	for _, tc := range cases {
		if _, err := svc.CreateOrder(ctx, tc.userID, tc.req); !errors.Is(err, tc.want) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}

	// No counters moved and no orders stored after rejections
	crop, _ := crops.FindByID(ctx, "c1")
	if crop.Orders != 0 {
		t.Errorf("rejected orders moved the counter: %d", crop.Orders)
	}
}

func TestUpdateOrderStatus(t *testing.T) {
	svc, _, orders, _ := newOrderTestEnv()
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, "customer-1", CreateOrderRequest{
		CropID: "c1", Quantity: 2, DeliveryAddress: "42 Market Lane",
	})
	if err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}

	// Only the crop's farmer may touch status
	if _, err := svc.UpdateOrderStatus(ctx, "customer-1", order.ID, UpdateOrderStatusRequest{Status: model.OrderStatusConfirmed}); !errors.Is(err, common.ErrForbidden) {
		t.Errorf("expected ErrForbidden for customer status update, got %v", err)
	}
	if _, err := svc.UpdateOrderStatus(ctx, "farmer-1", "ghost", UpdateOrderStatusRequest{Status: model.OrderStatusConfirmed}); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing order, got %v", err)
	}

	// Forward transitions succeed
	for _, next := range []model.OrderStatus{model.OrderStatusConfirmed, model.OrderStatusShipped, model.OrderStatusDelivered} {
		updated, err := svc.UpdateOrderStatus(ctx, "farmer-1", order.ID, UpdateOrderStatusRequest{Status: next})
		if err != nil {
			t.Fatalf("transition to %s failed: %v", next, err)
		}
		if updated.Status != next {
			t.Errorf("expected status %s, got %s", next, updated.Status)
		}
	}

	// Delivered is terminal: no backwards moves
	if _, err := svc.UpdateOrderStatus(ctx, "farmer-1", order.ID, UpdateOrderStatusRequest{Status: model.OrderStatusPending}); !errors.Is(err, common.ErrValidation) {
		t.Errorf("expected ErrValidation for delivered->pending, got %v", err)
	}
	stored, _ := orders.FindByID(ctx, order.ID)
	if stored.Status != model.OrderStatusDelivered {
		t.Errorf("status changed after rejected transition: %s", stored.Status)
	}

	// Unknown status value
	if _, err := svc.UpdateOrderStatus(ctx, "farmer-1", order.ID, UpdateOrderStatusRequest{Status: "returned"}); !errors.Is(err, common.ErrValidation) {
		t.Errorf("expected ErrValidation for unknown status, got %v", err)
	}
}

func TestGetCustomerOrders(t *testing.T) {
	svc, _, _, _ := newOrderTestEnv()
	ctx := context.Background()

	if _, err := svc.CreateOrder(ctx, "customer-1", CreateOrderRequest{CropID: "c1", Quantity: 1, DeliveryAddress: "x"}); err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}

	mine, err := svc.GetCustomerOrders(ctx, "customer-1")
	if err != nil {
		t.Fatalf("GetCustomerOrders failed: %v", err)
	}
	if len(mine) != 1 {
		t.Errorf("expected 1 order, got %d", len(mine))
	}

	other, err := svc.GetCustomerOrders(ctx, "someone-else")
	if err != nil {
		t.Fatalf("GetCustomerOrders failed: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("expected empty list for other user, got %d", len(other))
	}
}
