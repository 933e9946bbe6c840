package handler

import (
	"encoding/json"
	"net/http"

	"agrimarket/internal/api/middleware"
	"agrimarket/internal/app/service"
	"agrimarket/internal/common"

	"github.com/go-chi/chi/v5"
)

type OrderHandler struct {
	orderService *service.OrderService
}

func NewOrderHandler(orderService *service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticator)

	r.Group(func(customerRouter chi.Router) {
		customerRouter.Use(middleware.CustomerOnly)
		customerRouter.Post("/", h.createOrder)
		customerRouter.Get("/mine", h.listCustomerOrders)
	})

	r.Group(func(farmerRouter chi.Router) {
		farmerRouter.Use(middleware.FarmerOnly)
		farmerRouter.Get("/received", h.listFarmerOrders)
		farmerRouter.Patch("/{orderID}/status", h.updateOrderStatus)
	})
}

func (h *OrderHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	var req service.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	order, err := h.orderService.CreateOrder(r.Context(), userID, req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, order)
}

func (h *OrderHandler) listCustomerOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	orders, err := h.orderService.GetCustomerOrders(r.Context(), userID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) listFarmerOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	orders, err := h.orderService.GetFarmerOrders(r.Context(), userID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}
	orderID := chi.URLParam(r, "orderID")

	var req service.UpdateOrderStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	order, err := h.orderService.UpdateOrderStatus(r.Context(), userID, orderID, req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, order)
}
