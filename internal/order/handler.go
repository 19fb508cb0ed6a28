package order

import (
	"encoding/json"
	"net/http"
	"strconv"

	"storefront-api/internal/auth"
	"storefront-api/internal/transport"

	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	CreateOrder(userID string, dto *CreateOrderDTO) (*Order, error)
	GetOrderByID(id, userID string, isAdmin bool) (*Order, error)
	GetUserOrders(userID string, limit, offset int) ([]*Order, error)
	GetAllOrders(limit, offset int) ([]*Order, error)
	UpdateOrderStatus(id string, dto *UpdateStatusDTO) (*Order, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.Logger.Error("CreateOrder: user not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreateOrderDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreateOrder: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	createdOrder, err := h.Service.CreateOrder(user.ID, &dto)
	if err != nil {
		h.Logger.Error("CreateOrder: service error", "error", err, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("CreateOrder: order created",
		"order_id", createdOrder.ID,
		"user_id", user.ID,
		"total", createdOrder.Total)

	h.WriteJSON(w, http.StatusCreated, createdOrder)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.Logger.Error("GetOrder: user not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orderID := chi.URLParam(r, "id")
	if orderID == "" {
		h.WriteError(w, http.StatusBadRequest, "order id is required")
		return
	}

	o, err := h.Service.GetOrderByID(orderID, user.ID, user.IsAdmin())
	if err != nil {
		h.Logger.Error("GetOrder: service error", "error", err, "order_id", orderID, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, o)
}

func (h *Handler) GetMyOrders(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.Logger.Error("GetMyOrders: user not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit, offset := paginationParams(r)

	orders, err := h.Service.GetUserOrders(user.ID, limit, offset)
	if err != nil {
		h.Logger.Error("GetMyOrders: service error", "error", err, "user_id", user.ID)
		h.WriteError(w, http.StatusInternalServerError, "failed to get orders")
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"orders": orders,
		"limit":  limit,
		"offset": offset,
	})
}

func (h *Handler) GetAllOrders(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationParams(r)

	orders, err := h.Service.GetAllOrders(limit, offset)
	if err != nil {
		h.Logger.Error("GetAllOrders: service error", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "failed to get orders")
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"orders": orders,
		"limit":  limit,
		"offset": offset,
	})
}

func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	if orderID == "" {
		h.WriteError(w, http.StatusBadRequest, "order id is required")
		return
	}

	var dto UpdateStatusDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("UpdateOrderStatus: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	o, err := h.Service.UpdateOrderStatus(orderID, &dto)
	if err != nil {
		h.Logger.Error("UpdateOrderStatus: service error", "error", err, "order_id", orderID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("UpdateOrderStatus: status updated", "order_id", orderID, "status", o.Status)
	h.WriteJSON(w, http.StatusOK, o)
}

func paginationParams(r *http.Request) (limit, offset int) {
	limit = 20
	offset = 0

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	return limit, offset
}
