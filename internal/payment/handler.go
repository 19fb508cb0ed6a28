package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"storefront-api/internal/auth"
	"storefront-api/internal/transport"
)

type ServiceAPI interface {
	CreateGatewayOrder(ctx context.Context, userID string, dto *CreateGatewayOrderDTO) (*CreateGatewayOrderResponse, error)
	VerifyPayment(ctx context.Context, userID string, dto *VerifyPaymentDTO) (*VerifyPaymentResponse, error)
	GetAllPayments(query *ListPaymentsQuery) ([]*Payment, error)
	VerifyWebhookSignature(body []byte, signature string) bool
	HandleGatewayEvent(ctx context.Context, event *WebhookEvent) error
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

func (h *Handler) CreateGatewayOrder(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.Logger.Error("CreateGatewayOrder: user not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreateGatewayOrderDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreateGatewayOrder: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.Service.CreateGatewayOrder(r.Context(), user.ID, &dto)
	if err != nil {
		h.Logger.Error("CreateGatewayOrder: service error", "error", err, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.Logger.Error("VerifyPayment: user not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto VerifyPaymentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("VerifyPayment: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.Service.VerifyPayment(r.Context(), user.ID, &dto)
	if err != nil {
		h.Logger.Error("VerifyPayment: service error",
			"error", err, "order_id", dto.OrderID, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetAllPayments(w http.ResponseWriter, r *http.Request) {
	query := &ListPaymentsQuery{
		Status:  r.URL.Query().Get("status"),
		Method:  r.URL.Query().Get("method"),
		OrderID: r.URL.Query().Get("orderId"),
		Limit:   20,
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil {
			query.Limit = l
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil {
			query.Offset = o
		}
	}

	payments, err := h.Service.GetAllPayments(query)
	if err != nil {
		h.Logger.Error("GetAllPayments: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	if payments == nil {
		payments = []*Payment{}
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"payments": payments,
		"limit":    query.Limit,
		"offset":   query.Offset,
	})
}
