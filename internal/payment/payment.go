package payment

import (
	"encoding/json"
	"time"

	paymentDatamodel "storefront-api/internal/core/datamodel/payment"
	"storefront-api/internal/razorpay"
)

type Payment struct {
	ID              string          `json:"id"`
	OrderID         string          `json:"orderId"`
	UserID          string          `json:"userId"`
	Amount          float64         `json:"amount"`
	Method          string          `json:"method"`
	Status          string          `json:"status"`
	TransactionID   *string         `json:"transactionId,omitempty"`
	GatewayResponse json.RawMessage `json:"gatewayResponse,omitempty"`
	FailureReason   *string         `json:"failureReason,omitempty"`
	RefundID        *string         `json:"refundId,omitempty"`
	RefundAmount    *float64        `json:"refundAmount,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

func FromDataModel(p *paymentDatamodel.Payment) *Payment {
	return &Payment{
		ID:              p.ID,
		OrderID:         p.OrderID,
		UserID:          p.UserID,
		Amount:          p.Amount,
		Method:          p.Method,
		Status:          p.Status,
		TransactionID:   p.TransactionID,
		GatewayResponse: p.GatewayResponse,
		FailureReason:   p.FailureReason,
		RefundID:        p.RefundID,
		RefundAmount:    p.RefundAmount,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func FromDataModelSlice(payments []*paymentDatamodel.Payment) []*Payment {
	result := make([]*Payment, len(payments))
	for i, p := range payments {
		result[i] = FromDataModel(p)
	}
	return result
}

// MapGatewayStatus translates gateway payment states to internal payment
// statuses. Authorized counts as success here because authorized payments
// auto-capture on settlement.
func MapGatewayStatus(gatewayStatus string) string {
	switch gatewayStatus {
	case razorpay.PaymentStatusCaptured, razorpay.PaymentStatusAuthorized:
		return paymentDatamodel.StatusSuccess
	case razorpay.PaymentStatusFailed:
		return paymentDatamodel.StatusFailed
	case razorpay.PaymentStatusRefunded:
		return paymentDatamodel.StatusRefunded
	default:
		return paymentDatamodel.StatusPending
	}
}
