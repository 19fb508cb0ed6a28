package payment

import (
	"storefront-api/internal"
	"storefront-api/internal/core/common/validation"
	paymentDatamodel "storefront-api/internal/core/datamodel/payment"
	"storefront-api/internal/order"
)

// CreateGatewayOrderDTO carries the checkout amount in major currency units.
type CreateGatewayOrderDTO struct {
	Amount float64 `json:"amount"`
}

func (dto *CreateGatewayOrderDTO) Validate() error {
	validator := validation.NewValidator()

	validator.Field("amount", dto.Amount).Positive(internal.ErrCodeInvalidAmount)

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// CreateGatewayOrderResponse is what the checkout page needs to open the
// gateway widget. Amount is in minor units, as the gateway expects.
type CreateGatewayOrderResponse struct {
	OrderID  string `json:"orderId"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	KeyID    string `json:"keyId"`
}

// VerifyPaymentDTO is the client-side checkout callback payload. The three
// razorpay_* fields come from the gateway widget verbatim; orderId is ours.
type VerifyPaymentDTO struct {
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpaySignature string `json:"razorpay_signature"`
	OrderID           string `json:"orderId"`
}

func (dto *VerifyPaymentDTO) Validate() error {
	validator := validation.NewValidator()

	validator.Field("razorpay_order_id", dto.RazorpayOrderID).Required()
	validator.Field("razorpay_payment_id", dto.RazorpayPaymentID).Required()
	validator.Field("razorpay_signature", dto.RazorpaySignature).Required()
	validator.Field("orderId", dto.OrderID).Required()

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// VerifyPaymentResponse carries the settled order back to the checkout page
// so it can render the confirmation without a second fetch.
type VerifyPaymentResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Order   *order.Order `json:"order"`
}

// ListPaymentsQuery filters the admin payment listing.
type ListPaymentsQuery struct {
	Status  string
	Method  string
	OrderID string
	Limit   int
	Offset  int
}

func (q *ListPaymentsQuery) Validate() error {
	if q.Limit <= 0 || q.Limit > 100 {
		q.Limit = 20
	}
	if q.Offset < 0 {
		q.Offset = 0
	}

	if q.Status == "" {
		return nil
	}

	validator := validation.NewValidator()
	validator.Field("status", q.Status).OneOf(paymentDatamodel.Statuses(), internal.ErrCodeInvalidStatus)

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// WebhookEvent mirrors the gateway webhook envelope for payment events.
type WebhookEvent struct {
	Event   string         `json:"event"`
	Payload WebhookPayload `json:"payload"`
}

type WebhookPayload struct {
	Payment WebhookPaymentWrapper `json:"payment"`
}

type WebhookPaymentWrapper struct {
	Entity WebhookPaymentEntity `json:"entity"`
}

// WebhookPaymentEntity is the gateway payment embedded in a webhook. Amount
// is in minor units.
type WebhookPaymentEntity struct {
	ID               string `json:"id"`
	OrderID          string `json:"order_id"`
	Status           string `json:"status"`
	Method           string `json:"method"`
	Amount           int64  `json:"amount"`
	Currency         string `json:"currency"`
	ErrorDescription string `json:"error_description"`
}
