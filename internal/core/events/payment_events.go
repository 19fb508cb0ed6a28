package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeOrderConfirmed   = "order.confirmed"
	EventTypePaymentCompleted = "payment.completed"
	EventTypePaymentFailed    = "payment.failed"
)

type OrderConfirmedEvent struct {
	BaseEvent
	OrderID string  `json:"order_id"`
	UserID  string  `json:"user_id"`
	Total   float64 `json:"total"`
}

func NewOrderConfirmedEvent(orderID, userID string, total float64) *OrderConfirmedEvent {
	return &OrderConfirmedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeOrderConfirmed,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"order_id": orderID,
				"user_id":  userID,
				"total":    total,
			},
		},
		OrderID: orderID,
		UserID:  userID,
		Total:   total,
	}
}

type PaymentCompletedEvent struct {
	BaseEvent
	PaymentID     string  `json:"payment_id"`
	OrderID       string  `json:"order_id"`
	UserID        string  `json:"user_id"`
	Amount        float64 `json:"amount"`
	TransactionID string  `json:"transaction_id"`
}

func NewPaymentCompletedEvent(paymentID, orderID, userID string, amount float64, transactionID string) *PaymentCompletedEvent {
	return &PaymentCompletedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePaymentCompleted,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"payment_id":     paymentID,
				"order_id":       orderID,
				"user_id":        userID,
				"amount":         amount,
				"transaction_id": transactionID,
			},
		},
		PaymentID:     paymentID,
		OrderID:       orderID,
		UserID:        userID,
		Amount:        amount,
		TransactionID: transactionID,
	}
}

type PaymentFailedEvent struct {
	BaseEvent
	OrderID       string  `json:"order_id"`
	TransactionID string  `json:"transaction_id"`
	Amount        float64 `json:"amount"`
	FailureReason string  `json:"failure_reason"`
}

func NewPaymentFailedEvent(orderID, transactionID string, amount float64, failureReason string) *PaymentFailedEvent {
	return &PaymentFailedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePaymentFailed,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"order_id":       orderID,
				"transaction_id": transactionID,
				"amount":         amount,
				"failure_reason": failureReason,
			},
		},
		OrderID:       orderID,
		TransactionID: transactionID,
		Amount:        amount,
		FailureReason: failureReason,
	}
}
