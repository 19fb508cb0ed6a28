package payment

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StatusPending  = "pending"
	StatusSuccess  = "success"
	StatusFailed   = "failed"
	StatusRefunded = "refunded"
)

func Statuses() []string {
	return []string{StatusPending, StatusSuccess, StatusFailed, StatusRefunded}
}

// Payment is the audit record of one attempt to pay for one order. The gateway
// response payload is stored verbatim for debugging and reconciliation.
type Payment struct {
	ID              string          `json:"id" gorm:"primaryKey"`
	OrderID         string          `json:"orderId" gorm:"column:order_id;not null;index"`
	UserID          string          `json:"userId" gorm:"column:user_id;not null;index"`
	Amount          float64         `json:"amount" gorm:"column:amount;not null"`
	Method          string          `json:"method" gorm:"column:method;not null"`
	Status          string          `json:"status" gorm:"column:status;default:pending;index"`
	TransactionID   *string         `json:"transactionId,omitempty" gorm:"column:transaction_id;uniqueIndex"`
	GatewayResponse json.RawMessage `json:"gatewayResponse,omitempty" gorm:"column:gateway_response;type:jsonb"`
	FailureReason   *string         `json:"failureReason,omitempty" gorm:"column:failure_reason"`
	RefundID        *string         `json:"refundId,omitempty" gorm:"column:refund_id"`
	RefundAmount    *float64        `json:"refundAmount,omitempty" gorm:"column:refund_amount"`
	CreatedAt       time.Time       `json:"createdAt" gorm:"column:created_at"`
	UpdatedAt       time.Time       `json:"updatedAt" gorm:"column:updated_at"`
}

func (Payment) TableName() string {
	return "payments"
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
