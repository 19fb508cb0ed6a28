package postgres

import (
	"encoding/json"
	"time"

	paymentDatamodel "storefront-api/internal/core/datamodel/payment"
	"storefront-api/internal/payment"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PaymentRepository implements payment.Repository and payment.ReconcilerStore
// using GORM
type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// UpsertByTransactionID inserts the record or, when a row already carries
// the same gateway transaction id, refreshes its status and gateway payload.
// Both the checkout callback and the webhook land here, so double delivery
// converges on a single row.
func (r *PaymentRepository) UpsertByTransactionID(p *paymentDatamodel.Payment) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "transaction_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"status", "method", "gateway_response", "failure_reason", "updated_at",
		}),
	}).Create(p).Error
}

func (r *PaymentRepository) GetByTransactionID(transactionID string) (*paymentDatamodel.Payment, error) {
	var p paymentDatamodel.Payment
	err := r.db.Where("transaction_id = ?", transactionID).First(&p).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) UpdateStatusByTransactionID(transactionID, status string, gatewayResponse json.RawMessage, failureReason *string) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	if gatewayResponse != nil {
		updates["gateway_response"] = gatewayResponse
	}
	if failureReason != nil {
		updates["failure_reason"] = *failureReason
	}

	return r.db.Model(&paymentDatamodel.Payment{}).
		Where("transaction_id = ?", transactionID).
		Updates(updates).Error
}

func (r *PaymentRepository) List(query *payment.ListPaymentsQuery) ([]*paymentDatamodel.Payment, error) {
	db := r.db.Model(&paymentDatamodel.Payment{})

	if query.Status != "" {
		db = db.Where("status = ?", query.Status)
	}
	if query.Method != "" {
		db = db.Where("method = ?", query.Method)
	}
	if query.OrderID != "" {
		db = db.Where("order_id = ?", query.OrderID)
	}

	var payments []*paymentDatamodel.Payment
	err := db.Order("created_at DESC").
		Limit(query.Limit).
		Offset(query.Offset).
		Find(&payments).Error
	return payments, err
}

// GetStuckPending returns payments still pending after olderThan that carry
// a gateway transaction id, oldest first.
func (r *PaymentRepository) GetStuckPending(olderThan time.Time, limit int) ([]*paymentDatamodel.Payment, error) {
	var payments []*paymentDatamodel.Payment
	err := r.db.Where("status = ? AND transaction_id IS NOT NULL AND created_at < ?",
		paymentDatamodel.StatusPending, olderThan).
		Order("created_at ASC").
		Limit(limit).
		Find(&payments).Error
	return payments, err
}
