package postgres

import (
	"time"

	orderDatamodel "storefront-api/internal/core/datamodel/order"

	"gorm.io/gorm"
)

// OrderRepository implements the order.Repository interface using GORM. The
// extra transaction-id lookup also makes it usable as the payment flow's
// order store.
type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(o *orderDatamodel.Order) error {
	return r.db.Create(o).Error
}

func (r *OrderRepository) GetByID(id string) (*orderDatamodel.Order, error) {
	var o orderDatamodel.Order
	err := r.db.Where("id = ?", id).First(&o).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) GetByTransactionID(transactionID string) (*orderDatamodel.Order, error) {
	var o orderDatamodel.Order
	err := r.db.Where("transaction_id = ?", transactionID).First(&o).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) GetByUserID(userID string, limit, offset int) ([]*orderDatamodel.Order, error) {
	var orders []*orderDatamodel.Order
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&orders).Error
	return orders, err
}

func (r *OrderRepository) GetAll(limit, offset int) ([]*orderDatamodel.Order, error) {
	var orders []*orderDatamodel.Order
	err := r.db.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&orders).Error
	return orders, err
}

func (r *OrderRepository) UpdateStatus(id string, status string) error {
	return r.db.Model(&orderDatamodel.Order{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		}).Error
}

func (r *OrderRepository) UpdatePaymentStatus(id string, paymentStatus string) error {
	return r.db.Model(&orderDatamodel.Order{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"payment_status": paymentStatus,
			"updated_at":     time.Now(),
		}).Error
}

// MarkPaid flips an order to paid/confirmed and records the gateway payment
// id. The update is conditional on the order still being payment-pending, so
// concurrent verifications settle the order exactly once; the returned bool
// reports whether this call won the transition.
func (r *OrderRepository) MarkPaid(id string, transactionID string) (bool, error) {
	res := r.db.Model(&orderDatamodel.Order{}).
		Where("id = ? AND payment_status = ?", id, orderDatamodel.PaymentStatusPending).
		Updates(map[string]interface{}{
			"payment_status": orderDatamodel.PaymentStatusPaid,
			"status":         orderDatamodel.StatusConfirmed,
			"transaction_id": transactionID,
			"updated_at":     time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
