package order

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Fulfillment statuses. Advanced only by admins, except the pending→confirmed
// transition applied together with a successful payment.
const (
	StatusPending    = "pending"
	StatusConfirmed  = "confirmed"
	StatusProcessing = "processing"
	StatusShipped    = "shipped"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"
)

const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
)

const (
	MethodCard       = "card"
	MethodUPI        = "upi"
	MethodNetbanking = "netbanking"
	MethodCOD        = "cod"
)

func FulfillmentStatuses() []string {
	return []string{StatusPending, StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled}
}

func PaymentMethods() []string {
	return []string{MethodCard, MethodUPI, MethodNetbanking, MethodCOD}
}

// Item is a line-item snapshot captured at order creation; it is never
// re-derived from the live catalog.
type Item struct {
	ProductID string  `json:"productId"`
	Title     string  `json:"title"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Image     string  `json:"image"`
}

type Items []Item

func (i Items) Value() (driver.Value, error) {
	return json.Marshal(i)
}

func (i *Items) Scan(value interface{}) error {
	return scanJSON(value, i)
}

type Address struct {
	FullName     string `json:"fullName"`
	Phone        string `json:"phone"`
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2,omitempty"`
	City         string `json:"city"`
	State        string `json:"state"`
	Pincode      string `json:"pincode"`
	Country      string `json:"country"`
}

func (a Address) Value() (driver.Value, error) {
	return json.Marshal(a)
}

func (a *Address) Scan(value interface{}) error {
	return scanJSON(value, a)
}

type Order struct {
	ID              string  `json:"id" gorm:"primaryKey"`
	UserID          string  `json:"userId" gorm:"column:user_id;not null;index"`
	Items           Items   `json:"items" gorm:"column:items;type:jsonb;not null"`
	Subtotal        float64 `json:"subtotal" gorm:"column:subtotal;not null"`
	Discount        float64 `json:"discount" gorm:"column:discount;default:0"`
	Total           float64 `json:"total" gorm:"column:total;not null"`
	Status          string  `json:"status" gorm:"column:status;default:pending;index"`
	PaymentStatus   string  `json:"paymentStatus" gorm:"column:payment_status;default:pending;index"`
	PaymentMethod   string  `json:"paymentMethod" gorm:"column:payment_method;not null"`
	ShippingAddress Address `json:"shippingAddress" gorm:"column:shipping_address;type:jsonb;not null"`
	BillingAddress  Address `json:"billingAddress" gorm:"column:billing_address;type:jsonb;not null"`
	CouponCode      *string `json:"couponCode,omitempty" gorm:"column:coupon_code"`
	// TransactionID holds the gateway payment id once the order is paid.
	TransactionID *string   `json:"transactionId,omitempty" gorm:"column:transaction_id;index"`
	CreatedAt     time.Time `json:"createdAt" gorm:"column:created_at"`
	UpdatedAt     time.Time `json:"updatedAt" gorm:"column:updated_at"`
}

func (Order) TableName() string {
	return "orders"
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

func scanJSON(value, dest interface{}) error {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dest)
	case string:
		return json.Unmarshal([]byte(v), dest)
	default:
		return errors.New("unsupported column type for JSON scan")
	}
}
