package order

import (
	"time"

	orderDatamodel "storefront-api/internal/core/datamodel/order"
)

type Order struct {
	ID              string                 `json:"id"`
	UserID          string                 `json:"userId"`
	Items           []orderDatamodel.Item  `json:"items"`
	Subtotal        float64                `json:"subtotal"`
	Discount        float64                `json:"discount"`
	Total           float64                `json:"total"`
	Status          string                 `json:"status"`
	PaymentStatus   string                 `json:"paymentStatus"`
	PaymentMethod   string                 `json:"paymentMethod"`
	ShippingAddress orderDatamodel.Address `json:"shippingAddress"`
	BillingAddress  orderDatamodel.Address `json:"billingAddress"`
	CouponCode      *string                `json:"couponCode,omitempty"`
	TransactionID   *string                `json:"transactionId,omitempty"`
	CreatedAt       time.Time              `json:"createdAt"`
	UpdatedAt       time.Time              `json:"updatedAt"`
}

func (o *Order) IsPaid() bool {
	return o.PaymentStatus == orderDatamodel.PaymentStatusPaid
}

func (o *Order) BelongsTo(userID string) bool {
	return o.UserID == userID
}

func ToDataModel(o *Order) *orderDatamodel.Order {
	return &orderDatamodel.Order{
		ID:              o.ID,
		UserID:          o.UserID,
		Items:           orderDatamodel.Items(o.Items),
		Subtotal:        o.Subtotal,
		Discount:        o.Discount,
		Total:           o.Total,
		Status:          o.Status,
		PaymentStatus:   o.PaymentStatus,
		PaymentMethod:   o.PaymentMethod,
		ShippingAddress: o.ShippingAddress,
		BillingAddress:  o.BillingAddress,
		CouponCode:      o.CouponCode,
		TransactionID:   o.TransactionID,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

func FromDataModel(o *orderDatamodel.Order) *Order {
	return &Order{
		ID:              o.ID,
		UserID:          o.UserID,
		Items:           []orderDatamodel.Item(o.Items),
		Subtotal:        o.Subtotal,
		Discount:        o.Discount,
		Total:           o.Total,
		Status:          o.Status,
		PaymentStatus:   o.PaymentStatus,
		PaymentMethod:   o.PaymentMethod,
		ShippingAddress: o.ShippingAddress,
		BillingAddress:  o.BillingAddress,
		CouponCode:      o.CouponCode,
		TransactionID:   o.TransactionID,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

func FromDataModelSlice(orders []*orderDatamodel.Order) []*Order {
	result := make([]*Order, len(orders))
	for i, o := range orders {
		result[i] = FromDataModel(o)
	}
	return result
}
