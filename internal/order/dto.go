package order

import (
	"fmt"
	"math"

	"storefront-api/internal"
	"storefront-api/internal/core/common/validation"
	orderDatamodel "storefront-api/internal/core/datamodel/order"
)

// amountTolerance absorbs float rounding when comparing currency amounts
// expressed in major units.
const amountTolerance = 0.01

type ItemDTO struct {
	ProductID string  `json:"productId"`
	Title     string  `json:"title"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Image     string  `json:"image,omitempty"`
}

type AddressDTO struct {
	FullName     string `json:"fullName"`
	Phone        string `json:"phone"`
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2,omitempty"`
	City         string `json:"city"`
	State        string `json:"state"`
	Pincode      string `json:"pincode"`
	Country      string `json:"country"`
}

type CreateOrderDTO struct {
	Items           []ItemDTO  `json:"items"`
	Subtotal        float64    `json:"subtotal"`
	Discount        float64    `json:"discount"`
	Total           float64    `json:"total"`
	PaymentMethod   string     `json:"paymentMethod"`
	ShippingAddress AddressDTO `json:"shippingAddress"`
	BillingAddress  AddressDTO `json:"billingAddress"`
	CouponCode      *string    `json:"couponCode,omitempty"`
}

func (dto *CreateOrderDTO) Validate() error {
	if len(dto.Items) == 0 {
		return internal.NewValidationError("order must contain at least one item", internal.ErrCodeValidationFailed)
	}

	validator := validation.NewValidator()

	for i, item := range dto.Items {
		prefix := fmt.Sprintf("items[%d]", i)
		validator.Field(prefix+".productId", item.ProductID).Required()
		validator.Field(prefix+".quantity", item.Quantity).Positive(internal.ErrCodeInvalidQuantity)
		validator.Field(prefix+".price", item.Price).NonNegative(internal.ErrCodeInvalidAmount)
	}

	validator.Field("subtotal", dto.Subtotal).Positive(internal.ErrCodeInvalidAmount)
	validator.Field("discount", dto.Discount).NonNegative(internal.ErrCodeInvalidAmount)
	validator.Field("paymentMethod", dto.PaymentMethod).Required().
		OneOf(orderDatamodel.PaymentMethods(), internal.ErrCodeInvalidMethod)

	validateAddress(validator, "shippingAddress", dto.ShippingAddress)
	validateAddress(validator, "billingAddress", dto.BillingAddress)

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}

	if dto.Discount > dto.Subtotal {
		return internal.NewValidationError("discount cannot exceed subtotal", internal.ErrCodeInvalidAmount)
	}
	if math.Abs(dto.Total-(dto.Subtotal-dto.Discount)) > amountTolerance {
		return internal.NewValidationError("total does not match subtotal minus discount", internal.ErrCodeInvalidAmount)
	}

	return nil
}

func validateAddress(validator *validation.ValidationBuilder, prefix string, addr AddressDTO) {
	validator.Field(prefix+".fullName", addr.FullName).Required()
	validator.Field(prefix+".phone", addr.Phone).Required().Phone(10)
	validator.Field(prefix+".addressLine1", addr.AddressLine1).Required()
	validator.Field(prefix+".city", addr.City).Required()
	validator.Field(prefix+".state", addr.State).Required()
	validator.Field(prefix+".pincode", addr.Pincode).Required()
	validator.Field(prefix+".country", addr.Country).Required()
}

func (a AddressDTO) toDataModel() orderDatamodel.Address {
	return orderDatamodel.Address{
		FullName:     a.FullName,
		Phone:        a.Phone,
		AddressLine1: a.AddressLine1,
		AddressLine2: a.AddressLine2,
		City:         a.City,
		State:        a.State,
		Pincode:      a.Pincode,
		Country:      a.Country,
	}
}

type UpdateStatusDTO struct {
	Status string `json:"status"`
}

func (dto *UpdateStatusDTO) Validate() error {
	validator := validation.NewValidator()

	validator.Field("status", dto.Status).Required().
		OneOf(orderDatamodel.FulfillmentStatuses(), internal.ErrCodeInvalidStatus)

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}
