package order

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"storefront-api/internal"
	orderDatamodel "storefront-api/internal/core/datamodel/order"
	productDatamodel "storefront-api/internal/core/datamodel/product"
)

// CatalogAPI is the slice of the catalog service order intake needs to
// re-price submitted items against live products.
type CatalogAPI interface {
	GetProductsByIDs(ids []string) (map[string]*productDatamodel.Product, error)
}

type Repository interface {
	Create(o *orderDatamodel.Order) error
	GetByID(id string) (*orderDatamodel.Order, error)
	GetByUserID(userID string, limit, offset int) ([]*orderDatamodel.Order, error)
	GetAll(limit, offset int) ([]*orderDatamodel.Order, error)
	UpdateStatus(id string, status string) error
	UpdatePaymentStatus(id string, paymentStatus string) error
	MarkPaid(id string, transactionID string) (bool, error)
}

type Service struct {
	repo    Repository
	catalog CatalogAPI
	logger  *slog.Logger
}

func NewService(repo Repository, catalog CatalogAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		catalog: catalog,
		logger:  logger,
	}
}

// CreateOrder validates the submitted cart against the live catalog and
// persists the order with pending payment state. Prices come from the
// catalog, never from the client; any unknown, inactive, or repriced
// product rejects the whole order.
func (s *Service) CreateOrder(userID string, dto *CreateOrderDTO) (*Order, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("order validation failed", "error", err, "user_id", userID)
		return nil, err
	}

	ids := make([]string, 0, len(dto.Items))
	for _, item := range dto.Items {
		ids = append(ids, item.ProductID)
	}

	products, err := s.catalog.GetProductsByIDs(ids)
	if err != nil {
		s.logger.Error("failed to load catalog products for order", "error", err, "user_id", userID)
		return nil, internal.NewInternalError("failed to validate order items", err)
	}

	items := make(orderDatamodel.Items, 0, len(dto.Items))
	var subtotal float64
	for _, item := range dto.Items {
		p, ok := products[item.ProductID]
		if !ok {
			s.logger.Warn("order references unknown or inactive product",
				"user_id", userID, "product_id", item.ProductID)
			return nil, internal.NewValidationError(
				fmt.Sprintf("product %s is not available", item.ProductID),
				internal.ErrCodeProductNotFound)
		}
		if math.Abs(item.Price-p.Price) > amountTolerance {
			s.logger.Warn("order item price does not match catalog",
				"user_id", userID, "product_id", item.ProductID,
				"submitted_price", item.Price, "catalog_price", p.Price)
			return nil, internal.NewValidationError(
				fmt.Sprintf("price for product %s has changed", item.ProductID),
				internal.ErrCodePriceMismatch)
		}

		subtotal += p.Price * float64(item.Quantity)
		items = append(items, orderDatamodel.Item{
			ProductID: p.ID,
			Title:     p.Title,
			Price:     p.Price,
			Quantity:  item.Quantity,
			Image:     p.Image,
		})
	}

	if math.Abs(subtotal-dto.Subtotal) > amountTolerance {
		s.logger.Warn("order subtotal does not match catalog pricing",
			"user_id", userID, "submitted_subtotal", dto.Subtotal, "catalog_subtotal", subtotal)
		return nil, internal.NewValidationError("subtotal does not match catalog pricing", internal.ErrCodePriceMismatch)
	}

	now := time.Now()
	dataOrder := &orderDatamodel.Order{
		UserID:          userID,
		Items:           items,
		Subtotal:        subtotal,
		Discount:        dto.Discount,
		Total:           subtotal - dto.Discount,
		Status:          orderDatamodel.StatusPending,
		PaymentStatus:   orderDatamodel.PaymentStatusPending,
		PaymentMethod:   dto.PaymentMethod,
		ShippingAddress: dto.ShippingAddress.toDataModel(),
		BillingAddress:  dto.BillingAddress.toDataModel(),
		CouponCode:      dto.CouponCode,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.Create(dataOrder); err != nil {
		s.logger.Error("failed to create order", "error", err, "user_id", userID)
		return nil, err
	}

	s.logger.Info("order created",
		"order_id", dataOrder.ID,
		"user_id", userID,
		"total", dataOrder.Total,
		"payment_method", dataOrder.PaymentMethod)

	return FromDataModel(dataOrder), nil
}

// GetOrderByID returns an order, restricted to its owner unless the caller
// is an admin.
func (s *Service) GetOrderByID(id, userID string, isAdmin bool) (*Order, error) {
	dataOrder, err := s.repo.GetByID(id)
	if err != nil {
		s.logger.Error("failed to get order", "error", err, "order_id", id)
		return nil, err
	}
	if dataOrder == nil {
		return nil, internal.ErrOrderNotFound
	}

	if !isAdmin && dataOrder.UserID != userID {
		s.logger.Warn("unauthorized access to order", "order_id", id, "user_id", userID)
		return nil, internal.ErrUnauthorizedAccess
	}

	return FromDataModel(dataOrder), nil
}

func (s *Service) GetUserOrders(userID string, limit, offset int) ([]*Order, error) {
	orders, err := s.repo.GetByUserID(userID, limit, offset)
	if err != nil {
		s.logger.Error("failed to get user orders", "error", err, "user_id", userID)
		return nil, err
	}
	return FromDataModelSlice(orders), nil
}

func (s *Service) GetAllOrders(limit, offset int) ([]*Order, error) {
	orders, err := s.repo.GetAll(limit, offset)
	if err != nil {
		s.logger.Error("failed to get all orders", "error", err)
		return nil, err
	}
	return FromDataModelSlice(orders), nil
}

// UpdateOrderStatus moves an order through the fulfillment flow. Payment
// state is never touched here; that belongs to the payment service.
func (s *Service) UpdateOrderStatus(id string, dto *UpdateStatusDTO) (*Order, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("status update validation failed", "error", err, "order_id", id)
		return nil, err
	}

	dataOrder, err := s.repo.GetByID(id)
	if err != nil {
		s.logger.Error("failed to get order for status update", "error", err, "order_id", id)
		return nil, err
	}
	if dataOrder == nil {
		return nil, internal.ErrOrderNotFound
	}

	if err := s.repo.UpdateStatus(id, dto.Status); err != nil {
		s.logger.Error("failed to update order status", "error", err, "order_id", id, "status", dto.Status)
		return nil, err
	}

	s.logger.Info("order status updated", "order_id", id, "from", dataOrder.Status, "to", dto.Status)

	dataOrder.Status = dto.Status
	dataOrder.UpdatedAt = time.Now()
	return FromDataModel(dataOrder), nil
}
