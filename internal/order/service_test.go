package order_test

import (
	"errors"
	"log/slog"
	"os"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"storefront-api/internal"
	orderDatamodel "storefront-api/internal/core/datamodel/order"
	productDatamodel "storefront-api/internal/core/datamodel/product"
	orderPkg "storefront-api/internal/order"
)

func TestOrderService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Order Service Suite")
}

type mockOrderRepository struct {
	orders      map[string]*orderDatamodel.Order
	createError error
	getError    error
}

func newMockOrderRepository() *mockOrderRepository {
	return &mockOrderRepository{orders: make(map[string]*orderDatamodel.Order)}
}

func (m *mockOrderRepository) Create(o *orderDatamodel.Order) error {
	if m.createError != nil {
		return m.createError
	}
	if o.ID == "" {
		o.ID = "order-1"
	}
	m.orders[o.ID] = o
	return nil
}

func (m *mockOrderRepository) GetByID(id string) (*orderDatamodel.Order, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	return m.orders[id], nil
}

func (m *mockOrderRepository) GetByUserID(userID string, limit, offset int) ([]*orderDatamodel.Order, error) {
	var out []*orderDatamodel.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *mockOrderRepository) GetAll(limit, offset int) ([]*orderDatamodel.Order, error) {
	var out []*orderDatamodel.Order
	for _, o := range m.orders {
		out = append(out, o)
	}
	return out, nil
}

func (m *mockOrderRepository) UpdateStatus(id string, status string) error {
	if o, ok := m.orders[id]; ok {
		o.Status = status
	}
	return nil
}

func (m *mockOrderRepository) UpdatePaymentStatus(id string, paymentStatus string) error {
	if o, ok := m.orders[id]; ok {
		o.PaymentStatus = paymentStatus
	}
	return nil
}

func (m *mockOrderRepository) MarkPaid(id string, transactionID string) (bool, error) {
	o, ok := m.orders[id]
	if !ok || o.PaymentStatus != orderDatamodel.PaymentStatusPending {
		return false, nil
	}
	o.PaymentStatus = orderDatamodel.PaymentStatusPaid
	o.TransactionID = &transactionID
	return true, nil
}

type mockCatalog struct {
	products map[string]*productDatamodel.Product
	getError error
}

func (m *mockCatalog) GetProductsByIDs(ids []string) (map[string]*productDatamodel.Product, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	out := make(map[string]*productDatamodel.Product)
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

var _ = Describe("OrderService", func() {
	var (
		service *orderPkg.Service
		repo    *mockOrderRepository
		catalog *mockCatalog
	)

	quietLogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	address := orderPkg.AddressDTO{
		FullName:     "Test User",
		Phone:        "9876543210",
		AddressLine1: "1 Main St",
		City:         "Bengaluru",
		State:        "KA",
		Pincode:      "560001",
		Country:      "IN",
	}

	validDTO := func() *orderPkg.CreateOrderDTO {
		return &orderPkg.CreateOrderDTO{
			Items: []orderPkg.ItemDTO{
				{ProductID: "prod-1", Title: "Mechanical Keyboard", Price: 5310.00, Quantity: 1},
			},
			Subtotal:        5310.00,
			Discount:        0,
			Total:           5310.00,
			PaymentMethod:   orderDatamodel.MethodUPI,
			ShippingAddress: address,
			BillingAddress:  address,
		}
	}

	BeforeEach(func() {
		repo = newMockOrderRepository()
		catalog = &mockCatalog{products: map[string]*productDatamodel.Product{
			"prod-1": {ID: "prod-1", Title: "Mechanical Keyboard", Price: 5310.00, Image: "keyboard.jpg", IsActive: true},
			"prod-2": {ID: "prod-2", Title: "USB Cable", Price: 299.00, Image: "cable.jpg", IsActive: true},
		}}
		service = orderPkg.NewService(repo, catalog, quietLogger)
	})

	Describe("CreateOrder", func() {
		Context("when the cart matches the catalog", func() {
			It("creates a pending order with snapshots taken from the catalog", func() {
				// Given
				dto := validDTO()
				dto.Items[0].Title = "renamed by client"
				dto.Items[0].Image = "spoofed.jpg"

				// When
				created, err := service.CreateOrder("user-1", dto)

				// Then
				Expect(err).ToNot(HaveOccurred())
				Expect(created.UserID).To(Equal("user-1"))
				Expect(created.Status).To(Equal(orderDatamodel.StatusPending))
				Expect(created.PaymentStatus).To(Equal(orderDatamodel.PaymentStatusPending))
				Expect(created.Total).To(Equal(5310.00))

				Expect(created.Items).To(HaveLen(1))
				Expect(created.Items[0].Title).To(Equal("Mechanical Keyboard"))
				Expect(created.Items[0].Image).To(Equal("keyboard.jpg"))
				Expect(created.Items[0].Price).To(Equal(5310.00))
			})

			It("computes the total from the catalog subtotal minus the discount", func() {
				// Given
				dto := validDTO()
				dto.Items = append(dto.Items, orderPkg.ItemDTO{
					ProductID: "prod-2", Price: 299.00, Quantity: 2,
				})
				dto.Subtotal = 5908.00
				dto.Discount = 500.00
				dto.Total = 5408.00

				// When
				created, err := service.CreateOrder("user-1", dto)

				// Then
				Expect(err).ToNot(HaveOccurred())
				Expect(created.Subtotal).To(Equal(5908.00))
				Expect(created.Total).To(Equal(5408.00))
			})
		})

		Context("when the cart disagrees with the catalog", func() {
			It("rejects an item priced below the catalog", func() {
				// Given
				dto := validDTO()
				dto.Items[0].Price = 1.00
				dto.Subtotal = 1.00
				dto.Total = 1.00

				// When
				_, err := service.CreateOrder("user-1", dto)

				// Then
				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Code).To(Equal(internal.ErrCodePriceMismatch))
				Expect(repo.orders).To(BeEmpty())
			})

			It("rejects an unknown product", func() {
				// Given
				dto := validDTO()
				dto.Items[0].ProductID = "prod-missing"

				// When
				_, err := service.CreateOrder("user-1", dto)

				// Then
				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Code).To(Equal(internal.ErrCodeProductNotFound))
			})

			It("rejects a subtotal that does not match quantity times catalog price", func() {
				// Given
				dto := validDTO()
				dto.Items[0].Quantity = 2
				// subtotal left at the single-item amount, total adjusted to match it
				dto.Total = dto.Subtotal

				// When
				_, err := service.CreateOrder("user-1", dto)

				// Then
				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Code).To(Equal(internal.ErrCodePriceMismatch))
			})
		})

		Context("when the payload is malformed", func() {
			It("rejects an empty cart", func() {
				// Given
				dto := validDTO()
				dto.Items = nil

				// When
				_, err := service.CreateOrder("user-1", dto)

				// Then
				Expect(err).To(HaveOccurred())
			})

			It("rejects a total that ignores the discount", func() {
				// Given
				dto := validDTO()
				dto.Discount = 100.00
				// total still equals the full subtotal

				// When
				_, err := service.CreateOrder("user-1", dto)

				// Then
				Expect(err).To(HaveOccurred())
			})

			It("rejects a discount larger than the subtotal", func() {
				// Given
				dto := validDTO()
				dto.Discount = 6000.00
				dto.Total = -690.00

				// When
				_, err := service.CreateOrder("user-1", dto)

				// Then
				Expect(err).To(HaveOccurred())
			})

			It("rejects an unsupported payment method", func() {
				// Given
				dto := validDTO()
				dto.PaymentMethod = "barter"

				// When
				_, err := service.CreateOrder("user-1", dto)

				// Then
				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidMethod))
			})
		})

		Context("when the catalog is unavailable", func() {
			It("returns an internal error", func() {
				// Given
				catalog.getError = errors.New("db down")

				// When
				_, err := service.CreateOrder("user-1", validDTO())

				// Then
				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Type).To(Equal(internal.ErrorTypeInternal))
			})
		})
	})

	Describe("GetOrderByID", func() {
		BeforeEach(func() {
			repo.orders["order-1"] = &orderDatamodel.Order{
				ID:     "order-1",
				UserID: "user-1",
				Status: orderDatamodel.StatusPending,
			}
		})

		It("returns the order to its owner", func() {
			// When
			result, err := service.GetOrderByID("order-1", "user-1", false)

			// Then
			Expect(err).ToNot(HaveOccurred())
			Expect(result.ID).To(Equal("order-1"))
		})

		It("returns the order to an admin who does not own it", func() {
			// When
			result, err := service.GetOrderByID("order-1", "admin-1", true)

			// Then
			Expect(err).ToNot(HaveOccurred())
			Expect(result.ID).To(Equal("order-1"))
		})

		It("refuses another customer's order", func() {
			// When
			_, err := service.GetOrderByID("order-1", "user-2", false)

			// Then
			Expect(err).To(MatchError(internal.ErrUnauthorizedAccess))
		})

		It("returns not-found for an unknown id", func() {
			// When
			_, err := service.GetOrderByID("order-missing", "user-1", false)

			// Then
			Expect(err).To(MatchError(internal.ErrOrderNotFound))
		})
	})

	Describe("UpdateOrderStatus", func() {
		BeforeEach(func() {
			repo.orders["order-1"] = &orderDatamodel.Order{
				ID:     "order-1",
				UserID: "user-1",
				Status: orderDatamodel.StatusConfirmed,
			}
		})

		It("advances the fulfillment status", func() {
			// When
			result, err := service.UpdateOrderStatus("order-1", &orderPkg.UpdateStatusDTO{Status: orderDatamodel.StatusShipped})

			// Then
			Expect(err).ToNot(HaveOccurred())
			Expect(result.Status).To(Equal(orderDatamodel.StatusShipped))
			Expect(repo.orders["order-1"].Status).To(Equal(orderDatamodel.StatusShipped))
		})

		It("rejects a status outside the fulfillment flow", func() {
			// When
			_, err := service.UpdateOrderStatus("order-1", &orderPkg.UpdateStatusDTO{Status: "teleported"})

			// Then
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidStatus))
		})

		It("returns not-found for an unknown order", func() {
			// When
			_, err := service.UpdateOrderStatus("order-missing", &orderPkg.UpdateStatusDTO{Status: orderDatamodel.StatusShipped})

			// Then
			Expect(err).To(MatchError(internal.ErrOrderNotFound))
		})
	})
})
