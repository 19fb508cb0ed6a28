package order_test

import (
	"context"
	"log/slog"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	orderDatamodel "storefront-api/internal/core/datamodel/order"
	"storefront-api/internal/core/events"
	orderPkg "storefront-api/internal/order"
)

var _ = Describe("OrderEventHandler", func() {
	var (
		handler *orderPkg.EventHandler
		repo    *mockOrderRepository
		ctx     context.Context
	)

	quietLogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	BeforeEach(func() {
		repo = newMockOrderRepository()
		handler = orderPkg.NewEventHandler(repo, quietLogger)
		ctx = context.Background()
	})

	Describe("HandlePaymentFailed", func() {
		Context("when the order is still payment-pending", func() {
			It("marks the order's payment failed", func() {
				// Given
				repo.orders["order-1"] = &orderDatamodel.Order{
					ID:            "order-1",
					UserID:        "user-1",
					PaymentStatus: orderDatamodel.PaymentStatusPending,
				}

				// When
				err := handler.HandlePaymentFailed(ctx,
					events.NewPaymentFailedEvent("order-1", "pay_abc", 5310.00, "card declined"))

				// Then
				Expect(err).ToNot(HaveOccurred())
				Expect(repo.orders["order-1"].PaymentStatus).To(Equal(orderDatamodel.PaymentStatusFailed))
			})
		})

		Context("when the order was already paid", func() {
			It("ignores the late failure", func() {
				// Given
				repo.orders["order-1"] = &orderDatamodel.Order{
					ID:            "order-1",
					UserID:        "user-1",
					PaymentStatus: orderDatamodel.PaymentStatusPaid,
				}

				// When
				err := handler.HandlePaymentFailed(ctx,
					events.NewPaymentFailedEvent("order-1", "pay_abc", 5310.00, "card declined"))

				// Then
				Expect(err).ToNot(HaveOccurred())
				Expect(repo.orders["order-1"].PaymentStatus).To(Equal(orderDatamodel.PaymentStatusPaid))
			})
		})

		Context("when the order is unknown", func() {
			It("drops the event without an error", func() {
				// When
				err := handler.HandlePaymentFailed(ctx,
					events.NewPaymentFailedEvent("order-missing", "pay_abc", 5310.00, "card declined"))

				// Then
				Expect(err).ToNot(HaveOccurred())
			})
		})

		Context("when given the wrong event type", func() {
			It("returns an error", func() {
				// When
				err := handler.HandlePaymentFailed(ctx,
					events.NewPaymentCompletedEvent("pay-1", "order-1", "user-1", 5310.00, "pay_abc"))

				// Then
				Expect(err).To(HaveOccurred())
			})
		})
	})

	Describe("HandlePaymentCompleted", func() {
		It("accepts the event without touching the order", func() {
			// Given
			repo.orders["order-1"] = &orderDatamodel.Order{
				ID:            "order-1",
				PaymentStatus: orderDatamodel.PaymentStatusPaid,
			}

			// When
			err := handler.HandlePaymentCompleted(ctx,
				events.NewPaymentCompletedEvent("pay-1", "order-1", "user-1", 5310.00, "pay_abc"))

			// Then
			Expect(err).ToNot(HaveOccurred())
			Expect(repo.orders["order-1"].PaymentStatus).To(Equal(orderDatamodel.PaymentStatusPaid))
		})
	})
})
