package payment_test

import (
	"context"
	"log/slog"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"storefront-api/internal"
	orderDatamodel "storefront-api/internal/core/datamodel/order"
	paymentDatamodel "storefront-api/internal/core/datamodel/payment"
	"storefront-api/internal/core/events"
	paymentPkg "storefront-api/internal/payment"
	"storefront-api/internal/razorpay"
)

// GetStuckPending makes the mock repository usable as a ReconcilerStore. Age
// filtering is exercised against a real database in the postgres package.
func (m *mockPaymentRepo) GetStuckPending(olderThan time.Time, limit int) ([]*paymentDatamodel.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*paymentDatamodel.Payment
	for _, p := range m.byTransactionID {
		if p.Status == paymentDatamodel.StatusPending && p.TransactionID != nil {
			out = append(out, p)
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

var _ = Describe("Reconciler", func() {
	var (
		reconciler *paymentPkg.Reconciler
		gateway    *mockGateway
		repo       *mockPaymentRepo
		orderStore *mockOrderStore
	)

	quietLogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	seedStuckPayment := func(txn, orderID string) {
		repo.byTransactionID[txn] = &paymentDatamodel.Payment{
			ID:            "pay-" + txn,
			OrderID:       orderID,
			UserID:        "user-1",
			Amount:        5310.00,
			Method:        "upi",
			Status:        paymentDatamodel.StatusPending,
			TransactionID: &txn,
		}
		orderStore.orders[orderID] = &orderDatamodel.Order{
			ID:            orderID,
			UserID:        "user-1",
			Total:         5310.00,
			Status:        orderDatamodel.StatusPending,
			PaymentStatus: orderDatamodel.PaymentStatusPending,
		}
	}

	BeforeEach(func() {
		gateway = &mockGateway{}
		repo = newMockPaymentRepo()
		orderStore = newMockOrderStore()

		reconciler = paymentPkg.NewReconciler(gateway, repo, orderStore,
			events.NewEventBus(quietLogger),
			paymentPkg.ReconcilerConfig{
				// A long interval keeps the ticker quiet; the tests drive
				// scans through RunOnce.
				Interval:   time.Hour,
				MinAge:     time.Millisecond,
				BatchSize:  10,
				MaxWorkers: 2,
			}, quietLogger)
		reconciler.Start()
	})

	AfterEach(func() {
		reconciler.Shutdown()
	})

	Context("when the gateway reports the payment captured", func() {
		It("settles the payment and the order", func() {
			// Given
			seedStuckPayment("pay_stuck", "order-1")
			gateway.payment = &razorpay.Payment{
				ID:      "pay_stuck",
				OrderID: "order_gw123",
				Status:  razorpay.PaymentStatusCaptured,
				Method:  "upi",
				Amount:  531000,
			}

			// When
			reconciler.RunOnce(context.Background())

			// Then
			Eventually(func() string {
				return repo.statusOf("pay_stuck")
			}).Should(Equal(paymentDatamodel.StatusSuccess))

			Eventually(func() string {
				return orderStore.paymentStatusOf("order-1")
			}).Should(Equal(orderDatamodel.PaymentStatusPaid))
		})
	})

	Context("when the gateway reports the payment failed", func() {
		It("marks the payment failed with the gateway's reason", func() {
			// Given
			seedStuckPayment("pay_stuck", "order-1")
			gateway.payment = &razorpay.Payment{
				ID:               "pay_stuck",
				OrderID:          "order_gw123",
				Status:           razorpay.PaymentStatusFailed,
				Amount:           531000,
				ErrorDescription: "card declined",
			}

			// When
			reconciler.RunOnce(context.Background())

			// Then
			Eventually(func() string {
				return repo.statusOf("pay_stuck")
			}).Should(Equal(paymentDatamodel.StatusFailed))

			Expect(orderStore.paymentStatusOf("order-1")).To(Equal(orderDatamodel.PaymentStatusPending))
		})
	})

	Context("when the gateway still reports the payment created", func() {
		It("leaves the payment pending for a later pass", func() {
			// Given
			seedStuckPayment("pay_stuck", "order-1")
			gateway.payment = &razorpay.Payment{
				ID:      "pay_stuck",
				OrderID: "order_gw123",
				Status:  razorpay.PaymentStatusCreated,
				Amount:  531000,
			}

			// When
			reconciler.RunOnce(context.Background())

			// Then
			Eventually(gateway.fetchCallCount).Should(BeNumerically(">=", 1))
			Consistently(func() string {
				return repo.statusOf("pay_stuck")
			}, 100*time.Millisecond).Should(Equal(paymentDatamodel.StatusPending))
		})
	})

	Context("when the gateway is unreachable", func() {
		It("keeps the payment pending and tries again next pass", func() {
			// Given
			seedStuckPayment("pay_stuck", "order-1")
			gateway.fetchError = internal.NewExternalError("gateway down", nil)

			// When
			reconciler.RunOnce(context.Background())

			// Then
			Eventually(gateway.fetchCallCount).Should(BeNumerically(">=", 1))
			Expect(repo.statusOf("pay_stuck")).To(Equal(paymentDatamodel.StatusPending))
		})
	})
})
