package postgres

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	paymentDatamodel "storefront-api/internal/core/datamodel/payment"
	paymentPkg "storefront-api/internal/payment"
)

func TestPaymentRepository(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Payment Repository Suite")
}

// PaymentSQLite mirrors the payment model with text instead of jsonb for
// SQLite compatibility in tests
type PaymentSQLite struct {
	ID              string    `gorm:"primaryKey"`
	OrderID         string    `gorm:"column:order_id;not null;index"`
	UserID          string    `gorm:"column:user_id;not null;index"`
	Amount          float64   `gorm:"column:amount;not null"`
	Method          string    `gorm:"column:method;not null"`
	Status          string    `gorm:"column:status;default:pending;index"`
	TransactionID   *string   `gorm:"column:transaction_id;uniqueIndex"`
	GatewayResponse string    `gorm:"column:gateway_response;type:text"`
	FailureReason   *string   `gorm:"column:failure_reason"`
	RefundID        *string   `gorm:"column:refund_id"`
	RefundAmount    *float64  `gorm:"column:refund_amount"`
	CreatedAt       time.Time `gorm:"column:created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at"`
}

func (PaymentSQLite) TableName() string {
	return "payments"
}

func strPtr(s string) *string {
	return &s
}

var _ = ginkgo.Describe("PaymentRepository", func() {
	var (
		db   *gorm.DB
		repo *PaymentRepository
	)

	ginkgo.BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			NowFunc: func() time.Time {
				return time.Now().UTC()
			},
		})
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		err = db.AutoMigrate(&PaymentSQLite{})
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		repo = NewPaymentRepository(db)
	})

	newPayment := func(orderID, transactionID, status string) *paymentDatamodel.Payment {
		return &paymentDatamodel.Payment{
			OrderID:       orderID,
			UserID:        "user-1",
			Amount:        5310.00,
			Method:        "upi",
			Status:        status,
			TransactionID: strPtr(transactionID),
		}
	}

	ginkgo.Describe("UpsertByTransactionID", func() {
		ginkgo.Context("when no row carries the transaction id", func() {
			ginkgo.It("should insert a new payment and assign an id", func() {
				// Given
				p := newPayment("order-1", "pay_abc", paymentDatamodel.StatusPending)

				// When
				err := repo.UpsertByTransactionID(p)

				// Then
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(p.ID).ToNot(gomega.BeEmpty())
			})
		})

		ginkgo.Context("when a row already carries the transaction id", func() {
			ginkgo.It("should refresh the existing row instead of inserting a second one", func() {
				// Given
				first := newPayment("order-1", "pay_abc", paymentDatamodel.StatusPending)
				gomega.Expect(repo.UpsertByTransactionID(first)).To(gomega.Succeed())

				second := newPayment("order-1", "pay_abc", paymentDatamodel.StatusSuccess)
				second.GatewayResponse = json.RawMessage(`{"status":"captured"}`)

				// When
				err := repo.UpsertByTransactionID(second)

				// Then
				gomega.Expect(err).ToNot(gomega.HaveOccurred())

				var count int64
				gomega.Expect(db.Model(&paymentDatamodel.Payment{}).Count(&count).Error).To(gomega.Succeed())
				gomega.Expect(count).To(gomega.Equal(int64(1)))

				stored, err := repo.GetByTransactionID("pay_abc")
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(stored.Status).To(gomega.Equal(paymentDatamodel.StatusSuccess))
			})
		})
	})

	ginkgo.Describe("GetByTransactionID", func() {
		ginkgo.Context("when the payment exists", func() {
			ginkgo.It("should return the payment", func() {
				// Given
				p := newPayment("order-1", "pay_abc", paymentDatamodel.StatusSuccess)
				gomega.Expect(repo.UpsertByTransactionID(p)).To(gomega.Succeed())

				// When
				result, err := repo.GetByTransactionID("pay_abc")

				// Then
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(result).ToNot(gomega.BeNil())
				gomega.Expect(result.OrderID).To(gomega.Equal("order-1"))
				gomega.Expect(result.Amount).To(gomega.Equal(5310.00))
			})
		})

		ginkgo.Context("when the payment does not exist", func() {
			ginkgo.It("should return nil without an error", func() {
				// When
				result, err := repo.GetByTransactionID("pay_missing")

				// Then
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(result).To(gomega.BeNil())
			})
		})
	})

	ginkgo.Describe("UpdateStatusByTransactionID", func() {
		ginkgo.BeforeEach(func() {
			p := newPayment("order-1", "pay_abc", paymentDatamodel.StatusPending)
			gomega.Expect(repo.UpsertByTransactionID(p)).To(gomega.Succeed())
		})

		ginkgo.It("should update status, payload and failure reason", func() {
			// Given
			reason := "card declined"

			// When
			err := repo.UpdateStatusByTransactionID("pay_abc", paymentDatamodel.StatusFailed,
				json.RawMessage(`{"status":"failed"}`), &reason)

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			updated, err := repo.GetByTransactionID("pay_abc")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(updated.Status).To(gomega.Equal(paymentDatamodel.StatusFailed))
			gomega.Expect(*updated.FailureReason).To(gomega.Equal("card declined"))
		})

		ginkgo.It("should leave optional fields untouched when nil", func() {
			// When
			err := repo.UpdateStatusByTransactionID("pay_abc", paymentDatamodel.StatusSuccess, nil, nil)

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			updated, err := repo.GetByTransactionID("pay_abc")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(updated.Status).To(gomega.Equal(paymentDatamodel.StatusSuccess))
			gomega.Expect(updated.FailureReason).To(gomega.BeNil())
		})

		ginkgo.It("should not fail for an unknown transaction id", func() {
			// When
			err := repo.UpdateStatusByTransactionID("pay_missing", paymentDatamodel.StatusSuccess, nil, nil)

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
		})
	})

	ginkgo.Describe("List", func() {
		ginkgo.BeforeEach(func() {
			seed := []*paymentDatamodel.Payment{
				newPayment("order-1", "pay_1", paymentDatamodel.StatusSuccess),
				newPayment("order-1", "pay_2", paymentDatamodel.StatusFailed),
				newPayment("order-2", "pay_3", paymentDatamodel.StatusSuccess),
			}
			for _, p := range seed {
				gomega.Expect(repo.UpsertByTransactionID(p)).To(gomega.Succeed())
			}
		})

		ginkgo.It("should filter by status", func() {
			// When
			results, err := repo.List(&paymentPkg.ListPaymentsQuery{Status: paymentDatamodel.StatusFailed, Limit: 20})

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(results).To(gomega.HaveLen(1))
			gomega.Expect(*results[0].TransactionID).To(gomega.Equal("pay_2"))
		})

		ginkgo.It("should filter by order id", func() {
			// When
			results, err := repo.List(&paymentPkg.ListPaymentsQuery{OrderID: "order-1", Limit: 20})

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(results).To(gomega.HaveLen(2))
		})

		ginkgo.It("should respect the limit", func() {
			// When
			results, err := repo.List(&paymentPkg.ListPaymentsQuery{Limit: 2})

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(results).To(gomega.HaveLen(2))
		})
	})

	ginkgo.Describe("GetStuckPending", func() {
		ginkgo.BeforeEach(func() {
			old := newPayment("order-1", "pay_old", paymentDatamodel.StatusPending)
			gomega.Expect(repo.UpsertByTransactionID(old)).To(gomega.Succeed())
			gomega.Expect(db.Model(&paymentDatamodel.Payment{}).
				Where("transaction_id = ?", "pay_old").
				Update("created_at", time.Now().Add(-time.Hour)).Error).To(gomega.Succeed())

			fresh := newPayment("order-2", "pay_fresh", paymentDatamodel.StatusPending)
			gomega.Expect(repo.UpsertByTransactionID(fresh)).To(gomega.Succeed())

			settled := newPayment("order-3", "pay_done", paymentDatamodel.StatusSuccess)
			gomega.Expect(repo.UpsertByTransactionID(settled)).To(gomega.Succeed())
			gomega.Expect(db.Model(&paymentDatamodel.Payment{}).
				Where("transaction_id = ?", "pay_done").
				Update("created_at", time.Now().Add(-time.Hour)).Error).To(gomega.Succeed())
		})

		ginkgo.It("should return only pending payments older than the cutoff", func() {
			// When
			results, err := repo.GetStuckPending(time.Now().Add(-10*time.Minute), 50)

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(results).To(gomega.HaveLen(1))
			gomega.Expect(*results[0].TransactionID).To(gomega.Equal("pay_old"))
		})

		ginkgo.It("should return nothing when every pending payment is recent", func() {
			// When
			results, err := repo.GetStuckPending(time.Now().Add(-2*time.Hour), 50)

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(results).To(gomega.BeEmpty())
		})
	})
})
