package payment_test

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"storefront-api/internal/payment"
	"storefront-api/internal/transport"
)

type mockWebhookService struct {
	secret          string
	handleError     error
	handledEvents   []*payment.WebhookEvent
	signatureChecks int
}

func (m *mockWebhookService) VerifyWebhookSignature(body []byte, signature string) bool {
	m.signatureChecks++
	mac := hmac.New(sha256.New, []byte(m.secret))
	mac.Write(body)
	return hmac.Equal([]byte(hex.EncodeToString(mac.Sum(nil))), []byte(signature))
}

func (m *mockWebhookService) HandleGatewayEvent(ctx context.Context, event *payment.WebhookEvent) error {
	m.handledEvents = append(m.handledEvents, event)
	return m.handleError
}

func (m *mockWebhookService) CreateGatewayOrder(ctx context.Context, userID string, dto *payment.CreateGatewayOrderDTO) (*payment.CreateGatewayOrderResponse, error) {
	return nil, nil
}

func (m *mockWebhookService) VerifyPayment(ctx context.Context, userID string, dto *payment.VerifyPaymentDTO) (*payment.VerifyPaymentResponse, error) {
	return nil, nil
}

func (m *mockWebhookService) GetAllPayments(query *payment.ListPaymentsQuery) ([]*payment.Payment, error) {
	return nil, nil
}

var _ = Describe("WebhookHandler", func() {
	var (
		handler *payment.WebhookHandler
		service *mockWebhookService
	)

	quietLogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	sign := func(secret string, body []byte) string {
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write(body)
		return hex.EncodeToString(mac.Sum(nil))
	}

	post := func(body []byte, signature string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", bytes.NewReader(body))
		if signature != "" {
			req.Header.Set(payment.SignatureHeader, signature)
		}
		rec := httptest.NewRecorder()
		handler.HandleWebhook(rec, req)
		return rec
	}

	BeforeEach(func() {
		service = &mockWebhookService{secret: "whsec"}
		handler = payment.NewWebhookHandler(transport.NewBaseHandler(quietLogger), service, quietLogger)
	})

	Context("when the signature is missing", func() {
		It("rejects the request without processing the event", func() {
			body := []byte(`{"event":"payment.captured"}`)

			rec := post(body, "")

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(service.handledEvents).To(BeEmpty())
		})
	})

	Context("when the signature does not match the body", func() {
		It("rejects the request without processing the event", func() {
			body := []byte(`{"event":"payment.captured"}`)

			rec := post(body, sign("whsec", []byte(`{"event":"tampered"}`)))

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(service.handledEvents).To(BeEmpty())
		})
	})

	Context("when the signature is valid", func() {
		It("processes the event and acknowledges it", func() {
			body := []byte(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_123","order_id":"order_gw","status":"captured","amount":531000}}}}`)

			rec := post(body, sign("whsec", body))

			Expect(rec.Code).To(Equal(http.StatusOK))

			var resp map[string]bool
			Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["received"]).To(BeTrue())

			Expect(service.handledEvents).To(HaveLen(1))
			Expect(service.handledEvents[0].Event).To(Equal("payment.captured"))
			Expect(service.handledEvents[0].Payload.Payment.Entity.ID).To(Equal("pay_123"))
			Expect(service.handledEvents[0].Payload.Payment.Entity.Amount).To(Equal(int64(531000)))
		})

		It("rejects a body that is not valid JSON", func() {
			body := []byte(`{not json`)

			rec := post(body, sign("whsec", body))

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(service.handledEvents).To(BeEmpty())
		})

		It("still acknowledges when processing fails", func() {
			service.handleError = context.DeadlineExceeded
			body := []byte(`{"event":"payment.failed","payload":{"payment":{"entity":{"id":"pay_123","status":"failed"}}}}`)

			rec := post(body, sign("whsec", body))

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(service.handledEvents).To(HaveLen(1))
		})

		It("acknowledges event types it does not recognize", func() {
			body := []byte(`{"event":"invoice.paid","payload":{"payment":{"entity":{}}}}`)

			rec := post(body, sign("whsec", body))

			Expect(rec.Code).To(Equal(http.StatusOK))
		})
	})
})
