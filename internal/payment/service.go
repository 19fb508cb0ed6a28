package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"time"

	"storefront-api/internal"
	orderDatamodel "storefront-api/internal/core/datamodel/order"
	paymentDatamodel "storefront-api/internal/core/datamodel/payment"
	"storefront-api/internal/core/events"
	"storefront-api/internal/order"
	"storefront-api/internal/razorpay"
)

// GatewayAPI is the slice of the gateway client the verifier needs.
type GatewayAPI interface {
	CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*razorpay.Order, error)
	FetchPayment(ctx context.Context, paymentID string) (*razorpay.Payment, error)
}

// Repository persists payment audit records. Writes are keyed by the gateway
// transaction id so the verify and webhook channels converge on one row.
type Repository interface {
	UpsertByTransactionID(p *paymentDatamodel.Payment) error
	GetByTransactionID(transactionID string) (*paymentDatamodel.Payment, error)
	UpdateStatusByTransactionID(transactionID, status string, gatewayResponse json.RawMessage, failureReason *string) error
	List(query *ListPaymentsQuery) ([]*paymentDatamodel.Payment, error)
}

// OrderStore is the slice of the order repository the payment flow needs.
type OrderStore interface {
	GetByID(id string) (*orderDatamodel.Order, error)
	GetByTransactionID(transactionID string) (*orderDatamodel.Order, error)
	MarkPaid(id string, transactionID string) (bool, error)
	UpdatePaymentStatus(id string, paymentStatus string) error
}

type Service struct {
	gateway  GatewayAPI
	repo     Repository
	orders   OrderStore
	cfg      internal.RazorpayConfig
	eventBus *events.EventBus
	logger   *slog.Logger
}

func NewService(gateway GatewayAPI, repo Repository, orders OrderStore, cfg internal.RazorpayConfig, eventBus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{
		gateway:  gateway,
		repo:     repo,
		orders:   orders,
		cfg:      cfg,
		eventBus: eventBus,
		logger:   logger,
	}
}

// toMinorUnits converts a major-unit amount to the integer minor units the
// gateway works in. Rounding guards against float artifacts like 531.00
// stored as 530.9999999.
func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// CreateGatewayOrder registers a pending order with the payment gateway and
// returns what the checkout widget needs to collect the payment.
func (s *Service) CreateGatewayOrder(ctx context.Context, userID string, dto *CreateGatewayOrderDTO) (*CreateGatewayOrderResponse, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("gateway order validation failed", "error", err, "user_id", userID)
		return nil, err
	}

	receipt := fmt.Sprintf("receipt_%d", time.Now().UnixMilli())
	amountMinor := toMinorUnits(dto.Amount)

	gatewayOrder, err := s.gateway.CreateOrder(ctx, amountMinor, s.cfg.Currency, receipt)
	if err != nil {
		s.logger.Error("failed to create gateway order",
			"error", err, "user_id", userID, "amount", dto.Amount)
		return nil, internal.NewExternalError("failed to create payment order", err)
	}

	s.logger.Info("gateway order created",
		"gateway_order_id", gatewayOrder.ID,
		"user_id", userID,
		"amount_minor", gatewayOrder.Amount,
		"receipt", receipt)

	return &CreateGatewayOrderResponse{
		OrderID:  gatewayOrder.ID,
		Amount:   gatewayOrder.Amount,
		Currency: gatewayOrder.Currency,
		KeyID:    s.cfg.KeyID,
	}, nil
}

// VerifyPayment settles an order after checkout. Four gates, in order:
// the checkout signature must verify, the gateway must report the payment
// as successful and tied to the claimed gateway order, the order must exist
// and belong to the caller, and the gateway amount must equal the order
// total. Only then is the order marked paid, exactly once.
func (s *Service) VerifyPayment(ctx context.Context, userID string, dto *VerifyPaymentDTO) (*VerifyPaymentResponse, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("verify payment validation failed", "error", err, "user_id", userID)
		return nil, err
	}

	if !s.verifyCheckoutSignature(dto.RazorpayOrderID, dto.RazorpayPaymentID, dto.RazorpaySignature) {
		s.logger.Warn("checkout signature verification failed",
			"user_id", userID,
			"order_id", dto.OrderID,
			"gateway_order_id", dto.RazorpayOrderID,
			"gateway_payment_id", dto.RazorpayPaymentID)
		return nil, internal.ErrInvalidSignature
	}

	gatewayPayment, err := s.gateway.FetchPayment(ctx, dto.RazorpayPaymentID)
	if err != nil {
		s.logger.Error("failed to fetch payment from gateway",
			"error", err, "gateway_payment_id", dto.RazorpayPaymentID)
		return nil, internal.NewExternalError("failed to verify payment with gateway", err)
	}

	if gatewayPayment.Status != razorpay.PaymentStatusCaptured &&
		gatewayPayment.Status != razorpay.PaymentStatusAuthorized {
		// Reject without touching any state. The gateway reports failures
		// through the payment.failed webhook, which is where the failed
		// audit row gets written.
		s.logger.Warn("gateway payment not successful",
			"gateway_payment_id", gatewayPayment.ID,
			"gateway_status", gatewayPayment.Status,
			"order_id", dto.OrderID)
		return nil, internal.ErrPaymentNotCaptured
	}

	if gatewayPayment.OrderID != dto.RazorpayOrderID {
		s.logger.Warn("gateway payment belongs to a different gateway order",
			"gateway_payment_id", gatewayPayment.ID,
			"claimed_gateway_order_id", dto.RazorpayOrderID,
			"actual_gateway_order_id", gatewayPayment.OrderID)
		return nil, internal.ErrOrderIDMismatch
	}

	o, err := s.orders.GetByID(dto.OrderID)
	if err != nil {
		s.logger.Error("failed to load order for verification", "error", err, "order_id", dto.OrderID)
		return nil, err
	}
	if o == nil {
		return nil, internal.ErrOrderNotFound
	}
	if o.UserID != userID {
		s.logger.Warn("verification attempt against another user's order",
			"order_id", dto.OrderID, "user_id", userID)
		return nil, internal.ErrOrderNotOwned
	}

	if toMinorUnits(o.Total) != gatewayPayment.Amount {
		s.logger.Warn("gateway amount does not match order total",
			"order_id", o.ID,
			"order_total_minor", toMinorUnits(o.Total),
			"gateway_amount_minor", gatewayPayment.Amount)
		return nil, internal.ErrAmountMismatch
	}

	// All gates passed. Record the payment as pending before touching the
	// order: if anything dies between here and the settlement write, the
	// reconciler finds the pending row and finishes the job. An existing row
	// for this transaction is left alone so a duplicate submission cannot
	// demote an already settled payment.
	existing, err := s.repo.GetByTransactionID(gatewayPayment.ID)
	if err != nil {
		s.logger.Error("failed to look up payment record", "error", err, "gateway_payment_id", gatewayPayment.ID)
		return nil, internal.NewInternalError("failed to verify payment", err)
	}
	if existing == nil {
		pendingRecord := s.buildPaymentRecord(o.ID, userID, o.Total, gatewayPayment)
		pendingRecord.Status = paymentDatamodel.StatusPending
		if err := s.repo.UpsertByTransactionID(pendingRecord); err != nil {
			s.logger.Error("failed to record pending payment", "error", err, "order_id", o.ID)
			return nil, internal.NewInternalError("failed to record payment", err)
		}
	}

	applied, err := s.orders.MarkPaid(o.ID, gatewayPayment.ID)
	if err != nil {
		s.logger.Error("failed to mark order paid", "error", err, "order_id", o.ID)
		return nil, internal.NewInternalError("failed to update order", err)
	}

	if !applied {
		// Another verification already settled this order. Fine if it was
		// the same payment; anything else is a genuine conflict.
		current, err := s.orders.GetByID(o.ID)
		if err != nil {
			return nil, internal.NewInternalError("failed to reload order", err)
		}
		if current != nil && current.TransactionID != nil && *current.TransactionID == gatewayPayment.ID {
			s.logger.Info("order already settled by this payment, treating as success",
				"order_id", o.ID, "gateway_payment_id", gatewayPayment.ID)
			return &VerifyPaymentResponse{
				Success: true,
				Message: "Payment verified successfully",
				Order:   order.FromDataModel(current),
			}, nil
		}
		s.logger.Warn("order already settled by a different payment",
			"order_id", o.ID, "gateway_payment_id", gatewayPayment.ID)
		return nil, internal.NewConflictError("order is already paid", internal.ErrCodeVerificationFailed)
	}

	paymentRecord := s.buildPaymentRecord(o.ID, userID, o.Total, gatewayPayment)
	if err := s.repo.UpsertByTransactionID(paymentRecord); err != nil {
		// The order is already settled; the audit row can be recovered by
		// the webhook or the reconciler, so log and keep going.
		s.logger.Error("failed to record payment", "error", err, "order_id", o.ID)
	}

	s.eventBus.Publish(ctx, events.NewPaymentCompletedEvent(
		paymentRecord.ID, o.ID, userID, o.Total, gatewayPayment.ID))

	s.logger.Info("payment verified and order settled",
		"order_id", o.ID,
		"user_id", userID,
		"gateway_payment_id", gatewayPayment.ID,
		"amount", o.Total)

	settled, err := s.orders.GetByID(o.ID)
	if err != nil || settled == nil {
		// The settlement already happened; fall back to the copy we hold
		// rather than failing the response over a read.
		s.logger.Error("failed to reload settled order", "error", err, "order_id", o.ID)
		transactionID := gatewayPayment.ID
		settled = o
		settled.Status = orderDatamodel.StatusConfirmed
		settled.PaymentStatus = orderDatamodel.PaymentStatusPaid
		settled.TransactionID = &transactionID
	}

	return &VerifyPaymentResponse{
		Success: true,
		Message: "Payment verified successfully",
		Order:   order.FromDataModel(settled),
	}, nil
}

// verifyCheckoutSignature checks the HMAC the gateway computes over
// "<gateway order id>|<gateway payment id>" with the key secret.
func (s *Service) verifyCheckoutSignature(gatewayOrderID, gatewayPaymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(s.cfg.KeySecret))
	fmt.Fprintf(mac, "%s|%s", gatewayOrderID, gatewayPaymentID)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// VerifyWebhookSignature checks the HMAC the gateway computes over the raw
// webhook body with the webhook secret.
func (s *Service) VerifyWebhookSignature(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(s.cfg.EffectiveWebhookSecret()))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (s *Service) buildPaymentRecord(orderID, userID string, amount float64, gatewayPayment *razorpay.Payment) *paymentDatamodel.Payment {
	transactionID := gatewayPayment.ID
	raw, _ := json.Marshal(gatewayPayment)

	record := &paymentDatamodel.Payment{
		OrderID:         orderID,
		UserID:          userID,
		Amount:          amount,
		Method:          gatewayPayment.Method,
		Status:          MapGatewayStatus(gatewayPayment.Status),
		TransactionID:   &transactionID,
		GatewayResponse: raw,
	}
	if record.Method == "" {
		record.Method = "unknown"
	}
	if gatewayPayment.ErrorDescription != "" {
		reason := gatewayPayment.ErrorDescription
		record.FailureReason = &reason
	}
	return record
}

// HandleGatewayEvent reconciles an authenticated webhook event against local
// state. Events that cannot be attributed to any known payment or order are
// logged and dropped; the gateway still gets an acknowledgement.
func (s *Service) HandleGatewayEvent(ctx context.Context, event *WebhookEvent) error {
	entity := event.Payload.Payment.Entity
	if entity.ID == "" {
		s.logger.Warn("webhook event missing payment entity", "event", event.Event)
		return nil
	}

	switch event.Event {
	case "payment.captured":
		return s.reconcileCaptured(ctx, &entity)
	case "payment.failed":
		return s.reconcileFailed(ctx, &entity)
	default:
		s.logger.Debug("ignoring unhandled webhook event", "event", event.Event)
		return nil
	}
}

func (s *Service) reconcileCaptured(ctx context.Context, entity *WebhookPaymentEntity) error {
	raw, _ := json.Marshal(entity)

	existing, err := s.repo.GetByTransactionID(entity.ID)
	if err != nil {
		return fmt.Errorf("lookup payment by transaction id: %w", err)
	}

	if existing != nil {
		if existing.Status == paymentDatamodel.StatusSuccess {
			s.logger.Info("webhook capture already reconciled", "transaction_id", entity.ID)
			return nil
		}
		if err := s.repo.UpdateStatusByTransactionID(entity.ID, paymentDatamodel.StatusSuccess, raw, nil); err != nil {
			return fmt.Errorf("update payment status: %w", err)
		}
		s.logger.Info("webhook capture reconciled existing payment",
			"transaction_id", entity.ID, "order_id", existing.OrderID)
		return nil
	}

	// No audit row yet: the capture may have raced or outlived the checkout
	// callback. If an order already carries this transaction id we can still
	// attribute the event and backfill the record.
	o, err := s.orders.GetByTransactionID(entity.ID)
	if err != nil {
		return fmt.Errorf("lookup order by transaction id: %w", err)
	}
	if o == nil {
		s.logger.Warn("webhook capture for unknown transaction, dropping",
			"transaction_id", entity.ID, "gateway_order_id", entity.OrderID)
		return nil
	}

	transactionID := entity.ID
	record := &paymentDatamodel.Payment{
		OrderID:         o.ID,
		UserID:          o.UserID,
		Amount:          o.Total,
		Method:          entity.Method,
		Status:          paymentDatamodel.StatusSuccess,
		TransactionID:   &transactionID,
		GatewayResponse: raw,
	}
	if record.Method == "" {
		record.Method = o.PaymentMethod
	}
	if err := s.repo.UpsertByTransactionID(record); err != nil {
		return fmt.Errorf("upsert payment from webhook: %w", err)
	}

	s.eventBus.Publish(ctx, events.NewPaymentCompletedEvent(
		record.ID, o.ID, o.UserID, o.Total, entity.ID))

	s.logger.Info("webhook capture backfilled payment record",
		"transaction_id", entity.ID, "order_id", o.ID)
	return nil
}

func (s *Service) reconcileFailed(ctx context.Context, entity *WebhookPaymentEntity) error {
	raw, _ := json.Marshal(entity)

	var failureReason *string
	if entity.ErrorDescription != "" {
		reason := entity.ErrorDescription
		failureReason = &reason
	}

	existing, err := s.repo.GetByTransactionID(entity.ID)
	if err != nil {
		return fmt.Errorf("lookup payment by transaction id: %w", err)
	}

	if existing == nil {
		s.logger.Warn("webhook failure for unknown transaction, dropping",
			"transaction_id", entity.ID, "gateway_order_id", entity.OrderID)
		return nil
	}

	// A settled payment is never demoted by a late failure event.
	if existing.Status == paymentDatamodel.StatusSuccess {
		s.logger.Warn("ignoring failure event for settled payment",
			"transaction_id", entity.ID, "order_id", existing.OrderID)
		return nil
	}

	if err := s.repo.UpdateStatusByTransactionID(entity.ID, paymentDatamodel.StatusFailed, raw, failureReason); err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}

	s.eventBus.Publish(ctx, events.NewPaymentFailedEvent(
		existing.OrderID, entity.ID, existing.Amount, entity.ErrorDescription))

	s.logger.Info("webhook failure reconciled payment",
		"transaction_id", entity.ID, "order_id", existing.OrderID)
	return nil
}

// GetAllPayments lists payment records for the admin dashboard.
func (s *Service) GetAllPayments(query *ListPaymentsQuery) ([]*Payment, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	payments, err := s.repo.List(query)
	if err != nil {
		s.logger.Error("failed to list payments", "error", err)
		return nil, err
	}

	return FromDataModelSlice(payments), nil
}
