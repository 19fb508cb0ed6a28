package order

import (
	"context"
	"fmt"
	"log/slog"

	orderDatamodel "storefront-api/internal/core/datamodel/order"
	"storefront-api/internal/core/events"
)

// EventHandler reacts to payment outcomes published by the payment service.
type EventHandler struct {
	repo   Repository
	logger *slog.Logger
}

func NewEventHandler(repo Repository, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		repo:   repo,
		logger: logger,
	}
}

// HandlePaymentCompleted confirms the order-side view of a settled payment.
// The paid transition itself already happened atomically in the payment
// flow; this handler only observes and logs.
func (h *EventHandler) HandlePaymentCompleted(ctx context.Context, event events.Event) error {
	completed, ok := event.(*events.PaymentCompletedEvent)
	if !ok {
		h.logger.Error("invalid event type for payment completed handler", "event_type", event.EventType())
		return fmt.Errorf("expected PaymentCompletedEvent, got %T", event)
	}

	h.logger.Info("order settled by payment",
		"order_id", completed.OrderID,
		"payment_id", completed.PaymentID,
		"transaction_id", completed.TransactionID,
		"amount", completed.Amount,
		"event_id", completed.EventID())

	return nil
}

// HandlePaymentFailed pushes a terminal gateway failure back onto the order
// so it is visible to the customer without opening the payments table.
func (h *EventHandler) HandlePaymentFailed(ctx context.Context, event events.Event) error {
	failed, ok := event.(*events.PaymentFailedEvent)
	if !ok {
		h.logger.Error("invalid event type for payment failed handler", "event_type", event.EventType())
		return fmt.Errorf("expected PaymentFailedEvent, got %T", event)
	}

	o, err := h.repo.GetByID(failed.OrderID)
	if err != nil {
		return fmt.Errorf("load order %s: %w", failed.OrderID, err)
	}
	if o == nil {
		h.logger.Warn("payment failed event for unknown order", "order_id", failed.OrderID)
		return nil
	}

	// Never demote an order that has already been paid.
	if o.PaymentStatus == orderDatamodel.PaymentStatusPaid {
		h.logger.Warn("ignoring failure event for paid order",
			"order_id", failed.OrderID, "transaction_id", failed.TransactionID)
		return nil
	}

	if err := h.repo.UpdatePaymentStatus(failed.OrderID, orderDatamodel.PaymentStatusFailed); err != nil {
		return fmt.Errorf("update order payment status: %w", err)
	}

	h.logger.Info("order payment marked failed",
		"order_id", failed.OrderID,
		"transaction_id", failed.TransactionID,
		"reason", failed.FailureReason)

	return nil
}

func (h *EventHandler) RegisterEventHandlers(eventBus *events.EventBus) {
	eventBus.Subscribe(events.EventTypePaymentCompleted, h.HandlePaymentCompleted)
	eventBus.Subscribe(events.EventTypePaymentFailed, h.HandlePaymentFailed)

	h.logger.Info("order event handlers registered",
		"handlers", []string{events.EventTypePaymentCompleted, events.EventTypePaymentFailed})
}
