package payment

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	paymentDatamodel "storefront-api/internal/core/datamodel/payment"
	"storefront-api/internal/core/events"
	"storefront-api/internal/razorpay"
)

// ReconcilerStore extends the payment repository with the scan the
// reconciler drives.
type ReconcilerStore interface {
	Repository
	GetStuckPending(olderThan time.Time, limit int) ([]*paymentDatamodel.Payment, error)
}

type ReconcileJob struct {
	PaymentID     string
	OrderID       string
	TransactionID string
}

type reconcileWorker struct {
	id         int
	workerPool chan chan ReconcileJob
	jobChannel chan ReconcileJob
	logger     *slog.Logger
}

func newReconcileWorker(id int, workerPool chan chan ReconcileJob, logger *slog.Logger) *reconcileWorker {
	return &reconcileWorker{
		id:         id,
		workerPool: workerPool,
		jobChannel: make(chan ReconcileJob),
		logger:     logger,
	}
}

func (w *reconcileWorker) start(ctx context.Context, wg *sync.WaitGroup, processFunc func(context.Context, ReconcileJob)) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {
			w.workerPool <- w.jobChannel

			select {
			case job := <-w.jobChannel:
				w.logger.Debug("reconcile worker processing job",
					"worker_id", w.id, "transaction_id", job.TransactionID)
				processFunc(ctx, job)
			case <-ctx.Done():
				w.logger.Debug("reconcile worker shutting down", "worker_id", w.id)
				return
			}
		}
	}()
}

type ReconcilerConfig struct {
	Interval   time.Duration
	MinAge     time.Duration
	BatchSize  int
	MaxWorkers int
}

// Reconciler periodically sweeps payments that are still pending despite
// carrying a gateway transaction id, asks the gateway for the authoritative
// state, and settles them. It covers the gap where both the checkout
// callback and the webhook were lost.
type Reconciler struct {
	gateway  GatewayAPI
	store    ReconcilerStore
	orders   OrderStore
	eventBus *events.EventBus
	logger   *slog.Logger

	interval   time.Duration
	minAge     time.Duration
	batchSize  int
	maxWorkers int

	jobQueue   chan ReconcileJob
	workerPool chan chan ReconcileJob
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	once       sync.Once
}

func NewReconciler(gateway GatewayAPI, store ReconcilerStore, orders OrderStore, eventBus *events.EventBus, cfg ReconcilerConfig, logger *slog.Logger) *Reconciler {
	ctx, cancel := context.WithCancel(context.Background())

	interval := cfg.Interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	minAge := cfg.MinAge
	if minAge <= 0 {
		minAge = 10 * time.Minute
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 50
	}
	maxWorkers := cfg.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 4
	}

	return &Reconciler{
		gateway:  gateway,
		store:    store,
		orders:   orders,
		eventBus: eventBus,
		logger:   logger,

		interval:   interval,
		minAge:     minAge,
		batchSize:  batchSize,
		maxWorkers: maxWorkers,

		jobQueue:   make(chan ReconcileJob, batchSize*2),
		workerPool: make(chan chan ReconcileJob, maxWorkers),
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (r *Reconciler) Start() {
	r.once.Do(func() {
		for i := 0; i < r.maxWorkers; i++ {
			worker := newReconcileWorker(i, r.workerPool, r.logger)
			worker.start(r.ctx, &r.wg, r.processJob)
		}

		r.wg.Add(2)
		go r.dispatch()
		go r.scanLoop()

		r.logger.Info("payment reconciler started",
			"interval", r.interval,
			"min_age", r.minAge,
			"batch_size", r.batchSize,
			"max_workers", r.maxWorkers)
	})
}

func (r *Reconciler) Shutdown() {
	r.logger.Info("shutting down payment reconciler")
	r.cancel()
	r.wg.Wait()
	r.logger.Info("payment reconciler shutdown complete")
}

func (r *Reconciler) dispatch() {
	defer r.wg.Done()

	for {
		select {
		case job := <-r.jobQueue:
			select {
			case jobChannel := <-r.workerPool:
				select {
				case jobChannel <- job:
				case <-r.ctx.Done():
					return
				}
			case <-r.ctx.Done():
				return
			}
		case <-r.ctx.Done():
			return
		}
	}
}

func (r *Reconciler) scanLoop() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.RunOnce(r.ctx)
		case <-r.ctx.Done():
			return
		}
	}
}

// RunOnce performs one scan pass, enqueueing every stuck payment it finds.
func (r *Reconciler) RunOnce(ctx context.Context) {
	olderThan := time.Now().Add(-r.minAge)

	stuck, err := r.store.GetStuckPending(olderThan, r.batchSize)
	if err != nil {
		r.logger.Error("reconciler scan failed", "error", err)
		return
	}
	if len(stuck) == 0 {
		return
	}

	r.logger.Info("reconciler found stuck payments", "count", len(stuck))

	for _, p := range stuck {
		if p.TransactionID == nil {
			continue
		}
		job := ReconcileJob{
			PaymentID:     p.ID,
			OrderID:       p.OrderID,
			TransactionID: *p.TransactionID,
		}
		select {
		case r.jobQueue <- job:
		case <-ctx.Done():
			return
		}
	}
}

func (r *Reconciler) processJob(ctx context.Context, job ReconcileJob) {
	gatewayPayment, err := r.gateway.FetchPayment(ctx, job.TransactionID)
	if err != nil {
		r.logger.Error("reconciler failed to fetch gateway payment",
			"error", err, "transaction_id", job.TransactionID)
		return
	}

	raw, _ := json.Marshal(gatewayPayment)

	switch gatewayPayment.Status {
	case razorpay.PaymentStatusCaptured, razorpay.PaymentStatusAuthorized:
		if err := r.store.UpdateStatusByTransactionID(job.TransactionID, paymentDatamodel.StatusSuccess, raw, nil); err != nil {
			r.logger.Error("reconciler failed to settle payment",
				"error", err, "transaction_id", job.TransactionID)
			return
		}

		applied, err := r.orders.MarkPaid(job.OrderID, job.TransactionID)
		if err != nil {
			r.logger.Error("reconciler failed to mark order paid",
				"error", err, "order_id", job.OrderID)
			return
		}

		r.eventBus.Publish(ctx, events.NewPaymentCompletedEvent(
			job.PaymentID, job.OrderID, "", float64(gatewayPayment.Amount)/100, job.TransactionID))

		r.logger.Info("reconciler settled payment",
			"transaction_id", job.TransactionID,
			"order_id", job.OrderID,
			"order_transition_applied", applied)

	case razorpay.PaymentStatusFailed:
		var failureReason *string
		if gatewayPayment.ErrorDescription != "" {
			reason := gatewayPayment.ErrorDescription
			failureReason = &reason
		}
		if err := r.store.UpdateStatusByTransactionID(job.TransactionID, paymentDatamodel.StatusFailed, raw, failureReason); err != nil {
			r.logger.Error("reconciler failed to fail payment",
				"error", err, "transaction_id", job.TransactionID)
			return
		}

		r.eventBus.Publish(ctx, events.NewPaymentFailedEvent(
			job.OrderID, job.TransactionID, float64(gatewayPayment.Amount)/100, gatewayPayment.ErrorDescription))

		r.logger.Info("reconciler marked payment failed",
			"transaction_id", job.TransactionID, "order_id", job.OrderID)

	default:
		r.logger.Debug("reconciler leaving payment pending",
			"transaction_id", job.TransactionID,
			"gateway_status", gatewayPayment.Status)
	}
}
