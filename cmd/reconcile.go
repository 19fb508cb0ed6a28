package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"storefront-api/internal/core/events"
	orderPostgres "storefront-api/internal/order/postgres"
	"storefront-api/internal/payment"
	paymentPostgres "storefront-api/internal/payment/postgres"
	"storefront-api/internal/razorpay"
	"storefront-api/pkg/logger"

	"github.com/spf13/cobra"
)

var reconcileMinAge time.Duration

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Run one payment reconciliation pass",
	Long:  `Scan payments stuck in pending, query the gateway for their authoritative state, and settle them. Runs a single pass and exits; the server runs the same sweep on a schedule.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		logger.Init(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)
		lg := logger.L()

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer db.Close()

		gormDB, err := initGorm(db)
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		eventBus := events.NewEventBus(lg)
		orderRepo := orderPostgres.NewOrderRepository(gormDB)
		paymentRepo := paymentPostgres.NewPaymentRepository(gormDB)
		gatewayClient := razorpay.NewClient(cfg.Razorpay, lg)

		reconciler := payment.NewReconciler(gatewayClient, paymentRepo, orderRepo, eventBus, payment.ReconcilerConfig{
			MinAge: reconcileMinAge,
		}, lg)

		reconciler.Start()
		reconciler.RunOnce(context.Background())

		// Let in-flight jobs drain before exiting.
		time.Sleep(2 * time.Second)
		reconciler.Shutdown()

		fmt.Println("Reconciliation pass complete")
	},
}

func init() {
	reconcileCmd.Flags().DurationVar(&reconcileMinAge, "min-age", 10*time.Minute, "only reconcile payments pending for at least this long")
}
