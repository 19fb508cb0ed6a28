package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront-api/internal"
	"storefront-api/internal/auth"
	authPostgres "storefront-api/internal/auth/postgres"
	"storefront-api/internal/catalog"
	catalogPostgres "storefront-api/internal/catalog/postgres"
	"storefront-api/internal/core/events"
	"storefront-api/internal/order"
	orderPostgres "storefront-api/internal/order/postgres"
	"storefront-api/internal/payment"
	paymentPostgres "storefront-api/internal/payment/postgres"
	"storefront-api/internal/razorpay"
	"storefront-api/internal/transport"
	"storefront-api/internal/transport/rest"
	"storefront-api/internal/transport/swagger"
	"storefront-api/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config     *internal.Config
	DB         *sqlx.DB
	GormDB     *gorm.DB
	Router     *chi.Mux
	Logger     *slog.Logger
	Reconciler *payment.Reconciler
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	deps.Reconciler.Start()

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
		deps.Reconciler.Shutdown()
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(config.Observability.Logging.Level, config.Observability.Logging.Format)
	lg := logger.L()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := initGorm(db)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	eventBus := events.NewEventBus(lg)
	baseHandler := transport.NewBaseHandler(lg)

	// Auth
	userRepo := authPostgres.NewUserRepository(gormDB)
	tokenGen := auth.NewJWTTokenGenerator(
		config.Security.AccessTokenSecret,
		config.Security.RefreshTokenSecret,
		config.Security.AccessTokenDuration,
		config.Security.RefreshTokenDuration,
	)
	authService := auth.NewService(userRepo, tokenGen, lg)
	authHandler := auth.NewHandler(authService)

	// Catalog
	productRepo := catalogPostgres.NewProductRepository(gormDB)
	catalogService := catalog.NewService(productRepo, lg)
	catalogHandler := catalog.NewHandler(baseHandler, catalogService)

	// Orders
	orderRepo := orderPostgres.NewOrderRepository(gormDB)
	orderService := order.NewService(orderRepo, catalogService, lg)
	orderHandler := order.NewHandler(baseHandler, orderService)
	orderEvents := order.NewEventHandler(orderRepo, lg)
	orderEvents.RegisterEventHandlers(eventBus)

	// Payments
	gatewayClient := razorpay.NewClient(config.Razorpay, lg)
	paymentRepo := paymentPostgres.NewPaymentRepository(gormDB)
	paymentService := payment.NewService(gatewayClient, paymentRepo, orderRepo, config.Razorpay, eventBus, lg)
	paymentHandler := payment.NewHandler(baseHandler, paymentService)
	webhookHandler := payment.NewWebhookHandler(baseHandler, paymentService, lg)

	reconciler := payment.NewReconciler(gatewayClient, paymentRepo, orderRepo, eventBus, payment.ReconcilerConfig{}, lg)

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, db.DB, config.Server.AllowedOrigins,
		authHandler, catalogHandler, orderHandler, paymentHandler, webhookHandler, lg)

	if err := swagger.ValidateSpec(context.Background(), "./api/openapi.yml"); err != nil {
		lg.Warn("OpenAPI document failed validation, swagger UI may be degraded", "error", err)
	}

	return &Dependencies{
		Config:     config,
		DB:         db,
		GormDB:     gormDB,
		Router:     router,
		Logger:     lg,
		Reconciler: reconciler,
	}, nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// initGorm layers GORM over the existing connection pool so both query
// styles share the same pool limits.
func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(gormPostgres.New(gormPostgres.Config{
		Conn: db.DB,
	}), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Warn),
	})
}
