package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/kevin07696/square-checkout/internal/adapters/postgres"
	"github.com/kevin07696/square-checkout/internal/adapters/secrets"
	"github.com/kevin07696/square-checkout/internal/adapters/square"
	"github.com/kevin07696/square-checkout/internal/config"
	"github.com/kevin07696/square-checkout/internal/domain/ports"
	checkoutHandler "github.com/kevin07696/square-checkout/internal/handlers/checkout"
	"github.com/kevin07696/square-checkout/internal/services/credentials"
	paymentService "github.com/kevin07696/square-checkout/internal/services/payment"
	"github.com/kevin07696/square-checkout/pkg/logging"
	"github.com/kevin07696/square-checkout/pkg/middleware"
	"github.com/kevin07696/square-checkout/pkg/observability"
	"github.com/kevin07696/square-checkout/pkg/shutdown"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := logging.New(logging.Config{Level: cfg.Logger.Level, Development: cfg.Logger.Development})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	zl := logger.Zap()

	zl.Info("Starting square checkout service",
		zap.Int("port", cfg.Server.Port),
		zap.Bool("use_orders", cfg.Checkout.UseOrders),
		zap.String("secrets_backend", cfg.Secrets.Backend),
	)

	ctx := context.Background()

	// Initialize database connection pool
	dbPool, err := initDatabase(ctx, cfg, logger)
	if err != nil {
		zl.Fatal("Failed to initialize database", zap.Error(err))
	}

	// Load Square credentials
	creds, err := loadCredentials(ctx, cfg, logger)
	if err != nil {
		zl.Fatal("Failed to load Square credentials", zap.Error(err))
	}

	// Square client guarded by a circuit breaker
	breakerCfg := square.DefaultCircuitBreakerConfig()
	breakerCfg.OnStateChange = func(from, to square.CircuitState) {
		observability.SetCircuitBreakerState("square", int(to))
		zl.Warn("Square circuit breaker state changed",
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
	}
	breaker := square.NewCircuitBreaker(breakerCfg)
	squareClient := square.NewClientWithDefaults(square.Config{
		AccessToken: creds.AccessToken,
		APIVersion:  cfg.Square.APIVersion,
		BaseURL:     cfg.Square.BaseURL,
		Sandbox:     creds.Sandbox(),
	}, cfg.Square.Timeout, logger, square.WithCircuitBreaker(breaker))

	orders := postgres.NewOrderRepository(postgres.NewDBExecutor(dbPool), 2*time.Second)

	svc := paymentService.NewService(squareClient, orders, paymentService.Settings{
		LocationID:          creds.LocationID,
		SiteName:            cfg.Checkout.SiteName,
		Sandbox:             creds.Sandbox(),
		PromotionsAffectTax: cfg.Checkout.PromotionsAffectTax,
		UseOrders:           cfg.Checkout.UseOrders,
		CreateCustomers:     cfg.Checkout.CreateCustomers,
		DelayCapture:        cfg.Checkout.DelayCapture,
		AdjustmentCeiling:   cfg.Checkout.AdjustmentCeiling,
	}, logger)

	verifyCtx, cancelVerify := context.WithTimeout(ctx, cfg.Square.Timeout)
	if err := svc.VerifyLocation(verifyCtx); err != nil {
		cancelVerify()
		zl.Fatal("Square location check failed",
			zap.String("location_id", creds.LocationID),
			zap.Error(err),
		)
	}
	cancelVerify()

	// HTTP API
	rateLimiter := middleware.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst)

	router := chi.NewRouter()
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.Recoverer)
	router.Use(chimiddleware.Timeout(60 * time.Second))
	router.Use(observability.HTTPMetrics)
	router.Use(rateLimiter.Middleware)
	router.Route("/api/v1", checkoutHandler.NewHandler(svc, logger).Routes)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Metrics and health checks
	healthChecker := observability.NewHealthChecker(dbPool)
	healthChecker.AddCheck("square_circuit", func(ctx context.Context) error {
		if breaker.State() == square.StateOpen {
			return errors.New("circuit open")
		}
		return nil
	})
	metricsServer := observability.StartMetricsServer(strconv.Itoa(cfg.Server.MetricsPort), healthChecker, logger)

	go func() {
		zl.Info("HTTP server listening", zap.String("address", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("Failed to serve HTTP", zap.Error(err))
		}
	}()

	// Components stop in reverse registration order
	shutdownManager := shutdown.NewManager(logger, cfg.Server.ShutdownTimeout)
	shutdownManager.RegisterNoErr("database", dbPool.Close)
	shutdownManager.RegisterNoErr("rate_limiter", rateLimiter.Shutdown)
	shutdownManager.RegisterServer("metrics_server", metricsServer)
	shutdownManager.RegisterServer("http_server", httpServer)

	if failures := shutdownManager.WaitForShutdown(); len(failures) > 0 {
		zl.Error("Shutdown finished with errors", zap.Int("error_count", len(failures)))
	}
	zl.Info("Servers stopped")
}

// initDatabase opens the pgx pool used by the order repository
func initDatabase(ctx context.Context, cfg *config.Config, logger ports.Logger) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	poolCfg := postgres.DefaultPoolConfig(cfg.Database.ConnectionString())
	poolCfg.MaxConns = cfg.Database.MaxConns
	poolCfg.MinConns = cfg.Database.MinConns
	return postgres.NewPool(ctx, poolCfg, logger)
}

// loadCredentials reads the Square credentials secret, falling back to the inline config
func loadCredentials(ctx context.Context, cfg *config.Config, logger ports.Logger) (credentials.Credentials, error) {
	vaultCfg := secrets.DefaultVaultConfig(cfg.Secrets.VaultAddress)
	vaultCfg.AuthMethod = cfg.Secrets.VaultAuthMethod
	vaultCfg.Token = cfg.Secrets.VaultToken
	vaultCfg.RoleID = cfg.Secrets.VaultRoleID
	vaultCfg.SecretID = cfg.Secrets.VaultSecretID
	vaultCfg.MountPath = cfg.Secrets.VaultMountPath
	vaultCfg.KVVersion = cfg.Secrets.VaultKVVersion
	vaultCfg.Namespace = cfg.Secrets.VaultNamespace
	vaultCfg.CacheTTL = cfg.Secrets.CacheTTL

	reader, err := secrets.NewReader(ctx, secrets.Config{
		Backend:  cfg.Secrets.Backend,
		LocalDir: cfg.Secrets.LocalDir,
		AWS: secrets.AWSConfig{
			Region:   cfg.Secrets.AWSRegion,
			Profile:  cfg.Secrets.AWSProfile,
			Endpoint: cfg.Secrets.AWSEndpoint,
			CacheTTL: cfg.Secrets.CacheTTL,
		},
		Vault: vaultCfg,
	}, logger)
	if err != nil {
		return credentials.Credentials{}, fmt.Errorf("create secret reader: %w", err)
	}

	environment := "production"
	if cfg.Square.Sandbox {
		environment = "sandbox"
	}
	loader := credentials.NewLoader(reader, cfg.Secrets.Path, credentials.Credentials{
		AccessToken:   cfg.Square.AccessToken,
		ApplicationID: cfg.Square.ApplicationID,
		LocationID:    cfg.Square.LocationID,
		Environment:   environment,
	}, logger)
	return loader.Load(ctx)
}
