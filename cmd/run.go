package cmd

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"diamondpay/config"
	"diamondpay/database"
	"diamondpay/events"
	"diamondpay/gateway"
	"diamondpay/infrastructure"
	"diamondpay/observability"
	"diamondpay/repository"
	"diamondpay/service"
	"diamondpay/store"
)

// Run initializes and starts the ledger service
func Run(ctx context.Context) error {
	log.Info("Starting diamondpay ledger service...")

	cfg := config.Get()

	// Redis holds the live balances and is required.
	log.Info("Connecting to Redis...")
	rdb, err := store.Connect(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	log.Info("Redis connection established successfully")

	// Postgres holds the durable archive copy of every mutation.
	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("Database connection established successfully")

	// NATS delivers ledger events to the rest of the platform. Without a
	// configured URL the service runs standalone with a no-op publisher.
	var publisher events.Publisher
	var natsClient *infrastructure.NATSClient
	if cfg.NATSURL != "" {
		log.Info("Connecting to NATS...")
		natsClient = infrastructure.NewNATSClient(cfg.NATSURL)
		if err := natsClient.Connect(ctx); err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		natsPublisher := infrastructure.NewNATSEventPublisher(natsClient)
		if err := natsPublisher.EnsureEventStream(); err != nil {
			return fmt.Errorf("failed to ensure event stream: %w", err)
		}
		publisher = natsPublisher
		log.Info("NATS connection established successfully")
	} else {
		log.Warn("NATS_URL not set, events will not be published")
		publisher = infrastructure.NewNoopEventPublisher()
	}

	// Metrics are optional and disabled by default.
	var metrics *observability.MetricsProvider
	if cfg.OTelEnabled {
		metrics = observability.NewMetricsProvider(cfg)
		if err := metrics.Initialize(ctx); err != nil {
			return fmt.Errorf("failed to initialize metrics: %w", err)
		}
		log.Info("Metrics initialized successfully")
	}

	// Stores and repositories.
	balances := store.NewBalanceStore(rdb)
	history := store.NewHistoryStore(rdb)
	pricing := store.NewPricingStore(rdb)
	packages := store.NewPackageStore(rdb)
	purchases := store.NewPurchaseStore(rdb)
	wallets := store.NewWalletStore(rdb)
	withdrawals := store.NewWithdrawalStore(rdb)
	archive := repository.NewLedgerArchiveRepository(db)

	// The fake checkout client stands in until a payment provider SDK is
	// wired; its sessions carry the same metadata contract.
	var checkout gateway.CheckoutClient = gateway.NewFakeClient()
	if cfg.Environment == "production" {
		log.Warn("No payment gateway configured, checkout sessions are simulated")
	}

	log.Info("Initializing services...")
	diamondService := service.NewDiamondService(balances, history, pricing, archive, publisher, metrics)
	purchaseService := service.NewPurchaseService(packages, purchases, diamondService, checkout, publisher, metrics)
	walletService := service.NewWalletService(wallets, withdrawals, pricing, archive, publisher, metrics)
	log.Info("Services initialized successfully")

	// Inbound platform events drive the reconciler and wallet credits.
	if natsClient != nil {
		listener := infrastructure.NewNATSEventListener(natsClient, purchaseService, walletService)
		if err := listener.Start(ctx); err != nil {
			return fmt.Errorf("failed to start event listener: %w", err)
		}
		log.Info("Event listener started successfully")
	}

	log.Infof("Ledger service is running in %s mode...", cfg.Environment)
	<-ctx.Done()

	log.Info("Shutting down ledger service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if metrics != nil {
		if err := metrics.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("Error shutting down metrics")
		}
	}
	if natsClient != nil {
		natsClient.Close()
	}
	if err := rdb.Close(); err != nil {
		log.WithError(err).Warn("Error closing redis client")
	}
	db.Close()

	log.Info("Shutdown completed")
	return nil
}
