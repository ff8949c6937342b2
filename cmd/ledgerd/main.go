package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	periodapp "github.com/erp/ledger/internal/application/period"
	postingapp "github.com/erp/ledger/internal/application/posting"
	stockapp "github.com/erp/ledger/internal/application/stock"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/cache"
	"github.com/erp/ledger/internal/infrastructure/config"
	"github.com/erp/ledger/internal/infrastructure/event"
	"github.com/erp/ledger/internal/infrastructure/logger"
	"github.com/erp/ledger/internal/infrastructure/persistence"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting ledger engine",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if cfg.Posting.AutoMigrate {
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to migrate schema", zap.Error(err))
		}
		log.Info("Schema migrated")
	}

	// Transaction scopes: posting gets a bounded lock wait so contending
	// posts fail fast with a retriable error instead of queueing
	postingScope := persistence.NewGormPostingTransactionScope(db.DB, cfg.Posting.LockWaitTimeout)
	stockScope := persistence.NewGormStockTransactionScope(db.DB)
	periodScope := persistence.NewGormPeriodTransactionScope(db.DB)

	// Application services
	postingService := postingapp.NewPostingService(postingScope, log)
	stockService := stockapp.NewStockService(stockScope, log)
	yearService := periodapp.NewFinancialYearService(periodScope, log)

	// Event-dedup store: Redis when available, in-memory otherwise
	storeFactory := cache.NewIdempotencyStoreFactory(cfg.Redis, cache.WithLogger(log))
	dedupStore, err := storeFactory.CreateStore()
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() {
		if err := dedupStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	// Event bus with idempotent subscribers
	eventBus := event.NewInMemoryEventBus(log)

	dedupConfig := shared.DefaultIdempotencyConfig()
	if cfg.Event.DedupTTL > 0 {
		dedupConfig.TTL = cfg.Event.DedupTTL
	}
	activityHandler := event.NewIdempotentHandler(
		newActivityLogHandler(log), dedupStore, log,
		event.WithIdempotencyConfig(dedupConfig),
	)
	eventBus.Subscribe(activityHandler)

	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Inject event bus into services that publish post-commit events
	postingService.SetEventPublisher(eventBus)
	stockService.SetEventPublisher(eventBus)
	yearService.SetEventPublisher(eventBus)

	log.Info("Ledger engine ready",
		zap.Duration("lock_wait_timeout", cfg.Posting.LockWaitTimeout),
		zap.Duration("event_dedup_ttl", dedupConfig.TTL),
	)

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down...")

	stats := activityHandler.GetMetrics().Stats()
	log.Info("Ledger engine exited",
		zap.Int64("events_processed", stats.EventsProcessed),
		zap.Int64("events_duplicate", stats.EventsDuplicate),
	)
}

// activityLogHandler records posting activity from domain events. It is a
// wildcard subscriber so closures and reopenings are captured alongside
// voucher events.
type activityLogHandler struct {
	logger *zap.Logger
}

func newActivityLogHandler(logger *zap.Logger) *activityLogHandler {
	return &activityLogHandler{logger: logger.Named("activity")}
}

func (h *activityLogHandler) Handle(ctx context.Context, evt shared.DomainEvent) error {
	h.logger.Info("domain event",
		zap.String("event_type", evt.EventType()),
		zap.String("aggregate_type", evt.AggregateType()),
		zap.String("aggregate_id", evt.AggregateID().String()),
		zap.String("company_id", evt.CompanyID().String()),
		zap.Time("occurred_at", evt.OccurredAt()),
	)
	return nil
}

// EventTypes returns empty so the handler subscribes to all events
func (h *activityLogHandler) EventTypes() []string {
	return nil
}
