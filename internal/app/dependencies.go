package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/chsync/internal/cache"
	"github.com/vladislavdragonenkov/chsync/internal/channel"
	"github.com/vladislavdragonenkov/chsync/internal/channel/shopify"
	"github.com/vladislavdragonenkov/chsync/internal/channel/woo"
	"github.com/vladislavdragonenkov/chsync/internal/domain"
	"github.com/vladislavdragonenkov/chsync/internal/metrics"
	"github.com/vladislavdragonenkov/chsync/internal/service/catalog"
	"github.com/vladislavdragonenkov/chsync/internal/service/importer"
	"github.com/vladislavdragonenkov/chsync/internal/service/inventory"
	"github.com/vladislavdragonenkov/chsync/internal/storage/memory"
	"github.com/vladislavdragonenkov/chsync/internal/storage/postgres"
)

// Dependencies содержит собранные зависимости приложения.
type Dependencies struct {
	Store *postgres.Store
	Cache cache.Cache

	Orders     domain.OrderRepository
	Variants   domain.VariantRepository
	Warehouses domain.WarehouseRepository
	Inventory  domain.InventoryRepository
	SyncJobs   domain.SyncJobRepository
	Outbox     domain.OutboxRepository

	Registry *channel.Registry
	Resolver *catalog.Resolver
	Ledger   *inventory.Ledger
	Importer *importer.Importer
	Metrics  *metrics.ImportMetrics

	Logger *log.Entry
}

// NewDependencies собирает зависимости по конфигурации.
// Storage.Type выбирает между in-memory хранилищем для локальной
// разработки и PostgreSQL.
func NewDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	deps := &Dependencies{Logger: logger}

	if err := deps.initStorage(ctx, cfg, logger); err != nil {
		return nil, err
	}
	if err := deps.initCache(cfg, logger); err != nil {
		deps.Close()
		return nil, err
	}

	deps.Registry = channel.NewRegistry()
	deps.Registry.Register(shopify.New(shopify.AdapterName, ""))
	deps.Registry.Register(woo.New(woo.AdapterName, ""))

	deps.Resolver = catalog.NewResolver(
		deps.Variants,
		catalog.WithCache(deps.Cache, cfg.Cache.TTL),
		catalog.WithLogger(logger.WithField("component", "catalog-resolver")),
	)
	deps.Ledger = inventory.NewLedger(deps.Inventory)
	deps.Metrics = metrics.NewImportMetrics()

	importerOpts := []importer.Option{
		importer.WithMetrics(deps.Metrics),
		importer.WithLogger(logger.WithField("component", "importer")),
	}
	if cfg.Import.WarehouseID != "" {
		importerOpts = append(importerOpts, importer.WithWarehouseID(cfg.Import.WarehouseID))
	}
	if cfg.Import.WarehouseName != "" {
		importerOpts = append(importerOpts, importer.WithWarehouseName(cfg.Import.WarehouseName))
	}

	deps.Importer = importer.New(
		deps.Registry,
		deps.Resolver,
		deps.Ledger,
		deps.Orders,
		deps.Warehouses,
		deps.SyncJobs,
		importerOpts...,
	)

	return deps, nil
}

func (d *Dependencies) initStorage(ctx context.Context, cfg Config, logger *log.Entry) error {
	switch cfg.Storage.Type {
	case "", "memory":
		inventoryRepo := memory.NewInventoryRepository()
		outboxRepo := memory.NewOutboxRepository()
		warehouseRepo := memory.NewWarehouseRepository()

		if cfg.Import.DefaultWarehouse != "" {
			warehouseRepo.Add(domain.Warehouse{Name: cfg.Import.DefaultWarehouse})
		}

		d.Orders = memory.NewOrderRepository(inventoryRepo, outboxRepo)
		d.Variants = memory.NewVariantRepository()
		d.Warehouses = warehouseRepo
		d.Inventory = inventoryRepo
		d.SyncJobs = memory.NewSyncJobRepository()
		d.Outbox = outboxRepo
		logger.Info("using in-memory storage")
		return nil

	case "postgres":
		store, err := postgres.Open(ctx, cfg.Postgres.DSN())
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		if cfg.Postgres.Migrate {
			if err := store.MigrateUp(ctx, 0); err != nil {
				_ = store.Close()
				return fmt.Errorf("apply migrations: %w", err)
			}
		}

		d.Store = store
		d.Orders = postgres.NewOrderRepository(store)
		d.Variants = postgres.NewVariantRepository(store)
		d.Warehouses = postgres.NewWarehouseRepository(store)
		d.Inventory = postgres.NewInventoryRepository(store)
		d.SyncJobs = postgres.NewSyncJobRepository(store)
		d.Outbox = postgres.NewOutboxRepository(store)
		logger.Info("using postgres storage")
		return nil

	default:
		return fmt.Errorf("unsupported storage type: %q", cfg.Storage.Type)
	}
}

func (d *Dependencies) initCache(cfg Config, logger *log.Entry) error {
	switch cfg.Cache.Type {
	case "", "memory":
		d.Cache = cache.NewMemoryCache()
		return nil
	case "redis":
		redisCache, err := cache.NewRedisCache(cache.RedisConfig{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err != nil {
			return fmt.Errorf("connect redis cache: %w", err)
		}
		logger.WithField("addr", cfg.Cache.RedisAddr).Info("redis cache connected")
		d.Cache = redisCache
		return nil
	default:
		return fmt.Errorf("unsupported cache type: %q", cfg.Cache.Type)
	}
}

// Close освобождает внешние ресурсы.
func (d *Dependencies) Close() {
	if closer, ok := d.Cache.(interface{ Close() error }); ok && closer != nil {
		if err := closer.Close(); err != nil {
			d.Logger.WithError(err).Warn("failed to close cache")
		}
	}
	if d.Store != nil {
		if err := d.Store.Close(); err != nil {
			d.Logger.WithError(err).Warn("failed to close postgres store")
		}
	}
}
