package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/billing-engine/internal/application/billing"
	"github.com/jhoicas/billing-engine/internal/application/dto"
	"github.com/jhoicas/billing-engine/internal/application/inventory"
	"github.com/jhoicas/billing-engine/internal/application/reporting"
	"github.com/jhoicas/billing-engine/internal/domain/repository"
	"github.com/jhoicas/billing-engine/internal/infrastructure/broker"
	"github.com/jhoicas/billing-engine/internal/infrastructure/memory"
	"github.com/jhoicas/billing-engine/internal/infrastructure/postgres"
	"github.com/jhoicas/billing-engine/internal/infrastructure/redisclient"
	httpRouter "github.com/jhoicas/billing-engine/internal/interfaces/http"
	"github.com/jhoicas/billing-engine/pkg/config"
	"github.com/jhoicas/billing-engine/pkg/logger"
	"github.com/jhoicas/billing-engine/pkg/tracing"
)

// stores adaptadores de persistencia elegidos por configuración.
type stores struct {
	txRunner interface {
		inventory.TxRunner
		billing.BillingTxRunner
	}
	ledger       repository.StockLedger
	billRepo     repository.BillRepository
	productRepo  repository.ProductRepository
	customerRepo repository.CustomerRepository
	movementRepo repository.StockMovementRepository
	reportRepo   repository.ReportRepository
	health       map[string]httpRouter.HealthCheck
	closers      []func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.Store.Driver).
		Str("stock_ledger", cfg.Store.StockLedger).
		Str("bill_counter", cfg.Store.BillCounter).
		Msg("iniciando aplicación")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Tracing.Enabled {
		tp, err := tracing.Init(ctx, cfg.App.Name, cfg.Tracing.JaegerEndpoint)
		if err != nil {
			log.Fatal().Err(err).Msg("inicializar trazas")
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = tp.Shutdown(shutdownCtx)
		}()
	}

	loc, err := cfg.Billing.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("zona horaria de facturación")
	}

	var rdb *redisclient.Client
	if cfg.Redis.Enabled() {
		rdb, err = redisclient.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer rdb.Close()
	}

	st, err := buildStores(ctx, cfg, rdb, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar persistencia")
	}
	defer func() {
		for _, closeFn := range st.closers {
			closeFn()
		}
	}()

	// Caché de reportes: en Redis si está configurado, sin caché si no.
	var reportCache reporting.ReportCache
	if rdb != nil {
		reportCache = redisclient.NewReportCache(rdb, cfg.Redis.ReportCacheTTL)
	}
	invalidator := reporting.NewCacheInvalidator(reportCache, log.Named("report-cache"))

	// Eventos: Kafka si hay brokers (el consumidor invalida la caché), invalidación local si no.
	var (
		publisher  billing.EventPublisher    = invalidator
		dispatcher billing.MessageDispatcher = billing.NewLogDispatcher(log.Named("notifications"))
	)
	if cfg.Kafka.Enabled() {
		eventsProducer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.BillEventsTopic)
		defer eventsProducer.Close()
		notifyProducer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.NotificationsTopic)
		defer notifyProducer.Close()
		publisher = broker.NewBillEventPublisher(eventsProducer)
		dispatcher = broker.NewNotificationDispatcher(notifyProducer)

		consumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.BillEventsTopic, cfg.Kafka.ConsumerGroup, log.Named("kafka"))
		defer consumer.Close()
		handler := broker.NewBillEventHandler(invalidator.HandleBillEvent, log.Named("kafka"))
		go func() {
			if err := consumer.Run(ctx, handler.HandleMessage); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("consumidor de eventos de factura finalizado")
			}
		}()
	}

	stockUC := inventory.NewStockUseCase(st.txRunner, st.productRepo, st.movementRepo, st.ledger, log.Named("inventory"))
	customerUC := billing.NewCustomerUseCase(st.customerRepo, cfg.Messaging.DefaultCountryCode)
	engine := billing.NewEngine(st.txRunner, stockUC, customerUC, st.billRepo, publisher, billing.EngineConfig{
		BillPrefix: cfg.Billing.Prefix,
		SeqDigits:  cfg.Billing.SeqDigits,
		Location:   loc,
	}, log.Named("billing"))
	documents := billing.NewDocumentUseCase(st.billRepo, st.customerRepo, st.productRepo, dto.BusinessProfile{
		Name:    cfg.Business.Name,
		Address: cfg.Business.Address,
		Phone:   cfg.Business.Phone,
		Email:   cfg.Business.Email,
		GSTIN:   cfg.Business.GSTIN,
	}, loc)
	notifications := billing.NewNotificationUseCase(documents, dispatcher, cfg.Messaging.DefaultCountryCode, log.Named("notifications"))
	reportUC := reporting.NewReportUseCase(st.reportRepo, reportCache, loc, log.Named("reporting"))

	if rdb != nil {
		st.health["redis"] = rdb.Ping
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	httpRouter.Router(app, httpRouter.RouterDeps{
		Engine:        engine,
		Documents:     documents,
		Notifications: notifications,
		CustomerUC:    customerUC,
		StockUC:       stockUC,
		ReportUC:      reportUC,
		JWTSecret:     cfg.JWT.Secret,
		JWTIssuer:     cfg.JWT.Issuer,
		HealthChecks:  st.health,
		Logger:        log,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

// buildStores arma los adaptadores. El ledger y el contador pueden vivir en Redis aunque el
// resto esté en PostgreSQL o en memoria.
func buildStores(ctx context.Context, cfg *config.Config, rdb *redisclient.Client, log *logger.Logger) (*stores, error) {
	var (
		redisLedger     *redisclient.StockLedger
		externalLedger  repository.StockLedger
		externalCounter repository.BillCounterRepository
	)
	if cfg.Store.StockLedger == config.DriverRedis {
		redisLedger = redisclient.NewStockLedger(rdb)
		externalLedger = redisLedger
	}
	if cfg.Store.BillCounter == config.DriverRedis {
		externalCounter = redisclient.NewBillCounter(rdb)
	}

	if cfg.Store.Driver == config.DriverMemory {
		store := memory.NewStore()
		var opts []memory.TxOption
		var ledger repository.StockLedger = memory.NewStockLedger(store)
		if externalLedger != nil {
			ledger = externalLedger
			opts = append(opts, memory.WithExternalLedger(externalLedger))
		}
		if externalCounter != nil {
			opts = append(opts, memory.WithExternalCounter(externalCounter))
		}
		return &stores{
			txRunner:     memory.NewTxRunner(store, opts...),
			ledger:       ledger,
			billRepo:     memory.NewBillRepository(store),
			productRepo:  memory.NewProductRepository(store),
			customerRepo: memory.NewCustomerRepository(store),
			movementRepo: memory.NewStockMovementRepository(store),
			reportRepo:   memory.NewReportRepository(store),
			health:       map[string]httpRouter.HealthCheck{},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	st := &stores{
		health:  map[string]httpRouter.HealthCheck{"postgres": pool.Ping},
		closers: []func(){pool.Close},
	}

	var opts []postgres.TxOption
	pgLedger := postgres.NewStockLedger(pool)
	st.ledger = pgLedger
	if redisLedger != nil {
		// stock_levels es la carga inicial; desde ahí Redis es quien manda sobre el disponible.
		levels, err := pgLedger.Levels(ctx)
		if err != nil {
			pool.Close()
			return nil, err
		}
		loaded, err := redisLedger.Bootstrap(ctx, levels)
		if err != nil {
			pool.Close()
			return nil, err
		}
		log.Info().Int("products", len(levels)).Int("loaded", loaded).Msg("stock inicial cargado en Redis")
	}
	if externalLedger != nil {
		st.ledger = externalLedger
		opts = append(opts, postgres.WithExternalLedger(externalLedger))
	}
	if externalCounter != nil {
		opts = append(opts, postgres.WithExternalCounter(externalCounter))
	}
	st.txRunner = postgres.NewTxRunner(pool, opts...)
	st.billRepo = postgres.NewBillRepository(pool)
	st.productRepo = postgres.NewProductRepository(pool)
	st.customerRepo = postgres.NewCustomerRepository(pool)
	st.movementRepo = postgres.NewStockMovementRepository(pool)
	st.reportRepo = postgres.NewReportRepository(pool)

	if cfg.DB.ReplicaURL != "" {
		replica, err := postgres.NewReplicaPool(ctx, cfg.DB.ReplicaURL)
		if err != nil {
			pool.Close()
			return nil, err
		}
		st.reportRepo = postgres.NewReportRepository(replica)
		st.health["postgres_replica"] = replica.Ping
		st.closers = append(st.closers, replica.Close)
	}
	return st, nil
}
