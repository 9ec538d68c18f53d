package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	_ "github.com/jhoicas/inventario-ledger/docs"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/application/usecase"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/cache"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/messaging"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/observability"
	infrapdf "github.com/jhoicas/inventario-ledger/internal/infrastructure/pdf"
	httpRouter "github.com/jhoicas/inventario-ledger/internal/interfaces/http"
	"github.com/jhoicas/inventario-ledger/pkg/config"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

const serviceVersion = "1.0.0"

// @title          Inventario Ledger API
// @version        1.0
// @description    Ledger de inventario multi-bodega: traslados, ajustes, recepciones y salidas por venta.
// @BasePath       /
// @securityDefinitions.apikey Bearer
// @in             header
// @name           Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.Log.Level,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.Ledger.Store).
		Msg("iniciando aplicación")

	ctx := context.Background()

	tp, shutdownTracing, err := observability.SetupTracing(ctx, cfg.Otel, cfg.App.Name, serviceVersion)
	if err != nil {
		log.Fatal().Err(err).Msg("configurar trazas")
	}

	store, err := openStorage(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("almacenamiento del ledger")
	}
	defer store.close()

	// Catálogo: lectura directa o con caché Redis delante
	var catalog inventory.Catalog = inventory.NewRepositoryCatalog(store.products, store.warehouses)
	if cfg.Redis.Addr != "" {
		redisStore := cache.NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err := redisStore.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis no disponible al arrancar; la caché degrada a lectura directa")
		}
		defer redisStore.Close()
		catalog = cache.NewCatalogCache(catalog, redisStore, cfg.Redis.CatalogTTL(), log.Component("cache"))
	}

	// Eventos de lotes confirmados
	var publisher inventory.MovementPublisher = inventory.NoopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		writer, err := messaging.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.MovementsTopic, cfg.App.Name, tp)
		if err != nil {
			log.Fatal().Err(err).Msg("writer de Kafka")
		}
		kafkaPublisher := messaging.NewKafkaMovementPublisher(writer, log.Component("kafka"))
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
	}

	stockLedger := inventory.NewStockLedger(store.txRunner, store.levels,
		inventory.WithPublisher(publisher),
		inventory.WithMaxRetries(cfg.Ledger.MaxRetries),
		inventory.WithLogger(log.Component("ledger")),
	)
	transfers := inventory.NewTransferCoordinator(stockLedger, catalog)
	adjustments := inventory.NewAdjustmentProcessor(stockLedger, catalog)
	receipts := inventory.NewReceiptReconciler(stockLedger, catalog)
	fulfillment := inventory.NewFulfillmentService(stockLedger, catalog)
	projector := inventory.NewStockProjector(stockLedger, store.levels, store.movements, catalog)

	warehouseUC := usecase.NewWarehouseUseCase(store.warehouses)
	productUC := usecase.NewProductUseCase(store.products)
	purchaseOrderUC := usecase.NewPurchaseOrderUseCase(store.purchaseOrders, catalog)
	salesOrderUC := usecase.NewSalesOrderUseCase(store.salesOrders, catalog)

	// PDF: kardex por producto
	pdfGenerator := infrapdf.NewMarotoPDFGenerator()

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestLogger(log.Component("http")))

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Inventario Ledger API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "store": cfg.Ledger.Store})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		WarehouseUC:     warehouseUC,
		ProductUC:       productUC,
		PurchaseOrderUC: purchaseOrderUC,
		SalesOrderUC:    salesOrderUC,
		Transfers:       transfers,
		Adjustments:     adjustments,
		Receipts:        receipts,
		Fulfillment:     fulfillment,
		Projector:       projector,
		StockCardPDF:    pdfGenerator,
		JWTSecret:       cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado de trazas")
	}

	log.Info().Msg("aplicación detenida")
}
