package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/stock-ledger/docs"
	"github.com/jhoicas/stock-ledger/internal/application/auth"
	"github.com/jhoicas/stock-ledger/internal/application/history"
	appledger "github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/internal/application/usecase"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/metrics"
	infrapdf "github.com/jhoicas/stock-ledger/internal/infrastructure/pdf"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
	infraredis "github.com/jhoicas/stock-ledger/internal/infrastructure/redis"
	httpRouter "github.com/jhoicas/stock-ledger/internal/interfaces/http"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// @title						Stock Ledger API
// @version					1.0
// @description				Libro de movimientos de inventario: lotes del escáner, historial y conciliación.
// @BasePath					/
// @securityDefinitions.apikey	Bearer
// @in							header
// @name						Authorization
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
		Str("store", cfg.Ledger.StoreDriver).
		Msg("iniciando aplicación")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Persistencia: PostgreSQL en producción, memoria para desarrollo y demos.
	var (
		txRunner  appledger.TxRunner
		products  repository.ProductRepository
		movements repository.MovementQueryRepository
		users     repository.UserRepository
	)
	switch cfg.Ledger.StoreDriver {
	case config.StoreMemory:
		store := memory.NewStore(cfg.Ledger.LockTimeout)
		txRunner = memory.NewTxRunner(store)
		products = memory.NewProductRepository(store)
		movements = memory.NewMovementQueryRepository(store)
		users = memory.NewUserRepository(store)
		log.Warn().Msg("store en memoria: los datos se pierden al reiniciar")
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		applied, err := postgres.Migrate(ctx, pool)
		if err != nil {
			log.Fatal().Err(err).Msg("migraciones")
		}
		if len(applied) > 0 {
			log.Info().Strs("migrations", applied).Msg("migraciones aplicadas")
		}
		txRunner = postgres.NewTxRunner(pool, cfg.Ledger.LockTimeout)
		products = postgres.NewProductRepository(pool)
		movements = postgres.NewMovementRepository(pool)
		users = postgres.NewUserRepository(pool)
	}

	// Guard de reenvíos: Redis cuando está configurado para compartirlo entre réplicas.
	var guard appledger.BatchGuard = memory.NewBatchGuard()
	if cfg.Redis.Addr != "" {
		rdb, err := infraredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer rdb.Close()
		guard = infraredis.NewBatchGuard(rdb)
	}

	ledgerMetrics := metrics.NewLedger(nil)
	ledgerUC := appledger.NewUseCase(txRunner, products, guard, ledgerMetrics, log.Component("ledger"), appledger.Config{
		MaxLineItems: cfg.Ledger.MaxLineItems,
		DedupWindow:  cfg.Ledger.DedupWindow,
	})
	historyUC := history.NewUseCase(movements)
	exporter := history.NewExporter(historyUC, infrapdf.NewHistoryPDFGenerator())
	productUC := usecase.NewProductUseCase(products)
	authUC := auth.NewAuthUseCase(users, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(httpRouter.AccessLog(log.Component("http")))

	// Swagger UI en local: http://localhost:<port>/docs
	docs.SwaggerInfo.Title = cfg.App.Name
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Stock Ledger API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "store": cfg.Ledger.StoreDriver})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:    authUC,
		ProductUC: productUC,
		LedgerUC:  ledgerUC,
		HistoryUC: historyUC,
		Exporter:  exporter,
		JWTSecret: cfg.JWT.Secret,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.Listen(cfg.HTTP.Addr())
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("señal de apagado recibida, cerrando servidor...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return app.ShutdownWithContext(shutdownCtx)
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("servidor HTTP finalizado")
	}

	log.Info().Msg("aplicación detenida")
}
