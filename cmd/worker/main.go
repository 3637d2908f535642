package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	appledger "github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/metrics"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-ledger/internal/jobs"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, Service: cfg.App.Name + "-worker"})

	if cfg.Ledger.StoreDriver != config.StorePostgres {
		log.Fatal().Str("store", cfg.Ledger.StoreDriver).Msg("el worker solo concilia contra PostgreSQL")
	}
	if cfg.Redis.Addr == "" {
		log.Fatal().Msg("REDIS_ADDR es requerido por el worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	ledgerMetrics := metrics.NewLedger(nil)
	reconcileUC := appledger.NewReconcileUseCase(postgres.NewStockRepository(pool), ledgerMetrics, log.Component("ledger"))
	reconcileJob := jobs.NewReconcileJob(reconcileUC, log.Component("jobs"))

	reconcileTask, err := jobs.NewReconcileTask(time.Now().UTC())
	if err != nil {
		log.Fatal().Err(err).Msg("construir tarea de conciliación")
	}

	redisOpts := asynq.RedisClientOpt{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}
	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   redisOpts,
		Logger:      log,
		Concurrency: cfg.Worker.Concurrency,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskLedgerReconcile, Handler: reconcileJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.Worker.ReconcileCron, Task: reconcileTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar worker")
	}

	// el gauge de descuadres vive en este proceso
	metricsSrv := &http.Server{Addr: cfg.Worker.MetricsAddr, Handler: promhttp.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn().Err(err).Msg("servidor de métricas")
		}
	}()
	defer metricsSrv.Close()

	log.Info().Str("cron", cfg.Worker.ReconcileCron).Msg("worker de conciliación iniciado")
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("worker finalizado con error")
	}
	log.Info().Msg("worker detenido")
}
