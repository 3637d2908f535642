package jobs_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appledger "github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/stock-ledger/internal/jobs"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Tarea
// ──────────────────────────────────────────────────────────────────────────────

func TestNewReconcileTask_TipoYPayload(t *testing.T) {
	at := time.Date(2026, 3, 1, 2, 0, 0, 0, time.UTC)
	task, err := jobs.NewReconcileTask(at)
	require.NoError(t, err)
	assert.Equal(t, jobs.TaskLedgerReconcile, task.Type())

	var p jobs.ReconcilePayload
	require.NoError(t, json.Unmarshal(task.Payload(), &p))
	assert.True(t, at.Equal(p.ScheduledFor))
}

// ──────────────────────────────────────────────────────────────────────────────
// Handler
// ──────────────────────────────────────────────────────────────────────────────

func TestReconcileJob_ReportaDescuadres(t *testing.T) {
	store := memory.NewStore(time.Second)
	products := memory.NewProductRepository(store)
	p := &entity.Product{SKU: "A", Name: "A", CreatedAt: time.Now()}
	require.NoError(t, products.Create(context.Background(), p))
	store.SetQuantity(p.ID, 7)

	var buf bytes.Buffer
	log := logger.FromZerolog(zerolog.New(&buf))
	uc := appledger.NewReconcileUseCase(store, nil, log)
	job := jobs.NewReconcileJob(uc, log)

	task, err := jobs.NewReconcileTask(time.Now())
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))

	out := buf.String()
	assert.Contains(t, out, `"sku":"A"`)
	assert.Contains(t, out, `"difference":7`)
	assert.Contains(t, out, `"drifts":1`)
}

func TestReconcileJob_PayloadInvalidoNoSeReintenta(t *testing.T) {
	job := jobs.NewReconcileJob(appledger.NewReconcileUseCase(memory.NewStore(0), nil, nil), nil)
	err := job.Handle(context.Background(), asynq.NewTask(jobs.TaskLedgerReconcile, []byte("{no-json")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

type failingReconciler struct{}

func (failingReconciler) Run(context.Context) (*appledger.ReconcileReport, error) {
	return nil, errors.New("bd caída")
}

func TestReconcileJob_ErrorSePropagaParaReintento(t *testing.T) {
	job := jobs.NewReconcileJob(failingReconciler{}, nil)
	err := job.Handle(context.Background(), asynq.NewTask(jobs.TaskLedgerReconcile, nil))
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}

// ──────────────────────────────────────────────────────────────────────────────
// Worker
// ──────────────────────────────────────────────────────────────────────────────

func TestNewWorker_CronInvalido(t *testing.T) {
	task, err := jobs.NewReconcileTask(time.Now())
	require.NoError(t, err)
	_, err = jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: "127.0.0.1:0"},
		Cron:      []jobs.CronRegistration{{Spec: "cada media hora", Task: task}},
	})
	assert.Error(t, err)
}

func TestWorker_NilNoConfigurado(t *testing.T) {
	var w *jobs.Worker
	assert.Error(t, w.Run(context.Background()))
}
