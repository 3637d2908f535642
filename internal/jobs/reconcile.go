package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/hibiken/asynq"

	appledger "github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// Reconciler puerto del caso de uso de conciliación.
type Reconciler interface {
	Run(ctx context.Context) (*appledger.ReconcileReport, error)
}

// ReconcileJob ejecuta la conciliación del libro desde la cola.
type ReconcileJob struct {
	uc  Reconciler
	log *logger.Logger
}

// NewReconcileJob construye el handler de la tarea.
func NewReconcileJob(uc Reconciler, log *logger.Logger) *ReconcileJob {
	if log == nil {
		log = logger.Nop()
	}
	return &ReconcileJob{uc: uc, log: log}
}

// Handle procesa TaskLedgerReconcile. Un payload ilegible no se reintenta.
func (j *ReconcileJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.uc == nil {
		return errors.New("reconcile: handler no configurado")
	}
	var payload ReconcilePayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			j.log.Warn().Err(err).Msg("reconcile: payload inválido")
			return asynq.SkipRetry
		}
	}

	start := time.Now()
	report, err := j.uc.Run(ctx)
	if err != nil {
		j.log.Error().Err(err).Msg("reconcile: falló")
		return err
	}
	ev := j.log.Info().
		Int("drifts", len(report.Drifts)).
		Dur("elapsed", time.Since(start))
	if !payload.ScheduledFor.IsZero() {
		ev = ev.Time("scheduled_for", payload.ScheduledFor)
	}
	ev.Msg("reconcile: completado")
	return nil
}
