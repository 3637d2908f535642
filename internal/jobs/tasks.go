package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault cola de las tareas del libro.
	QueueDefault = "default"
	// TaskLedgerReconcile compara el stock de cada producto con la suma de sus movimientos.
	TaskLedgerReconcile = "ledger:reconcile"
)

// ReconcilePayload metadatos de programación de la conciliación.
type ReconcilePayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewReconcileTask construye la tarea de conciliación.
func NewReconcileTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(ReconcilePayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLedgerReconcile, body, asynq.Queue(QueueDefault)), nil
}
