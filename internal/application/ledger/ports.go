package ledger

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Si fn devuelve error la transacción se revierte completa. Una espera de bloqueo que supera
// el límite configurado se reporta como domain.ErrLockTimeout.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		stockRepo repository.StockRepository,
		movRepo repository.MovementRepository,
		batchRepo repository.BatchRepository,
	) error) error
}

// BatchGuard reserva huellas de lote durante una ventana de tiempo para rechazar reenvíos.
type BatchGuard interface {
	// Reserve devuelve ok=false si la huella ya está reservada y vigente.
	// El token identifica la reserva y es el único que puede liberarla.
	Reserve(ctx context.Context, fingerprint string, window time.Duration) (token string, ok bool, err error)
	Release(ctx context.Context, fingerprint, token string) error
}

// Resultados de un envío de lote, usados como etiqueta de métricas.
const (
	OutcomeRecorded   = "recorded"
	OutcomeRejected   = "rejected"
	OutcomeDuplicate  = "duplicate"
	OutcomeContention = "contention"
	OutcomeError      = "error"
)

// Metrics puerto de instrumentación del libro.
type Metrics interface {
	ObserveBatch(outcome string, movementType entity.MovementType, lines int, elapsed time.Duration)
	SetDrift(products int)
}

// NopMetrics descarta las métricas.
type NopMetrics struct{}

func (NopMetrics) ObserveBatch(string, entity.MovementType, int, time.Duration) {}
func (NopMetrics) SetDrift(int)                                                 {}
