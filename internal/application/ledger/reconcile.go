package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// ReconcileReport resultado de una conciliación.
type ReconcileReport struct {
	CheckedAt time.Time
	Drifts    []entity.StockDrift
}

// ReconcileUseCase compara la cantidad de cada producto con la suma de sus movimientos.
// Solo reporta: nunca corrige stock, las correcciones son movimientos nuevos.
type ReconcileUseCase struct {
	audit   repository.StockAuditRepository
	metrics Metrics
	log     *logger.Logger
}

// NewReconcileUseCase construye el caso de uso.
func NewReconcileUseCase(audit repository.StockAuditRepository, metrics Metrics, log *logger.Logger) *ReconcileUseCase {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &ReconcileUseCase{audit: audit, metrics: metrics, log: log}
}

// Run ejecuta la conciliación y registra cada descuadre encontrado.
func (uc *ReconcileUseCase) Run(ctx context.Context) (*ReconcileReport, error) {
	drifts, err := uc.audit.ListDrift(ctx)
	if err != nil {
		return nil, fmt.Errorf("listar descuadres: %w", err)
	}
	for _, d := range drifts {
		uc.log.Error().
			Int64("product_id", d.ProductID).
			Str("sku", d.SKU).
			Int64("quantity", d.Quantity).
			Int64("ledger_sum", d.LedgerSum).
			Int64("difference", d.Difference()).
			Msg("ledger: stock no coincide con el libro")
	}
	uc.metrics.SetDrift(len(drifts))
	uc.log.Info().Int("drifts", len(drifts)).Msg("ledger: conciliación terminada")
	return &ReconcileReport{CheckedAt: time.Now(), Drifts: drifts}, nil
}
