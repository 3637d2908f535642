package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// StockRepository puerto de escritura sobre los registros de stock. Se usa siempre dentro
// de una transacción del libro de movimientos.
type StockRepository interface {
	// LockForUpdate bloquea los registros de los productos indicados en orden ascendente de id
	// y los devuelve indexados por producto. Los productos sin registro no aparecen en el mapa.
	LockForUpdate(ctx context.Context, productIDs []int64) (map[int64]*entity.StockRecord, error)
	Update(ctx context.Context, record *entity.StockRecord) error
}

// StockAuditRepository consultas de conciliación entre stock y libro.
type StockAuditRepository interface {
	ListDrift(ctx context.Context) ([]entity.StockDrift, error)
}
