package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var (
	_ repository.StockRepository      = (*StockRepo)(nil)
	_ repository.StockAuditRepository = (*StockRepo)(nil)
)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

// LockForUpdate bloquea las filas con SELECT ... FOR UPDATE en orden ascendente de product_id.
// Debe correr dentro de una tx; la espera la acotan lock_timeout y statement_timeout.
func (r *StockRepo) LockForUpdate(ctx context.Context, productIDs []int64) (map[int64]*entity.StockRecord, error) {
	out := make(map[int64]*entity.StockRecord, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}
	query := `
		SELECT product_id, quantity, status, updated_at
		FROM product_stocks
		WHERE product_id = ANY($1)
		ORDER BY product_id
		FOR UPDATE`
	rows, err := r.q.Query(ctx, query, productIDs)
	if err != nil {
		return nil, translate("lock stock", err)
	}
	defer rows.Close()
	for rows.Next() {
		var s entity.StockRecord
		if err := rows.Scan(&s.ProductID, &s.Quantity, &s.Status, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan stock: %w", err)
		}
		out[s.ProductID] = &s
	}
	if err := rows.Err(); err != nil {
		return nil, translate("lock stock", err)
	}
	return out, nil
}

// Update escribe cantidad y updated_at. El estado no se toca: lo gobierna el catálogo.
func (r *StockRepo) Update(ctx context.Context, record *entity.StockRecord) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE product_stocks SET quantity = $2, updated_at = $3 WHERE product_id = $1`,
		record.ProductID, record.Quantity, record.UpdatedAt,
	)
	if err != nil {
		return translate("update stock", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("update stock %d: registro inexistente", record.ProductID)
	}
	return nil
}

// ListDrift productos cuya cantidad difiere de la suma de deltas del libro.
func (r *StockRepo) ListDrift(ctx context.Context) ([]entity.StockDrift, error) {
	query := `
		SELECT s.product_id, p.sku, s.quantity, COALESCE(SUM(m.delta), 0) AS ledger_sum
		FROM product_stocks s
		JOIN products p ON p.id = s.product_id
		LEFT JOIN stock_movements m ON m.product_id = s.product_id
		GROUP BY s.product_id, p.sku, s.quantity
		HAVING s.quantity <> COALESCE(SUM(m.delta), 0)
		ORDER BY s.product_id`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list drift: %w", err)
	}
	defer rows.Close()
	var list []entity.StockDrift
	for rows.Next() {
		var d entity.StockDrift
		if err := rows.Scan(&d.ProductID, &d.SKU, &d.Quantity, &d.LedgerSum); err != nil {
			return nil, fmt.Errorf("scan drift: %w", err)
		}
		list = append(list, d)
	}
	return list, rows.Err()
}
