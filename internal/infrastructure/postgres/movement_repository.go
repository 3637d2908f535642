package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var (
	_ repository.MovementRepository      = (*MovementRepo)(nil)
	_ repository.BatchRepository         = (*BatchRepo)(nil)
	_ repository.MovementQueryRepository = (*MovementRepo)(nil)
)

// MovementRepo libro de movimientos: inserción dentro de la tx y consultas de historial sobre el pool.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador del libro. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// Create inserta el movimiento y asigna entry.ID.
func (r *MovementRepo) Create(ctx context.Context, entry *entity.MovementEntry) error {
	query := `
		INSERT INTO stock_movements (batch_id, product_id, movement_type, quantity, delta,
			quantity_before, quantity_after, actor_id, actor_name, reference_number, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`
	err := r.q.QueryRow(ctx, query,
		nullIfEmpty(entry.BatchID), entry.ProductID, entry.Type, entry.Quantity, entry.Delta,
		entry.QuantityBefore, entry.QuantityAfter, entry.ActorID, entry.ActorName, entry.ReferenceNumber,
		entry.CreatedAt,
	).Scan(&entry.ID)
	if err != nil {
		return translate("insert movement", err)
	}
	return nil
}

const movementViewColumns = `
	m.id, COALESCE(m.batch_id::text, ''), m.product_id, m.movement_type, m.quantity, m.delta,
	m.quantity_before, m.quantity_after, m.actor_id, m.actor_name, m.reference_number, m.created_at,
	p.sku, p.name`

// List página del historial, más reciente primero.
func (r *MovementRepo) List(ctx context.Context, filter repository.MovementFilter, limit, offset int) ([]*entity.MovementView, error) {
	if limit <= 0 || offset < 0 {
		return []*entity.MovementView{}, nil
	}
	where, args := buildMovementWhere(filter)
	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s
		FROM stock_movements m JOIN products p ON p.id = m.product_id
		%s
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT $%d OFFSET $%d`, movementViewColumns, where, len(args)-1, len(args))
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()
	var list []*entity.MovementView
	for rows.Next() {
		var v entity.MovementView
		if err := rows.Scan(
			&v.ID, &v.BatchID, &v.ProductID, &v.Type, &v.Quantity, &v.Delta,
			&v.QuantityBefore, &v.QuantityAfter, &v.ActorID, &v.ActorName, &v.ReferenceNumber, &v.CreatedAt,
			&v.ProductSKU, &v.ProductName,
		); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, &v)
	}
	return list, rows.Err()
}

// Count total de movimientos que cumplen el filtro.
func (r *MovementRepo) Count(ctx context.Context, filter repository.MovementFilter) (int64, error) {
	where, args := buildMovementWhere(filter)
	var n int64
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM stock_movements m `+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count movements: %w", err)
	}
	return n, nil
}

// Snapshot xmin de la instantánea actual: las transacciones con id menor ya terminaron,
// así que el conjunto xact_id < xmin no cambia con commits posteriores.
func (r *MovementRepo) Snapshot(ctx context.Context) (int64, error) {
	var xmin int64
	if err := r.q.QueryRow(ctx, `SELECT pg_snapshot_xmin(pg_current_snapshot())::text::bigint`).Scan(&xmin); err != nil {
		return 0, fmt.Errorf("movement snapshot: %w", err)
	}
	return xmin, nil
}

// buildMovementWhere arma la cláusula WHERE con placeholders numerados desde $1.
func buildMovementWhere(f repository.MovementFilter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.ProductID > 0 {
		add("m.product_id = $%d", f.ProductID)
	}
	if f.From != nil {
		add("m.created_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("m.created_at <= $%d", *f.To)
	}
	if f.Type != "" {
		add("m.movement_type = $%d", f.Type)
	}
	if f.ActorID != "" {
		add("m.actor_id = $%d", f.ActorID)
	}
	if f.ReferenceNumber != "" {
		add("lower(m.reference_number) = lower($%d)", f.ReferenceNumber)
	}
	if f.BatchID != "" {
		add("m.batch_id::text = $%d", f.BatchID)
	}
	if f.Snapshot > 0 {
		add("m.xact_id < $%d", f.Snapshot)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

// BatchRepo cabeceras de lote.
type BatchRepo struct {
	q Querier
}

// NewBatchRepository construye el adaptador. Pasar pool o tx (Querier).
func NewBatchRepository(q Querier) *BatchRepo {
	return &BatchRepo{q: q}
}

func (r *BatchRepo) Create(ctx context.Context, batch *entity.Batch) error {
	query := `
		INSERT INTO stock_batches (id, movement_type, reference_number, fingerprint, actor_id, actor_name, line_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query,
		batch.ID, batch.Type, batch.ReferenceNumber, batch.Fingerprint, batch.ActorID, batch.ActorName,
		batch.LineCount, batch.CreatedAt,
	)
	if err != nil {
		return translate("insert batch", err)
	}
	return nil
}
