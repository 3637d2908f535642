package memory

import (
	"context"
	"fmt"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var (
	_ repository.StockRepository      = (*txStockRepo)(nil)
	_ repository.MovementRepository   = (*txMovementRepo)(nil)
	_ repository.BatchRepository      = (*txBatchRepo)(nil)
	_ repository.StockAuditRepository = (*Store)(nil)
)

type txStockRepo struct{ tx *memTx }

// LockForUpdate toma los tokens y devuelve copias de trabajo de los registros.
func (r *txStockRepo) LockForUpdate(ctx context.Context, productIDs []int64) (map[int64]*entity.StockRecord, error) {
	if err := r.tx.lock(ctx, productIDs); err != nil {
		return nil, err
	}
	s := r.tx.store
	out := make(map[int64]*entity.StockRecord, len(productIDs))
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range productIDs {
		if rec, ok := r.tx.stock[id]; ok {
			out[id] = rec
			continue
		}
		cur, ok := s.stocks[id]
		if !ok {
			continue
		}
		cp := *cur
		r.tx.stock[id] = &cp
		out[id] = &cp
	}
	return out, nil
}

func (r *txStockRepo) Update(_ context.Context, record *entity.StockRecord) error {
	if !r.tx.held[record.ProductID] {
		return fmt.Errorf("update stock %d: registro no bloqueado", record.ProductID)
	}
	if record.Quantity < 0 {
		return fmt.Errorf("update stock %d: cantidad negativa", record.ProductID)
	}
	cp := *record
	r.tx.stock[record.ProductID] = &cp
	return nil
}

type txMovementRepo struct{ tx *memTx }

// Create deja el movimiento pendiente; el id se asigna al confirmar.
func (r *txMovementRepo) Create(_ context.Context, entry *entity.MovementEntry) error {
	if entry.QuantityAfter != entry.QuantityBefore+entry.Delta {
		return fmt.Errorf("insert movement: antes/después inconsistentes")
	}
	r.tx.movements = append(r.tx.movements, entry)
	return nil
}

type txBatchRepo struct{ tx *memTx }

func (r *txBatchRepo) Create(_ context.Context, batch *entity.Batch) error {
	r.tx.batches = append(r.tx.batches, batch)
	return nil
}

// ListDrift productos cuya cantidad difiere de la suma de sus movimientos.
func (s *Store) ListDrift(_ context.Context) ([]entity.StockDrift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sums := make(map[int64]int64, len(s.stocks))
	for _, m := range s.movements {
		sums[m.ProductID] += m.Delta
	}
	var drifts []entity.StockDrift
	for _, id := range s.sortedProductIDs() {
		rec, ok := s.stocks[id]
		if !ok || rec.Quantity == sums[id] {
			continue
		}
		drifts = append(drifts, entity.StockDrift{
			ProductID: id,
			SKU:       s.products[id].SKU,
			Quantity:  rec.Quantity,
			LedgerSum: sums[id],
		})
	}
	return drifts, nil
}

// SetQuantity fuerza la cantidad de un producto sin pasar por el libro. Solo para simular
// descuadres en tests de conciliación.
func (s *Store) SetQuantity(productID, quantity int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.stocks[productID]; ok {
		rec.Quantity = quantity
	}
}
