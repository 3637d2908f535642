// Package memory implementa los puertos de persistencia en memoria del proceso. Sirve para
// ejecuciones locales sin PostgreSQL (LEDGER_STORE_DRIVER=memory) y para los tests.
//
// Cada producto tiene un token (canal de capacidad 1); una transacción toma los tokens de sus
// productos en orden ascendente con un plazo máximo y trabaja sobre copias que solo se publican
// al confirmar. Los ids de movimiento se asignan al confirmar, así que crecen en orden de commit.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// DefaultLockTimeout espera máxima por el token de un producto.
const DefaultLockTimeout = 5 * time.Second

// Store estado completo en memoria.
type Store struct {
	mu        sync.RWMutex
	products  map[int64]*entity.Product
	barcodes  map[string]int64
	skus      map[string]int64
	stocks    map[int64]*entity.StockRecord
	movements []*entity.MovementEntry // confirmados, en orden de id
	batches   map[string]*entity.Batch
	users     map[string]*entity.User
	nextProd  int64
	nextMov   int64

	lockMu      sync.Mutex
	tokens      map[int64]chan struct{}
	lockTimeout time.Duration
}

// NewStore crea un almacén vacío. lockTimeout <= 0 usa DefaultLockTimeout.
func NewStore(lockTimeout time.Duration) *Store {
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}
	return &Store{
		products:    make(map[int64]*entity.Product),
		barcodes:    make(map[string]int64),
		skus:        make(map[string]int64),
		stocks:      make(map[int64]*entity.StockRecord),
		batches:     make(map[string]*entity.Batch),
		users:       make(map[string]*entity.User),
		tokens:      make(map[int64]chan struct{}),
		lockTimeout: lockTimeout,
	}
}

func (s *Store) token(productID int64) chan struct{} {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	ch, ok := s.tokens[productID]
	if !ok {
		ch = make(chan struct{}, 1)
		s.tokens[productID] = ch
	}
	return ch
}

// acquire toma el token del producto o falla con domain.ErrLockTimeout al vencer deadline.
func (s *Store) acquire(ctx context.Context, productID int64, deadline <-chan time.Time) error {
	select {
	case s.token(productID) <- struct{}{}:
		return nil
	case <-deadline:
		return domain.ErrLockTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) release(productID int64) {
	<-s.token(productID)
}

// ──────────────────────────────────────────────────────────────────────────────
// Transacciones
// ──────────────────────────────────────────────────────────────────────────────

// TxRunner ejecuta callbacks sobre una transacción en memoria.
type TxRunner struct {
	store *Store
}

// NewTxRunner construye el runner.
func NewTxRunner(store *Store) *TxRunner {
	return &TxRunner{store: store}
}

type memTx struct {
	store     *Store
	held      map[int64]bool
	order     []int64
	stock     map[int64]*entity.StockRecord
	movements []*entity.MovementEntry
	batches   []*entity.Batch
}

func (tx *memTx) releaseAll() {
	for i := len(tx.order) - 1; i >= 0; i-- {
		tx.store.release(tx.order[i])
	}
	tx.order = nil
}

func (tx *memTx) lock(ctx context.Context, ids []int64) error {
	pending := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !tx.held[id] && !slices.Contains(pending, id) {
			pending = append(pending, id)
		}
	}
	slices.Sort(pending)
	if len(pending) == 0 {
		return nil
	}
	if len(tx.order) > 0 && pending[0] < tx.order[len(tx.order)-1] {
		// Tomar un id menor después de uno mayor rompería el orden global.
		return domain.ErrConflict
	}

	timer := time.NewTimer(tx.store.lockTimeout)
	defer timer.Stop()
	for _, id := range pending {
		if err := tx.store.acquire(ctx, id, timer.C); err != nil {
			return err
		}
		tx.held[id] = true
		tx.order = append(tx.order, id)
	}
	return nil
}

func (tx *memTx) commit() {
	s := tx.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, rec := range tx.stock {
		cur, ok := s.stocks[id]
		if !ok {
			continue
		}
		// el estado lo maneja el catálogo; solo se publican cantidad y fecha
		cur.Quantity = rec.Quantity
		cur.UpdatedAt = rec.UpdatedAt
	}
	for _, b := range tx.batches {
		cp := *b
		s.batches[b.ID] = &cp
	}
	for _, m := range tx.movements {
		s.nextMov++
		m.ID = s.nextMov
		cp := *m
		s.movements = append(s.movements, &cp)
	}
}

// Run ejecuta fn; si devuelve nil publica todos los cambios de una vez, si no los descarta.
func (r *TxRunner) Run(ctx context.Context, fn func(
	stockRepo repository.StockRepository,
	movRepo repository.MovementRepository,
	batchRepo repository.BatchRepository,
) error) error {
	tx := &memTx{
		store: r.store,
		held:  make(map[int64]bool),
		stock: make(map[int64]*entity.StockRecord),
	}
	defer tx.releaseAll()

	if err := fn(&txStockRepo{tx: tx}, &txMovementRepo{tx: tx}, &txBatchRepo{tx: tx}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	tx.commit()
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Utilidades
// ──────────────────────────────────────────────────────────────────────────────

func normEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
