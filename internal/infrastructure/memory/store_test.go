package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

func seedProduct(t *testing.T, store *Store, sku string) int64 {
	t.Helper()
	p := &entity.Product{SKU: sku, Barcode: "BC-" + sku, Name: "Producto " + sku, CreatedAt: time.Now()}
	require.NoError(t, NewProductRepository(store).Create(context.Background(), p))
	return p.ID
}

func TestProductRepo_CreaRegistroDeStock(t *testing.T) {
	store := NewStore(0)
	repo := NewProductRepository(store)
	ctx := context.Background()

	id := seedProduct(t, store, "A-1")
	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(0), got.Quantity)
	assert.Equal(t, entity.StockStatusAvailable, got.Status)

	byCode, err := repo.GetByBarcode(ctx, "BC-A-1")
	require.NoError(t, err)
	require.NotNil(t, byCode)
	assert.Equal(t, id, byCode.ID)

	missing, err := repo.GetByID(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	err = repo.Create(ctx, &entity.Product{SKU: "A-1", Name: "otro"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	parent := int64(999)
	err = repo.Create(ctx, &entity.Product{SKU: "A-2", Name: "variante", ParentID: &parent})
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestTxRunner_RollbackDescartaCambios(t *testing.T) {
	store := NewStore(0)
	id := seedProduct(t, store, "R-1")
	runner := NewTxRunner(store)
	boom := errors.New("falla")

	err := runner.Run(context.Background(), func(st repository.StockRepository, mv repository.MovementRepository, bt repository.BatchRepository) error {
		recs, err := st.LockForUpdate(context.Background(), []int64{id})
		require.NoError(t, err)
		recs[id].Quantity = 50
		require.NoError(t, st.Update(context.Background(), recs[id]))
		require.NoError(t, mv.Create(context.Background(), &entity.MovementEntry{ProductID: id, Delta: 50, QuantityAfter: 50}))
		require.NoError(t, bt.Create(context.Background(), &entity.Batch{ID: "b"}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, _ := NewProductRepository(store).GetByID(context.Background(), id)
	assert.Equal(t, int64(0), got.Quantity)
	n, _ := NewMovementQueryRepository(store).Count(context.Background(), repository.MovementFilter{})
	assert.Equal(t, int64(0), n)
	assert.Empty(t, store.batches)
}

func TestTxRunner_UpdateRequiereBloqueo(t *testing.T) {
	store := NewStore(0)
	id := seedProduct(t, store, "U-1")
	err := NewTxRunner(store).Run(context.Background(), func(st repository.StockRepository, _ repository.MovementRepository, _ repository.BatchRepository) error {
		return st.Update(context.Background(), &entity.StockRecord{ProductID: id, Quantity: 3})
	})
	assert.Error(t, err)
}

func TestTxRunner_TimeoutDeBloqueo(t *testing.T) {
	store := NewStore(50 * time.Millisecond)
	id := seedProduct(t, store, "L-1")
	runner := NewTxRunner(store)

	locked := make(chan struct{})
	done := make(chan struct{})
	go func() {
		_ = runner.Run(context.Background(), func(st repository.StockRepository, _ repository.MovementRepository, _ repository.BatchRepository) error {
			_, err := st.LockForUpdate(context.Background(), []int64{id})
			close(locked)
			<-done
			return err
		})
	}()
	<-locked

	err := runner.Run(context.Background(), func(st repository.StockRepository, _ repository.MovementRepository, _ repository.BatchRepository) error {
		_, err := st.LockForUpdate(context.Background(), []int64{id})
		return err
	})
	close(done)
	assert.ErrorIs(t, err, domain.ErrLockTimeout)
}

func TestTxRunner_IDsEnOrdenDeCommit(t *testing.T) {
	store := NewStore(0)
	a := seedProduct(t, store, "O-1")
	b := seedProduct(t, store, "O-2")
	runner := NewTxRunner(store)
	ctx := context.Background()

	insert := func(id int64) error {
		return runner.Run(ctx, func(st repository.StockRepository, mv repository.MovementRepository, _ repository.BatchRepository) error {
			recs, err := st.LockForUpdate(ctx, []int64{id})
			if err != nil {
				return err
			}
			recs[id].Quantity++
			if err := st.Update(ctx, recs[id]); err != nil {
				return err
			}
			return mv.Create(ctx, &entity.MovementEntry{ProductID: id, Type: entity.MovementTypeIn, Quantity: 1, Delta: 1, QuantityBefore: recs[id].Quantity - 1, QuantityAfter: recs[id].Quantity})
		})
	}
	require.NoError(t, insert(b))
	require.NoError(t, insert(a))

	list, err := NewMovementQueryRepository(store).List(ctx, repository.MovementFilter{}, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, int64(2), list[0].ID)
	assert.Equal(t, a, list[0].ProductID)
	assert.Equal(t, "O-1", list[0].ProductSKU)

	list, err = NewMovementQueryRepository(store).List(ctx, repository.MovementFilter{}, 10, -10)
	require.NoError(t, err)
	assert.Empty(t, list)

	drifts, err := store.ListDrift(ctx)
	require.NoError(t, err)
	assert.Empty(t, drifts)

	store.SetQuantity(a, 9)
	drifts, err = store.ListDrift(ctx)
	require.NoError(t, err)
	require.Len(t, drifts, 1)
	assert.Equal(t, a, drifts[0].ProductID)
	assert.Equal(t, int64(8), drifts[0].Difference())
}

func TestSetStatus_NoAlteraCantidad(t *testing.T) {
	store := NewStore(0)
	id := seedProduct(t, store, "S-1")
	repo := NewProductRepository(store)
	ctx := context.Background()

	require.NoError(t, repo.SetStatus(ctx, id, entity.StockStatusUnavailable))
	got, _ := repo.GetByID(ctx, id)
	assert.Equal(t, entity.StockStatusUnavailable, got.Status)
	assert.ErrorIs(t, repo.SetStatus(ctx, 404, entity.StockStatusAvailable), domain.ErrProductNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// BatchGuard
// ──────────────────────────────────────────────────────────────────────────────

func TestBatchGuard_VentanaYLiberacion(t *testing.T) {
	g := NewBatchGuard()
	now := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return now }
	ctx := context.Background()

	first, ok, err := g.Reserve(ctx, "fp", 10*time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	_, ok, _ = g.Reserve(ctx, "fp", 10*time.Minute)
	assert.False(t, ok, "misma huella dentro de la ventana")

	now = now.Add(10 * time.Minute)
	second, ok, _ := g.Reserve(ctx, "fp", 10*time.Minute)
	assert.True(t, ok, "la ventana venció")

	// el token vencido no libera la reserva vigente
	require.NoError(t, g.Release(ctx, "fp", first))
	_, ok, _ = g.Reserve(ctx, "fp", 10*time.Minute)
	assert.False(t, ok)

	require.NoError(t, g.Release(ctx, "fp", second))
	_, ok, _ = g.Reserve(ctx, "fp", 10*time.Minute)
	assert.True(t, ok, "liberada tras una falla")
}

func TestUserRepo_EmailSinMayusculas(t *testing.T) {
	store := NewStore(0)
	repo := NewUserRepository(store)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &entity.User{ID: "u1", Email: "Admin@Example.com"}))
	assert.ErrorIs(t, repo.Create(ctx, &entity.User{ID: "u2", Email: "admin@example.com"}), domain.ErrEmailAlreadyExists)

	u, err := repo.FindByEmail(ctx, "ADMIN@example.com")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "u1", u.ID)
}
