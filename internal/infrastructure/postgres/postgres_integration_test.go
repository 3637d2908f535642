package postgres_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appledger "github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	domainledger "github.com/jhoicas/stock-ledger/internal/domain/ledger"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// Requiere una base desechable: LEDGER_TEST_DATABASE_URL=postgres://... go test ./internal/infrastructure/postgres/
func setupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("LEDGER_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("LEDGER_TEST_DATABASE_URL no definido")
	}
	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: url, MaxConns: 20})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = postgres.Migrate(ctx, pool)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `TRUNCATE stock_movements, stock_batches, product_stocks, products, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	return pool
}

func newLedger(pool *pgxpool.Pool, lockTimeout time.Duration) *appledger.UseCase {
	return appledger.NewUseCase(
		postgres.NewTxRunner(pool, lockTimeout),
		postgres.NewProductRepository(pool),
		memory.NewBatchGuard(),
		nil, logger.Nop(),
		appledger.Config{MaxLineItems: 500, DedupWindow: time.Minute},
	)
}

func createProduct(t *testing.T, pool *pgxpool.Pool, sku string) int64 {
	t.Helper()
	now := time.Now()
	p := &entity.Product{SKU: sku, Barcode: "BC-" + sku, Name: "Producto " + sku, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, postgres.NewProductRepository(pool).Create(context.Background(), p))
	require.NotZero(t, p.ID)
	return p.ID
}

var actor = entity.Actor{ID: "u-1", Name: "Operador"}

func TestPostgres_MigrateEsIdempotente(t *testing.T) {
	pool := setupPool(t)
	applied, err := postgres.Migrate(context.Background(), pool)
	require.NoError(t, err)
	assert.Empty(t, applied)
}

func TestPostgres_ProductoYStock(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()
	repo := postgres.NewProductRepository(pool)

	id := createProduct(t, pool, "A1")
	got, err := repo.GetByBarcode(ctx, "BC-A1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, int64(0), got.Quantity)
	assert.Equal(t, entity.StockStatusAvailable, got.Status)

	dup := &entity.Product{SKU: "A1", Name: "otro", CreatedAt: time.Now(), UpdatedAt: time.Now()}
	assert.ErrorIs(t, repo.Create(ctx, dup), domain.ErrDuplicate)

	require.NoError(t, repo.SetStatus(ctx, id, entity.StockStatusUnavailable))
	assert.ErrorIs(t, repo.SetStatus(ctx, 9999, entity.StockStatusUnavailable), domain.ErrProductNotFound)

	missing, err := repo.GetByID(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestPostgres_LoteCompletoYHistorial(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()
	uc := newLedger(pool, 2*time.Second)
	a := createProduct(t, pool, "A")
	b := createProduct(t, pool, "B")

	_, err := uc.SubmitBatch(ctx, domainledger.BatchInput{
		Type: entity.MovementTypeIn, ReferenceNumber: "PO-1", Actor: actor,
		Items: []domainledger.LineItem{{ProductID: a, Quantity: 10}, {ProductID: b, Quantity: 5}},
	})
	require.NoError(t, err)

	_, err = uc.SubmitBatch(ctx, domainledger.BatchInput{
		Type: entity.MovementTypeOut, ReferenceNumber: "SO-1", Actor: actor,
		Items: []domainledger.LineItem{{ProductID: a, Quantity: 3}, {ProductID: b, Quantity: 6}},
	})
	var be *domainledger.BatchError
	require.ErrorAs(t, err, &be)
	require.Len(t, be.Items, 1)
	assert.Equal(t, 1, be.Items[0].Index)

	q := postgres.NewMovementRepository(pool)
	n, err := q.Count(ctx, repository.MovementFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	list, err := q.List(ctx, repository.MovementFilter{ReferenceNumber: "po-1"}, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "B", list[0].ProductSKU)
	assert.NotEmpty(t, list[0].BatchID)

	drift, err := postgres.NewStockRepository(pool).ListDrift(ctx)
	require.NoError(t, err)
	assert.Empty(t, drift)
}

// Un movimiento cuya transacción sigue abierta al tomar el cursor no entra en el recorrido
// aunque confirme después, y su id (menor o no) no altera las páginas ya vistas.
func TestPostgres_CursorDeHistorialEstable(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()
	uc := newLedger(pool, 2*time.Second)
	a := createProduct(t, pool, "S")

	for _, ref := range []string{"PO-1", "PO-2"} {
		_, err := uc.SubmitBatch(ctx, domainledger.BatchInput{
			Type: entity.MovementTypeIn, ReferenceNumber: ref, Actor: actor,
			Items: []domainledger.LineItem{{ProductID: a, Quantity: 1}},
		})
		require.NoError(t, err)
	}

	late, err := pool.Begin(ctx)
	require.NoError(t, err)
	defer func() { _ = late.Rollback(ctx) }()
	require.NoError(t, postgres.NewMovementRepository(late).Create(ctx, &entity.MovementEntry{
		ProductID: a, Type: entity.MovementTypeIn, Quantity: 1, Delta: 1, QuantityBefore: 2, QuantityAfter: 3,
		ActorID: actor.ID, ActorName: actor.Name, ReferenceNumber: "PO-LATE", CreatedAt: time.Now(),
	}))

	q := postgres.NewMovementRepository(pool)
	cursor, err := q.Snapshot(ctx)
	require.NoError(t, err)
	n, err := q.Count(ctx, repository.MovementFilter{Snapshot: cursor})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	require.NoError(t, late.Commit(ctx))

	n, err = q.Count(ctx, repository.MovementFilter{Snapshot: cursor})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	fresh, err := q.Snapshot(ctx)
	require.NoError(t, err)
	n, err = q.Count(ctx, repository.MovementFilter{Snapshot: fresh})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestPostgres_ConcurrenciaSinSobreventa(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()
	uc := newLedger(pool, 5*time.Second)
	a := createProduct(t, pool, "X")
	_, err := uc.Apply(ctx, appledger.ApplyInput{ProductID: a, Type: entity.MovementTypeIn, Quantity: 10, Actor: actor, ReferenceNumber: "INIT"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok, insufficient := 0, 0
	for i := 0; i < 15; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := uc.SubmitBatch(ctx, domainledger.BatchInput{
				Type: entity.MovementTypeOut, ReferenceNumber: "SO-" + string(rune('A'+i)), Actor: actor,
				Items: []domainledger.LineItem{{ProductID: a, Quantity: 1}},
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrInsufficientStock):
				insufficient++
			default:
				t.Errorf("error inesperado: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, ok)
	assert.Equal(t, 5, insufficient)
	p, err := postgres.NewProductRepository(pool).GetByID(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, int64(0), p.Quantity)
}

func TestPostgres_TimeoutDeBloqueo(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()
	a := createProduct(t, pool, "L")

	holder, err := pool.Begin(ctx)
	require.NoError(t, err)
	defer func() { _ = holder.Rollback(ctx) }()
	_, err = holder.Exec(ctx, `SELECT 1 FROM product_stocks WHERE product_id = $1 FOR UPDATE`, a)
	require.NoError(t, err)

	uc := newLedger(pool, 100*time.Millisecond)
	_, err = uc.Apply(ctx, appledger.ApplyInput{ProductID: a, Type: entity.MovementTypeIn, Quantity: 1, Actor: actor, ReferenceNumber: "R"})
	assert.ErrorIs(t, err, domain.ErrLockTimeout)
}

// La espera se acota por lote, no por fila: liberar un producto justo antes del
// vencimiento no reinicia el plazo para el siguiente.
func TestPostgres_TimeoutDeBloqueoPorLote(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()
	a := createProduct(t, pool, "LA")
	b := createProduct(t, pool, "LB")

	first, err := pool.Begin(ctx)
	require.NoError(t, err)
	defer func() { _ = first.Rollback(ctx) }()
	_, err = first.Exec(ctx, `SELECT 1 FROM product_stocks WHERE product_id = $1 FOR UPDATE`, a)
	require.NoError(t, err)

	second, err := pool.Begin(ctx)
	require.NoError(t, err)
	defer func() { _ = second.Rollback(ctx) }()
	_, err = second.Exec(ctx, `SELECT 1 FROM product_stocks WHERE product_id = $1 FOR UPDATE`, b)
	require.NoError(t, err)

	const timeout = 300 * time.Millisecond
	go func() {
		time.Sleep(250 * time.Millisecond)
		_ = first.Rollback(ctx)
	}()

	uc := newLedger(pool, timeout)
	start := time.Now()
	_, err = uc.SubmitBatch(ctx, domainledger.BatchInput{
		Type: entity.MovementTypeIn, ReferenceNumber: "PO-L", Actor: actor,
		Items: []domainledger.LineItem{{ProductID: a, Quantity: 1}, {ProductID: b, Quantity: 1}},
	})
	assert.ErrorIs(t, err, domain.ErrLockTimeout)
	assert.Less(t, time.Since(start), timeout+timeout/2)
}
