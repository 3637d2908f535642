package ledger_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appledger "github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	domainledger "github.com/jhoicas/stock-ledger/internal/domain/ledger"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

var operator = entity.Actor{ID: "u-ops", Name: "Operador"}

type fixture struct {
	store    *memory.Store
	products *memory.ProductRepo
	history  *memory.MovementQueryRepo
	guard    *memory.BatchGuard
	metrics  *recordingMetrics
	uc       *appledger.UseCase
}

func newFixture(t *testing.T, lockTimeout time.Duration) *fixture {
	t.Helper()
	store := memory.NewStore(lockTimeout)
	f := &fixture{
		store:    store,
		products: memory.NewProductRepository(store),
		history:  memory.NewMovementQueryRepository(store),
		guard:    memory.NewBatchGuard(),
		metrics:  &recordingMetrics{},
	}
	f.uc = appledger.NewUseCase(memory.NewTxRunner(store), f.products, f.guard, f.metrics, logger.Nop(),
		appledger.Config{MaxLineItems: 500, DedupWindow: 10 * time.Minute})
	return f
}

// product crea un producto y, si initial > 0, le da stock con una entrada.
func (f *fixture) product(t *testing.T, sku string, initial int64) int64 {
	t.Helper()
	p := &entity.Product{SKU: sku, Barcode: "77" + sku, Name: "Producto " + sku, CreatedAt: time.Now()}
	require.NoError(t, f.products.Create(context.Background(), p))
	if initial > 0 {
		_, err := f.uc.Apply(context.Background(), appledger.ApplyInput{
			ProductID: p.ID, Type: entity.MovementTypeIn, Quantity: initial, Actor: operator, ReferenceNumber: "INIT-" + sku,
		})
		require.NoError(t, err)
	}
	return p.ID
}

func (f *fixture) quantity(t *testing.T, id int64) int64 {
	t.Helper()
	p, err := f.products.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p.Quantity
}

func (f *fixture) entries(t *testing.T, id int64) []*entity.MovementView {
	t.Helper()
	list, err := f.history.List(context.Background(), repository.MovementFilter{ProductID: id}, 1000, 0)
	require.NoError(t, err)
	return list
}

func batch(t entity.MovementType, ref string, items ...domainledger.LineItem) domainledger.BatchInput {
	return domainledger.BatchInput{Type: t, ReferenceNumber: ref, Items: items, Actor: operator}
}

func line(id, qty int64) domainledger.LineItem {
	return domainledger.LineItem{ProductID: id, Quantity: qty}
}

type recordingMetrics struct {
	mu       sync.Mutex
	outcomes []string
	drift    int
}

func (m *recordingMetrics) ObserveBatch(outcome string, _ entity.MovementType, _ int, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, outcome)
}

func (m *recordingMetrics) SetDrift(n int) { m.drift = n }

func (m *recordingMetrics) last() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.outcomes) == 0 {
		return ""
	}
	return m.outcomes[len(m.outcomes)-1]
}

// ──────────────────────────────────────────────────────────────────────────────
// Escenarios
// ──────────────────────────────────────────────────────────────────────────────

// P con 10; salida SO-1 de 4 → 6 y un movimiento {OUT, -4, 10, 6}.
func TestSubmitBatch_SalidaSimple(t *testing.T) {
	f := newFixture(t, 0)
	p := f.product(t, "P", 10)

	res, err := f.uc.SubmitBatch(context.Background(), batch(entity.MovementTypeOut, "SO-1", line(p, 4)))
	require.NoError(t, err)

	assert.NotEmpty(t, res.BatchID)
	require.Len(t, res.Entries, 1)
	e := res.Entries[0]
	assert.Equal(t, entity.MovementTypeOut, e.Type)
	assert.Equal(t, int64(-4), e.Delta)
	assert.Equal(t, int64(10), e.QuantityBefore)
	assert.Equal(t, int64(6), e.QuantityAfter)
	assert.Equal(t, res.BatchID, e.BatchID)
	assert.NotZero(t, e.ID, "el id se asigna al confirmar")
	assert.Equal(t, "SO-1", e.ReferenceNumber)
	assert.Equal(t, operator.ID, e.ActorID)

	assert.Equal(t, int64(6), f.quantity(t, p))
	assert.Equal(t, map[entity.MovementType]int{entity.MovementTypeOut: 1}, res.Summary.CountsByType)
	assert.Equal(t, int64(4), res.Summary.TotalUnits)
	require.Len(t, res.Summary.Products, 1)
	assert.Equal(t, appledger.ProductSummary{ProductID: p, SKU: "P", Name: "Producto P", QuantityBefore: 10, QuantityAfter: 6}, res.Summary.Products[0])
	assert.Equal(t, appledger.OutcomeRecorded, f.metrics.last())
}

// SO-2 intenta sacar 20 de 6 → stock insuficiente, cantidad intacta y sin movimientos nuevos.
func TestSubmitBatch_StockInsuficiente(t *testing.T) {
	f := newFixture(t, 0)
	p := f.product(t, "P", 10)
	_, err := f.uc.SubmitBatch(context.Background(), batch(entity.MovementTypeOut, "SO-1", line(p, 4)))
	require.NoError(t, err)
	before := len(f.entries(t, p))

	_, err = f.uc.SubmitBatch(context.Background(), batch(entity.MovementTypeOut, "SO-2", line(p, 20)))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	be, ok := domainledger.AsBatchError(err)
	require.True(t, ok)
	require.Len(t, be.Items, 1)
	assert.Equal(t, 0, be.Items[0].Index)
	assert.Equal(t, int64(20), be.Items[0].Requested)
	assert.Equal(t, int64(6), be.Items[0].Available)

	assert.Equal(t, int64(6), f.quantity(t, p))
	assert.Len(t, f.entries(t, p), before)
	assert.Equal(t, appledger.OutcomeRejected, f.metrics.last())
}

// B1 +5 y B2 +2 concurrentes sobre P con 6 → 13 y dos movimientos encadenados.
func TestSubmitBatch_ConcurrentesSobreMismoProducto(t *testing.T) {
	f := newFixture(t, 0)
	p := f.product(t, "P", 6)
	initial := len(f.entries(t, p))

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = f.uc.SubmitBatch(context.Background(), batch(entity.MovementTypeIn, "B1", line(p, 5)))
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = f.uc.SubmitBatch(context.Background(), batch(entity.MovementTypeReturn, "B2", line(p, 2)))
	}()
	wg.Wait()
	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	assert.Equal(t, int64(13), f.quantity(t, p))
	list := f.entries(t, p)
	require.Len(t, list, initial+2)
	// más reciente primero: list[0] se aplicó sobre list[1]
	assert.Equal(t, list[1].QuantityAfter, list[0].QuantityBefore)
	assert.Equal(t, int64(6), list[1].QuantityBefore)
	assert.Equal(t, int64(13), list[0].QuantityAfter)
}

// ──────────────────────────────────────────────────────────────────────────────
// Atomicidad y validación
// ──────────────────────────────────────────────────────────────────────────────

func TestSubmitBatch_FallaEnUnaLineaNoDejaNada(t *testing.T) {
	f := newFixture(t, 0)
	a := f.product(t, "A", 5)
	b := f.product(t, "B", 1)
	c := f.product(t, "C", 8)
	before := map[int64]int{a: len(f.entries(t, a)), b: len(f.entries(t, b)), c: len(f.entries(t, c))}

	_, err := f.uc.SubmitBatch(context.Background(), batch(entity.MovementTypeOut, "SO-9",
		line(a, 2), line(b, 3), line(c, 1), line(9999, 1), line(c, 8)))
	require.Error(t, err)

	be, ok := domainledger.AsBatchError(err)
	require.True(t, ok)
	require.Len(t, be.Items, 3, "se reportan todas las líneas con problema")
	assert.Equal(t, 1, be.Items[0].Index)
	assert.ErrorIs(t, be.Items[0], domain.ErrInsufficientStock)
	assert.Equal(t, 3, be.Items[1].Index)
	assert.ErrorIs(t, be.Items[1], domain.ErrProductNotFound)
	assert.Equal(t, 4, be.Items[2].Index)
	assert.Equal(t, int64(7), be.Items[2].Available, "la disponibilidad refleja las líneas anteriores del lote")

	assert.Equal(t, int64(5), f.quantity(t, a))
	assert.Equal(t, int64(1), f.quantity(t, b))
	assert.Equal(t, int64(8), f.quantity(t, c))
	for id, n := range before {
		assert.Len(t, f.entries(t, id), n)
	}

	// corregido, el mismo lote se acepta
	_, err = f.uc.SubmitBatch(context.Background(), batch(entity.MovementTypeOut, "SO-9", line(a, 2), line(b, 1), line(c, 1)))
	require.NoError(t, err)
}

func TestSubmitBatch_ValidacionAntesDeTocarNada(t *testing.T) {
	f := newFixture(t, 0)
	p := f.product(t, "V", 3)

	_, err := f.uc.SubmitBatch(context.Background(), batch(entity.MovementTypeOut, "   ", line(p, 0)))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMissingReference)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	assert.Equal(t, int64(3), f.quantity(t, p))

	// la huella no quedó reservada
	_, ok, _ := f.guard.Reserve(context.Background(), domainledger.Fingerprint(batch(entity.MovementTypeOut, "", line(p, 0))), time.Minute)
	assert.True(t, ok)
}

func TestSubmitBatch_ProductoNoDisponible(t *testing.T) {
	f := newFixture(t, 0)
	p := f.product(t, "N", 4)
	require.NoError(t, f.products.SetStatus(context.Background(), p, entity.StockStatusUnavailable))

	_, err := f.uc.SubmitBatch(context.Background(), batch(entity.MovementTypeIn, "PO-1", line(p, 1)))
	assert.ErrorIs(t, err, domain.ErrProductUnavailable)
	assert.Equal(t, int64(4), f.quantity(t, p))
}

func TestSubmitBatch_LineasRepetidasDelMismoProducto(t *testing.T) {
	f := newFixture(t, 0)
	p := f.product(t, "D", 10)

	res, err := f.uc.SubmitBatch(context.Background(), batch(entity.MovementTypeOut, "SO-3", line(p, 3), line(p, 4)))
	require.NoError(t, err)
	require.Len(t, res.Entries, 2)
	assert.Equal(t, int64(10), res.Entries[0].QuantityBefore)
	assert.Equal(t, int64(7), res.Entries[1].QuantityBefore)
	assert.Equal(t, int64(3), res.Entries[1].QuantityAfter)
	require.Len(t, res.Summary.Products, 1)
	assert.Equal(t, int64(10), res.Summary.Products[0].QuantityBefore)
	assert.Equal(t, int64(3), res.Summary.Products[0].QuantityAfter)
	assert.Equal(t, int64(3), f.quantity(t, p))
}

// ──────────────────────────────────────────────────────────────────────────────
// Duplicados
// ──────────────────────────────────────────────────────────────────────────────

func TestSubmitBatch_ReenvioIdenticoRechazado(t *testing.T) {
	f := newFixture(t, 0)
	a := f.product(t, "A", 0)
	b := f.product(t, "B", 0)

	_, err := f.uc.SubmitBatch(context.Background(), batch(entity.MovementTypeIn, "PO-5", line(a, 2), line(b, 1)))
	require.NoError(t, err)

	// mismo contenido en otro orden y con la referencia en minúsculas
	_, err = f.uc.SubmitBatch(context.Background(), batch(entity.MovementTypeIn, "po-5", line(b, 1), line(a, 2)))
	assert.ErrorIs(t, err, domain.ErrDuplicateBatch)
	assert.Equal(t, appledger.OutcomeDuplicate, f.metrics.last())
	assert.Equal(t, int64(2), f.quantity(t, a))

	// misma referencia con otras líneas es un lote legítimo
	_, err = f.uc.SubmitBatch(context.Background(), batch(entity.MovementTypeIn, "PO-5", line(a, 3)))
	require.NoError(t, err)
	assert.Equal(t, int64(5), f.quantity(t, a))
}

func TestSubmitBatch_FallaLiberaLaHuella(t *testing.T) {
	f := newFixture(t, 0)
	p := f.product(t, "F", 1)
	in := batch(entity.MovementTypeOut, "SO-7", line(p, 2))

	_, err := f.uc.SubmitBatch(context.Background(), in)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	_, err = f.uc.SubmitBatch(context.Background(), batch(entity.MovementTypeIn, "PO-7", line(p, 1)))
	require.NoError(t, err)

	_, err = f.uc.SubmitBatch(context.Background(), in)
	require.NoError(t, err, "el reintento tras una falla no es un duplicado")
	assert.Equal(t, int64(0), f.quantity(t, p))
}

// ──────────────────────────────────────────────────────────────────────────────
// Contención e infraestructura
// ──────────────────────────────────────────────────────────────────────────────

func TestSubmitBatch_TimeoutDeBloqueoEsReintentable(t *testing.T) {
	f := newFixture(t, 30*time.Millisecond)
	p := f.product(t, "L", 5)
	runner := memory.NewTxRunner(f.store)

	locked := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = runner.Run(context.Background(), func(st repository.StockRepository, _ repository.MovementRepository, _ repository.BatchRepository) error {
			_, err := st.LockForUpdate(context.Background(), []int64{p})
			close(locked)
			<-release
			return err
		})
	}()
	<-locked

	in := batch(entity.MovementTypeOut, "SO-L", line(p, 1))
	_, err := f.uc.SubmitBatch(context.Background(), in)
	close(release)
	require.ErrorIs(t, err, domain.ErrLockTimeout)
	assert.False(t, domain.IsValidation(err))
	assert.Equal(t, appledger.OutcomeContention, f.metrics.last())
	assert.Equal(t, int64(5), f.quantity(t, p))

	// sin contención, el mismo lote entra (la huella se liberó)
	require.Eventually(t, func() bool {
		_, err = f.uc.SubmitBatch(context.Background(), in)
		return err == nil
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, int64(4), f.quantity(t, p))
}

type failingTx struct{ err error }

func (r failingTx) Run(context.Context, func(repository.StockRepository, repository.MovementRepository, repository.BatchRepository) error) error {
	return r.err
}

type failingGuard struct{}

func (failingGuard) Reserve(context.Context, string, time.Duration) (string, bool, error) {
	return "", false, errors.New("redis caído")
}
func (failingGuard) Release(context.Context, string, string) error { return nil }

func TestSubmitBatch_ErrorDeInfraestructura(t *testing.T) {
	f := newFixture(t, 0)
	p := f.product(t, "I", 2)
	storageDown := errors.New("conexión rechazada")

	uc := appledger.NewUseCase(failingTx{err: storageDown}, f.products, f.guard, f.metrics, logger.Nop(), appledger.Config{MaxLineItems: 10, DedupWindow: time.Minute})
	in := batch(entity.MovementTypeIn, "PO-X", line(p, 1))
	_, err := uc.SubmitBatch(context.Background(), in)
	require.Error(t, err)
	assert.ErrorIs(t, err, storageDown)
	assert.False(t, domain.IsValidation(err))
	assert.Equal(t, appledger.OutcomeError, f.metrics.last())

	_, ok, _ := f.guard.Reserve(context.Background(), domainledger.Fingerprint(in), time.Minute)
	assert.True(t, ok, "la huella se libera ante fallas de infraestructura")

	uc = appledger.NewUseCase(memory.NewTxRunner(f.store), f.products, failingGuard{}, nil, nil, appledger.Config{})
	_, err = uc.SubmitBatch(context.Background(), batch(entity.MovementTypeIn, "PO-Y", line(p, 1)))
	require.Error(t, err)
	assert.Equal(t, int64(2), f.quantity(t, p))
}

// ──────────────────────────────────────────────────────────────────────────────
// Carga concurrente
// ──────────────────────────────────────────────────────────────────────────────

// Muchos lotes solapados: ninguna actualización perdida, nunca negativo y
// cantidad == suma de deltas para cada producto.
func TestSubmitBatch_SerializableBajoCarga(t *testing.T) {
	f := newFixture(t, 5*time.Second)
	ids := []int64{f.product(t, "X1", 50), f.product(t, "X2", 50), f.product(t, "X3", 50)}

	const workers = 24
	var wg sync.WaitGroup
	var mu sync.Mutex
	var accepted int
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			typ := entity.MovementTypeOut
			if w%3 == 0 {
				typ = entity.MovementTypeIn
			}
			// productos en orden distinto por worker; el coordinador ordena los bloqueos
			items := []domainledger.LineItem{line(ids[(w+2)%3], 4), line(ids[w%3], 3), line(ids[(w+1)%3], 2)}
			_, err := f.uc.SubmitBatch(context.Background(), batch(typ, fmt.Sprintf("LOAD-%d", w), items...))
			if err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, domain.ErrInsufficientStock)
		}(w)
	}
	wg.Wait()
	assert.Positive(t, accepted)

	for _, id := range ids {
		list := f.entries(t, id)
		var sum int64
		for _, e := range list {
			sum += e.Delta
			assert.GreaterOrEqual(t, e.QuantityAfter, int64(0))
			assert.Equal(t, e.QuantityBefore+e.Delta, e.QuantityAfter)
		}
		assert.Equal(t, sum, f.quantity(t, id))
		// encadenamiento en orden de commit (ids crecientes)
		for i := len(list) - 1; i > 0; i-- {
			assert.Equal(t, list[i].QuantityAfter, list[i-1].QuantityBefore)
		}
	}
	drifts, err := f.store.ListDrift(context.Background())
	require.NoError(t, err)
	assert.Empty(t, drifts)
}
