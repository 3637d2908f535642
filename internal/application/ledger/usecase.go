package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	domainledger "github.com/jhoicas/stock-ledger/internal/domain/ledger"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// Config límites del libro de movimientos.
type Config struct {
	MaxLineItems int
	DedupWindow  time.Duration
}

// UseCase motor del libro de movimientos: aplica movimientos sueltos y lotes completos
// de forma transaccional, con bloqueo por producto.
type UseCase struct {
	txRunner TxRunner
	products repository.ProductRepository
	guard    BatchGuard
	metrics  Metrics
	log      *logger.Logger
	cfg      Config
	now      func() time.Time
}

// NewUseCase construye el caso de uso.
func NewUseCase(
	txRunner TxRunner,
	products repository.ProductRepository,
	guard BatchGuard,
	metrics Metrics,
	log *logger.Logger,
	cfg Config,
) *UseCase {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &UseCase{
		txRunner: txRunner,
		products: products,
		guard:    guard,
		metrics:  metrics,
		log:      log,
		cfg:      cfg,
		now:      time.Now,
	}
}

// ApplyInput movimiento suelto, fuera de un lote.
type ApplyInput struct {
	ProductID       int64
	Type            entity.MovementType
	Quantity        int64
	Actor           entity.Actor
	ReferenceNumber string
}

// Apply registra un único movimiento en su propia transacción: bloquea el registro de stock,
// calcula antes/después, actualiza la cantidad e inserta el movimiento. O todo o nada.
func (uc *UseCase) Apply(ctx context.Context, in ApplyInput) (*entity.MovementEntry, error) {
	mov := domainledger.Movement{
		ProductID:       in.ProductID,
		Type:            in.Type,
		Quantity:        in.Quantity,
		Actor:           in.Actor,
		ReferenceNumber: in.ReferenceNumber,
	}
	if err := domainledger.ValidateMovement(mov); err != nil {
		return nil, err
	}

	var entry *entity.MovementEntry
	err := uc.txRunner.Run(ctx, func(
		stockRepo repository.StockRepository,
		movRepo repository.MovementRepository,
		_ repository.BatchRepository,
	) error {
		records, err := stockRepo.LockForUpdate(ctx, []int64{in.ProductID})
		if err != nil {
			return err
		}
		rec := records[in.ProductID]
		e, err := domainledger.Apply(rec, mov, uc.now())
		if err != nil {
			return err
		}
		if err := stockRepo.Update(ctx, rec); err != nil {
			return err
		}
		if err := movRepo.Create(ctx, e); err != nil {
			return err
		}
		entry = e
		return nil
	})
	if err != nil {
		var lie *domainledger.LineItemError
		if errors.As(err, &lie) || isContention(err) {
			return nil, err
		}
		uc.log.Error().Err(err).
			Int64("product_id", in.ProductID).
			Str("movement_type", string(in.Type)).
			Str("reference_number", in.ReferenceNumber).
			Msg("ledger: aplicar movimiento")
		return nil, fmt.Errorf("aplicar movimiento: %w", err)
	}
	return entry, nil
}
