package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	domainledger "github.com/jhoicas/stock-ledger/internal/domain/ledger"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// BatchResult resultado de un lote registrado.
type BatchResult struct {
	BatchID string
	Entries []*entity.MovementEntry
	Summary BatchSummary
}

// BatchSummary totales del lote para mostrar al operador.
type BatchSummary struct {
	CountsByType map[entity.MovementType]int
	TotalUnits   int64
	Products     []ProductSummary // orden ascendente de product_id
}

// ProductSummary cantidad de un producto antes y después del lote.
type ProductSummary struct {
	ProductID      int64
	SKU            string
	Name           string
	QuantityBefore int64
	QuantityAfter  int64
}

// SubmitBatch registra todas las líneas de un lote en una sola transacción.
//
//  1. valida la forma del lote (todas las fallas juntas, *ledger.BatchError);
//  2. reserva la huella del lote en el guard; si ya existe, domain.ErrDuplicateBatch;
//  3. abre la transacción, bloquea los productos en orden ascendente y guarda la cabecera;
//  4. aplica cada línea en orden de envío; cualquier falla revierte todo;
//  5. confirma. La reserva se libera ante cualquier falla y se conserva si el lote quedó registrado.
func (uc *UseCase) SubmitBatch(ctx context.Context, in domainledger.BatchInput) (*BatchResult, error) {
	start := uc.now()
	in = in.Normalize()

	if err := domainledger.ValidateBatch(in, uc.cfg.MaxLineItems); err != nil {
		uc.metrics.ObserveBatch(OutcomeRejected, in.Type, len(in.Items), time.Since(start))
		uc.log.Warn().Err(err).Str("reference_number", in.ReferenceNumber).Msg("ledger: lote inválido")
		return nil, err
	}

	fingerprint := domainledger.Fingerprint(in)
	token, reserved, err := uc.guard.Reserve(ctx, fingerprint, uc.cfg.DedupWindow)
	if err != nil {
		uc.metrics.ObserveBatch(OutcomeError, in.Type, len(in.Items), time.Since(start))
		uc.logFailure(in, "", err).Msg("ledger: reservar huella del lote")
		return nil, fmt.Errorf("reservar huella del lote: %w", err)
	}
	if !reserved {
		uc.metrics.ObserveBatch(OutcomeDuplicate, in.Type, len(in.Items), time.Since(start))
		uc.log.Warn().
			Str("reference_number", in.ReferenceNumber).
			Str("actor_id", in.Actor.ID).
			Msg("ledger: lote duplicado rechazado")
		return nil, domain.ErrDuplicateBatch
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if err := uc.guard.Release(context.WithoutCancel(ctx), fingerprint, token); err != nil {
			uc.log.Warn().Err(err).Str("reference_number", in.ReferenceNumber).Msg("ledger: liberar huella del lote")
		}
	}()

	ids := in.ProductIDs()
	catalog, err := uc.products.GetByIDs(ctx, ids)
	if err != nil {
		uc.metrics.ObserveBatch(OutcomeError, in.Type, len(in.Items), time.Since(start))
		uc.logFailure(in, "", err).Msg("ledger: leer productos del lote")
		return nil, fmt.Errorf("leer productos del lote: %w", err)
	}

	batch := &entity.Batch{
		ID:              uuid.NewString(),
		Type:            in.Type,
		ReferenceNumber: in.ReferenceNumber,
		Fingerprint:     fingerprint,
		ActorID:         in.Actor.ID,
		ActorName:       in.Actor.Name,
		LineCount:       len(in.Items),
	}

	var (
		entries []*entity.MovementEntry
		before  map[int64]int64
		after   map[int64]int64
	)
	err = uc.txRunner.Run(ctx, func(
		stockRepo repository.StockRepository,
		movRepo repository.MovementRepository,
		batchRepo repository.BatchRepository,
	) error {
		records, err := stockRepo.LockForUpdate(ctx, ids)
		if err != nil {
			return err
		}
		// la marca de tiempo se toma con los bloqueos tomados para que siga el orden de commit
		now := uc.now()
		batch.CreatedAt = now
		if err := batchRepo.Create(ctx, batch); err != nil {
			return err
		}

		entries = make([]*entity.MovementEntry, 0, len(in.Items))
		before = make(map[int64]int64, len(records))
		failures := &domainledger.BatchError{}
		for i, it := range in.Items {
			rec := records[it.ProductID]
			if rec != nil {
				if _, seen := before[it.ProductID]; !seen {
					before[it.ProductID] = rec.Quantity
				}
			}
			entry, err := domainledger.Apply(rec, domainledger.Movement{
				BatchID:         batch.ID,
				ProductID:       it.ProductID,
				Type:            in.Type,
				Quantity:        it.Quantity,
				Actor:           in.Actor,
				ReferenceNumber: in.ReferenceNumber,
			}, now)
			if err != nil {
				var lie *domainledger.LineItemError
				if !errors.As(err, &lie) {
					return err
				}
				lie.Index = i
				failures.Items = append(failures.Items, lie)
				continue
			}
			entries = append(entries, entry)
		}
		if !failures.Empty() {
			return failures
		}

		after = make(map[int64]int64, len(before))
		for _, id := range ids {
			rec, ok := records[id]
			if !ok {
				continue
			}
			if err := stockRepo.Update(ctx, rec); err != nil {
				return err
			}
			after[id] = rec.Quantity
		}
		for _, e := range entries {
			if err := movRepo.Create(ctx, e); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, uc.classifyFailure(in, batch.ID, err, start)
	}
	committed = true

	uc.metrics.ObserveBatch(OutcomeRecorded, in.Type, len(in.Items), time.Since(start))
	uc.log.Debug().
		Str("batch_id", batch.ID).
		Str("reference_number", in.ReferenceNumber).
		Str("movement_type", string(in.Type)).
		Int("lines", len(entries)).
		Msg("ledger: lote registrado")

	return &BatchResult{
		BatchID: batch.ID,
		Entries: entries,
		Summary: summarize(entries, ids, catalog, before, after),
	}, nil
}

func (uc *UseCase) classifyFailure(in domainledger.BatchInput, batchID string, err error, start time.Time) error {
	elapsed := time.Since(start)
	if be, ok := domainledger.AsBatchError(err); ok {
		uc.metrics.ObserveBatch(OutcomeRejected, in.Type, len(in.Items), elapsed)
		uc.log.Warn().Err(be).
			Str("batch_id", batchID).
			Str("reference_number", in.ReferenceNumber).
			Int("failed_lines", len(be.Items)).
			Msg("ledger: lote rechazado por reglas de negocio")
		return be
	}
	if isContention(err) {
		uc.metrics.ObserveBatch(OutcomeContention, in.Type, len(in.Items), elapsed)
		uc.log.Warn().Err(err).
			Str("batch_id", batchID).
			Str("reference_number", in.ReferenceNumber).
			Msg("ledger: contención de bloqueo, reintentar")
		return err
	}
	uc.metrics.ObserveBatch(OutcomeError, in.Type, len(in.Items), elapsed)
	uc.logFailure(in, batchID, err).Msg("ledger: registrar lote")
	return fmt.Errorf("registrar lote: %w", err)
}

// logFailure evento de error con el contexto completo del lote.
func (uc *UseCase) logFailure(in domainledger.BatchInput, batchID string, err error) *zerolog.Event {
	type line struct {
		ProductID int64 `json:"product_id"`
		Quantity  int64 `json:"quantity"`
	}
	items := make([]line, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, line{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return uc.log.Error().Err(err).
		Str("batch_id", batchID).
		Str("reference_number", in.ReferenceNumber).
		Str("movement_type", string(in.Type)).
		Str("actor_id", in.Actor.ID).
		Interface("line_items", items)
}

func isContention(err error) bool {
	return errors.Is(err, domain.ErrLockTimeout)
}

func summarize(
	entries []*entity.MovementEntry,
	ids []int64,
	catalog map[int64]*entity.Product,
	before, after map[int64]int64,
) BatchSummary {
	s := BatchSummary{CountsByType: make(map[entity.MovementType]int)}
	for _, e := range entries {
		s.CountsByType[e.Type]++
		s.TotalUnits += e.Quantity
	}
	s.Products = make([]ProductSummary, 0, len(ids))
	for _, id := range ids {
		ps := ProductSummary{ProductID: id, QuantityBefore: before[id], QuantityAfter: after[id]}
		if p := catalog[id]; p != nil {
			ps.SKU = p.SKU
			ps.Name = p.Name
		}
		s.Products = append(s.Products, ps)
	}
	return s
}
