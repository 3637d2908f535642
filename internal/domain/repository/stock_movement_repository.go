package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// MovementRepository puerto de escritura del libro: solo inserta, nunca actualiza ni borra.
type MovementRepository interface {
	Create(ctx context.Context, entry *entity.MovementEntry) error
}

// BatchRepository persiste la cabecera de cada lote.
type BatchRepository interface {
	Create(ctx context.Context, batch *entity.Batch) error
}

// MovementFilter criterios del historial. Los campos vacíos no filtran.
type MovementFilter struct {
	ProductID       int64
	From            *time.Time
	To              *time.Time
	Type            entity.MovementType
	ActorID         string
	ReferenceNumber string // coincidencia exacta sin distinguir mayúsculas
	BatchID         string
	Snapshot        int64 // solo movimientos confirmados antes del cursor; 0 no filtra
}

// MovementQueryRepository puerto de lectura del historial, ordenado por created_at DESC, id DESC.
type MovementQueryRepository interface {
	List(ctx context.Context, filter MovementFilter, limit, offset int) ([]*entity.MovementView, error)
	Count(ctx context.Context, filter MovementFilter) (int64, error)
	// Snapshot cursor de visibilidad. Todo movimiento confirmado antes de tomarlo queda
	// dentro y ninguno confirmado después puede entrar, aunque su transacción haya empezado antes.
	Snapshot(ctx context.Context) (int64, error)
}
