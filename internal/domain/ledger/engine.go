// Package ledger contiene las reglas puras del libro de movimientos de stock:
// aplicación de un movimiento sobre un registro bloqueado, validación de lotes y
// huella para detectar envíos duplicados. No conoce la persistencia.
package ledger

import (
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// Movement datos de un movimiento a aplicar.
type Movement struct {
	BatchID         string
	ProductID       int64
	Type            entity.MovementType
	Quantity        int64
	Actor           entity.Actor
	ReferenceNumber string
}

// Apply aplica m sobre record y devuelve el movimiento resultante. record debe estar
// bloqueado por el llamador; nil significa que el producto no existe.
// Si hay error record queda intacto.
func Apply(record *entity.StockRecord, m Movement, now time.Time) (*entity.MovementEntry, error) {
	if err := ValidateMovement(m); err != nil {
		return nil, err
	}
	if record == nil {
		return nil, &LineItemError{ProductID: m.ProductID, Err: domain.ErrProductNotFound}
	}
	if record.Status != entity.StockStatusAvailable {
		return nil, &LineItemError{ProductID: m.ProductID, Err: domain.ErrProductUnavailable}
	}

	delta := m.Type.Delta(m.Quantity)
	before := record.Quantity
	after := before + delta
	if after < 0 {
		return nil, &LineItemError{
			ProductID: m.ProductID,
			Requested: m.Quantity,
			Available: before,
			Err:       domain.ErrInsufficientStock,
		}
	}

	record.Quantity = after
	record.UpdatedAt = now
	return &entity.MovementEntry{
		BatchID:         m.BatchID,
		ProductID:       m.ProductID,
		Type:            m.Type,
		Quantity:        m.Quantity,
		Delta:           delta,
		QuantityBefore:  before,
		QuantityAfter:   after,
		ActorID:         m.Actor.ID,
		ActorName:       m.Actor.Name,
		ReferenceNumber: m.ReferenceNumber,
		CreatedAt:       now,
	}, nil
}

// ValidateMovement revisa cantidad y tipo sin mirar el stock.
func ValidateMovement(m Movement) error {
	if m.Quantity <= 0 {
		return &LineItemError{ProductID: m.ProductID, Requested: m.Quantity, Err: domain.ErrInvalidQuantity}
	}
	if !m.Type.Valid() {
		return &LineItemError{ProductID: m.ProductID, Err: domain.ErrInvalidMovementType}
	}
	return nil
}
