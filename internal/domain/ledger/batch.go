package ledger

import (
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// MaxReferenceLength largo máximo (en caracteres) del número de referencia.
const MaxReferenceLength = 100

// LineItem una línea escaneada: producto y cantidad.
type LineItem struct {
	ProductID int64
	Quantity  int64
}

// BatchInput lote tal como lo envía el operador.
type BatchInput struct {
	Type            entity.MovementType
	ReferenceNumber string
	Items           []LineItem
	Actor           entity.Actor
}

// Normalize recorta espacios del número de referencia y pasa el tipo a mayúsculas.
func (in BatchInput) Normalize() BatchInput {
	in.ReferenceNumber = strings.TrimSpace(in.ReferenceNumber)
	if t, ok := entity.ParseMovementType(string(in.Type)); ok {
		in.Type = t
	}
	return in
}

// ProductIDs ids distintos del lote en orden ascendente.
func (in BatchInput) ProductIDs() []int64 {
	seen := make(map[int64]struct{}, len(in.Items))
	ids := make([]int64, 0, len(in.Items))
	for _, it := range in.Items {
		if _, ok := seen[it.ProductID]; ok {
			continue
		}
		seen[it.ProductID] = struct{}{}
		ids = append(ids, it.ProductID)
	}
	slices.Sort(ids)
	return ids
}

// ValidateBatch revisa la forma del lote antes de tocar el almacenamiento. Devuelve un
// *BatchError con todos los campos y líneas inválidos, o nil.
func ValidateBatch(in BatchInput, maxItems int) error {
	be := &BatchError{}

	switch n := utf8.RuneCountInString(in.ReferenceNumber); {
	case n == 0:
		be.Fields = append(be.Fields, &FieldError{Field: "reference_number", Err: domain.ErrMissingReference})
	case n > MaxReferenceLength:
		be.Fields = append(be.Fields, &FieldError{Field: "reference_number", Err: domain.ErrReferenceTooLong})
	}
	if !in.Type.Valid() {
		be.Fields = append(be.Fields, &FieldError{Field: "movement_type", Err: domain.ErrInvalidMovementType})
	}
	switch {
	case len(in.Items) == 0:
		be.Fields = append(be.Fields, &FieldError{Field: "line_items", Err: domain.ErrEmptyBatch})
	case maxItems > 0 && len(in.Items) > maxItems:
		be.Fields = append(be.Fields, &FieldError{Field: "line_items", Err: domain.ErrTooManyLineItems})
	}

	for i, it := range in.Items {
		switch {
		case it.ProductID <= 0:
			be.Items = append(be.Items, &LineItemError{Index: i, ProductID: it.ProductID, Err: domain.ErrProductNotFound})
		case it.Quantity <= 0:
			be.Items = append(be.Items, &LineItemError{Index: i, ProductID: it.ProductID, Requested: it.Quantity, Err: domain.ErrInvalidQuantity})
		}
	}

	if be.Empty() {
		return nil
	}
	return be
}
