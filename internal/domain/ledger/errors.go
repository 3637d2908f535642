package ledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jhoicas/stock-ledger/internal/domain"
)

// LineItemError falla de una línea del lote. Requested y Available solo se llenan en
// errores de stock insuficiente.
type LineItemError struct {
	Index     int // posición en el lote; 0 cuando se aplica un movimiento suelto
	ProductID int64
	Requested int64
	Available int64
	Err       error
}

func (e *LineItemError) Error() string {
	if errors.Is(e.Err, domain.ErrInsufficientStock) {
		return fmt.Sprintf("línea %d (producto %d): %v: solicitado %d, disponible %d",
			e.Index, e.ProductID, e.Err, e.Requested, e.Available)
	}
	return fmt.Sprintf("línea %d (producto %d): %v", e.Index, e.ProductID, e.Err)
}

func (e *LineItemError) Unwrap() error { return e.Err }

// FieldError falla de un campo de cabecera del lote.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Err.Error() }

func (e *FieldError) Unwrap() error { return e.Err }

// BatchError reúne todas las fallas de validación o de negocio de un lote, para que la
// interfaz pueda marcar cada escaneo incorrecto de una sola vez.
type BatchError struct {
	Fields []*FieldError
	Items  []*LineItemError
}

func (e *BatchError) Error() string {
	parts := make([]string, 0, len(e.Fields)+len(e.Items))
	for _, f := range e.Fields {
		parts = append(parts, f.Error())
	}
	for _, it := range e.Items {
		parts = append(parts, it.Error())
	}
	return "lote rechazado: " + strings.Join(parts, "; ")
}

// Unwrap permite errors.Is / errors.As sobre cada falla individual.
func (e *BatchError) Unwrap() []error {
	errs := make([]error, 0, len(e.Fields)+len(e.Items))
	for _, f := range e.Fields {
		errs = append(errs, f)
	}
	for _, it := range e.Items {
		errs = append(errs, it)
	}
	return errs
}

// Empty indica si no se registró ninguna falla.
func (e *BatchError) Empty() bool {
	return len(e.Fields) == 0 && len(e.Items) == 0
}

// AsBatchError extrae el *BatchError de err, si lo hay.
func AsBatchError(err error) (*BatchError, bool) {
	var be *BatchError
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}
