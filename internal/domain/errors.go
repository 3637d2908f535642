package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrConflict           = errors.New("conflicto con el estado actual")
)

// Errores del libro de movimientos de stock.
var (
	ErrProductNotFound     = errors.New("producto no encontrado")
	ErrInvalidQuantity     = errors.New("la cantidad debe ser mayor a cero")
	ErrInvalidMovementType = errors.New("tipo de movimiento inválido")
	ErrMissingReference    = errors.New("número de referencia requerido")
	ErrReferenceTooLong    = errors.New("número de referencia demasiado largo")
	ErrEmptyBatch          = errors.New("el lote no tiene líneas")
	ErrTooManyLineItems    = errors.New("el lote excede el máximo de líneas")
	ErrProductUnavailable  = errors.New("producto no disponible")
	ErrInsufficientStock   = errors.New("stock insuficiente")
	ErrDuplicateBatch      = errors.New("lote duplicado")
	ErrLockTimeout         = errors.New("tiempo de espera agotado al bloquear el stock")
)

// IsValidation indica si err pertenece a la clase de errores que el operador puede corregir
// (forma de la petición o regla de negocio), frente a contención o fallos de infraestructura.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrInvalidInput,
		ErrProductNotFound,
		ErrInvalidQuantity,
		ErrInvalidMovementType,
		ErrMissingReference,
		ErrReferenceTooLong,
		ErrEmptyBatch,
		ErrTooManyLineItems,
		ErrProductUnavailable,
		ErrInsufficientStock,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
