package entity

import (
	"strings"
	"time"
)

// MovementType tipo de movimiento de stock.
type MovementType string

const (
	MovementTypeIn     MovementType = "IN"     // entrada
	MovementTypeOut    MovementType = "OUT"    // salida
	MovementTypeReturn MovementType = "RETURN" // devolución
)

// MovementTypes lista de tipos válidos en orden de presentación.
var MovementTypes = []MovementType{MovementTypeIn, MovementTypeOut, MovementTypeReturn}

// ParseMovementType normaliza s (mayúsculas, sin espacios) y lo devuelve si es válido.
func ParseMovementType(s string) (MovementType, bool) {
	t := MovementType(strings.ToUpper(strings.TrimSpace(s)))
	return t, t.Valid()
}

// Valid indica si el tipo es IN, OUT o RETURN.
func (t MovementType) Valid() bool {
	switch t {
	case MovementTypeIn, MovementTypeOut, MovementTypeReturn:
		return true
	}
	return false
}

// Delta devuelve la variación con signo que produce quantity unidades de este tipo.
func (t MovementType) Delta(quantity int64) int64 {
	if t == MovementTypeOut {
		return -quantity
	}
	return quantity
}

// Actor usuario que realiza la operación.
type Actor struct {
	ID   string
	Name string
}

// MovementEntry registro inmutable de un cambio de stock. QuantityAfter = QuantityBefore + Delta.
// Las correcciones se hacen con nuevos movimientos, nunca editando uno existente.
type MovementEntry struct {
	ID              int64
	BatchID         string
	ProductID       int64
	Type            MovementType
	Quantity        int64
	Delta           int64
	QuantityBefore  int64
	QuantityAfter   int64
	ActorID         string
	ActorName       string
	ReferenceNumber string
	CreatedAt       time.Time
}

// Batch cabecera de un lote enviado por el operador; se persiste junto con sus movimientos.
type Batch struct {
	ID              string
	Type            MovementType
	ReferenceNumber string
	Fingerprint     string
	ActorID         string
	ActorName       string
	LineCount       int
	CreatedAt       time.Time
}

// MovementView movimiento junto con los datos del producto, para el historial.
type MovementView struct {
	MovementEntry
	ProductSKU  string
	ProductName string
}
