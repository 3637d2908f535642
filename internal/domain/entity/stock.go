package entity

import "time"

// StockStatus disponibilidad del producto, fijada por el catálogo de forma independiente a la cantidad.
type StockStatus string

const (
	StockStatusAvailable   StockStatus = "AVAILABLE"
	StockStatusUnavailable StockStatus = "UNAVAILABLE"
)

// Valid indica si el estado es uno de los permitidos.
func (s StockStatus) Valid() bool {
	return s == StockStatusAvailable || s == StockStatusUnavailable
}

// StockRecord cantidad disponible de un producto. Solo el libro de movimientos la modifica;
// Quantity nunca es negativa y siempre es igual a la suma de los deltas de sus movimientos.
type StockRecord struct {
	ProductID int64
	Quantity  int64
	Status    StockStatus
	UpdatedAt time.Time
}

// StockDrift producto cuya cantidad no coincide con la suma de sus movimientos.
type StockDrift struct {
	ProductID int64
	SKU       string
	Quantity  int64
	LedgerSum int64
}

// Difference cantidad almacenada menos la reconstruida desde el libro.
func (d StockDrift) Difference() int64 {
	return d.Quantity - d.LedgerSum
}
