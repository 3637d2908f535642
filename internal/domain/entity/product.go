package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del catálogo. Cada variante (talla, color) es su propio
// Product con ParentID apuntando al producto base.
type Product struct {
	ID        int64
	ParentID  *int64
	SKU       string // único
	Barcode   string // lo que lee el escáner; único cuando no está vacío
	Name      string
	ImagePath string
	Price     decimal.Decimal // precio de venta
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProductWithStock producto junto con su registro de stock, para consultas de catálogo.
type ProductWithStock struct {
	Product
	Quantity int64
	Status   StockStatus
}
