package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest entrada para crear un producto. El stock inicia en 0 y disponible.
type CreateProductRequest struct {
	ParentID  *int64          `json:"parent_id" validate:"omitempty,gt=0"`
	SKU       string          `json:"sku" validate:"required,min=1,max=100"`
	Barcode   string          `json:"barcode" validate:"omitempty,max=64"`
	Name      string          `json:"name" validate:"required,min=1,max=200"`
	ImagePath string          `json:"image_path" validate:"omitempty,max=500"`
	Price     decimal.Decimal `json:"price" swaggertype:"string"`
}

// UpdateStatusRequest cambia la disponibilidad del producto.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=AVAILABLE UNAVAILABLE"`
}

// ProductResponse producto con su stock actual, tal como lo muestra la consola.
type ProductResponse struct {
	ID        int64           `json:"id"`
	ParentID  *int64          `json:"parent_id,omitempty"`
	SKU       string          `json:"sku"`
	Barcode   string          `json:"barcode,omitempty"`
	Name      string          `json:"name"`
	ImagePath string          `json:"image_path,omitempty"`
	Price     decimal.Decimal `json:"price" swaggertype:"string"`
	Quantity  int64           `json:"quantity"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
