package dto

import "time"

// LineItemRequest una línea escaneada.
type LineItemRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

// SubmitBatchRequest lote de movimientos. En /api/stock/{in,out,return} el tipo sale de la ruta
// y movement_type se ignora.
type SubmitBatchRequest struct {
	MovementType    string            `json:"movement_type" example:"OUT"`
	ReferenceNumber string            `json:"reference_number" example:"SO-2024-0042"`
	LineItems       []LineItemRequest `json:"line_items"`
}

// MovementResponse un asiento del libro.
type MovementResponse struct {
	ID              int64     `json:"id"`
	BatchID         string    `json:"batch_id,omitempty"`
	ProductID       int64     `json:"product_id"`
	ProductSKU      string    `json:"product_sku,omitempty"`
	ProductName     string    `json:"product_name,omitempty"`
	MovementType    string    `json:"movement_type"`
	Quantity        int64     `json:"quantity"`
	Delta           int64     `json:"delta"`
	QuantityBefore  int64     `json:"quantity_before"`
	QuantityAfter   int64     `json:"quantity_after"`
	ActorID         string    `json:"actor_id"`
	ActorName       string    `json:"actor_name"`
	ReferenceNumber string    `json:"reference_number"`
	CreatedAt       time.Time `json:"created_at"`
}

// ProductSummaryResponse cantidad de un producto antes y después del lote.
type ProductSummaryResponse struct {
	ProductID      int64  `json:"product_id"`
	SKU            string `json:"sku"`
	Name           string `json:"name"`
	QuantityBefore int64  `json:"quantity_before"`
	QuantityAfter  int64  `json:"quantity_after"`
}

// BatchSummaryResponse totales del lote.
type BatchSummaryResponse struct {
	CountsByType map[string]int           `json:"counts_by_type"`
	TotalUnits   int64                    `json:"total_units"`
	Products     []ProductSummaryResponse `json:"products"`
}

// SubmitBatchResponse lote registrado.
type SubmitBatchResponse struct {
	BatchID string               `json:"batch_id"`
	Entries []MovementResponse   `json:"entries"`
	Summary BatchSummaryResponse `json:"summary"`
}
