package dto

// HistoryQuery parámetros de consulta del historial (query string).
type HistoryQuery struct {
	Page            int    `query:"page" validate:"omitempty,max=1000000"`
	PerPage         int    `query:"per_page"`
	SnapshotID      int64  `query:"snapshot_id"`
	ProductID       int64  `query:"product_id"`
	MovementType    string `query:"movement_type"`
	ActorID         string `query:"actor_id"`
	ReferenceNumber string `query:"reference_number"`
	BatchID         string `query:"batch_id" validate:"omitempty,uuid"`
	From            string `query:"from"` // RFC3339 o AAAA-MM-DD
	To              string `query:"to"`
}

// HistoryResponse página de historial.
type HistoryResponse struct {
	Items      []MovementResponse `json:"items"`
	Pagination PaginationResponse `json:"pagination"`
	SnapshotID int64              `json:"snapshot_id"`
}
