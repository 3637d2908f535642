package dto

// ErrorResponse cuerpo de error HTTP.
// Details lleva las fallas por campo o por línea; Retryable indica que reenviar el mismo lote puede funcionar.
type ErrorResponse struct {
	Code      string        `json:"code"`
	Message   string        `json:"message"`
	Details   []ErrorDetail `json:"details,omitempty"`
	Retryable bool          `json:"retryable,omitempty"`
}

// ErrorDetail una falla concreta. Index es la posición de la línea en el lote (desde 0);
// nil cuando la falla es de un campo de la cabecera.
type ErrorDetail struct {
	Field     string `json:"field,omitempty"`
	Index     *int   `json:"index,omitempty"`
	ProductID int64  `json:"product_id,omitempty"`
	Requested int64  `json:"requested,omitempty"`
	Available *int64 `json:"available,omitempty"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

// PaginationResponse metadatos de página del historial.
type PaginationResponse struct {
	CurrentPage int   `json:"current_page"`
	LastPage    int   `json:"last_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
	From        int   `json:"from"`
	To          int   `json:"to"`
}
