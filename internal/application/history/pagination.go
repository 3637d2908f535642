package history

// Límites de página del historial.
const (
	DefaultPerPage = 20
	MaxPerPage     = 100
	// MaxPage acota el desplazamiento (page-1)*perPage para que no desborde.
	MaxPage = 1_000_000
)

// Pagination metadatos de página. From y To son posiciones 1-based inclusivas del primer y
// último elemento devuelto; ambas 0 si la página está vacía.
type Pagination struct {
	CurrentPage int
	LastPage    int
	PerPage     int
	Total       int64
	From        int
	To          int
}

// NormalizePage aplica los valores por defecto y el máximo de tamaño de página.
func NormalizePage(page, perPage int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return page, perPage
}

// NewPagination calcula los metadatos para una página ya normalizada con count elementos.
func NewPagination(page, perPage int, total int64, count int) Pagination {
	lastPage := int((total + int64(perPage) - 1) / int64(perPage))
	if lastPage < 1 {
		lastPage = 1
	}
	p := Pagination{CurrentPage: page, LastPage: lastPage, PerPage: perPage, Total: total}
	if count > 0 {
		offset := (page - 1) * perPage
		p.From = offset + 1
		p.To = offset + count
	}
	return p
}
