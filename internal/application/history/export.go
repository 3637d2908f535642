package history

import (
	"context"
	"fmt"
	"time"
)

// ReportInfo encabezado del reporte exportado.
type ReportInfo struct {
	Title       string
	GeneratedBy string
	GeneratedAt time.Time
	Filters     []string // descripción legible de los filtros aplicados
}

// PDFRenderer puerto de salida: dibuja una página de historial como PDF.
type PDFRenderer interface {
	RenderHistory(ctx context.Context, page *Page, info ReportInfo) ([]byte, error)
}

// Exporter exporta la misma página que devolvería Query.
type Exporter struct {
	query    *UseCase
	renderer PDFRenderer
}

// NewExporter construye el exportador.
func NewExporter(query *UseCase, renderer PDFRenderer) *Exporter {
	return &Exporter{query: query, renderer: renderer}
}

// ExportPDF consulta la página pedida y la renderiza.
func (e *Exporter) ExportPDF(ctx context.Context, q Query, info ReportInfo) ([]byte, *Page, error) {
	page, err := e.query.Query(ctx, q)
	if err != nil {
		return nil, nil, err
	}
	if info.GeneratedAt.IsZero() {
		info.GeneratedAt = time.Now()
	}
	doc, err := e.renderer.RenderHistory(ctx, page, info)
	if err != nil {
		return nil, nil, fmt.Errorf("historial: exportar pdf: %w", err)
	}
	return doc, page, nil
}
