// Package pdf genera el reporte imprimible del historial de movimientos.
//
// Layout de la página A4:
//
//	┌──────────────────────────────────────────────────────────────────────┐
//	│  HEADER: Título + filtros          │  Generado por + fecha + página   │
//	│  ──────────────────────────────────────────────────────────────────  │
//	│  TABLA: Fecha | Tipo | SKU | Producto | Cant. | Antes | Después | …  │
//	│  ──────────────────────────────────────────────────────────────────  │
//	│  FOOTER: totales por tipo + instantánea                              │
//	└──────────────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/stock-ledger/internal/application/history"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorOut     = &props.Color{Red: 170, Green: 30, Blue: 30}
	colorIn      = &props.Color{Red: 20, Green: 120, Blue: 60}
)

var _ history.PDFRenderer = (*HistoryPDFGenerator)(nil)

// ── Generator ─────────────────────────────────────────────────────────────────

// HistoryPDFGenerator implementa history.PDFRenderer usando Maroto v2.
type HistoryPDFGenerator struct{}

// NewHistoryPDFGenerator construye el generador.
func NewHistoryPDFGenerator() *HistoryPDFGenerator { return &HistoryPDFGenerator{} }

// RenderHistory genera el PDF y devuelve sus bytes.
func (g *HistoryPDFGenerator) RenderHistory(_ context.Context, page *history.Page, info history.ReportInfo) ([]byte, error) {
	title := nonEmpty(info.Title, "Historial de movimientos de stock")
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 8}).
		WithTitle(title, true).
		WithAuthor(nonEmpty(info.GeneratedBy, "stock-ledger"), true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(title, page, info))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	m.AddRows(tableHeaderRow())
	if len(page.Items) == 0 {
		m.AddRows(row.New(10).Add(col.New(12).Add(
			text.New("Sin movimientos para los filtros indicados.", props.Text{
				Size: 9, Align: align.Center, Color: colorGray, Top: 3,
			}),
		)))
	}
	m.AddRows(tableDetailRows(page.Items)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(footerRow(page))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: título y filtros (izq), autor, fecha y página (der).
func headerRow(title string, page *history.Page, info history.ReportInfo) core.Row {
	filters := "Sin filtros"
	if len(info.Filters) > 0 {
		filters = strings.Join(info.Filters, "   |   ")
	}
	p := page.Pagination
	return row.New(20).Add(
		col.New(8).Add(
			text.New(title, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New(filters, props.Text{
				Size: 8, Top: 10, Color: colorGray,
			}),
		),
		col.New(4).Add(
			text.New("Generado por: "+nonEmpty(info.GeneratedBy, "-"), props.Text{
				Size: 8, Align: align.Right, Top: 1,
			}),
			text.New("Fecha: "+info.GeneratedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 6, Color: colorGray,
			}),
			text.New(fmt.Sprintf("Página %d de %d · %d movimientos", p.CurrentPage, p.LastPage, p.Total), props.Text{
				Size: 8, Align: align.Right, Top: 11, Color: colorGray,
			}),
		),
	)
}

// tableHeaderRow: columnas de la tabla (12 en total).
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Fecha", 2, align.Left),
		h("Tipo", 1, align.Center),
		h("SKU", 1, align.Left),
		h("Producto", 2, align.Left),
		h("Cant.", 1, align.Right),
		h("Antes", 1, align.Right),
		h("Después", 1, align.Right),
		h("Referencia", 2, align.Left),
		h("Usuario", 1, align.Left),
	)
}

// tableDetailRows: una fila por movimiento, en el orden de la página.
func tableDetailRows(items []*entity.MovementView) []core.Row {
	result := make([]core.Row, 0, len(items))
	for _, it := range items {
		cell := func(s string, size int, a align.Type) core.Col {
			return col.New(size).Add(text.New(s, props.Text{Size: 7.5, Align: a, Top: 1, Left: 1, Right: 1}))
		}
		result = append(result, row.New(6).Add(
			cell(it.CreatedAt.Format("02/01/2006 15:04:05"), 2, align.Left),
			col.New(1).Add(text.New(string(it.Type), props.Text{
				Style: fontstyle.Bold, Size: 7.5, Align: align.Center, Top: 1, Color: typeColor(it.Type),
			})),
			cell(it.ProductSKU, 1, align.Left),
			cell(truncate(it.ProductName, 40), 2, align.Left),
			cell(signed(it.Delta), 1, align.Right),
			cell(strconv.FormatInt(it.QuantityBefore, 10), 1, align.Right),
			cell(strconv.FormatInt(it.QuantityAfter, 10), 1, align.Right),
			cell(truncate(it.ReferenceNumber, 36), 2, align.Left),
			cell(truncate(it.ActorName, 20), 1, align.Left),
		))
	}
	return result
}

// footerRow: unidades por tipo en la página y cursor de instantánea.
func footerRow(page *history.Page) core.Row {
	units := map[entity.MovementType]int64{}
	for _, it := range page.Items {
		units[it.Type] += it.Quantity
	}
	parts := make([]string, 0, len(entity.MovementTypes))
	for _, t := range entity.MovementTypes {
		parts = append(parts, fmt.Sprintf("%s: %d", t, units[t]))
	}
	return row.New(10).Add(
		col.New(8).Add(text.New("Unidades en esta página  ·  "+strings.Join(parts, "   "), props.Text{
			Style: fontstyle.Bold, Size: 8, Top: 2,
		})),
		col.New(4).Add(text.New(fmt.Sprintf("Instantánea #%d", page.SnapshotID), props.Text{
			Size: 7, Align: align.Right, Top: 2, Color: colorGray,
		})),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func typeColor(t entity.MovementType) *props.Color {
	if t == entity.MovementTypeOut {
		return colorOut
	}
	return colorIn
}

func signed(n int64) string {
	if n > 0 {
		return "+" + strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n, 10)
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// truncate corta a n caracteres (runas) agregando "…".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
