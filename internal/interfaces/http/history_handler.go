package http

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/history"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// HistoryHandler consultas del historial de movimientos (solo lectura).
type HistoryHandler struct {
	uc       *history.UseCase
	exporter *history.Exporter
}

// NewHistoryHandler construye el handler. exporter puede ser nil si no se expone el PDF.
func NewHistoryHandler(uc *history.UseCase, exporter *history.Exporter) *HistoryHandler {
	return &HistoryHandler{uc: uc, exporter: exporter}
}

// ProductHistory godoc
// @Summary      Historial de un producto
// @Description  Más reciente primero. Reenviar snapshot_id mantiene estables las páginas siguientes.
// @Tags         history
// @Security     Bearer
// @Produce      json
// @Param        id                path   int     true   "ID del producto"
// @Param        page              query  int     false  "Página"          default(1)
// @Param        per_page          query  int     false  "Tamaño"          default(20)
// @Param        snapshot_id       query  int     false  "Cursor de instantánea"
// @Param        movement_type     query  string  false  "IN | OUT | RETURN"
// @Param        reference_number  query  string  false  "Referencia exacta (sin distinguir mayúsculas)"
// @Param        from              query  string  false  "Desde (RFC3339 o AAAA-MM-DD)"
// @Param        to                query  string  false  "Hasta (RFC3339 o AAAA-MM-DD)"
// @Success      200  {object}  dto.HistoryResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/products/{id}/movements [get]
func (h *HistoryHandler) ProductHistory(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_ID", Message: "id inválido"})
	}
	q, ok, err := h.parseQuery(c)
	if !ok {
		return err
	}
	q.Filter.ProductID = id
	return h.respond(c, q)
}

// GlobalHistory godoc
// @Summary      Historial global de movimientos
// @Tags         history
// @Security     Bearer
// @Produce      json
// @Param        page              query  int     false  "Página"          default(1)
// @Param        per_page          query  int     false  "Tamaño"          default(20)
// @Param        snapshot_id       query  int     false  "Cursor de instantánea"
// @Param        product_id        query  int     false  "Producto"
// @Param        movement_type     query  string  false  "IN | OUT | RETURN"
// @Param        actor_id          query  string  false  "Usuario"
// @Param        reference_number  query  string  false  "Referencia exacta (sin distinguir mayúsculas)"
// @Param        batch_id          query  string  false  "Lote"
// @Param        from              query  string  false  "Desde (RFC3339 o AAAA-MM-DD)"
// @Param        to                query  string  false  "Hasta (RFC3339 o AAAA-MM-DD)"
// @Success      200  {object}  dto.HistoryResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/stock/movements [get]
func (h *HistoryHandler) GlobalHistory(c *fiber.Ctx) error {
	q, ok, err := h.parseQuery(c)
	if !ok {
		return err
	}
	return h.respond(c, q)
}

// ExportPDF godoc
// @Summary      Exportar historial a PDF
// @Description  Misma página y filtros que /api/stock/movements.
// @Tags         history
// @Security     Bearer
// @Produce      application/pdf
// @Param        page              query  int     false  "Página"  default(1)
// @Param        per_page          query  int     false  "Tamaño"  default(20)
// @Param        product_id        query  int     false  "Producto"
// @Param        movement_type     query  string  false  "IN | OUT | RETURN"
// @Param        from              query  string  false  "Desde"
// @Param        to                query  string  false  "Hasta"
// @Success      200  {file}    binary
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/stock/movements/export.pdf [get]
func (h *HistoryHandler) ExportPDF(c *fiber.Ctx) error {
	if h.exporter == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(dto.ErrorResponse{Code: "NOT_AVAILABLE", Message: "exportación no disponible"})
	}
	q, ok, err := h.parseQuery(c)
	if !ok {
		return err
	}
	doc, page, err := h.exporter.ExportPDF(c.UserContext(), q, history.ReportInfo{
		GeneratedBy: GetUserName(c),
		Filters:     describeFilter(q.Filter),
	})
	if err != nil {
		return writeHistoryError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="movimientos-p%d.pdf"`, page.Pagination.CurrentPage))
	return c.Send(doc)
}

func (h *HistoryHandler) respond(c *fiber.Ctx, q history.Query) error {
	page, err := h.uc.Query(c.UserContext(), q)
	if err != nil {
		return writeHistoryError(c, err)
	}
	out := dto.HistoryResponse{
		Items: make([]dto.MovementResponse, 0, len(page.Items)),
		Pagination: dto.PaginationResponse{
			CurrentPage: page.Pagination.CurrentPage,
			LastPage:    page.Pagination.LastPage,
			PerPage:     page.Pagination.PerPage,
			Total:       page.Pagination.Total,
			From:        page.Pagination.From,
			To:          page.Pagination.To,
		},
		SnapshotID: page.SnapshotID,
	}
	for _, v := range page.Items {
		r := toMovementResponse(&v.MovementEntry)
		r.ProductSKU = v.ProductSKU
		r.ProductName = v.ProductName
		out.Items = append(out.Items, r)
	}
	return c.JSON(out)
}

// parseQuery lee la query string. Si falla, ya escribió la respuesta y devuelve ok=false.
func (h *HistoryHandler) parseQuery(c *fiber.Ctx) (history.Query, bool, error) {
	var in dto.HistoryQuery
	if err := c.QueryParser(&in); err != nil {
		return history.Query{}, false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"})
	}
	if ok, err := checkStruct(c, &in); !ok {
		return history.Query{}, false, err
	}

	f := repository.MovementFilter{
		ProductID:       in.ProductID,
		ActorID:         strings.TrimSpace(in.ActorID),
		ReferenceNumber: strings.TrimSpace(in.ReferenceNumber),
		BatchID:         strings.TrimSpace(in.BatchID),
	}
	if in.MovementType != "" {
		t, ok := entity.ParseMovementType(in.MovementType)
		if !ok {
			return history.Query{}, false, c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{
				Code: "INVALID_MOVEMENT_TYPE", Message: "movement_type debe ser IN, OUT o RETURN",
			})
		}
		f.Type = t
	}
	var err error
	if f.From, err = parseDate(in.From, false); err != nil {
		return history.Query{}, false, invalidDate(c, "from")
	}
	if f.To, err = parseDate(in.To, true); err != nil {
		return history.Query{}, false, invalidDate(c, "to")
	}
	return history.Query{Filter: f, Page: in.Page, PerPage: in.PerPage, SnapshotID: in.SnapshotID}, true, nil
}

// parseDate acepta RFC3339 o AAAA-MM-DD. Con endOfDay, una fecha sin hora cubre el día completo.
func parseDate(s string, endOfDay bool) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func invalidDate(c *fiber.Ctx, field string) error {
	return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{
		Code:    "VALIDATION",
		Message: "fecha inválida",
		Details: []dto.ErrorDetail{{Field: field, Code: "DATE", Message: "use RFC3339 o AAAA-MM-DD"}},
	})
}

func writeHistoryError(c *fiber.Ctx, err error) error {
	if domain.IsValidation(err) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: codeFor(err), Message: err.Error()})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
}

func describeFilter(f repository.MovementFilter) []string {
	var out []string
	if f.ProductID > 0 {
		out = append(out, fmt.Sprintf("Producto %d", f.ProductID))
	}
	if f.Type != "" {
		out = append(out, "Tipo "+string(f.Type))
	}
	if f.ReferenceNumber != "" {
		out = append(out, "Referencia "+f.ReferenceNumber)
	}
	if f.ActorID != "" {
		out = append(out, "Usuario "+f.ActorID)
	}
	if f.BatchID != "" {
		out = append(out, "Lote "+f.BatchID)
	}
	if f.From != nil {
		out = append(out, "Desde "+f.From.Format("02/01/2006"))
	}
	if f.To != nil {
		out = append(out, "Hasta "+f.To.Format("02/01/2006"))
	}
	return out
}
