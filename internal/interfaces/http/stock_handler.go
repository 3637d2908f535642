package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	appledger "github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	domainledger "github.com/jhoicas/stock-ledger/internal/domain/ledger"
)

// StockHandler recibe los lotes escaneados desde la consola (protegido).
type StockHandler struct {
	uc *appledger.UseCase
}

// NewStockHandler construye el handler.
func NewStockHandler(uc *appledger.UseCase) *StockHandler {
	return &StockHandler{uc: uc}
}

// SubmitBatch godoc
// @Summary      Registrar lote de movimientos
// @Description  Aplica todas las líneas en una sola transacción: o se registran todas o ninguna.
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SubmitBatchRequest  true  "Tipo, referencia y líneas"
// @Success      201   {object}  dto.SubmitBatchResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse  "Lote duplicado"
// @Failure      422   {object}  dto.ErrorResponse  "Validación o regla de negocio, con detalle por línea"
// @Failure      423   {object}  dto.ErrorResponse  "Stock bloqueado por otra operación; reintentable"
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /api/stock/batches [post]
func (h *StockHandler) SubmitBatch(c *fiber.Ctx) error {
	return h.submit(c, "")
}

// In godoc
// @Summary      Registrar entrada de stock
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SubmitBatchRequest  true  "Referencia y líneas (movement_type se ignora)"
// @Success      201   {object}  dto.SubmitBatchResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Failure      423   {object}  dto.ErrorResponse
// @Router       /api/stock/in [post]
func (h *StockHandler) In(c *fiber.Ctx) error {
	return h.submit(c, entity.MovementTypeIn)
}

// Out godoc
// @Summary      Registrar salida de stock
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SubmitBatchRequest  true  "Referencia y líneas (movement_type se ignora)"
// @Success      201   {object}  dto.SubmitBatchResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Failure      423   {object}  dto.ErrorResponse
// @Router       /api/stock/out [post]
func (h *StockHandler) Out(c *fiber.Ctx) error {
	return h.submit(c, entity.MovementTypeOut)
}

// Return godoc
// @Summary      Registrar devolución
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SubmitBatchRequest  true  "Referencia y líneas (movement_type se ignora)"
// @Success      201   {object}  dto.SubmitBatchResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Failure      423   {object}  dto.ErrorResponse
// @Router       /api/stock/return [post]
func (h *StockHandler) Return(c *fiber.Ctx) error {
	return h.submit(c, entity.MovementTypeReturn)
}

func (h *StockHandler) submit(c *fiber.Ctx, forced entity.MovementType) error {
	actor := GetActor(c)
	if actor.ID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "usuario no identificado"})
	}
	var in dto.SubmitBatchRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	typ := entity.MovementType(in.MovementType)
	if forced != "" {
		typ = forced
	}
	items := make([]domainledger.LineItem, len(in.LineItems))
	for i, li := range in.LineItems {
		items[i] = domainledger.LineItem{ProductID: li.ProductID, Quantity: li.Quantity}
	}

	res, err := h.uc.SubmitBatch(c.UserContext(), domainledger.BatchInput{
		Type:            typ,
		ReferenceNumber: in.ReferenceNumber,
		Items:           items,
		Actor:           actor,
	})
	if err != nil {
		return writeLedgerError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toBatchResponse(res))
}

func toBatchResponse(res *appledger.BatchResult) dto.SubmitBatchResponse {
	out := dto.SubmitBatchResponse{
		BatchID: res.BatchID,
		Entries: make([]dto.MovementResponse, 0, len(res.Entries)),
		Summary: dto.BatchSummaryResponse{
			CountsByType: make(map[string]int, len(res.Summary.CountsByType)),
			TotalUnits:   res.Summary.TotalUnits,
			Products:     make([]dto.ProductSummaryResponse, 0, len(res.Summary.Products)),
		},
	}
	names := make(map[int64]appledger.ProductSummary, len(res.Summary.Products))
	for _, p := range res.Summary.Products {
		names[p.ProductID] = p
		out.Summary.Products = append(out.Summary.Products, dto.ProductSummaryResponse{
			ProductID:      p.ProductID,
			SKU:            p.SKU,
			Name:           p.Name,
			QuantityBefore: p.QuantityBefore,
			QuantityAfter:  p.QuantityAfter,
		})
	}
	for t, n := range res.Summary.CountsByType {
		out.Summary.CountsByType[string(t)] = n
	}
	for _, e := range res.Entries {
		r := toMovementResponse(e)
		r.ProductSKU = names[e.ProductID].SKU
		r.ProductName = names[e.ProductID].Name
		out.Entries = append(out.Entries, r)
	}
	return out
}

func toMovementResponse(e *entity.MovementEntry) dto.MovementResponse {
	return dto.MovementResponse{
		ID:              e.ID,
		BatchID:         e.BatchID,
		ProductID:       e.ProductID,
		MovementType:    string(e.Type),
		Quantity:        e.Quantity,
		Delta:           e.Delta,
		QuantityBefore:  e.QuantityBefore,
		QuantityAfter:   e.QuantityAfter,
		ActorID:         e.ActorID,
		ActorName:       e.ActorName,
		ReferenceNumber: e.ReferenceNumber,
		CreatedAt:       e.CreatedAt,
	}
}
