package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain"
	domainledger "github.com/jhoicas/stock-ledger/internal/domain/ledger"
)

// errorCodes código estable por sentinel de dominio, en el orden en que se evalúan.
var errorCodes = []struct {
	err  error
	code string
}{
	{domain.ErrInsufficientStock, "INSUFFICIENT_STOCK"},
	{domain.ErrProductUnavailable, "PRODUCT_UNAVAILABLE"},
	{domain.ErrProductNotFound, "PRODUCT_NOT_FOUND"},
	{domain.ErrInvalidQuantity, "INVALID_QUANTITY"},
	{domain.ErrInvalidMovementType, "INVALID_MOVEMENT_TYPE"},
	{domain.ErrMissingReference, "MISSING_REFERENCE"},
	{domain.ErrReferenceTooLong, "REFERENCE_TOO_LONG"},
	{domain.ErrEmptyBatch, "EMPTY_BATCH"},
	{domain.ErrTooManyLineItems, "TOO_MANY_LINE_ITEMS"},
	{domain.ErrInvalidInput, "VALIDATION"},
}

func codeFor(err error) string {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return "VALIDATION"
}

// writeLedgerError traduce errores del libro a la respuesta HTTP. Los errores de
// infraestructura se responden con un mensaje genérico; el detalle queda en el log.
func writeLedgerError(c *fiber.Ctx, err error) error {
	if be, ok := domainledger.AsBatchError(err); ok {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(batchErrorResponse(be))
	}
	var lie *domainledger.LineItemError
	if errors.As(err, &lie) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{
			Code:    codeFor(lie),
			Message: lie.Err.Error(),
			Details: []dto.ErrorDetail{lineDetail(lie)},
		})
	}
	switch {
	case errors.Is(err, domain.ErrDuplicateBatch):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code:    "DUPLICATE_BATCH",
			Message: "este lote ya fue registrado hace un momento; no se aplicó de nuevo",
		})
	case errors.Is(err, domain.ErrLockTimeout):
		return c.Status(fiber.StatusLocked).JSON(dto.ErrorResponse{
			Code:      "LOCK_TIMEOUT",
			Message:   "el stock está ocupado por otra operación; reintente el envío",
			Retryable: true,
		})
	case domain.IsValidation(err):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: codeFor(err), Message: err.Error()})
	}
	return internalError(c)
}

func internalError(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Code:    "INTERNAL",
		Message: "error interno; no se registró ningún cambio",
	})
}

func batchErrorResponse(be *domainledger.BatchError) dto.ErrorResponse {
	out := dto.ErrorResponse{
		Code:    "BATCH_REJECTED",
		Message: "el lote no se registró; corrija las líneas marcadas y reenvíe",
		Details: make([]dto.ErrorDetail, 0, len(be.Fields)+len(be.Items)),
	}
	for _, f := range be.Fields {
		out.Details = append(out.Details, dto.ErrorDetail{Field: f.Field, Code: codeFor(f.Err), Message: f.Err.Error()})
	}
	for _, it := range be.Items {
		out.Details = append(out.Details, lineDetail(it))
	}
	return out
}

func lineDetail(it *domainledger.LineItemError) dto.ErrorDetail {
	idx := it.Index
	d := dto.ErrorDetail{
		Index:     &idx,
		ProductID: it.ProductID,
		Code:      codeFor(it.Err),
		Message:   it.Error(),
	}
	if errors.Is(it.Err, domain.ErrInsufficientStock) {
		avail := it.Available
		d.Requested = it.Requested
		d.Available = &avail
	}
	return d
}
