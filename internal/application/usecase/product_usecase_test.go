package usecase

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
)

func newProductUC() *ProductUseCase {
	return NewProductUseCase(memory.NewProductRepository(memory.NewStore(0)))
}

func TestProductUseCase_CreateYConsultas(t *testing.T) {
	uc := newProductUC()
	ctx := context.Background()

	created, err := uc.Create(ctx, dto.CreateProductRequest{
		SKU: " CAM-001 ", Barcode: "7701234", Name: "Camiseta", Price: decimal.RequireFromString("45000.50"),
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "CAM-001", created.SKU)
	assert.Equal(t, int64(0), created.Quantity)
	assert.Equal(t, "AVAILABLE", created.Status)

	byCode, err := uc.GetByBarcode(ctx, "7701234")
	require.NoError(t, err)
	require.NotNil(t, byCode)
	assert.Equal(t, created.ID, byCode.ID)

	missing, err := uc.GetByID(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	variant, err := uc.Create(ctx, dto.CreateProductRequest{ParentID: &created.ID, SKU: "CAM-001-M", Name: "Camiseta M"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, *variant.ParentID)
}

func TestProductUseCase_CreateInvalido(t *testing.T) {
	uc := newProductUC()
	ctx := context.Background()

	_, err := uc.Create(ctx, dto.CreateProductRequest{SKU: "", Name: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Create(ctx, dto.CreateProductRequest{SKU: "A", Name: "x", Price: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Create(ctx, dto.CreateProductRequest{SKU: "A", Name: "x"})
	require.NoError(t, err)
	_, err = uc.Create(ctx, dto.CreateProductRequest{SKU: "A", Name: "y"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestProductUseCase_SetStatus(t *testing.T) {
	uc := newProductUC()
	ctx := context.Background()
	p, err := uc.Create(ctx, dto.CreateProductRequest{SKU: "A", Name: "x"})
	require.NoError(t, err)

	out, err := uc.SetStatus(ctx, p.ID, "unavailable")
	require.NoError(t, err)
	assert.Equal(t, "UNAVAILABLE", out.Status)

	_, err = uc.SetStatus(ctx, p.ID, "ROTO")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.SetStatus(ctx, 404, "AVAILABLE")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}
