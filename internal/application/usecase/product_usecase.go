package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// ProductUseCase alta y consulta de productos. La cantidad solo cambia vía movimientos del libro.
type ProductUseCase struct {
	repo repository.ProductRepository
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(repo repository.ProductRepository) *ProductUseCase {
	return &ProductUseCase{repo: repo}
}

// Create crea un producto con stock 0 y estado AVAILABLE.
func (uc *ProductUseCase) Create(ctx context.Context, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	sku := strings.TrimSpace(in.SKU)
	name := strings.TrimSpace(in.Name)
	if sku == "" || name == "" || in.Price.LessThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}
	if in.ParentID != nil && *in.ParentID <= 0 {
		return nil, domain.ErrInvalidInput
	}
	now := time.Now()
	product := &entity.Product{
		ParentID:  in.ParentID,
		SKU:       sku,
		Barcode:   strings.TrimSpace(in.Barcode),
		Name:      name,
		ImagePath: in.ImagePath,
		Price:     in.Price,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	return toProductResponse(&entity.ProductWithStock{
		Product:  *product,
		Quantity: 0,
		Status:   entity.StockStatusAvailable,
	}), nil
}

// GetByID obtiene un producto con su stock. Devuelve nil, nil si no existe.
func (uc *ProductUseCase) GetByID(ctx context.Context, id int64) (*dto.ProductResponse, error) {
	p, err := uc.repo.GetByID(ctx, id)
	if err != nil || p == nil {
		return nil, err
	}
	return toProductResponse(p), nil
}

// GetByBarcode resuelve el código leído por el escáner. Devuelve nil, nil si no existe.
func (uc *ProductUseCase) GetByBarcode(ctx context.Context, barcode string) (*dto.ProductResponse, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, domain.ErrInvalidInput
	}
	p, err := uc.repo.GetByBarcode(ctx, barcode)
	if err != nil || p == nil {
		return nil, err
	}
	return toProductResponse(p), nil
}

// SetStatus cambia la disponibilidad. No toca la cantidad ni escribe en el libro.
func (uc *ProductUseCase) SetStatus(ctx context.Context, id int64, status string) (*dto.ProductResponse, error) {
	st := entity.StockStatus(strings.ToUpper(strings.TrimSpace(status)))
	if !st.Valid() {
		return nil, domain.ErrInvalidInput
	}
	if err := uc.repo.SetStatus(ctx, id, st); err != nil {
		return nil, err
	}
	return uc.GetByID(ctx, id)
}

func toProductResponse(p *entity.ProductWithStock) *dto.ProductResponse {
	return &dto.ProductResponse{
		ID:        p.ID,
		ParentID:  p.ParentID,
		SKU:       p.SKU,
		Barcode:   p.Barcode,
		Name:      p.Name,
		ImagePath: p.ImagePath,
		Price:     p.Price,
		Quantity:  p.Quantity,
		Status:    string(p.Status),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
