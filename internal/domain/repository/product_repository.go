package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para Product (DIP).
// Create también crea el registro de stock del producto con cantidad 0 y estado AVAILABLE.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id int64) (*entity.ProductWithStock, error)
	GetByBarcode(ctx context.Context, barcode string) (*entity.ProductWithStock, error)
	GetByIDs(ctx context.Context, ids []int64) (map[int64]*entity.Product, error)
	SetStatus(ctx context.Context, id int64, status entity.StockStatus) error
}
