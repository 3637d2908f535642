package memory

import (
	"context"
	"slices"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo catálogo en memoria.
type ProductRepo struct {
	store *Store
}

// NewProductRepository construye el repositorio.
func NewProductRepository(store *Store) *ProductRepo {
	return &ProductRepo{store: store}
}

// Create asigna id al producto y crea su registro de stock en 0, AVAILABLE.
func (r *ProductRepo) Create(_ context.Context, product *entity.Product) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.skus[product.SKU]; ok {
		return domain.ErrDuplicate
	}
	if product.Barcode != "" {
		if _, ok := s.barcodes[product.Barcode]; ok {
			return domain.ErrDuplicate
		}
	}
	if product.ParentID != nil {
		if _, ok := s.products[*product.ParentID]; !ok {
			return domain.ErrProductNotFound
		}
	}
	s.nextProd++
	product.ID = s.nextProd
	cp := *product
	s.products[cp.ID] = &cp
	s.skus[cp.SKU] = cp.ID
	if cp.Barcode != "" {
		s.barcodes[cp.Barcode] = cp.ID
	}
	s.stocks[cp.ID] = &entity.StockRecord{
		ProductID: cp.ID,
		Quantity:  0,
		Status:    entity.StockStatusAvailable,
		UpdatedAt: cp.CreatedAt,
	}
	return nil
}

func (r *ProductRepo) GetByID(_ context.Context, id int64) (*entity.ProductWithStock, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.productWithStock(id), nil
}

func (r *ProductRepo) GetByBarcode(_ context.Context, barcode string) (*entity.ProductWithStock, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.barcodes[barcode]
	if !ok {
		return nil, nil
	}
	return s.productWithStock(id), nil
}

func (r *ProductRepo) GetByIDs(_ context.Context, ids []int64) (map[int64]*entity.Product, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int64]*entity.Product, len(ids))
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			cp := *p
			out[id] = &cp
		}
	}
	return out, nil
}

// SetStatus cambia la disponibilidad sin tocar la cantidad.
func (r *ProductRepo) SetStatus(_ context.Context, id int64, status entity.StockStatus) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.stocks[id]
	if !ok {
		return domain.ErrProductNotFound
	}
	rec.Status = status
	rec.UpdatedAt = time.Now()
	return nil
}

// productWithStock requiere s.mu tomado.
func (s *Store) productWithStock(id int64) *entity.ProductWithStock {
	p, ok := s.products[id]
	if !ok {
		return nil
	}
	out := &entity.ProductWithStock{Product: *p}
	if rec, ok := s.stocks[id]; ok {
		out.Quantity = rec.Quantity
		out.Status = rec.Status
	}
	return out
}

// sortedProductIDs requiere s.mu tomado.
func (s *Store) sortedProductIDs() []int64 {
	ids := make([]int64, 0, len(s.products))
	for id := range s.products {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
