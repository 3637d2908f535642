package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

const productWithStockColumns = `
	p.id, p.parent_id, p.sku, COALESCE(p.barcode, ''), p.name, p.image_path, p.price, p.created_at, p.updated_at,
	s.quantity, s.status`

// Create inserta el producto y su registro de stock (0, AVAILABLE) en una sola sentencia.
func (r *ProductRepo) Create(ctx context.Context, product *entity.Product) error {
	query := `
		WITH p AS (
			INSERT INTO products (parent_id, sku, barcode, name, image_path, price, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id
		)
		INSERT INTO product_stocks (product_id, quantity, status, updated_at)
		SELECT id, 0, $9, $8 FROM p
		RETURNING product_id`
	err := r.q.QueryRow(ctx, query,
		product.ParentID, product.SKU, nullIfEmpty(product.Barcode), product.Name, product.ImagePath,
		product.Price, product.CreatedAt, product.UpdatedAt, entity.StockStatusAvailable,
	).Scan(&product.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		if pgCode(err) == codeForeignKeyViolation {
			return domain.ErrProductNotFound
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByID obtiene un producto con su stock. Devuelve nil, nil si no existe.
func (r *ProductRepo) GetByID(ctx context.Context, id int64) (*entity.ProductWithStock, error) {
	query := `SELECT ` + productWithStockColumns + `
		FROM products p JOIN product_stocks s ON s.product_id = p.id
		WHERE p.id = $1`
	return r.scanOne(r.q.QueryRow(ctx, query, id), "get product")
}

// GetByBarcode busca por código de barras (lo que envía el escáner).
func (r *ProductRepo) GetByBarcode(ctx context.Context, barcode string) (*entity.ProductWithStock, error) {
	query := `SELECT ` + productWithStockColumns + `
		FROM products p JOIN product_stocks s ON s.product_id = p.id
		WHERE p.barcode = $1`
	return r.scanOne(r.q.QueryRow(ctx, query, barcode), "get product by barcode")
}

func (r *ProductRepo) scanOne(row pgx.Row, op string) (*entity.ProductWithStock, error) {
	var p entity.ProductWithStock
	err := row.Scan(
		&p.ID, &p.ParentID, &p.SKU, &p.Barcode, &p.Name, &p.ImagePath, &p.Price, &p.CreatedAt, &p.UpdatedAt,
		&p.Quantity, &p.Status,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &p, nil
}

// GetByIDs carga los productos indicados; los ids inexistentes no aparecen en el mapa.
func (r *ProductRepo) GetByIDs(ctx context.Context, ids []int64) (map[int64]*entity.Product, error) {
	out := make(map[int64]*entity.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query := `
		SELECT id, parent_id, sku, COALESCE(barcode, ''), name, image_path, price, created_at, updated_at
		FROM products WHERE id = ANY($1)`
	rows, err := r.q.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("list products by id: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var p entity.Product
		if err := rows.Scan(&p.ID, &p.ParentID, &p.SKU, &p.Barcode, &p.Name, &p.ImagePath, &p.Price,
			&p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out[p.ID] = &p
	}
	return out, rows.Err()
}

// SetStatus cambia el estado de disponibilidad sin tocar la cantidad.
func (r *ProductRepo) SetStatus(ctx context.Context, id int64, status entity.StockStatus) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE product_stocks SET status = $2, updated_at = now() WHERE product_id = $1`,
		id, status,
	)
	if err != nil {
		return translate("update stock status", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}
