// Package history expone el historial paginado de movimientos de stock. Es solo lectura y
// nunca espera por los bloqueos del libro.
package history

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// Query consulta de historial.
type Query struct {
	Filter  repository.MovementFilter
	Page    int
	PerPage int
	// SnapshotID devuelto por la primera página; al reenviarlo, las páginas siguientes solo
	// consideran movimientos confirmados antes de ese cursor y no se desplazan por commits nuevos.
	SnapshotID int64
}

// Page página de historial.
type Page struct {
	Items      []*entity.MovementView
	Pagination Pagination
	SnapshotID int64
}

// UseCase servicio de consulta del historial.
type UseCase struct {
	repo repository.MovementQueryRepository
}

// NewUseCase construye el caso de uso.
func NewUseCase(repo repository.MovementQueryRepository) *UseCase {
	return &UseCase{repo: repo}
}

// Query devuelve una página ordenada por created_at DESC, id DESC.
func (uc *UseCase) Query(ctx context.Context, q Query) (*Page, error) {
	if err := validateFilter(q.Filter); err != nil {
		return nil, err
	}
	if q.Page > MaxPage {
		return nil, fmt.Errorf("%w: page no puede superar %d", domain.ErrInvalidInput, MaxPage)
	}
	page, perPage := NormalizePage(q.Page, q.PerPage)

	filter := q.Filter
	snapshot := q.SnapshotID
	if snapshot <= 0 {
		cur, err := uc.repo.Snapshot(ctx)
		if err != nil {
			return nil, fmt.Errorf("historial: instantánea: %w", err)
		}
		snapshot = cur
	}
	filter.Snapshot = snapshot

	var (
		total int64
		items []*entity.MovementView
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := uc.repo.Count(gctx, filter)
		if err != nil {
			return fmt.Errorf("historial: contar: %w", err)
		}
		total = n
		return nil
	})
	g.Go(func() error {
		list, err := uc.repo.List(gctx, filter, perPage, (page-1)*perPage)
		if err != nil {
			return fmt.Errorf("historial: listar: %w", err)
		}
		items = list
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if items == nil {
		items = []*entity.MovementView{}
	}

	return &Page{
		Items:      items,
		Pagination: NewPagination(page, perPage, total, len(items)),
		SnapshotID: snapshot,
	}, nil
}

func validateFilter(f repository.MovementFilter) error {
	if f.Type != "" && !f.Type.Valid() {
		return domain.ErrInvalidMovementType
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return fmt.Errorf("%w: la fecha inicial es posterior a la final", domain.ErrInvalidInput)
	}
	if f.ProductID < 0 {
		return fmt.Errorf("%w: product_id", domain.ErrInvalidInput)
	}
	return nil
}
