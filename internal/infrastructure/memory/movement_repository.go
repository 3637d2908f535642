package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.MovementQueryRepository = (*MovementQueryRepo)(nil)

// MovementQueryRepo lectura del historial en memoria. Solo ve movimientos confirmados.
type MovementQueryRepo struct {
	store *Store
}

// NewMovementQueryRepository construye el repositorio.
func NewMovementQueryRepository(store *Store) *MovementQueryRepo {
	return &MovementQueryRepo{store: store}
}

func (r *MovementQueryRepo) List(_ context.Context, f repository.MovementFilter, limit, offset int) ([]*entity.MovementView, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := s.match(f)
	slices.SortFunc(matched, func(a, b *entity.MovementEntry) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	if offset < 0 || limit <= 0 || offset >= len(matched) {
		return []*entity.MovementView{}, nil
	}
	end := min(offset+limit, len(matched))
	out := make([]*entity.MovementView, 0, end-offset)
	for _, m := range matched[offset:end] {
		v := &entity.MovementView{MovementEntry: *m}
		if p, ok := s.products[m.ProductID]; ok {
			v.ProductSKU = p.SKU
			v.ProductName = p.Name
		}
		out = append(out, v)
	}
	return out, nil
}

func (r *MovementQueryRepo) Count(_ context.Context, f repository.MovementFilter) (int64, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.match(f))), nil
}

// Snapshot siguiente id a asignar; los ids crecen en orden de commit.
func (r *MovementQueryRepo) Snapshot(_ context.Context) (int64, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextMov + 1, nil
}

// match requiere s.mu tomado.
func (s *Store) match(f repository.MovementFilter) []*entity.MovementEntry {
	var out []*entity.MovementEntry
	for _, m := range s.movements {
		if f.Snapshot > 0 && m.ID >= f.Snapshot {
			continue
		}
		if f.ProductID > 0 && m.ProductID != f.ProductID {
			continue
		}
		if f.Type != "" && m.Type != f.Type {
			continue
		}
		if f.ActorID != "" && m.ActorID != f.ActorID {
			continue
		}
		if f.BatchID != "" && m.BatchID != f.BatchID {
			continue
		}
		if f.ReferenceNumber != "" && !strings.EqualFold(m.ReferenceNumber, f.ReferenceNumber) {
			continue
		}
		if f.From != nil && m.CreatedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && m.CreatedAt.After(*f.To) {
			continue
		}
		out = append(out, m)
	}
	return out
}
