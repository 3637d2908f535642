package memory

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

// UserRepo usuarios en memoria.
type UserRepo struct {
	store *Store
}

// NewUserRepository construye el repositorio.
func NewUserRepository(store *Store) *UserRepo {
	return &UserRepo{store: store}
}

func (r *UserRepo) Create(_ context.Context, user *entity.User) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if normEmail(u.Email) == normEmail(user.Email) {
			return domain.ErrEmailAlreadyExists
		}
	}
	cp := *user
	s.users[cp.ID] = &cp
	return nil
}

func (r *UserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *UserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if normEmail(u.Email) == normEmail(email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}
