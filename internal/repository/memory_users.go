package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"foodforward-data/internal/domain"
)

// MemoryUsersRepo supports login and admin user pages when DB is disabled.
type MemoryUsersRepo struct {
	mu    sync.RWMutex
	users map[string]domain.User // userID -> User
}

func NewMemoryUsersRepo() *MemoryUsersRepo {
	return &MemoryUsersRepo{
		users: map[string]domain.User{},
	}
}

var _ UsersRepository = (*MemoryUsersRepo)(nil)

func (r *MemoryUsersRepo) CreateUser(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *u
	cp.Email = strings.ToLower(strings.TrimSpace(cp.Email))
	if cp.Status == "" {
		cp.Status = "active"
	}
	r.users[cp.UserID] = cp
	return nil
}

func (r *MemoryUsersRepo) GetUser(_ context.Context, userID string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (r *MemoryUsersRepo) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range r.users {
		if u.Email == email {
			cp := u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryUsersRepo) ListUsers(_ context.Context, role, status string) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var all []domain.User
	for _, u := range r.users {
		if role != "" && u.Role != role {
			continue
		}
		if status != "" && u.Status != status {
			continue
		}
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].UserID < all[j].UserID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	return all, nil
}

func (r *MemoryUsersRepo) BulkUpdateUserStatus(_ context.Context, userIDs []string, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range userIDs {
		if _, ok := r.users[id]; !ok {
			return ErrConflict
		}
	}
	for _, id := range userIDs {
		u := r.users[id]
		u.Status = status
		r.users[id] = u
	}
	return nil
}
