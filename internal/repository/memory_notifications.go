package repository

import (
	"context"
	"sort"
	"sync"

	"foodforward-data/internal/domain"
)

// MemoryNotificationsRepo in-memory notification store for dev/tests.
type MemoryNotificationsRepo struct {
	mu            sync.RWMutex
	notifications []domain.Notification
}

func NewMemoryNotificationsRepo() *MemoryNotificationsRepo {
	return &MemoryNotificationsRepo{}
}

var _ NotificationsRepository = (*MemoryNotificationsRepo)(nil)

func (r *MemoryNotificationsRepo) CreateNotification(_ context.Context, n *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.notifications = append(r.notifications, *n)
	return nil
}

func (r *MemoryNotificationsRepo) ListNotificationsByUser(_ context.Context, userID string) ([]domain.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var all []domain.Notification
	for _, n := range r.notifications {
		if n.UserID == userID {
			all = append(all, n)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	return all, nil
}
