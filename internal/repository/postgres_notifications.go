package repository

import (
	"context"
	"database/sql"
	"fmt"

	"foodforward-data/internal/domain"
)

// PostgresNotificationsRepository 站内通知Repository实现
type PostgresNotificationsRepository struct {
	db *sql.DB
}

// NewPostgresNotificationsRepository 创建通知Repository
func NewPostgresNotificationsRepository(db *sql.DB) *PostgresNotificationsRepository {
	return &PostgresNotificationsRepository{db: db}
}

// 确保实现了接口
var _ NotificationsRepository = (*PostgresNotificationsRepository)(nil)

// CreateNotification 创建通知记录
// 调用方（notify.Service）负责吞掉错误：通知失败不回滚主迁移
func (r *PostgresNotificationsRepository) CreateNotification(ctx context.Context, n *domain.Notification) error {
	if n == nil {
		return fmt.Errorf("notification is required")
	}
	if n.UserID == "" || n.DonationID == "" {
		return fmt.Errorf("user_id and donation_id are required")
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO notifications (
			notification_id, user_id, donation_id, notification_type, title, body, read, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		n.NotificationID,
		n.UserID,
		n.DonationID,
		n.Type,
		n.Title,
		n.Body,
		n.Read,
		n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	return nil
}

// ListNotificationsByUser 用户的通知列表（created_at 倒序）
func (r *PostgresNotificationsRepository) ListNotificationsByUser(ctx context.Context, userID string) ([]domain.Notification, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id is required")
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT notification_id::text, user_id::text, donation_id::text,
		        notification_type, title, COALESCE(body, '') as body, read, created_at
		 FROM notifications WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.NotificationID, &n.UserID, &n.DonationID, &n.Type, &n.Title, &n.Body, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notifications: %w", err)
	}

	return notifications, nil
}
