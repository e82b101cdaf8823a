package domain

import (
	"time"
)

// 通知类型（notifications.notification_type）
const (
	NotificationVolunteerAssigned = "volunteer_assigned"
	NotificationDeliveryCompleted = "delivery_completed"
)

// Notification 站内通知记录（对应 notifications 表）
// 尽力而为的旁路写入：创建失败只记日志，绝不回滚或阻塞主迁移
type Notification struct {
	NotificationID string `json:"notificationId" db:"notification_id"` // UUID, PRIMARY KEY
	UserID         string `json:"userId" db:"user_id"`                 // UUID, NOT NULL（接收人）
	DonationID     string `json:"donationId" db:"donation_id"`         // UUID, NOT NULL
	Type           string `json:"type" db:"notification_type"`         // VARCHAR(50), NOT NULL
	Title          string `json:"title" db:"title"`                    // VARCHAR(200), NOT NULL
	Body           string `json:"body,omitempty" db:"body"`            // TEXT, nullable
	Read           bool   `json:"read" db:"read"`                      // BOOLEAN, DEFAULT FALSE

	CreatedAt time.Time `json:"createdAt" db:"created_at"` // TIMESTAMPTZ, NOT NULL
}
