package repository

import (
	"context"
	"time"

	"foodforward-data/internal/domain"
)

// DonationFilter 捐赠列表过滤条件（全部可选）
type DonationFilter struct {
	Status      string // 按持久化状态过滤（expired 为读取时投影，不在此过滤）
	Category    string
	DonorID     string
	RecipientID string
	VolunteerID string
	Limit       int // <=0 表示不限制
}

// ClaimUpdate claim 迁移写入捐赠记录的领取方快照
type ClaimUpdate struct {
	RecipientID            string
	RecipientName          string
	RecipientEmail         string
	RecipientPhone         string
	RecipientOrganization  string
	IntendedUse            string
	EstimatedBeneficiaries int
	ClaimedAt              time.Time
}

// AssignUpdate assign 迁移写入捐赠记录的志愿者快照
type AssignUpdate struct {
	VolunteerID    string
	VolunteerName  string
	VolunteerEmail string
	VolunteerPhone string
	AssignedAt     time.Time
}

// CompleteUpdate complete 迁移写入的完成信息
type CompleteUpdate struct {
	Notes       string
	CompletedAt time.Time
}

// DonationsRepository 捐赠记录存储
// 所有状态迁移均为条件更新（UPDATE ... WHERE status = 期望状态），
// 守卫失败返回 ErrConflict，并发竞争不会产生最后写覆盖
type DonationsRepository interface {
	CreateDonation(ctx context.Context, donation *domain.Donation) error
	GetDonation(ctx context.Context, donationID string) (*domain.Donation, error)
	// ListDonations 按 created_at 倒序返回
	ListDonations(ctx context.Context, filter DonationFilter) ([]domain.Donation, error)

	// ApplyClaim 单事务内：追加 Claim 记录 + 条件更新捐赠为 claimed
	// 捐赠不处于 available 时整个事务回滚并返回 ErrConflict
	ApplyClaim(ctx context.Context, claim *domain.Claim, update ClaimUpdate) error

	// AssignVolunteer 条件更新：status=claimed 且 volunteer_id 为空
	AssignVolunteer(ctx context.Context, donationID string, update AssignUpdate) error

	// CompleteDonation 条件更新：status 必须等于 expectedStatus（assigned 或 claimed）
	CompleteDonation(ctx context.Context, donationID, expectedStatus string, update CompleteUpdate) error

	DeleteDonation(ctx context.Context, donationID string) error

	// BulkUpdateStatus / BulkDeleteDonations 管理端批量操作，单事务原子执行：
	// 全部成功或全部回滚，不允许部分生效
	BulkUpdateStatus(ctx context.Context, donationIDs []string, status string) error
	BulkDeleteDonations(ctx context.Context, donationIDs []string) error
}

// ClaimsRepository 认领记录查询（认领的写入只发生在 ApplyClaim 事务内）
type ClaimsRepository interface {
	GetClaim(ctx context.Context, claimID string) (*domain.Claim, error)
	// 按 created_at 倒序返回
	ListClaimsByDonor(ctx context.Context, donorID string) ([]domain.Claim, error)
	ListClaimsByRecipient(ctx context.Context, recipientID string) ([]domain.Claim, error)
	ListClaimsByDonation(ctx context.Context, donationID string) ([]domain.Claim, error)
}

// NotificationsRepository 站内通知存储
type NotificationsRepository interface {
	CreateNotification(ctx context.Context, n *domain.Notification) error
	ListNotificationsByUser(ctx context.Context, userID string) ([]domain.Notification, error)
}

// UsersRepository 用户档案存储
type UsersRepository interface {
	CreateUser(ctx context.Context, u *domain.User) error
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	ListUsers(ctx context.Context, role, status string) ([]domain.User, error)
	// BulkUpdateUserStatus 管理端批量操作，单事务原子执行
	BulkUpdateUserStatus(ctx context.Context, userIDs []string, status string) error
}
