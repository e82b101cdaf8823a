package domain

import (
	"time"
)

// 捐赠状态（donations.status）
// 生命周期：available → claimed → (assigned →) completed
// expired 仅为读取时投影状态（见 EffectiveStatus），不落库
const (
	DonationAvailable = "available"
	DonationClaimed   = "claimed"
	DonationAssigned  = "assigned"
	DonationCompleted = "completed"
	DonationExpired   = "expired"
)

// 食品类别（donations.category）
const (
	CategoryProduce      = "Produce"
	CategoryPreparedFood = "Prepared Food"
	CategoryBakedGoods   = "Baked Goods"
	CategoryDairy        = "Dairy"
	CategoryMeat         = "Meat"
	CategoryOther        = "Other"
)

// 数量单位（donations.unit）
const (
	UnitKg  = "kg"
	UnitPcs = "pcs"
)

// Donation 捐赠领域模型（对应 donations 表）
// 捐赠方/领取方/志愿者信息为冗余快照，写入各自的状态迁移时固化
type Donation struct {
	// 主键
	DonationID string `json:"donationId" db:"donation_id"` // UUID, PRIMARY KEY

	// 描述信息
	Title         string    `json:"title" db:"title"`                  // VARCHAR(200), NOT NULL
	Category      string    `json:"category" db:"category"`            // VARCHAR(50), NOT NULL（见 Category* 常量）
	Quantity      string    `json:"quantity" db:"quantity"`            // VARCHAR(20), NOT NULL（数字字符串，沿用前端表单格式）
	Unit          string    `json:"unit" db:"unit"`                    // VARCHAR(10), NOT NULL（kg/pcs）
	Description   string    `json:"description" db:"description"`      // TEXT, nullable
	PickupAddress string    `json:"pickupAddress" db:"pickup_address"` // TEXT, NOT NULL
	ExpiryDate    time.Time `json:"expiryDate" db:"expiry_date"`       // DATE, NOT NULL

	// 状态
	Status string `json:"status" db:"status"` // VARCHAR(20), NOT NULL（见 Donation* 常量，expired 不落库）

	// 捐赠方（创建时固化，不可变）
	DonorID     string  `json:"donorId" db:"donor_id"`         // UUID, NOT NULL
	DonorName   string  `json:"donorName" db:"donor_name"`     // VARCHAR(100), NOT NULL
	DonorRating float64 `json:"donorRating" db:"donor_rating"` // NUMERIC(3,1), DEFAULT 0

	// 领取方（claim 迁移时填充）
	RecipientID            string `json:"recipientId,omitempty" db:"recipient_id"`                     // UUID, nullable（donor_manual 认领可为空）
	RecipientName          string `json:"recipientName,omitempty" db:"recipient_name"`                 // VARCHAR(100), nullable
	RecipientEmail         string `json:"recipientEmail,omitempty" db:"recipient_email"`               // VARCHAR(200), nullable
	RecipientPhone         string `json:"recipientPhone,omitempty" db:"recipient_phone"`               // VARCHAR(50), nullable
	RecipientOrganization  string `json:"recipientOrganization,omitempty" db:"recipient_organization"` // VARCHAR(200), nullable
	IntendedUse            string `json:"intendedUse,omitempty" db:"intended_use"`                     // VARCHAR(100), nullable
	EstimatedBeneficiaries int    `json:"estimatedBeneficiaries" db:"estimated_beneficiaries"`         // INT, DEFAULT 0

	// 志愿者（assign 迁移时填充）
	VolunteerID    string `json:"volunteerId,omitempty" db:"volunteer_id"`       // UUID, nullable
	VolunteerName  string `json:"volunteerName,omitempty" db:"volunteer_name"`   // VARCHAR(100), nullable
	VolunteerEmail string `json:"volunteerEmail,omitempty" db:"volunteer_email"` // VARCHAR(200), nullable
	VolunteerPhone string `json:"volunteerPhone,omitempty" db:"volunteer_phone"` // VARCHAR(50), nullable

	// 食品安全检查单（创建时写入，SafetyScore 为 0-100 百分比）
	FoodSafetyChecked  bool   `json:"foodSafetyChecked" db:"food_safety_checked"`  // BOOLEAN, DEFAULT FALSE
	TemperatureControl string `json:"temperatureControl" db:"temperature_control"` // VARCHAR(20)（见 Temperature* 常量）
	PackagingIntact    bool   `json:"packagingIntact" db:"packaging_intact"`       // BOOLEAN, DEFAULT FALSE
	ProperLabeling     bool   `json:"properLabeling" db:"proper_labeling"`         // BOOLEAN, DEFAULT FALSE
	ContaminationRisk  string `json:"contaminationRisk" db:"contamination_risk"`   // VARCHAR(10)（low/medium/high）
	SafetyNotes        string `json:"safetyNotes,omitempty" db:"safety_notes"`     // TEXT, nullable
	SafetyScore        int    `json:"safetyScore" db:"safety_score"`               // INT, NOT NULL（0-100）

	// 图片（外部媒体存储，仅保存引用）
	ImageURL      string `json:"imageUrl,omitempty" db:"image_url"`            // TEXT, nullable
	ImagePublicID string `json:"imagePublicId,omitempty" db:"image_public_id"` // VARCHAR(200), nullable

	// 完成备注（complete 迁移时可选填写）
	CompletionNotes string `json:"completionNotes,omitempty" db:"completion_notes"` // TEXT, nullable

	// 时间戳（各自的迁移恰好写入一次，之后不再清除）
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`               // TIMESTAMPTZ, NOT NULL
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`               // TIMESTAMPTZ, NOT NULL
	ClaimedAt   *time.Time `json:"claimedAt,omitempty" db:"claimed_at"`     // TIMESTAMPTZ, nullable
	AssignedAt  *time.Time `json:"assignedAt,omitempty" db:"assigned_at"`   // TIMESTAMPTZ, nullable
	CompletedAt *time.Time `json:"completedAt,omitempty" db:"completed_at"` // TIMESTAMPTZ, nullable
}

// EffectiveStatus 读取时投影状态：available 且已过期 → expired
// 纯函数，不回写数据库（过期扫描是否落库为已知未决问题，现状保持只读投影）
func (d *Donation) EffectiveStatus(now time.Time) string {
	if d.Status == DonationAvailable && d.ExpiryDate.Before(truncateToDay(now)) {
		return DonationExpired
	}
	return d.Status
}

// DaysUntilExpiry 距过期天数（按本地日界计算，可为负）
func (d *Donation) DaysUntilExpiry(now time.Time) int {
	return int(truncateToDay(d.ExpiryDate).Sub(truncateToDay(now)).Hours() / 24)
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ValidCategory 校验类别枚举
func ValidCategory(c string) bool {
	switch c {
	case CategoryProduce, CategoryPreparedFood, CategoryBakedGoods, CategoryDairy, CategoryMeat, CategoryOther:
		return true
	}
	return false
}

// ValidUnit 校验单位枚举
func ValidUnit(u string) bool {
	return u == UnitKg || u == UnitPcs
}
