package domain

import (
	"time"
)

// 认领类型（claims.claim_type）
const (
	ClaimTypeRecipient   = "recipient"    // 领取方自助认领
	ClaimTypeDonorManual = "donor_manual" // 捐赠方录入线下达成的认领
)

// 认领状态（claims.status）
// 现有流程只产生 pending；approved/rejected/completed 在模型中保留但无操作产生
const (
	ClaimPending   = "pending"
	ClaimApproved  = "approved"
	ClaimRejected  = "rejected"
	ClaimCompleted = "completed"
)

// Claim 认领记录（对应 claims 表）
// 追加写入：创建后不更新、不删除；删除捐赠不级联删除认领（孤儿认领为预期行为）
type Claim struct {
	// 主键
	ClaimID string `json:"claimId" db:"claim_id"` // UUID, PRIMARY KEY

	// 外键（不做级联约束，见上）
	DonationID string `json:"donationId" db:"donation_id"` // UUID, NOT NULL
	DonorID    string `json:"donorId" db:"donor_id"`       // UUID, NOT NULL（自捐赠记录冗余）

	// 类型与状态
	ClaimType string `json:"claimType" db:"claim_type"` // VARCHAR(20), NOT NULL
	Status    string `json:"status" db:"status"`        // VARCHAR(20), NOT NULL, DEFAULT 'pending'

	// 领取方信息（donor_manual 认领 RecipientID 可为空：线下对象未必有平台账号）
	RecipientID            string `json:"recipientId,omitempty" db:"recipient_id"`                     // UUID, nullable
	RecipientName          string `json:"recipientName" db:"recipient_name"`                           // VARCHAR(100), NOT NULL
	RecipientEmail         string `json:"recipientEmail" db:"recipient_email"`                         // VARCHAR(200), NOT NULL
	RecipientPhone         string `json:"recipientPhone,omitempty" db:"recipient_phone"`               // VARCHAR(50), nullable
	RecipientOrganization  string `json:"recipientOrganization,omitempty" db:"recipient_organization"` // VARCHAR(200), nullable
	IntendedUse            string `json:"intendedUse,omitempty" db:"intended_use"`                     // VARCHAR(100), nullable
	EstimatedBeneficiaries int    `json:"estimatedBeneficiaries" db:"estimated_beneficiaries"`         // INT, DEFAULT 0

	// 取货偏好
	PreferredPickupDate string `json:"preferredPickupDate,omitempty" db:"preferred_pickup_date"` // VARCHAR(20), nullable
	PreferredPickupTime string `json:"preferredPickupTime,omitempty" db:"preferred_pickup_time"` // VARCHAR(20), nullable
	Notes               string `json:"notes,omitempty" db:"notes"`                               // TEXT, nullable

	// 时间戳
	CreatedAt time.Time `json:"createdAt" db:"created_at"` // TIMESTAMPTZ, NOT NULL
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"` // TIMESTAMPTZ, NOT NULL
}
