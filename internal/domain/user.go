package domain

import (
	"time"
)

// 平台角色（users.role）
const (
	RoleDonor     = "donor"
	RoleRecipient = "recipient"
	RoleVolunteer = "volunteer"
	RoleAdmin     = "admin"
)

// User 用户档案（对应 users 表）
// 认证由外部负责，本服务只消费 user_id + role；档案字段用于认领/指派时的冗余快照
type User struct {
	// 主键
	UserID string `json:"userId" db:"user_id"` // UUID, PRIMARY KEY

	// 账号
	Email        string `json:"email" db:"email"`     // VARCHAR(200), NOT NULL, UNIQUE
	PasswordHash []byte `json:"-" db:"password_hash"` // BYTEA, NOT NULL（sha256，规则与前端一致）

	// 档案
	Name         string  `json:"name" db:"name"`                           // VARCHAR(100), NOT NULL
	Role         string  `json:"role" db:"role"`                           // VARCHAR(20), NOT NULL（见 Role* 常量）
	Phone        string  `json:"phone,omitempty" db:"phone"`               // VARCHAR(50), nullable
	Organization string  `json:"organization,omitempty" db:"organization"` // VARCHAR(200), nullable
	Location     string  `json:"location,omitempty" db:"location"`         // TEXT, nullable
	Rating       float64 `json:"rating" db:"rating"`                       // NUMERIC(3,1), DEFAULT 0

	// 状态
	Status string `json:"status" db:"status"` // VARCHAR(20), NOT NULL, DEFAULT 'active' (active/suspended)

	// 时间戳
	CreatedAt time.Time `json:"createdAt" db:"created_at"` // TIMESTAMPTZ, NOT NULL
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"` // TIMESTAMPTZ, NOT NULL
}

// ValidRole 校验角色枚举
func ValidRole(r string) bool {
	switch r {
	case RoleDonor, RoleRecipient, RoleVolunteer, RoleAdmin:
		return true
	}
	return false
}
