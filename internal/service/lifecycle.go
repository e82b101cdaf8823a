package service

import (
	"errors"
	"fmt"
	"time"

	"foodforward-data/internal/domain"
)

// 迁移相关错误
var (
	// ErrIllegalTransition 当前状态下该动作不合法
	ErrIllegalTransition = errors.New("illegal status transition")
	// ErrForbidden 发起人无权执行该动作
	ErrForbidden = errors.New("actor not allowed to perform this action")
	// ErrNotCompliant 安全检查单低于合规阈值，禁止发布
	ErrNotCompliant = errors.New("safety checklist below compliance threshold")
)

// Actor 发起迁移的用户快照（认证由外部完成，这里只消费 id + role + 档案）
type Actor struct {
	UserID       string
	Role         string
	Name         string
	Email        string
	Phone        string
	Organization string
	Location     string
	Rating       float64
}

// Action 状态迁移动作（tagged union）
// 合法迁移表集中在 Transition 一处，而不是散落在各个角色的 handler 里
type Action interface {
	actionName() string
}

// ClaimAction 认领：available → claimed
// Manual=true 表示捐赠方录入线下认领（recipient 可以没有平台账号）
type ClaimAction struct {
	Manual                 bool
	RecipientID            string
	RecipientName          string
	RecipientEmail         string
	RecipientPhone         string
	RecipientOrganization  string
	IntendedUse            string
	EstimatedBeneficiaries int
}

// AssignAction 指派志愿者：claimed → assigned
type AssignAction struct{}

// CompleteAction 完成：assigned → completed（志愿者）或 claimed → completed（手工认领流程，跳过 assigned）
type CompleteAction struct {
	Notes string
}

// DeleteAction 删除：任意状态，仅限捐赠方本人
type DeleteAction struct{}

// ExpireAction 过期：available 且已过期，读取时投影（终态，不再迁移）
type ExpireAction struct{}

func (ClaimAction) actionName() string    { return "claim" }
func (AssignAction) actionName() string   { return "assign" }
func (CompleteAction) actionName() string { return "complete" }
func (DeleteAction) actionName() string   { return "delete" }
func (ExpireAction) actionName() string   { return "expire" }

// Transition 核心状态机：校验动作合法性与发起人权限，返回迁移后的捐赠副本
// 纯函数，不落库；持久化由 DonationService 通过条件更新完成，
// 并发竞争在存储层表现为 repository.ErrConflict
func Transition(d *domain.Donation, action Action, actor Actor, now time.Time) (*domain.Donation, error) {
	if d == nil {
		return nil, fmt.Errorf("donation is required")
	}

	// 过期捐赠是终态：除删除和过期投影本身外不接受任何动作
	if d.EffectiveStatus(now) == domain.DonationExpired {
		switch action.(type) {
		case DeleteAction, ExpireAction:
		default:
			return nil, fmt.Errorf("%s on expired donation: %w", action.actionName(), ErrIllegalTransition)
		}
	}

	next := *d

	switch a := action.(type) {
	case ClaimAction:
		if d.Status != domain.DonationAvailable {
			return nil, fmt.Errorf("claim from %s: %w", d.Status, ErrIllegalTransition)
		}
		if a.Manual {
			// 手工认领只能由捐赠方本人录入
			if actor.UserID != d.DonorID {
				return nil, fmt.Errorf("manual claim by non-owner: %w", ErrForbidden)
			}
		} else {
			if actor.Role != domain.RoleRecipient {
				return nil, fmt.Errorf("claim requires recipient role: %w", ErrForbidden)
			}
		}
		next.Status = domain.DonationClaimed
		next.RecipientID = a.RecipientID
		next.RecipientName = a.RecipientName
		next.RecipientEmail = a.RecipientEmail
		next.RecipientPhone = a.RecipientPhone
		next.RecipientOrganization = a.RecipientOrganization
		next.IntendedUse = a.IntendedUse
		next.EstimatedBeneficiaries = a.EstimatedBeneficiaries
		at := now
		next.ClaimedAt = &at
		next.UpdatedAt = now

	case AssignAction:
		if d.Status != domain.DonationClaimed {
			return nil, fmt.Errorf("assign from %s: %w", d.Status, ErrIllegalTransition)
		}
		if d.VolunteerID != "" {
			return nil, fmt.Errorf("donation already has a volunteer: %w", ErrIllegalTransition)
		}
		if actor.Role != domain.RoleVolunteer {
			return nil, fmt.Errorf("assign requires volunteer role: %w", ErrForbidden)
		}
		next.Status = domain.DonationAssigned
		next.VolunteerID = actor.UserID
		next.VolunteerName = actor.Name
		next.VolunteerEmail = actor.Email
		next.VolunteerPhone = actor.Phone
		at := now
		next.AssignedAt = &at
		next.UpdatedAt = now

	case CompleteAction:
		switch d.Status {
		case domain.DonationAssigned:
			// 志愿者流程：只有被指派的志愿者本人可以确认送达
			if actor.UserID != d.VolunteerID {
				return nil, fmt.Errorf("complete by non-assigned volunteer: %w", ErrForbidden)
			}
		case domain.DonationClaimed:
			// 手工认领流程：捐赠方直接标记完成，跳过 assigned
			if actor.UserID != d.DonorID {
				return nil, fmt.Errorf("complete by non-owner: %w", ErrForbidden)
			}
		default:
			return nil, fmt.Errorf("complete from %s: %w", d.Status, ErrIllegalTransition)
		}
		next.Status = domain.DonationCompleted
		next.CompletionNotes = a.Notes
		at := now
		next.CompletedAt = &at
		next.UpdatedAt = now

	case DeleteAction:
		if actor.UserID != d.DonorID {
			return nil, fmt.Errorf("delete by non-owner: %w", ErrForbidden)
		}
		// 删除不改变副本内容，由存储层移除记录

	case ExpireAction:
		if d.Status != domain.DonationAvailable {
			return nil, fmt.Errorf("expire from %s: %w", d.Status, ErrIllegalTransition)
		}
		next.Status = domain.DonationExpired

	default:
		return nil, fmt.Errorf("unknown action %q: %w", action.actionName(), ErrIllegalTransition)
	}

	return &next, nil
}
