package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"foodforward-data/internal/domain"
	"foodforward-data/internal/events"
	"foodforward-data/internal/repository"
)

// Notifier 通知侧信道（失败只记日志，不阻塞状态迁移）
type Notifier interface {
	VolunteerAssigned(ctx context.Context, d *domain.Donation) error
	DeliveryCompleted(ctx context.Context, d *domain.Donation) error
}

// MediaStore 图片存储侧信道（删除捐赠时尽力清理外部图片）
type MediaStore interface {
	Delete(ctx context.Context, publicID string) error
}

// CreateDonationInput 发布捐赠请求
type CreateDonationInput struct {
	Title         string `json:"title" validate:"required,max=200"`
	Category      string `json:"category" validate:"required"`
	Quantity      string `json:"quantity" validate:"required,max=20"`
	Unit          string `json:"unit" validate:"required"`
	Description   string `json:"description"`
	PickupAddress string `json:"pickupAddress" validate:"required"`
	ExpiryDate    string `json:"expiryDate" validate:"required,datetime=2006-01-02"`

	Safety domain.SafetyChecklist `json:"safety"`

	ImageURL      string `json:"imageUrl"`
	ImagePublicID string `json:"imagePublicId"`
}

// ClaimInput 认领请求
// Manual=true 为捐赠方录入线下认领，此时领取方信息来自请求体而非档案
type ClaimInput struct {
	Manual                 bool   `json:"manual"`
	RecipientName          string `json:"recipientName" validate:"required,max=100"`
	RecipientEmail         string `json:"recipientEmail" validate:"required,email"`
	RecipientPhone         string `json:"recipientPhone"`
	RecipientOrganization  string `json:"recipientOrganization"`
	IntendedUse            string `json:"intendedUse"`
	EstimatedBeneficiaries int    `json:"estimatedBeneficiaries" validate:"gte=0"`
	PreferredPickupDate    string `json:"preferredPickupDate"`
	PreferredPickupTime    string `json:"preferredPickupTime"`
	Notes                  string `json:"notes"`
}

// CompleteInput 完成请求
type CompleteInput struct {
	Notes string `json:"notes"`
}

// DonationService 捐赠生命周期编排
// 迁移合法性由 Transition 判定，持久化竞争由存储层条件更新兜底，
// 事件发布 / 站内通知 / 媒体清理均为尽力而为的侧信道
type DonationService struct {
	donations repository.DonationsRepository
	claims    repository.ClaimsRepository
	sink      events.Sink
	notifier  Notifier
	media     MediaStore
	validate  *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

func NewDonationService(
	donations repository.DonationsRepository,
	claims repository.ClaimsRepository,
	sink events.Sink,
	notifier Notifier,
	media MediaStore,
	logger *zap.Logger,
) *DonationService {
	return &DonationService{
		donations: donations,
		claims:    claims,
		sink:      sink,
		notifier:  notifier,
		media:     media,
		validate:  validator.New(),
		logger:    logger,
		now:       time.Now,
	}
}

// CreateDonation 发布捐赠：校验输入与安全检查单，合规分 < 75 拒绝发布
func (s *DonationService) CreateDonation(ctx context.Context, actor Actor, input CreateDonationInput) (*domain.Donation, error) {
	if actor.Role != domain.RoleDonor && actor.Role != domain.RoleAdmin {
		return nil, fmt.Errorf("create requires donor role: %w", ErrForbidden)
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("invalid donation input: %w", err)
	}
	if !domain.ValidCategory(input.Category) {
		return nil, fmt.Errorf("invalid category %q", input.Category)
	}
	if !domain.ValidUnit(input.Unit) {
		return nil, fmt.Errorf("invalid unit %q", input.Unit)
	}

	expiry, err := time.ParseInLocation("2006-01-02", input.ExpiryDate, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid expiry date: %w", err)
	}

	result := domain.ScoreChecklist(input.Safety)
	if !result.Compliant {
		return nil, fmt.Errorf("safety percentage %d: %w", result.Percentage, ErrNotCompliant)
	}

	now := s.now()
	d := &domain.Donation{
		DonationID:    uuid.New().String(),
		Title:         input.Title,
		Category:      input.Category,
		Quantity:      input.Quantity,
		Unit:          input.Unit,
		Description:   input.Description,
		PickupAddress: input.PickupAddress,
		ExpiryDate:    expiry,
		Status:        domain.DonationAvailable,

		DonorID:     actor.UserID,
		DonorName:   actor.Name,
		DonorRating: actor.Rating,

		FoodSafetyChecked:  input.Safety.FoodSafetyChecked,
		TemperatureControl: input.Safety.TemperatureControl,
		PackagingIntact:    input.Safety.PackagingIntact,
		ProperLabeling:     input.Safety.ProperLabeling,
		ContaminationRisk:  input.Safety.ContaminationRisk,
		SafetyNotes:        input.Safety.SafetyNotes,
		SafetyScore:        result.Percentage,

		ImageURL:      input.ImageURL,
		ImagePublicID: input.ImagePublicID,

		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.donations.CreateDonation(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to create donation: %w", err)
	}

	s.publish(ctx, events.EventCreated, d, actor.UserID)
	return d, nil
}

// GetDonation 查询单个捐赠（状态经读取时过期投影）
func (s *DonationService) GetDonation(ctx context.Context, donationID string) (*domain.Donation, error) {
	d, err := s.donations.GetDonation(ctx, donationID)
	if err != nil {
		return nil, err
	}
	d.Status = d.EffectiveStatus(s.now())
	return d, nil
}

// ListDonations 查询捐赠列表（状态经读取时过期投影）
func (s *DonationService) ListDonations(ctx context.Context, filter repository.DonationFilter) ([]domain.Donation, error) {
	list, err := s.donations.ListDonations(ctx, filter)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for i := range list {
		list[i].Status = list[i].EffectiveStatus(now)
	}
	return list, nil
}

// ClaimDonation 认领：追加 Claim 记录并迁移捐赠为 claimed，单事务执行
// 并发双认领由存储层条件更新裁决，败者收到 repository.ErrConflict
func (s *DonationService) ClaimDonation(ctx context.Context, actor Actor, donationID string, input ClaimInput) (*domain.Donation, *domain.Claim, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, nil, fmt.Errorf("invalid claim input: %w", err)
	}

	d, err := s.donations.GetDonation(ctx, donationID)
	if err != nil {
		return nil, nil, err
	}

	action := ClaimAction{
		Manual:                 input.Manual,
		RecipientName:          input.RecipientName,
		RecipientEmail:         input.RecipientEmail,
		RecipientPhone:         input.RecipientPhone,
		RecipientOrganization:  input.RecipientOrganization,
		IntendedUse:            input.IntendedUse,
		EstimatedBeneficiaries: input.EstimatedBeneficiaries,
	}
	claimType := domain.ClaimTypeDonorManual
	if !input.Manual {
		// 自助认领：领取方身份取发起人本人
		action.RecipientID = actor.UserID
		claimType = domain.ClaimTypeRecipient
	}

	now := s.now()
	next, err := Transition(d, action, actor, now)
	if err != nil {
		return nil, nil, err
	}

	claim := &domain.Claim{
		ClaimID:                uuid.New().String(),
		DonationID:             d.DonationID,
		DonorID:                d.DonorID,
		ClaimType:              claimType,
		Status:                 domain.ClaimPending,
		RecipientID:            action.RecipientID,
		RecipientName:          input.RecipientName,
		RecipientEmail:         input.RecipientEmail,
		RecipientPhone:         input.RecipientPhone,
		RecipientOrganization:  input.RecipientOrganization,
		IntendedUse:            input.IntendedUse,
		EstimatedBeneficiaries: input.EstimatedBeneficiaries,
		PreferredPickupDate:    input.PreferredPickupDate,
		PreferredPickupTime:    input.PreferredPickupTime,
		Notes:                  input.Notes,
		CreatedAt:              now,
		UpdatedAt:              now,
	}

	update := repository.ClaimUpdate{
		RecipientID:            action.RecipientID,
		RecipientName:          input.RecipientName,
		RecipientEmail:         input.RecipientEmail,
		RecipientPhone:         input.RecipientPhone,
		RecipientOrganization:  input.RecipientOrganization,
		IntendedUse:            input.IntendedUse,
		EstimatedBeneficiaries: input.EstimatedBeneficiaries,
		ClaimedAt:              now,
	}
	if err := s.donations.ApplyClaim(ctx, claim, update); err != nil {
		return nil, nil, err
	}

	s.publish(ctx, events.EventClaimed, next, actor.UserID)
	return next, claim, nil
}

// QuickClaim 一键认领：领取方信息全部取自发起人档案
func (s *DonationService) QuickClaim(ctx context.Context, actor Actor, donationID string) (*domain.Donation, *domain.Claim, error) {
	return s.ClaimDonation(ctx, actor, donationID, ClaimInput{
		RecipientName:         actor.Name,
		RecipientEmail:        actor.Email,
		RecipientPhone:        actor.Phone,
		RecipientOrganization: actor.Organization,
	})
}

// AssignVolunteer 志愿者自领配送任务：claimed → assigned
// 成功后向捐赠方与领取方发通知，通知失败不回滚迁移
func (s *DonationService) AssignVolunteer(ctx context.Context, actor Actor, donationID string) (*domain.Donation, error) {
	d, err := s.donations.GetDonation(ctx, donationID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	next, err := Transition(d, AssignAction{}, actor, now)
	if err != nil {
		return nil, err
	}

	update := repository.AssignUpdate{
		VolunteerID:    actor.UserID,
		VolunteerName:  actor.Name,
		VolunteerEmail: actor.Email,
		VolunteerPhone: actor.Phone,
		AssignedAt:     now,
	}
	if err := s.donations.AssignVolunteer(ctx, donationID, update); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		if err := s.notifier.VolunteerAssigned(ctx, next); err != nil {
			s.logger.Warn("Failed to send assignment notifications",
				zap.String("donation_id", donationID), zap.Error(err))
		}
	}
	s.publish(ctx, events.EventAssigned, next, actor.UserID)
	return next, nil
}

// CompleteDonation 完成捐赠：assigned → completed（志愿者确认送达）
// 或 claimed → completed（捐赠方对手工认领直接标记完成）
func (s *DonationService) CompleteDonation(ctx context.Context, actor Actor, donationID string, input CompleteInput) (*domain.Donation, error) {
	d, err := s.donations.GetDonation(ctx, donationID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	next, err := Transition(d, CompleteAction{Notes: input.Notes}, actor, now)
	if err != nil {
		return nil, err
	}

	update := repository.CompleteUpdate{Notes: input.Notes, CompletedAt: now}
	if err := s.donations.CompleteDonation(ctx, donationID, d.Status, update); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		if err := s.notifier.DeliveryCompleted(ctx, next); err != nil {
			s.logger.Warn("Failed to send completion notifications",
				zap.String("donation_id", donationID), zap.Error(err))
		}
	}
	s.publish(ctx, events.EventCompleted, next, actor.UserID)
	return next, nil
}

// DeleteDonation 删除捐赠（仅限捐赠方本人）
// 认领记录不级联删除；外部图片尽力清理，失败只记日志
func (s *DonationService) DeleteDonation(ctx context.Context, actor Actor, donationID string) error {
	d, err := s.donations.GetDonation(ctx, donationID)
	if err != nil {
		return err
	}

	if _, err := Transition(d, DeleteAction{}, actor, s.now()); err != nil {
		return err
	}

	if err := s.donations.DeleteDonation(ctx, donationID); err != nil {
		return err
	}

	if s.media != nil && d.ImagePublicID != "" {
		if err := s.media.Delete(ctx, d.ImagePublicID); err != nil {
			s.logger.Warn("Failed to delete donation image",
				zap.String("donation_id", donationID),
				zap.String("public_id", d.ImagePublicID), zap.Error(err))
		}
	}
	s.publish(ctx, events.EventDeleted, d, actor.UserID)
	return nil
}

// GetClaim 查询单条认领记录
func (s *DonationService) GetClaim(ctx context.Context, claimID string) (*domain.Claim, error) {
	return s.claims.GetClaim(ctx, claimID)
}

// ListClaims 按角色查询认领记录：donor 看自己名下捐赠的认领，recipient 看自己发起的认领
func (s *DonationService) ListClaims(ctx context.Context, actor Actor, donationID string) ([]domain.Claim, error) {
	if donationID != "" {
		return s.claims.ListClaimsByDonation(ctx, donationID)
	}
	switch actor.Role {
	case domain.RoleDonor:
		return s.claims.ListClaimsByDonor(ctx, actor.UserID)
	case domain.RoleRecipient:
		return s.claims.ListClaimsByRecipient(ctx, actor.UserID)
	case domain.RoleAdmin:
		return s.claims.ListClaimsByDonor(ctx, actor.UserID)
	default:
		return nil, fmt.Errorf("claims listing for role %s: %w", actor.Role, ErrForbidden)
	}
}

// BulkUpdateStatus 管理端批量改状态，单事务原子执行
func (s *DonationService) BulkUpdateStatus(ctx context.Context, actor Actor, donationIDs []string, status string) error {
	if actor.Role != domain.RoleAdmin {
		return fmt.Errorf("bulk update requires admin role: %w", ErrForbidden)
	}
	switch status {
	case domain.DonationAvailable, domain.DonationClaimed, domain.DonationAssigned, domain.DonationCompleted:
	default:
		return fmt.Errorf("invalid bulk status %q", status)
	}
	if len(donationIDs) == 0 {
		return errors.New("no donation ids provided")
	}
	return s.donations.BulkUpdateStatus(ctx, donationIDs, status)
}

// BulkDelete 管理端批量删除，单事务原子执行
func (s *DonationService) BulkDelete(ctx context.Context, actor Actor, donationIDs []string) error {
	if actor.Role != domain.RoleAdmin {
		return fmt.Errorf("bulk delete requires admin role: %w", ErrForbidden)
	}
	if len(donationIDs) == 0 {
		return errors.New("no donation ids provided")
	}
	return s.donations.BulkDeleteDonations(ctx, donationIDs)
}

// publish 发布变更事件，失败只记日志
func (s *DonationService) publish(ctx context.Context, eventType string, d *domain.Donation, actorID string) {
	if s.sink == nil {
		return
	}
	event := events.DonationEvent{
		Type:       eventType,
		DonationID: d.DonationID,
		Status:     d.Status,
		ActorID:    actorID,
		At:         s.now(),
	}
	if err := s.sink.DonationChanged(ctx, event); err != nil {
		s.logger.Warn("Failed to publish donation event",
			zap.String("type", eventType),
			zap.String("donation_id", d.DonationID), zap.Error(err))
	}
}
