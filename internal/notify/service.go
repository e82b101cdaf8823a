package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"foodforward-data/internal/domain"
	"foodforward-data/internal/repository"
)

// Service 尽力而为的通知旁路：站内通知记录 + 可选邮件
// 任何失败只记日志并向上返回供 service 层记录，绝不回滚主迁移
type Service struct {
	repo   repository.NotificationsRepository
	mailer *Mailer // 可为 nil（邮件禁用）
	logger *zap.Logger
}

// NewService 创建通知服务（mailer 可为 nil）
func NewService(repo repository.NotificationsRepository, mailer *Mailer, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		mailer: mailer,
		logger: logger,
	}
}

// VolunteerAssigned 指派成功后通知捐赠方和领取方
func (s *Service) VolunteerAssigned(ctx context.Context, d *domain.Donation) error {
	title := fmt.Sprintf("Volunteer %s accepted pickup for %q", d.VolunteerName, d.Title)
	body := fmt.Sprintf("%s will handle pickup and delivery of %s %s of %s.",
		d.VolunteerName, d.Quantity, d.Unit, d.Title)

	var firstErr error
	for _, userID := range []string{d.DonorID, d.RecipientID} {
		if userID == "" {
			continue
		}
		if err := s.create(ctx, userID, d.DonationID, domain.NotificationVolunteerAssigned, title, body); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	s.sendMail(ctx, d.RecipientEmail, title, body)

	return firstErr
}

// DeliveryCompleted 完成后通知捐赠方和领取方
func (s *Service) DeliveryCompleted(ctx context.Context, d *domain.Donation) error {
	title := fmt.Sprintf("Donation %q delivered", d.Title)
	body := fmt.Sprintf("%s %s of %s has been delivered to %s.",
		d.Quantity, d.Unit, d.Title, d.RecipientName)

	var firstErr error
	for _, userID := range []string{d.DonorID, d.RecipientID} {
		if userID == "" {
			continue
		}
		if err := s.create(ctx, userID, d.DonationID, domain.NotificationDeliveryCompleted, title, body); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	s.sendMail(ctx, d.RecipientEmail, title, body)

	return firstErr
}

func (s *Service) create(ctx context.Context, userID, donationID, notificationType, title, body string) error {
	n := &domain.Notification{
		NotificationID: uuid.NewString(),
		UserID:         userID,
		DonationID:     donationID,
		Type:           notificationType,
		Title:          title,
		Body:           body,
		CreatedAt:      time.Now(),
	}
	if err := s.repo.CreateNotification(ctx, n); err != nil {
		s.logger.Warn("failed to create notification",
			zap.String("user_id", userID),
			zap.String("donation_id", donationID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (s *Service) sendMail(ctx context.Context, recipient, subject, body string) {
	if s.mailer == nil || recipient == "" {
		return
	}
	if err := s.mailer.Send(ctx, recipient, subject, body); err != nil {
		s.logger.Warn("failed to send notification email",
			zap.String("recipient", recipient),
			zap.Error(err),
		)
	}
}
