package notify

import (
	"context"
	"time"

	"github.com/mailgun/mailgun-go/v3"
	"go.uber.org/zap"

	"foodforward-data/internal/config"
)

// Mailer 邮件旁路通道（mailgun），默认禁用
type Mailer struct {
	mg     *mailgun.MailgunImpl
	sender string
	logger *zap.Logger
}

// NewMailer 创建邮件客户端
func NewMailer(cfg *config.MailgunConfig, logger *zap.Logger) *Mailer {
	return &Mailer{
		mg:     mailgun.NewMailgun(cfg.Domain, cfg.APIKey),
		sender: cfg.Sender,
		logger: logger,
	}
}

// Send 发送一封通知邮件（调用方负责吞掉错误）
func (m *Mailer) Send(ctx context.Context, recipient, subject, body string) error {
	message := m.mg.NewMessage(m.sender, subject, body, recipient)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, _, err := m.mg.Send(ctx, message)
	return err
}
