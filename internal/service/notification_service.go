package service

import (
	"cbme_survey_backend/internal/config"
	"cbme_survey_backend/internal/model"
	"cbme_survey_backend/internal/util"
	"cbme_survey_backend/pkg/logger"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"
)

// Notifier 通知已入库的回复
type Notifier interface {
	Notify(ctx context.Context, resp *model.SurveyResponse) error
}

type emailSender interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// EmailNotifier 通过 Resend 发送纯文本摘要
type EmailNotifier struct {
	sender   emailSender
	location *time.Location
	timeout  time.Duration

	mu   sync.RWMutex
	from string
	to   []string
}

func NewEmailNotifier(cfg config.MailConfig, loc *time.Location) *EmailNotifier {
	client := resend.NewClient(cfg.APIKey)
	return newEmailNotifier(client.Emails, cfg, loc)
}

func newEmailNotifier(sender emailSender, cfg config.MailConfig, loc *time.Location) *EmailNotifier {
	n := &EmailNotifier{
		sender:   sender,
		location: loc,
		timeout:  cfg.Timeout(),
	}
	n.SetRecipients(cfg.From, cfg.To)
	return n
}

// SetRecipients 配置热更新时替换发件人与收件人
func (n *EmailNotifier) SetRecipients(from string, to []string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.from = from
	n.to = append([]string(nil), to...)
}

func (n *EmailNotifier) Notify(ctx context.Context, resp *model.SurveyResponse) error {
	n.mu.RLock()
	from, to := n.from, n.to
	n.mu.RUnlock()

	mail := FormatSurveyEmail(resp, n.location)

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	sent, err := n.sender.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    from,
		To:      to,
		Subject: mail.Subject,
		Text:    mail.Body,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", util.ErrNotification, err)
	}

	logger.Log.Info("Survey notification sent",
		zap.Uint("response_id", resp.ID),
		zap.String("email_id", sent.Id),
	)
	return nil
}

// LogNotifier 邮件关闭时只记录主题
type LogNotifier struct {
	Location *time.Location
}

func (n LogNotifier) Notify(ctx context.Context, resp *model.SurveyResponse) error {
	mail := FormatSurveyEmail(resp, n.Location)
	logger.Log.Info("Survey notification skipped, mail disabled",
		zap.Uint("response_id", resp.ID),
		zap.String("subject", mail.Subject),
	)
	return nil
}
