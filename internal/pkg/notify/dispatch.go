package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"github.com/DroppedLink/feedback/internal/config"
	"github.com/DroppedLink/feedback/internal/pkg/logger"
)

// LogDispatcher 只把通知写入日志，未配置邮件时使用
type LogDispatcher struct {
	AdminEmail string
	AdminURL   string
}

func (d LogDispatcher) Notify(_ context.Context, n Notice) error {
	m, err := Compose(n, d.AdminEmail, d.AdminURL)
	if err != nil {
		return err
	}
	logger.L().Info("通知",
		zap.String("event", string(n.Event)),
		zap.Uint("submission_id", n.Submission.ID),
		zap.String("to", m.To),
		zap.String("subject", m.Subject))
	return nil
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPDispatcher 通过 SMTP 发送纯文本邮件
type SMTPDispatcher struct {
	cfg        config.MailConfig
	adminEmail string
	adminURL   string
	send       sendFunc
}

func NewSMTP(cfg config.MailConfig, adminEmail, adminURL string) *SMTPDispatcher {
	return &SMTPDispatcher{cfg: cfg, adminEmail: adminEmail, adminURL: adminURL, send: smtp.SendMail}
}

func (d *SMTPDispatcher) Notify(_ context.Context, n Notice) error {
	m, err := Compose(n, d.adminEmail, d.adminURL)
	if err != nil {
		return err
	}

	var auth smtp.Auth
	if d.cfg.Username != "" {
		auth = smtp.PlainAuth("", d.cfg.Username, d.cfg.Password, d.cfg.Host)
	}
	addr := fmt.Sprintf("%s:%d", d.cfg.Host, d.cfg.Port)
	if err := d.send(addr, auth, d.cfg.From, []string{m.To}, buildMessage(d.cfg.From, m)); err != nil {
		return fmt.Errorf("send mail to %s: %w", m.To, err)
	}
	return nil
}

func buildMessage(from string, m Mail) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", m.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", strings.ReplaceAll(m.Subject, "\n", " "))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(strings.ReplaceAll(m.Body, "\n", "\r\n"))
	return []byte(b.String())
}

// New 根据配置选择发送方式
func New(cfg *config.Config) Dispatcher {
	adminURL := ""
	if cfg.Server.BaseURL != "" {
		adminURL = strings.TrimRight(cfg.Server.BaseURL, "/") + "/admin/feedback"
	}
	if cfg.Mail.Enabled && cfg.Mail.Host != "" {
		return NewSMTP(cfg.Mail, cfg.Feedback.AdminEmail, adminURL)
	}
	return LogDispatcher{AdminEmail: cfg.Feedback.AdminEmail, AdminURL: adminURL}
}
