package email

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
	gomail "gopkg.in/gomail.v2"
)

// Client delivers a single HTML email.
type Client interface {
	Send(ctx context.Context, to, subject, html string) error
}

// LogClient logs emails instead of sending them — used in ENV=local.
type LogClient struct {
	logger *slog.Logger
}

func (c *LogClient) Send(ctx context.Context, to, subject, html string) error {
	c.logger.InfoContext(ctx, "email (local dev)", "to", to, "subject", subject, "body", html)
	return nil
}

// ResendClient sends emails via the Resend API.
type ResendClient struct {
	client *resend.Client
	from   string
}

func (c *ResendClient) Send(ctx context.Context, to, subject, html string) error {
	params := &resend.SendEmailRequest{
		From:    c.from,
		To:      []string{to},
		Subject: subject,
		Html:    html,
	}
	_, err := c.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

// SMTPClient sends emails through a plain SMTP relay — used for
// self-hosted deployments without a Resend account.
type SMTPClient struct {
	dialer *gomail.Dialer
	from   string
}

func (c *SMTPClient) Send(_ context.Context, to, subject, html string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", c.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", html)
	if err := c.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send email via smtp: %w", err)
	}
	return nil
}

// ClientConfig selects the delivery backend. Resend wins when an API key is
// set; an SMTP host is the fallback; ENV=local always logs.
type ClientConfig struct {
	Env          string
	ResendAPIKey string
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	From         string
}

func NewClient(cfg ClientConfig, logger *slog.Logger) Client {
	switch {
	case cfg.Env == "local":
		return &LogClient{logger: logger}
	case cfg.ResendAPIKey != "":
		return &ResendClient{client: resend.NewClient(cfg.ResendAPIKey), from: cfg.From}
	default:
		return &SMTPClient{
			dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
			from:   cfg.From,
		}
	}
}
