package email

import (
	"context"
	"fmt"
	"html"
)

// Sender is the notification collaborator contract the lifecycle service
// depends on. Every send is best-effort: the caller logs failures and moves
// on, it never fails the operation.
type Sender interface {
	SendVerification(ctx context.Context, to, code string) error
	SendWelcome(ctx context.Context, to, name string) error
	SendResetRequest(ctx context.Context, to, resetLink string) error
	SendResetSuccess(ctx context.Context, to string) error
}

// Mailer renders the four auth emails and hands them to a Client.
type Mailer struct {
	client Client
}

func NewMailer(client Client) *Mailer {
	return &Mailer{client: client}
}

func (m *Mailer) SendVerification(ctx context.Context, to, code string) error {
	body := fmt.Sprintf(
		`<p>Welcome! Confirm your email address by entering this code:</p>
<p style="font-size:24px;font-weight:bold;letter-spacing:4px">%s</p>
<p>The code expires in 1 hour. If you didn't create an account, ignore this email.</p>`,
		html.EscapeString(code),
	)
	return m.client.Send(ctx, to, "Verify your email", body)
}

func (m *Mailer) SendWelcome(ctx context.Context, to, name string) error {
	body := fmt.Sprintf(
		`<p>Hi %s,</p><p>Your email is verified and your account is ready to use.</p>`,
		html.EscapeString(name),
	)
	return m.client.Send(ctx, to, "Welcome aboard", body)
}

func (m *Mailer) SendResetRequest(ctx context.Context, to, resetLink string) error {
	body := fmt.Sprintf(
		`<p>We received a request to reset your password. Click the link below to choose a new one (expires in 1 hour):</p>
<p><a href="%s">%s</a></p>
<p>If you didn't request this, you can safely ignore this email.</p>`,
		resetLink, html.EscapeString(resetLink),
	)
	return m.client.Send(ctx, to, "Reset your password", body)
}

func (m *Mailer) SendResetSuccess(ctx context.Context, to string) error {
	const body = `<p>Your password was changed successfully.</p>
<p>If this wasn't you, reset your password immediately and contact support.</p>`
	return m.client.Send(ctx, to, "Your password was changed", body)
}
