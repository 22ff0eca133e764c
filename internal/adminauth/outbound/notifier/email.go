// Package notifier delivers one-time codes to admins.
package notifier

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/otpgate/internal/pkg/mail"
)

var htmlBody = template.Must(template.New("otp").Parse(`<!doctype html>
<html>
  <body style="font-family: sans-serif">
    <p>Use this code to sign in to the admin dashboard:</p>
    <p style="font-size: 28px; letter-spacing: 6px"><strong>{{.Code}}</strong></p>
    <p>It expires in {{.Minutes}} minutes and can be used once. If you did not ask for it, ignore this email.</p>
  </body>
</html>
`))

type EmailConfig struct {
	Subject string
	// CodeTTL is shown to the recipient.
	CodeTTL time.Duration
	// MaxRetries is the number of extra delivery attempts after the first one.
	MaxRetries uint64
	// Backoff is the base delay of the exponential retry schedule.
	Backoff time.Duration
}

// Email sends codes through a mail.Mail provider, retrying transient
// failures until ctx is done.
type Email struct {
	mail mail.Mail
	cfg  EmailConfig
}

func NewEmail(m mail.Mail, cfg EmailConfig) *Email {
	if cfg.Backoff <= 0 {
		cfg.Backoff = 100 * time.Millisecond
	}
	return &Email{mail: m, cfg: cfg}
}

// Send delivers code to identity.
func (e *Email) Send(ctx context.Context, identity, code string) error {
	msg, err := e.message(identity, code)
	if err != nil {
		return err
	}

	b := retry.NewExponential(e.cfg.Backoff)
	b = retry.WithMaxRetries(e.cfg.MaxRetries, b)
	b = retry.WithCappedDuration(2*time.Second, b)

	attempt := 0
	return retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		if err := e.mail.Send(ctx, msg); err != nil {
			slog.WarnContext(ctx, "otp email delivery attempt failed", "identity", identity, "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
}

func (e *Email) message(identity, code string) (mail.Message, error) {
	minutes := int(e.cfg.CodeTTL.Round(time.Minute) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}

	var html bytes.Buffer
	if err := htmlBody.Execute(&html, struct {
		Code    string
		Minutes int
	}{Code: code, Minutes: minutes}); err != nil {
		return mail.Message{}, err
	}

	return mail.Message{
		To:      []string{identity},
		Subject: e.cfg.Subject,
		TextBody: fmt.Sprintf(
			"Use this code to sign in to the admin dashboard: %s\n\nIt expires in %d minutes and can be used once. If you did not ask for it, ignore this email.\n",
			code, minutes,
		),
		HTMLBody: html.String(),
	}, nil
}
