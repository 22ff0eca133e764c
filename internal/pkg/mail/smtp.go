package mail

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"
	gomail "github.com/wneessen/go-mail"
)

var (
	// ErrSMTPHostPortRequired is returned when Host/Port are missing.
	ErrSMTPHostPortRequired = errors.New("smtp host and port are required")
	// ErrSMTPNoRecipients is returned when To/Cc/Bcc are all empty.
	ErrSMTPNoRecipients = errors.New("no recipients provided")
	// ErrSMTPNoSender is returned when both Message.From and the configured default From are empty.
	ErrSMTPNoSender = errors.New("no sender provided")
)

// SMTP is a Mail implementation backed by wneessen/go-mail.
type SMTP struct {
	client   *gomail.Client
	from     string
	fromName string
}

// SMTPConfig configures the SMTP implementation.
type SMTPConfig struct {
	// Host is the SMTP server hostname.
	Host string
	// Port is the SMTP server port.
	Port int
	// Username is the SMTP authentication username.
	Username string
	// Password is the SMTP authentication password.
	Password string
	// From is the default sender when Message.From is empty.
	From string
	// FromName is the display name used with the default sender.
	FromName string
	// TLS enables mandatory TLS; port 465 uses implicit TLS, others STARTTLS.
	TLS bool
}

// NewSMTP constructs an SMTP mail sender.
func NewSMTP(cfg SMTPConfig) (*SMTP, error) {
	if cfg.Host == "" || cfg.Port == 0 {
		return nil, ErrSMTPHostPortRequired
	}

	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
	}

	if cfg.TLS {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSMandatory))
		if cfg.Port == 465 {
			opts = append(opts, gomail.WithSSL())
		}
	} else {
		opts = append(opts, gomail.WithTLSPolicy(gomail.NoTLS))
	}

	if cfg.Username != "" && cfg.Password != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating mail client: %w", err)
	}

	return &SMTP{client: client, from: cfg.From, fromName: cfg.FromName}, nil
}

// Send delivers a message over SMTP. The dial honors ctx.
func (s *SMTP) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m, err := s.build(msg)
	if err != nil {
		return err
	}

	if err := s.client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}

	return nil
}

func (s *SMTP) build(msg Message) (*gomail.Msg, error) {
	to := lo.Uniq(lo.Compact(msg.To))
	cc := lo.Uniq(lo.Compact(msg.Cc))
	bcc := lo.Uniq(lo.Compact(msg.Bcc))
	if len(to)+len(cc)+len(bcc) == 0 {
		return nil, ErrSMTPNoRecipients
	}

	m := gomail.NewMsg()

	switch {
	case msg.From != "":
		if err := m.From(msg.From); err != nil {
			return nil, fmt.Errorf("setting from address: %w", err)
		}
	case s.from != "" && s.fromName != "":
		if err := m.FromFormat(s.fromName, s.from); err != nil {
			return nil, fmt.Errorf("setting from address: %w", err)
		}
	case s.from != "":
		if err := m.From(s.from); err != nil {
			return nil, fmt.Errorf("setting from address: %w", err)
		}
	default:
		return nil, ErrSMTPNoSender
	}

	if len(to) > 0 {
		if err := m.To(to...); err != nil {
			return nil, fmt.Errorf("setting to address: %w", err)
		}
	}
	if len(cc) > 0 {
		if err := m.Cc(cc...); err != nil {
			return nil, fmt.Errorf("setting cc address: %w", err)
		}
	}
	if len(bcc) > 0 {
		if err := m.Bcc(bcc...); err != nil {
			return nil, fmt.Errorf("setting bcc address: %w", err)
		}
	}

	m.Subject(msg.Subject)

	switch {
	case msg.TextBody != "" && msg.HTMLBody != "":
		m.SetBodyString(gomail.TypeTextPlain, msg.TextBody)
		m.AddAlternativeString(gomail.TypeTextHTML, msg.HTMLBody)
	case msg.HTMLBody != "":
		m.SetBodyString(gomail.TypeTextHTML, msg.HTMLBody)
	default:
		m.SetBodyString(gomail.TypeTextPlain, msg.TextBody)
	}

	return m, nil
}

// Close implements io.Closer for interface compatibility.
func (s *SMTP) Close() error {
	return nil
}
