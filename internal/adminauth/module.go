package adminauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shandysiswandi/otpgate/internal/adminauth/inbound"
	"github.com/shandysiswandi/otpgate/internal/adminauth/outbound/memory"
	"github.com/shandysiswandi/otpgate/internal/adminauth/outbound/notifier"
	"github.com/shandysiswandi/otpgate/internal/adminauth/usecase"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpgate/internal/pkg/hash"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/mail"
	"github.com/shandysiswandi/otpgate/internal/pkg/otp"
	"github.com/shandysiswandi/otpgate/internal/pkg/router"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
	"github.com/shandysiswandi/otpgate/internal/pkg/validator"
)

var errInvalidOption = errors.New("adminauth: invalid option")

type Dependency struct {
	Context    context.Context            `validate:"required"`
	Goroutine  *goroutine.Manager         `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Mail       mail.Mail                  `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UUID       uid.StringID               `validate:"required"`
	Token      uid.StringID               `validate:"required"`
	HMAC       hash.Hash                  `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	cfg := dep.Config
	if err := checkOptions(cfg); err != nil {
		return err
	}

	codes, err := otp.NewNumeric(cfg.GetInt("modules.adminauth.otp.code_length"))
	if err != nil {
		return err
	}

	grace := cfg.GetSecond("modules.adminauth.sweep.grace_seconds")

	otpStore := memory.NewOTPStore(memory.OTPStoreConfig{
		TTL:         cfg.GetSecond("modules.adminauth.otp.ttl_seconds"),
		MaxAttempts: cfg.GetInt("modules.adminauth.otp.max_attempts"),
		Grace:       grace,
	}, dep.Clock, dep.HMAC, codes, dep.UUID)

	limiter := memory.NewRateLimiter(memory.RateLimiterConfig{
		Window:      cfg.GetSecond("modules.adminauth.rate_limit.window_seconds"),
		MaxRequests: cfg.GetInt("modules.adminauth.rate_limit.max_requests"),
	}, dep.Clock)

	sessions := memory.NewSessionStore(memory.SessionStoreConfig{Grace: grace}, dep.Clock, dep.HMAC, dep.Token)

	email := notifier.NewEmail(dep.Mail, notifier.EmailConfig{
		Subject:    cfg.GetString("modules.adminauth.notifier.subject"),
		CodeTTL:    cfg.GetSecond("modules.adminauth.otp.ttl_seconds"),
		MaxRetries: cfg.GetUint64("modules.adminauth.notifier.max_retries"),
		Backoff:    cfg.GetMillisecond("modules.adminauth.notifier.retry_backoff_milliseconds"),
	})

	uc := usecase.New(usecase.Dependency{
		OTPStore:     otpStore,
		RateLimiter:  limiter,
		SessionStore: sessions,
		Notifier:     email,
		Validator:    dep.Validator,
		Config:       cfg,
		Codes:        codes,
		Clock:        dep.Clock,
		Instrument:   dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	inbound.RegisterSweepers(dep.Context, dep.Goroutine, dep.Instrument,
		inbound.SweepJob{Name: "challenge", Store: otpStore, Interval: cfg.GetSecond("modules.adminauth.sweep.challenge_interval_seconds")},
		inbound.SweepJob{Name: "rate_limit", Store: limiter, Interval: cfg.GetSecond("modules.adminauth.sweep.rate_limit_interval_seconds")},
		inbound.SweepJob{Name: "session", Store: sessions, Interval: cfg.GetSecond("modules.adminauth.sweep.session_interval_seconds")},
	)

	slog.Info("admin auth module ready",
		"code_length", codes.Length(),
		"allow_list", len(cfg.GetArray("modules.adminauth.allowed_identities")),
	)

	return nil
}

func checkOptions(cfg config.Config) error {
	positive := []string{
		"modules.adminauth.otp.ttl_seconds",
		"modules.adminauth.otp.max_attempts",
		"modules.adminauth.rate_limit.window_seconds",
		"modules.adminauth.rate_limit.max_requests",
		"modules.adminauth.session.ttl_minutes",
		"modules.adminauth.notifier.timeout_milliseconds",
		"modules.adminauth.sweep.challenge_interval_seconds",
		"modules.adminauth.sweep.rate_limit_interval_seconds",
		"modules.adminauth.sweep.session_interval_seconds",
	}

	for _, key := range positive {
		if cfg.GetInt(key) <= 0 {
			return fmt.Errorf("%w: %s must be positive", errInvalidOption, key)
		}
	}

	if cfg.GetInt("modules.adminauth.sweep.grace_seconds") < 0 {
		return fmt.Errorf("%w: modules.adminauth.sweep.grace_seconds must not be negative", errInvalidOption)
	}

	return nil
}
