package usecase

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shandysiswandi/otpgate/internal/adminauth/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/otp"
	"github.com/shandysiswandi/otpgate/internal/pkg/validator"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	keySessionTTL        = "modules.adminauth.session.ttl_minutes"
	keyNotifierTimeout   = "modules.adminauth.notifier.timeout_milliseconds"
	keyAllowedIdentities = "modules.adminauth.allowed_identities"
)

type otpStore interface {
	Create(ctx context.Context, identity string) (*entity.Challenge, string, error)
	Lookup(ctx context.Context, identity string) (*entity.Challenge, bool)
	VerifyAndConsume(ctx context.Context, identity, code string) entity.VerifyResult
	Discard(ctx context.Context, identity, challengeID string)
}

type rateLimiter interface {
	Admit(ctx context.Context, identity string) entity.Admission
	Refund(ctx context.Context, identity string, adm entity.Admission)
}

type sessionStore interface {
	Issue(ctx context.Context, identity string, ttl time.Duration) (*entity.Session, string, error)
	Verify(ctx context.Context, token string) entity.SessionCheck
	Revoke(ctx context.Context, token string) error
}

type notifier interface {
	Send(ctx context.Context, identity, code string) error
}

type Usecase struct {
	otpStore  otpStore
	limiter   rateLimiter
	sessions  sessionStore
	notifier  notifier
	validator validator.Validator
	cfg       config.Config
	codes     otp.OTP
	clock     clock.Clocker
	ins       instrument.Instrumentation

	requests      metric.Int64Counter
	verifications metric.Int64Counter
	sessionChecks metric.Int64Counter
}

type Dependency struct {
	OTPStore     otpStore
	RateLimiter  rateLimiter
	SessionStore sessionStore
	Notifier     notifier
	Validator    validator.Validator
	Config       config.Config
	Codes        otp.OTP
	Clock        clock.Clocker
	Instrument   instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	s := &Usecase{
		otpStore:  dep.OTPStore,
		limiter:   dep.RateLimiter,
		sessions:  dep.SessionStore,
		notifier:  dep.Notifier,
		validator: dep.Validator,
		cfg:       dep.Config,
		codes:     dep.Codes,
		clock:     dep.Clock,
		ins:       dep.Instrument,
	}

	meter := dep.Instrument.Meter("adminauth.usecase")

	var err error
	s.requests, err = meter.Int64Counter("adminauth.otp.requests", metric.WithDescription("OTP requests by outcome"))
	if err != nil {
		slog.Error("failed to create otp request counter", "error", err)
	}
	s.verifications, err = meter.Int64Counter("adminauth.otp.verifications", metric.WithDescription("OTP verifications by outcome"))
	if err != nil {
		slog.Error("failed to create otp verification counter", "error", err)
	}
	s.sessionChecks, err = meter.Int64Counter("adminauth.session.verifications", metric.WithDescription("Session token checks by outcome"))
	if err != nil {
		slog.Error("failed to create session check counter", "error", err)
	}

	return s
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("adminauth.usecase").Start(ctx, name)
}

func count(ctx context.Context, c metric.Int64Counter, outcome string) {
	if c == nil {
		return
	}
	c.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func normalizeIdentity(identity string) string {
	return strings.ToLower(strings.TrimSpace(identity))
}

// allowed reports whether identity may receive codes. An empty allow-list admits everyone.
func (s *Usecase) allowed(identity string) bool {
	list := s.cfg.GetArray(keyAllowedIdentities)
	if len(list) == 0 {
		return true
	}
	return lo.Contains(lo.Map(list, func(v string, _ int) string { return normalizeIdentity(v) }), identity)
}

// retryAfterSeconds rounds d up to whole seconds, never below one.
func retryAfterSeconds(d time.Duration) int {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}
