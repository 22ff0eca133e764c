package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/otpgate/internal/adminauth/entity"
	"github.com/shandysiswandi/otpgate/internal/adminauth/outbound/memory"
	"github.com/shandysiswandi/otpgate/internal/adminauth/usecase"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/hash"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/otp"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
	"github.com/shandysiswandi/otpgate/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ops = "ops@example.com"

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

var errSMTPDown = errors.New("smtp down")

type fakeNotifier struct {
	mu    sync.Mutex
	codes map[string][]string
	err   error
	block bool
	ctxOK bool
}

func (f *fakeNotifier) Send(ctx context.Context, identity, code string) error {
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.ctxOK = ctx.Err() == nil
	if f.err != nil {
		return f.err
	}
	if f.codes == nil {
		f.codes = map[string][]string{}
	}
	f.codes[identity] = append(f.codes[identity], code)
	return nil
}

func (f *fakeNotifier) last(identity string) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	codes := f.codes[identity]
	if len(codes) == 0 {
		return ""
	}
	return codes[len(codes)-1]
}

func (f *fakeNotifier) sent(identity string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.codes[identity])
}

type fixedToken string

func (f fixedToken) Generate() string { return string(f) }

type harness struct {
	uc       *usecase.Usecase
	clock    *clock.Fake
	notifier *fakeNotifier
	otps     *memory.OTPStore
	limiter  *memory.RateLimiter
}

type options struct {
	yaml     string
	attempts int
	limit    int
	tokens   uid.StringID
}

func newHarness(t *testing.T, opts options) *harness {
	t.Helper()

	if opts.attempts == 0 {
		opts.attempts = 5
	}
	if opts.limit == 0 {
		opts.limit = 3
	}
	if opts.tokens == nil {
		opts.tokens = uid.NewSecureToken(0)
	}

	cfg, err := config.NewViperFromBytes("yaml", []byte(opts.yaml))
	require.NoError(t, err)

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	codes, err := otp.NewNumeric(6)
	require.NoError(t, err)

	clk := clock.NewFake(t0)
	h := hash.NewHMACSHA256("test-secret")
	n := &fakeNotifier{}

	otps := memory.NewOTPStore(memory.OTPStoreConfig{TTL: 5 * time.Minute, MaxAttempts: opts.attempts, Grace: 30 * time.Second},
		clk, h, codes, uid.NewUUID())
	limiter := memory.NewRateLimiter(memory.RateLimiterConfig{Window: 10 * time.Minute, MaxRequests: opts.limit}, clk)
	sessions := memory.NewSessionStore(memory.SessionStoreConfig{Grace: 30 * time.Second}, clk, h, opts.tokens)

	uc := usecase.New(usecase.Dependency{
		OTPStore:     otps,
		RateLimiter:  limiter,
		SessionStore: sessions,
		Notifier:     n,
		Validator:    v,
		Config:       cfg,
		Codes:        codes,
		Clock:        clk,
		Instrument:   instrument.NewNoop(),
	})

	return &harness{uc: uc, clock: clk, notifier: n, otps: otps, limiter: limiter}
}

func statusOf(t *testing.T, err error) int {
	t.Helper()

	var gerr *goerror.Error
	require.ErrorAs(t, err, &gerr)
	return gerr.StatusCode()
}

func wrongCode(code string) string {
	if code == "000000" {
		return "111111"
	}
	return "000000"
}

func TestRequestOTP_RateLimit(t *testing.T) {
	h := newHarness(t, options{limit: 3})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, h.uc.RequestOTP(ctx, usecase.RequestOTPInput{Identity: ops}))
	}

	err := h.uc.RequestOTP(ctx, usecase.RequestOTPInput{Identity: ops})
	require.ErrorIs(t, err, entity.ErrRateLimited)
	assert.Equal(t, 429, statusOf(t, err))

	var gerr *goerror.Error
	require.ErrorAs(t, err, &gerr)
	retryAfter, ok := gerr.Fields()["retryAfterSeconds"].(int)
	require.True(t, ok)
	assert.Equal(t, 600, retryAfter)

	assert.NoError(t, h.uc.RequestOTP(ctx, usecase.RequestOTPInput{Identity: "other@example.com"}))
}

func TestRequestOTP_InvalidIdentity(t *testing.T) {
	h := newHarness(t, options{})

	for _, identity := range []string{"", "   ", "not-an-email", "a@"} {
		err := h.uc.RequestOTP(context.Background(), usecase.RequestOTPInput{Identity: identity})
		require.ErrorIs(t, err, entity.ErrInvalidIdentity, identity)
		assert.Equal(t, 400, statusOf(t, err))
	}

	assert.Zero(t, h.limiter.Len(), "validation runs before the limiter")
}

func TestRequestOTP_NormalizesIdentity(t *testing.T) {
	h := newHarness(t, options{})
	ctx := context.Background()

	require.NoError(t, h.uc.RequestOTP(ctx, usecase.RequestOTPInput{Identity: "  Ops@Example.COM "}))
	code := h.notifier.last(ops)
	require.Len(t, code, 6)
	assert.Regexp(t, `^[0-9]{6}$`, code)

	_, err := h.uc.VerifyOTP(ctx, usecase.VerifyOTPInput{Identity: ops, Code: code})
	assert.NoError(t, err)
}

func TestRequestOTP_DeliveryFailedRefundsSlot(t *testing.T) {
	h := newHarness(t, options{limit: 1})
	ctx := context.Background()

	h.notifier.err = errSMTPDown
	err := h.uc.RequestOTP(ctx, usecase.RequestOTPInput{Identity: ops})
	require.ErrorIs(t, err, entity.ErrDeliveryFailed)
	assert.Equal(t, 503, statusOf(t, err))

	_, ok := h.otps.Lookup(ctx, ops)
	assert.False(t, ok, "undelivered challenge is rolled back")

	h.notifier.err = nil
	require.NoError(t, h.uc.RequestOTP(ctx, usecase.RequestOTPInput{Identity: ops}), "failed delivery does not use a slot")
	assert.Equal(t, 1, h.notifier.sent(ops))
}

func TestRequestOTP_DeliveryTimeout(t *testing.T) {
	h := newHarness(t, options{yaml: "modules:\n  adminauth:\n    notifier:\n      timeout_milliseconds: 10\n"})
	h.notifier.block = true

	err := h.uc.RequestOTP(context.Background(), usecase.RequestOTPInput{Identity: ops})
	assert.ErrorIs(t, err, entity.ErrDeliveryFailed)
}

func TestRequestOTP_CallerCancellationDoesNotRollBack(t *testing.T) {
	h := newHarness(t, options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, h.uc.RequestOTP(ctx, usecase.RequestOTPInput{Identity: ops}))
	assert.True(t, h.notifier.ctxOK)

	_, ok := h.otps.Lookup(context.Background(), ops)
	assert.True(t, ok)
}

func TestRequestOTP_AllowList(t *testing.T) {
	h := newHarness(t, options{yaml: "modules:\n  adminauth:\n    allowed_identities: \"OPS@example.com, boss@example.com\"\n"})
	ctx := context.Background()

	require.NoError(t, h.uc.RequestOTP(ctx, usecase.RequestOTPInput{Identity: "stranger@example.com"}))
	assert.Zero(t, h.notifier.sent("stranger@example.com"))
	_, ok := h.otps.Lookup(ctx, "stranger@example.com")
	assert.False(t, ok)

	require.NoError(t, h.uc.RequestOTP(ctx, usecase.RequestOTPInput{Identity: ops}))
	assert.Equal(t, 1, h.notifier.sent(ops))
}

func TestVerifyOTP_InvalidInput(t *testing.T) {
	h := newHarness(t, options{})
	ctx := context.Background()

	tests := []struct {
		name     string
		identity string
		code     string
		want     error
	}{
		{name: "bad identity", identity: "nope", code: "123456", want: entity.ErrInvalidIdentity},
		{name: "empty code", identity: ops, code: "", want: entity.ErrInvalidCode},
		{name: "letters", identity: ops, code: "12a456", want: entity.ErrInvalidCode},
		{name: "signed", identity: ops, code: "+12345", want: entity.ErrInvalidCode},
		{name: "too short", identity: ops, code: "12345", want: entity.ErrInvalidCode},
		{name: "too long", identity: ops, code: "1234567", want: entity.ErrInvalidCode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.uc.VerifyOTP(ctx, usecase.VerifyOTPInput{Identity: tt.identity, Code: tt.code})
			require.ErrorIs(t, err, tt.want)
			assert.Equal(t, 400, statusOf(t, err))
		})
	}
}

func TestVerifyOTP_AttemptsExhausted(t *testing.T) {
	h := newHarness(t, options{attempts: 3})
	ctx := context.Background()

	require.NoError(t, h.uc.RequestOTP(ctx, usecase.RequestOTPInput{Identity: ops}))
	code := h.notifier.last(ops)
	bad := wrongCode(code)

	_, err := h.uc.VerifyOTP(ctx, usecase.VerifyOTPInput{Identity: ops, Code: bad})
	require.ErrorIs(t, err, entity.ErrCodeMismatch)
	var gerr *goerror.Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, 2, gerr.Fields()["attemptsRemaining"])

	_, err = h.uc.VerifyOTP(ctx, usecase.VerifyOTPInput{Identity: ops, Code: bad})
	require.ErrorIs(t, err, entity.ErrCodeMismatch)

	_, err = h.uc.VerifyOTP(ctx, usecase.VerifyOTPInput{Identity: ops, Code: bad})
	require.ErrorIs(t, err, entity.ErrTooManyAttempts)
	assert.Equal(t, 401, statusOf(t, err))

	_, err = h.uc.VerifyOTP(ctx, usecase.VerifyOTPInput{Identity: ops, Code: code})
	assert.ErrorIs(t, err, entity.ErrChallengeNotFound)
}

func TestVerifyOTP_SingleUse(t *testing.T) {
	h := newHarness(t, options{})
	ctx := context.Background()

	require.NoError(t, h.uc.RequestOTP(ctx, usecase.RequestOTPInput{Identity: ops}))
	code := h.notifier.last(ops)

	out, err := h.uc.VerifyOTP(ctx, usecase.VerifyOTPInput{Identity: ops, Code: code})
	require.NoError(t, err)
	assert.NotEmpty(t, out.Token)
	assert.Equal(t, t0.Add(480*time.Minute), out.ExpiresAt)

	_, err = h.uc.VerifyOTP(ctx, usecase.VerifyOTPInput{Identity: ops, Code: code})
	assert.ErrorIs(t, err, entity.ErrChallengeNotFound)
}

func TestVerifyOTP_Expired(t *testing.T) {
	h := newHarness(t, options{})
	ctx := context.Background()

	require.NoError(t, h.uc.RequestOTP(ctx, usecase.RequestOTPInput{Identity: ops}))
	code := h.notifier.last(ops)

	h.clock.Advance(5 * time.Minute)
	_, err := h.uc.VerifyOTP(ctx, usecase.VerifyOTPInput{Identity: ops, Code: code})
	assert.ErrorIs(t, err, entity.ErrChallengeNotFound)
}

func TestVerifyOTP_NewRequestInvalidatesPrior(t *testing.T) {
	h := newHarness(t, options{})
	ctx := context.Background()

	require.NoError(t, h.uc.RequestOTP(ctx, usecase.RequestOTPInput{Identity: ops}))
	first := h.notifier.last(ops)
	require.NoError(t, h.uc.RequestOTP(ctx, usecase.RequestOTPInput{Identity: ops}))
	second := h.notifier.last(ops)

	if first == second {
		t.Skip("both requests drew the same code")
	}

	_, err := h.uc.VerifyOTP(ctx, usecase.VerifyOTPInput{Identity: ops, Code: first})
	require.ErrorIs(t, err, entity.ErrChallengeNotFound)
	assert.Equal(t, 401, statusOf(t, err))

	cur, ok := h.otps.Lookup(ctx, ops)
	require.True(t, ok)
	assert.Equal(t, 5, cur.AttemptsRemaining)

	_, err = h.uc.VerifyOTP(ctx, usecase.VerifyOTPInput{Identity: ops, Code: second})
	require.NoError(t, err)
}

func TestVerifyOTP_UnknownIdentity(t *testing.T) {
	h := newHarness(t, options{})

	_, err := h.uc.VerifyOTP(context.Background(), usecase.VerifyOTPInput{Identity: ops, Code: "123456"})
	require.ErrorIs(t, err, entity.ErrChallengeNotFound)
	assert.Equal(t, 401, statusOf(t, err))
}

func TestSessionLifecycle(t *testing.T) {
	h := newHarness(t, options{
		yaml:   "modules:\n  adminauth:\n    session:\n      ttl_minutes: 60\n",
		tokens: fixedToken("tok123"),
	})
	ctx := context.Background()

	require.NoError(t, h.uc.RequestOTP(ctx, usecase.RequestOTPInput{Identity: ops}))
	code := h.notifier.last(ops)

	out, err := h.uc.VerifyOTP(ctx, usecase.VerifyOTPInput{Identity: ops, Code: code})
	require.NoError(t, err)
	assert.Equal(t, "tok123", out.Token)

	sess, err := h.uc.VerifySessionToken(ctx, usecase.VerifySessionInput{Token: "tok123"})
	require.NoError(t, err)
	assert.Equal(t, ops, sess.Identity)

	h.clock.Set(t0.Add(time.Hour - time.Second))
	_, err = h.uc.VerifySessionToken(ctx, usecase.VerifySessionInput{Token: "tok123"})
	require.NoError(t, err)

	h.clock.Set(t0.Add(time.Hour + time.Second))
	_, err = h.uc.VerifySessionToken(ctx, usecase.VerifySessionInput{Token: "tok123"})
	require.ErrorIs(t, err, entity.ErrTokenExpired)
	assert.Equal(t, 401, statusOf(t, err))
}

func TestVerifySessionToken_Invalid(t *testing.T) {
	h := newHarness(t, options{})

	_, err := h.uc.VerifySessionToken(context.Background(), usecase.VerifySessionInput{Token: "never-issued"})
	require.ErrorIs(t, err, entity.ErrTokenInvalid)
	assert.NotErrorIs(t, err, entity.ErrTokenExpired)
}

func TestRevokeSession(t *testing.T) {
	h := newHarness(t, options{})
	ctx := context.Background()

	require.NoError(t, h.uc.RequestOTP(ctx, usecase.RequestOTPInput{Identity: ops}))
	out, err := h.uc.VerifyOTP(ctx, usecase.VerifyOTPInput{Identity: ops, Code: h.notifier.last(ops)})
	require.NoError(t, err)

	require.NoError(t, h.uc.RevokeSession(ctx, usecase.RevokeSessionInput{Token: out.Token, Identity: ops}))
	require.NoError(t, h.uc.RevokeSession(ctx, usecase.RevokeSessionInput{Token: out.Token, Identity: ops}))
	require.NoError(t, h.uc.RevokeSession(ctx, usecase.RevokeSessionInput{}))

	_, err = h.uc.VerifySessionToken(ctx, usecase.VerifySessionInput{Token: out.Token})
	assert.ErrorIs(t, err, entity.ErrTokenInvalid)
}

func TestConcurrentIdentitiesAreIndependent(t *testing.T) {
	h := newHarness(t, options{limit: 1})
	ctx := context.Background()

	identities := []string{"a@example.com", "b@example.com", "c@example.com", "d@example.com"}

	var wg sync.WaitGroup
	errs := make([]error, len(identities))
	for i, id := range identities {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			errs[i] = h.uc.RequestOTP(ctx, usecase.RequestOTPInput{Identity: id})
		}(i, id)
	}
	wg.Wait()

	for i, id := range identities {
		require.NoError(t, errs[i], id)
		_, err := h.uc.VerifyOTP(ctx, usecase.VerifyOTPInput{Identity: id, Code: h.notifier.last(id)})
		assert.NoError(t, err, id)
	}
}
