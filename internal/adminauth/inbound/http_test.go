package inbound_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/otpgate/internal/adminauth/inbound"
	"github.com/shandysiswandi/otpgate/internal/adminauth/outbound/memory"
	"github.com/shandysiswandi/otpgate/internal/adminauth/usecase"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpgate/internal/pkg/hash"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/otp"
	"github.com/shandysiswandi/otpgate/internal/pkg/router"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
	"github.com/shandysiswandi/otpgate/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type captureNotifier struct {
	mu    sync.Mutex
	codes map[string]string
}

func (c *captureNotifier) Send(_ context.Context, identity, code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.codes == nil {
		c.codes = map[string]string{}
	}
	c.codes[identity] = code
	return nil
}

func (c *captureNotifier) code(identity string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.codes[identity]
}

type server struct {
	handler  http.Handler
	clock    *clock.Fake
	notifier *captureNotifier
}

func newServer(t *testing.T) *server {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte("modules:\n  adminauth:\n    session:\n      ttl_minutes: 60\n"))
	require.NoError(t, err)

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	codes, err := otp.NewNumeric(6)
	require.NoError(t, err)

	clk := clock.NewFake(t0)
	h := hash.NewHMACSHA256("test-secret")
	n := &captureNotifier{}

	uc := usecase.New(usecase.Dependency{
		OTPStore:     memory.NewOTPStore(memory.OTPStoreConfig{TTL: 5 * time.Minute, MaxAttempts: 3}, clk, h, codes, uid.NewUUID()),
		RateLimiter:  memory.NewRateLimiter(memory.RateLimiterConfig{Window: 10 * time.Minute, MaxRequests: 2}, clk),
		SessionStore: memory.NewSessionStore(memory.SessionStoreConfig{}, clk, h, uid.NewSecureToken(0)),
		Notifier:     n,
		Validator:    v,
		Config:       cfg,
		Codes:        codes,
		Clock:        clk,
		Instrument:   instrument.NewNoop(),
	})

	r := router.NewRouter(router.Config{Config: cfg, UUID: uid.NewUUID(), Instrument: instrument.NewNoop()})
	inbound.RegisterHTTPEndpoint(r, uc)

	return &server{handler: r, clock: clk, notifier: n}
}

func (s *server) post(t *testing.T, path, body string, headers ...string) (int, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec.Code, out
}

func TestHTTP_LoginFlow(t *testing.T) {
	s := newServer(t)

	status, body := s.post(t, "/otp/request", `{"identity":"ops@example.com"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{"success": true}, body)

	code := s.notifier.code("ops@example.com")
	require.Len(t, code, 6)

	status, body = s.post(t, "/otp/verify", `{"identity":"ops@example.com","code":"`+code+`"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	assert.Equal(t, t0.Add(time.Hour).Format(time.RFC3339), body["expiresAt"])

	status, body = s.post(t, "/session/verify", `{"token":"`+token+`"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["valid"])
	assert.Equal(t, "ops@example.com", body["identity"])

	s.clock.Advance(time.Hour + time.Second)
	status, body = s.post(t, "/session/verify", `{"token":"`+token+`"}`)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, map[string]any{"valid": false, "expired": true}, body)
}

func TestHTTP_RequestOTPErrors(t *testing.T) {
	s := newServer(t)

	status, body := s.post(t, "/otp/request", `{"identity":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, false, body["success"])
	assert.NotEmpty(t, body["message"])

	status, _ = s.post(t, "/otp/request", `not json`)
	assert.Equal(t, http.StatusBadRequest, status)

	s.post(t, "/otp/request", `{"identity":"ops@example.com"}`)
	s.post(t, "/otp/request", `{"identity":"ops@example.com"}`)
	status, body = s.post(t, "/otp/request", `{"identity":"ops@example.com"}`)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, false, body["success"])
	assert.EqualValues(t, 600, body["retryAfterSeconds"])
}

func TestHTTP_VerifyOTPErrors(t *testing.T) {
	s := newServer(t)

	status, body := s.post(t, "/otp/verify", `{"identity":"ops@example.com","code":"12ab56"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, false, body["success"])

	status, body = s.post(t, "/otp/verify", `{"identity":"ops@example.com","code":"123456"}`)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, false, body["success"])
	assert.NotContains(t, body, "attemptsRemaining")

	s.post(t, "/otp/request", `{"identity":"ops@example.com"}`)
	bad := "000000"
	if s.notifier.code("ops@example.com") == bad {
		bad = "111111"
	}

	status, body = s.post(t, "/otp/verify", `{"identity":"ops@example.com","code":"`+bad+`"}`)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.EqualValues(t, 2, body["attemptsRemaining"])
}

func TestHTTP_SessionVerifyUnknownToken(t *testing.T) {
	s := newServer(t)

	status, body := s.post(t, "/session/verify", `{"token":"tok123"}`)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, map[string]any{"valid": false, "expired": false}, body)
}

func TestHTTP_Logout(t *testing.T) {
	s := newServer(t)

	status, _ := s.post(t, "/session/logout", `{}`)
	assert.Equal(t, http.StatusUnauthorized, status)

	s.post(t, "/otp/request", `{"identity":"ops@example.com"}`)
	_, body := s.post(t, "/otp/verify", `{"identity":"ops@example.com","code":"`+s.notifier.code("ops@example.com")+`"}`)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)

	status, body = s.post(t, "/session/logout", `{}`, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{"success": true}, body)

	status, body = s.post(t, "/session/verify", `{"token":"`+token+`"}`)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, false, body["expired"])

	status, _ = s.post(t, "/session/logout", `{}`, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestSweepers(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewFake(t0)
	limiter := memory.NewRateLimiter(memory.RateLimiterConfig{Window: time.Minute, MaxRequests: 1}, clk)
	limiter.Admit(ctx, "ops@example.com")

	job := inbound.SweepJob{Name: "rate_limit", Store: limiter, Interval: time.Hour}
	assert.Zero(t, inbound.RunSweep(ctx, job))

	clk.Advance(time.Minute)
	assert.Equal(t, 1, inbound.RunSweep(ctx, job))

	gm := goroutine.NewManager(4)
	loopCtx, cancel := context.WithCancel(ctx)
	inbound.RegisterSweepers(loopCtx, gm, instrument.NewNoop(), job)
	cancel()
	assert.NoError(t, gm.Wait())
}
