package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shandysiswandi/otpgate/internal/adminauth/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

type RequestOTPInput struct {
	Identity string `validate:"required,email,max=254"`
}

func (s *Usecase) RequestOTP(ctx context.Context, in RequestOTPInput) error {
	ctx, span := s.startSpan(ctx, "RequestOTP")
	defer span.End()

	in.Identity = normalizeIdentity(in.Identity)
	if err := s.validator.Validate(in); err != nil {
		count(ctx, s.requests, "invalid_identity")
		return goerror.NewValidationCause(fmt.Errorf("%w: %w", entity.ErrInvalidIdentity, err), "A valid email address is required")
	}

	adm := s.limiter.Admit(ctx, in.Identity)
	if !adm.Allowed {
		retryAfter := retryAfterSeconds(adm.RetryAfter)
		slog.WarnContext(ctx, "otp request rate limited", "identity", in.Identity, "retry_after_seconds", retryAfter)
		count(ctx, s.requests, "rate_limited")
		return goerror.NewBusinessCause(entity.ErrRateLimited, "Too many requests. Please try again later.",
			goerror.CodeTooManyRequest, "retryAfterSeconds", retryAfter)
	}

	if !s.allowed(in.Identity) {
		slog.WarnContext(ctx, "otp requested for identity outside the allow-list", "identity", in.Identity)
		count(ctx, s.requests, "not_allowed")
		return nil
	}

	if prev, ok := s.otpStore.Lookup(ctx, in.Identity); ok {
		slog.InfoContext(ctx, "pending otp challenge superseded", "identity", in.Identity, "challenge_id", prev.ID)
	}

	ch, code, err := s.otpStore.Create(ctx, in.Identity)
	if err != nil {
		s.limiter.Refund(ctx, in.Identity, adm)
		slog.ErrorContext(ctx, "failed to create otp challenge", "identity", in.Identity, "error", err)
		count(ctx, s.requests, "error")
		return goerror.NewServer(err)
	}

	if err := s.deliver(ctx, in.Identity, code); err != nil {
		s.otpStore.Discard(ctx, in.Identity, ch.ID)
		s.limiter.Refund(ctx, in.Identity, adm)
		slog.ErrorContext(ctx, "failed to deliver otp code", "identity", in.Identity, "challenge_id", ch.ID, "error", err)
		count(ctx, s.requests, "delivery_failed")
		return goerror.NewBusinessCause(entity.ErrDeliveryFailed, "Unable to deliver the sign-in code. Please try again.",
			goerror.CodeUnavailable)
	}

	slog.InfoContext(ctx, "otp challenge issued", "identity", in.Identity, "challenge_id", ch.ID, "expires_at", ch.ExpiresAt)
	count(ctx, s.requests, "issued")

	return nil
}

// deliver hands the code to the notifier. The call is detached from the
// caller's cancellation and bounded by the notifier timeout.
func (s *Usecase) deliver(ctx context.Context, identity, code string) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.GetMillisecond(keyNotifierTimeout))
	defer cancel()

	errc := make(chan error, 1)
	go func() {
		errc <- s.notifier.Send(ctx, identity, code)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
