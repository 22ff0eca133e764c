package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shandysiswandi/otpgate/internal/adminauth/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/validator"
)

type VerifyOTPInput struct {
	Identity string `validate:"required,email,max=254"`
	Code     string `validate:"required,digits"`
}

type VerifyOTPOutput struct {
	Token     string
	ExpiresAt time.Time
}

func (s *Usecase) VerifyOTP(ctx context.Context, in VerifyOTPInput) (*VerifyOTPOutput, error) {
	ctx, span := s.startSpan(ctx, "VerifyOTP")
	defer span.End()

	in.Identity = normalizeIdentity(in.Identity)
	if err := s.validateVerifyInput(in); err != nil {
		count(ctx, s.verifications, "invalid_input")
		return nil, err
	}

	res := s.otpStore.VerifyAndConsume(ctx, in.Identity, in.Code)
	count(ctx, s.verifications, res.Outcome.String())

	switch res.Outcome {
	case entity.OutcomeValid:
	case entity.OutcomeMismatch:
		slog.WarnContext(ctx, "otp code mismatch", "identity", in.Identity, "attempts_remaining", res.AttemptsRemaining)
		return nil, goerror.NewBusinessCause(entity.ErrCodeMismatch, "Incorrect code.",
			goerror.CodeUnauthorized, "attemptsRemaining", res.AttemptsRemaining)
	case entity.OutcomeAttemptsExceeded:
		slog.WarnContext(ctx, "otp challenge exhausted", "identity", in.Identity)
		return nil, goerror.NewBusinessCause(entity.ErrTooManyAttempts, "Too many incorrect attempts. Please request a new code.",
			goerror.CodeUnauthorized, "attemptsRemaining", 0)
	default:
		slog.WarnContext(ctx, "otp challenge not found", "identity", in.Identity, "superseded", res.Superseded)
		return nil, goerror.NewBusinessCause(entity.ErrChallengeNotFound, "No active code for this email. Please request a new one.",
			goerror.CodeUnauthorized)
	}

	sess, token, err := s.sessions.Issue(ctx, in.Identity, s.cfg.GetMinute(keySessionTTL))
	if err != nil {
		slog.ErrorContext(ctx, "failed to issue session", "identity", in.Identity, "error", err)
		return nil, goerror.NewServer(err)
	}

	slog.InfoContext(ctx, "admin signed in", "identity", in.Identity, "session_expires_at", sess.ExpiresAt)

	return &VerifyOTPOutput{Token: token, ExpiresAt: sess.ExpiresAt}, nil
}

// validateVerifyInput rejects a malformed identity before a malformed code so
// callers see the first field they need to fix.
func (s *Usecase) validateVerifyInput(in VerifyOTPInput) error {
	if err := s.validator.Validate(in); err != nil {
		var verr validator.V10ValidationError
		if errors.As(err, &verr) {
			if _, bad := verr["identity"]; !bad {
				return s.invalidCode(err)
			}
		}
		return goerror.NewValidationCause(fmt.Errorf("%w: %w", entity.ErrInvalidIdentity, err), "A valid email address is required")
	}

	if !s.codes.IsWellFormed(in.Code) {
		return s.invalidCode(nil)
	}

	return nil
}

func (s *Usecase) invalidCode(err error) error {
	cause := entity.ErrInvalidCode
	if err != nil {
		cause = fmt.Errorf("%w: %w", entity.ErrInvalidCode, err)
	}
	return goerror.NewValidationCause(cause, fmt.Sprintf("The code must be exactly %d digits", s.codes.Length()))
}
