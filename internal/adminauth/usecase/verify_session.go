package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/otpgate/internal/adminauth/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

type VerifySessionInput struct {
	Token string
}

type VerifySessionOutput struct {
	Identity  string
	ExpiresAt time.Time
}

func (s *Usecase) VerifySessionToken(ctx context.Context, in VerifySessionInput) (*VerifySessionOutput, error) {
	ctx, span := s.startSpan(ctx, "VerifySessionToken")
	defer span.End()

	check := s.sessions.Verify(ctx, strings.TrimSpace(in.Token))

	if check.Expired {
		count(ctx, s.sessionChecks, "expired")
		slog.InfoContext(ctx, "session token expired", "expired_at", check.ExpiresAt)
		return nil, goerror.NewBusinessCause(entity.ErrTokenExpired, "Session expired. Please sign in again.",
			goerror.CodeUnauthorized, "valid", false, "expired", true)
	}

	if !check.Valid {
		count(ctx, s.sessionChecks, "invalid")
		return nil, goerror.NewBusinessCause(entity.ErrTokenInvalid, "Invalid session token.",
			goerror.CodeUnauthorized, "valid", false, "expired", false)
	}

	count(ctx, s.sessionChecks, "valid")

	return &VerifySessionOutput{Identity: check.Identity, ExpiresAt: check.ExpiresAt}, nil
}
