package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

type RevokeSessionInput struct {
	Token string
	// Identity is only used for the audit log.
	Identity string
}

func (s *Usecase) RevokeSession(ctx context.Context, in RevokeSessionInput) error {
	ctx, span := s.startSpan(ctx, "RevokeSession")
	defer span.End()

	token := strings.TrimSpace(in.Token)
	if token == "" {
		return nil
	}

	if err := s.sessions.Revoke(ctx, token); err != nil {
		slog.ErrorContext(ctx, "failed to revoke session", "identity", in.Identity, "error", err)
		return goerror.NewServer(err)
	}

	slog.InfoContext(ctx, "admin signed out", "identity", in.Identity)

	return nil
}
