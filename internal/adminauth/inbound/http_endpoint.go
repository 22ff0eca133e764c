package inbound

import (
	"context"
	"errors"

	"github.com/shandysiswandi/otpgate/internal/adminauth/entity"
	"github.com/shandysiswandi/otpgate/internal/adminauth/usecase"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/router"
)

// HTTPEndpoint exposes the admin sign-in flow over HTTP.
type HTTPEndpoint struct {
	uc uc
}

// RequestOTP sends a one-time code to the given admin email.
func (h *HTTPEndpoint) RequestOTP(r *router.Request) (any, error) {
	var req RequestOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.RequestOTP(r.Context(), usecase.RequestOTPInput{Identity: req.Identity}); err != nil {
		return nil, err
	}

	return SuccessResponse{Success: true}, nil
}

// VerifyOTP exchanges a valid code for a session token.
func (h *HTTPEndpoint) VerifyOTP(r *router.Request) (any, error) {
	var req VerifyOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.VerifyOTP(r.Context(), usecase.VerifyOTPInput{
		Identity: req.Identity,
		Code:     req.Code,
	})
	if err != nil {
		return nil, err
	}

	return VerifyOTPResponse{
		Success:   true,
		Token:     resp.Token,
		ExpiresAt: resp.ExpiresAt.UTC(),
	}, nil
}

// VerifySession tells whether a session token is still good. A rejected token
// answers 401 with {valid:false, expired}.
func (h *HTTPEndpoint) VerifySession(r *router.Request) (any, error) {
	var req VerifySessionRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.VerifySessionToken(r.Context(), usecase.VerifySessionInput{Token: req.Token})
	switch {
	case errors.Is(err, entity.ErrTokenExpired):
		expired := true
		return VerifySessionResponse{Expired: &expired}, nil
	case errors.Is(err, entity.ErrTokenInvalid):
		expired := false
		return VerifySessionResponse{Expired: &expired}, nil
	case err != nil:
		return nil, err
	}

	expiresAt := resp.ExpiresAt.UTC()
	return VerifySessionResponse{Valid: true, Identity: resp.Identity, ExpiresAt: &expiresAt}, nil
}

// Logout revokes the bearer token of the authenticated caller.
func (h *HTTPEndpoint) Logout(r *router.Request) (any, error) {
	auth, ok := router.GetAuth(r.Context())
	if !ok {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}

	if err := h.uc.RevokeSession(r.Context(), usecase.RevokeSessionInput{
		Token:    auth.Token,
		Identity: auth.Identity,
	}); err != nil {
		return nil, err
	}

	return SuccessResponse{Success: true}, nil
}

// SessionAuthenticator adapts the session check to router.Authenticator.
type SessionAuthenticator struct {
	uc uc
}

func (a SessionAuthenticator) Authenticate(ctx context.Context, token string) (string, error) {
	resp, err := a.uc.VerifySessionToken(ctx, usecase.VerifySessionInput{Token: token})
	if err != nil {
		return "", err
	}
	return resp.Identity, nil
}
