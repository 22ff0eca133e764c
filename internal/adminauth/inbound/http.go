package inbound

import (
	"context"

	"github.com/shandysiswandi/otpgate/internal/adminauth/usecase"
	"github.com/shandysiswandi/otpgate/internal/pkg/router"
)

type uc interface {
	RequestOTP(ctx context.Context, in usecase.RequestOTPInput) error
	VerifyOTP(ctx context.Context, in usecase.VerifyOTPInput) (*usecase.VerifyOTPOutput, error)
	VerifySessionToken(ctx context.Context, in usecase.VerifySessionInput) (*usecase.VerifySessionOutput, error)
	RevokeSession(ctx context.Context, in usecase.RevokeSessionInput) error
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.POST("/otp/request", end.RequestOTP)
	r.POST("/otp/verify", end.VerifyOTP)
	r.POST("/session/verify", end.VerifySession)
	r.POST("/session/logout", end.Logout, router.Authentication(SessionAuthenticator{uc: uc})) // need authenticated
}
