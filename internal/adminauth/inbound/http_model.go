package inbound

import (
	"net/http"
	"time"
)

type RequestOTPRequest struct {
	Identity string `json:"identity"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

type VerifyOTPRequest struct {
	Identity string `json:"identity"`
	Code     string `json:"code"`
}

type VerifyOTPResponse struct {
	Success   bool      `json:"success"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type VerifySessionRequest struct {
	Token string `json:"token"`
}

type VerifySessionResponse struct {
	Valid     bool       `json:"valid"`
	Identity  string     `json:"identity,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	Expired   *bool      `json:"expired,omitempty"`
}

func (r VerifySessionResponse) StatusCode() int {
	if r.Valid {
		return http.StatusOK
	}
	return http.StatusUnauthorized
}
