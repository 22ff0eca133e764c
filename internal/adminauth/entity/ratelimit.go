package entity

import "time"

// RateLimitWindow counts OTP requests of one identity in a fixed window.
type RateLimitWindow struct {
	Identity    string
	WindowStart time.Time
	Count       int
}

// Admission is the limiter's decision for a single request.
type Admission struct {
	Allowed bool
	// RetryAfter is the time left until the window resets; set when rejected.
	RetryAfter time.Duration
	// WindowStart identifies the window the request was counted in.
	WindowStart time.Time
	// Remaining is the number of requests still admitted in this window.
	Remaining int
}
