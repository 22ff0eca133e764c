package config

// EnvPrefix prefixes environment overrides: app.server.http.address is read
// from OTPGATE_APP_SERVER_HTTP_ADDRESS.
const EnvPrefix = "OTPGATE"

// Defaults lists every recognized key with its documented default value.
// A config file or environment variable overrides any of them.
var Defaults = map[string]any{
	"app.name": "otpgate",
	"app.tz":   "UTC",

	"app.server.http.address":                     ":8080",
	"app.server.http.read_timeout_seconds":        10,
	"app.server.http.read_header_timeout_seconds": 5,
	"app.server.http.write_timeout_seconds":       30,
	"app.server.http.idle_timeout_seconds":        60,
	"app.server.cors":                             "*",
	"app.server.max_goroutine":                    16,
	"app.maintenance.endpoints":                   "",

	"instrument.enabled":                 false,
	"instrument.service_name":            "otpgate",
	"instrument.service_version":         "dev",
	"instrument.env":                     "local",
	"instrument.otlp_endpoint":           "localhost:4317",
	"instrument.otlp_secure":             false,
	"instrument.trace_sample_ratio":      1.0,
	"instrument.metric_interval_seconds": 15,
	"instrument.log_mask_fields":         "code,token,authorization",
	"instrument.log_format":              "json",
	"instrument.log_level":               "info",

	"hash.hmac.secret": "",

	"mail.driver":    "log",
	"mail.host":      "",
	"mail.port":      587,
	"mail.username":  "",
	"mail.password":  "",
	"mail.from":      "no-reply@localhost",
	"mail.from_name": "Admin Login",
	"mail.tls":       true,
	"mail.log_file":  "",

	"modules.adminauth.enabled":                             true,
	"modules.adminauth.allowed_identities":                  "",
	"modules.adminauth.otp.code_length":                     6,
	"modules.adminauth.otp.ttl_seconds":                     300,
	"modules.adminauth.otp.max_attempts":                    5,
	"modules.adminauth.rate_limit.window_seconds":           600,
	"modules.adminauth.rate_limit.max_requests":             3,
	"modules.adminauth.session.ttl_minutes":                 480,
	"modules.adminauth.notifier.timeout_milliseconds":       10000,
	"modules.adminauth.notifier.max_retries":                2,
	"modules.adminauth.notifier.retry_backoff_milliseconds": 200,
	"modules.adminauth.notifier.subject":                    "Your admin sign-in code",
	"modules.adminauth.sweep.challenge_interval_seconds":    60,
	"modules.adminauth.sweep.rate_limit_interval_seconds":   120,
	"modules.adminauth.sweep.session_interval_seconds":      300,
	"modules.adminauth.sweep.grace_seconds":                 30,
}
