package router

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/samber/lo"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// Request and response bodies of this API are small JSON objects; anything
// larger is logged truncated.
const maxLoggedBodyBytes = 4 * 1024

const masked = "***"

// recorder captures what the handler wrote so it can be logged and measured.
type recorder struct {
	http.ResponseWriter
	status int
	size   int
	body   bytes.Buffer
	err    error
}

func (w *recorder) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *recorder) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	if room := maxLoggedBodyBytes - w.body.Len(); room > 0 {
		w.body.Write(p[:min(len(p), room)])
	}

	n, err := w.ResponseWriter.Write(p)
	w.size += n
	return n, err
}

// SetError lets the router attach the handler error to the current span.
func (w *recorder) SetError(err error) {
	w.err = err
}

func (w *recorder) code() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

// redactor hides configured JSON keys and headers in request logs.
type redactor struct {
	cfg config.Config
}

func (m redactor) keys() map[string]struct{} {
	if m.cfg == nil {
		return nil
	}
	return lo.Keyify(lo.Map(m.cfg.GetArray("instrument.log_mask_fields"), func(s string, _ int) string {
		return strings.ToLower(s)
	}))
}

func (m redactor) headers(h http.Header) map[string]string {
	keys := m.keys()
	out := make(map[string]string, len(h))
	for k := range h {
		if _, hide := keys[strings.ToLower(k)]; hide {
			out[k] = masked
			continue
		}
		out[k] = h.Get(k)
	}
	return out
}

func (m redactor) body(raw []byte) any {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "<non-json body omitted>"
	}
	return redact(v, m.keys())
}

func redact(v any, keys map[string]struct{}) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			if _, hide := keys[strings.ToLower(k)]; hide {
				out[k] = masked
				continue
			}
			out[k] = redact(inner, keys)
		}
		return out
	case []any:
		return lo.Map(val, func(inner any, _ int) any { return redact(inner, keys) })
	default:
		return v
	}
}

func matchedRoutePath(r *http.Request) string {
	if p := httprouter.ParamsFromContext(r.Context()).MatchedRoutePath(); p != "" {
		return p
	}
	return r.URL.Path
}

// peekBody reads up to maxLoggedBodyBytes of the request body and puts the
// bytes back so the handler still sees the full stream.
func peekBody(r *http.Request) []byte {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}

	//nolint:errcheck // logging only
	head, _ := io.ReadAll(io.LimitReader(r.Body, maxLoggedBodyBytes))
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(head), r.Body), r.Body}
	return head
}

// logLevel grades a finished request: server faults are errors, client and
// auth failures are warnings.
func logLevel(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

func middlewareObservability(cfg config.Config, ins instrument.Instrumentation) Middleware {
	red := redactor{cfg: cfg}
	tracer := ins.Tracer("http.server")
	meter := ins.Meter("http.server")

	requests, err := meter.Int64Counter("http.server.requests",
		metric.WithDescription("HTTP requests served, by route and status"))
	if err != nil {
		slog.Error("failed to create http request counter", "error", err)
	}
	latency, err := meter.Float64Histogram("http.server.duration",
		metric.WithDescription("HTTP request duration"), metric.WithUnit("ms"))
	if err != nil {
		slog.Error("failed to create http duration histogram", "error", err)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			route := matchedRoutePath(r)

			ctx, span := tracer.Start(r.Context(), r.Method+" "+route,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					semconv.HTTPRequestMethodKey.String(r.Method),
					semconv.HTTPRouteKey.String(route),
					semconv.ClientAddressKey.String(ClientIP(r.Context())),
				),
			)
			defer span.End()

			reqBody := peekBody(r)
			rec := &recorder{ResponseWriter: w}
			next.ServeHTTP(rec, r.WithContext(ctx))

			status := rec.code()
			elapsed := time.Since(start)
			attrs := metric.WithAttributes(
				semconv.HTTPRequestMethodKey.String(r.Method),
				semconv.HTTPRouteKey.String(route),
				semconv.HTTPResponseStatusCodeKey.Int(status),
			)

			span.SetAttributes(
				semconv.HTTPResponseStatusCodeKey.Int(status),
				attribute.Int("http.response_content_length", rec.size),
			)
			if rec.err != nil {
				span.RecordError(rec.err)
			}
			if status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(status))
			}

			if requests != nil {
				requests.Add(ctx, 1, attrs)
			}
			if latency != nil {
				latency.Record(ctx, float64(elapsed.Microseconds())/1000, attrs)
			}

			slog.Log(ctx, logLevel(status), "http request served",
				"method", r.Method,
				"path", route,
				"client_ip", ClientIP(r.Context()),
				"status", status,
				"bytes", rec.size,
				"latency_ms", elapsed.Milliseconds(),
				"request_headers", red.headers(r.Header),
				"request_body", red.body(reqBody),
				"response_body", red.body(rec.body.Bytes()),
			)
		})
	}
}
