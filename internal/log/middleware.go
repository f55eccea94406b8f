package log

import (
	"context"
	"log/slog"
	"net/http"

	"findash/internal/core"
)

type ctxKey struct{}

// IntoContext stores logger in ctx.
func IntoContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the request logger, or one built on slog's default.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(ctxKey{}).(*Logger); ok {
		return l
	}
	return &Logger{Logger: slog.Default(), component: ComponentApp}
}

// Middleware puts logger into every request context, tagged with the
// request ID returned by requestID when it is non-empty.
func Middleware(logger *Logger, requestID func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l := logger
			if requestID != nil {
				if id := requestID(r); id != "" {
					l = l.With(FieldRequestID, id)
				}
			}
			next.ServeHTTP(w, r.WithContext(IntoContext(r.Context(), l)))
		})
	}
}

// HTTPEnd logs request completion. 4xx is a warning and 5xx an error.
func (l *Logger) HTTPEnd(ctx context.Context, r *http.Request, status int, durationMs int64, clientIP string) {
	level := slog.LevelInfo
	switch {
	case status >= 500:
		level = slog.LevelError
	case status >= 400:
		level = slog.LevelWarn
	}
	f := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.UserAgent()).
		WithHTTPResponse(status, durationMs).
		WithClientIP(clientIP)
	l.LogContext(ctx, level, "HTTP request completed", f.Args()...)
}

// ReportComputed logs a successful summary.
func (l *Logger) ReportComputed(ctx context.Context, r *core.Report) {
	f := NewFields().WithOperation(OpSummarize).WithReport(r)
	l.InfoContext(ctx, "Report computed", f.Args()...)
}

// Failure logs err with its operation and extra fields.
func (l *Logger) Failure(ctx context.Context, msg, op string, err error, extra Fields) {
	if extra == nil {
		extra = NewFields()
	}
	extra.WithOperation(op).WithError(err)
	l.ErrorContext(ctx, msg, extra.Args()...)
}
