package instrument

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
)

// SentryConfig configures error reporting.
type SentryConfig struct {
	DSN         string
	Environment string
	Release     string
	SampleRate  float64
}

// InitSentry initialises the global Sentry client. An empty DSN disables
// reporting; the returned flush function is always safe to call.
func InitSentry(cfg SentryConfig) (func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return func() {}, nil
	}

	rate := cfg.SampleRate
	if rate <= 0 || rate > 1 {
		rate = 1
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		AttachStacktrace: true,
		SampleRate:       rate,
	})
	if err != nil {
		return nil, err
	}

	return func() { sentry.Flush(2 * time.Second) }, nil
}

// CaptureError reports err to Sentry tagged with the correlation id in ctx.
// It is a no-op when Sentry has not been initialised.
func CaptureError(ctx context.Context, err error, kv ...string) {
	if err == nil {
		return
	}

	hub := sentry.CurrentHub()
	if hub.Client() == nil {
		return
	}

	hub.WithScope(func(scope *sentry.Scope) {
		if cID := GetCorrelationID(ctx); cID != "" {
			scope.SetTag("correlation_id", cID)
		}
		for i := 0; i+1 < len(kv); i += 2 {
			scope.SetExtra(kv[i], kv[i+1])
		}
		hub.CaptureException(err)
	})

	slog.DebugContext(ctx, "error reported to sentry", "error", err)
}
