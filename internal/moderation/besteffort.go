package moderation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
)

// bestEffort records a failed side effect without failing the operation.
func bestEffort(ctx context.Context, action string, err error, attrs ...any) {
	if err == nil {
		return
	}
	args := append([]any{"action", action, "error", err.Error()}, attrs...)
	slog.ErrorContext(ctx, "moderation side effect failed", args...)

	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.CaptureException(fmt.Errorf("%s: %w", action, err))
}

type options struct {
	now func() time.Time
}

// Option configures Reports and Engine.
type Option func(*options)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
