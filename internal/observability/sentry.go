package observability

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/tradeforge-io/signal-engine-go/internal/config"
)

// SpanOperation constants for consistent span naming
const (
	SpanOpHTTPServer       = "http.server"
	SpanOpDBQuery          = "db.query"
	SpanOpCacheGet         = "cache.get"
	SpanOpCacheSet         = "cache.set"
	SpanOpSignalEvaluation = "signal.evaluation"
	SpanOpSignalDecision   = "signal.decision"
	SpanOpMarketContext    = "market.context"
	SpanOpNotification     = "notification.send"
	SpanOpExternalAPI      = "external.api"
)

// InitSentry configures the Sentry SDK using application config.
//
// Parameters:
//
//	cfg: Sentry configuration.
//	release: Release version.
//	environment: Deployment environment.
//
// Returns:
//
//	error: Error if initialization fails.
func InitSentry(cfg config.SentryConfig, release string, environment string) error {
	if cfg.DSN == "" {
		return nil
	}

	return sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      environment,
		Release:          release,
		EnableTracing:    cfg.TracesSampleRate > 0,
		TracesSampleRate: cfg.TracesSampleRate,
		AttachStacktrace: true,
		BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			event.Tags["go_version"] = runtime.Version()
			event.Tags["go_os"] = runtime.GOOS
			event.Tags["go_arch"] = runtime.GOARCH
			return event
		},
	})
}

// Flush drains buffered Sentry events within the provided context deadline.
func Flush(ctx context.Context) {
	timeout := 2 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout < 0 {
			timeout = 0
		}
	}
	sentry.Flush(timeout)
}

// CaptureException sends an exception to Sentry. It uses the hub from the
// context if available, otherwise the global hub.
func CaptureException(ctx context.Context, err error) {
	if err == nil {
		return
	}
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.CaptureException(err)
		return
	}
	sentry.CaptureException(err)
}

// CaptureExceptionWithTags sends an exception to Sentry with additional tags.
func CaptureExceptionWithTags(ctx context.Context, err error, tags map[string]string) {
	if err == nil {
		return
	}

	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub().Clone()
	}

	hub.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		hub.CaptureException(err)
	})
}

// StartSpan creates a new Sentry span for tracing.
//
// Parameters:
//
//	ctx: Parent context.
//	operation: Span operation name.
//	description: Human-readable description.
//
// Returns:
//
//	context.Context: Context with the span attached.
//	*sentry.Span: The created span (must be finished with FinishSpan).
func StartSpan(ctx context.Context, operation string, description string) (context.Context, *sentry.Span) {
	span := sentry.StartSpan(ctx, operation)
	span.Description = description
	return span.Context(), span
}

// StartSpanWithTags creates a new Sentry span with tags.
func StartSpanWithTags(ctx context.Context, operation string, description string, tags map[string]string) (context.Context, *sentry.Span) {
	span := sentry.StartSpan(ctx, operation)
	span.Description = description
	for k, v := range tags {
		span.SetTag(k, v)
	}
	return span.Context(), span
}

// FinishSpan completes a span and optionally records an error.
func FinishSpan(span *sentry.Span, err error) {
	if span == nil {
		return
	}

	if err != nil {
		span.Status = sentry.SpanStatusInternalError
		span.SetTag("error", "true")
		span.SetData("error.message", err.Error())
	} else {
		span.Status = sentry.SpanStatusOK
	}

	span.Finish()
}

// AddBreadcrumb adds a breadcrumb to the current scope for debugging.
func AddBreadcrumb(ctx context.Context, category string, message string, level sentry.Level) {
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}

	hub.AddBreadcrumb(&sentry.Breadcrumb{
		Category:  category,
		Message:   message,
		Level:     level,
		Timestamp: time.Now(),
	}, nil)
}

// CapturePanic reports a recovered panic value to Sentry and returns it as
// an error. Unlike a re-panicking recovery helper, the caller decides how
// to degrade.
func CapturePanic(ctx context.Context, operation string, recovered interface{}) error {
	err := fmt.Errorf("panic in %s: %v", operation, recovered)

	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}

	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("panic", "true")
		scope.SetTag("operation", operation)
		scope.SetLevel(sentry.LevelFatal)
		hub.CaptureException(err)
	})

	return err
}

// TraceDBQuery creates a span for database queries.
func TraceDBQuery(ctx context.Context, operation string, table string) (context.Context, *sentry.Span) {
	description := fmt.Sprintf("%s %s", operation, table)
	spanCtx, span := StartSpan(ctx, SpanOpDBQuery, description)
	span.SetTag("db.operation", operation)
	span.SetTag("db.table", table)
	return spanCtx, span
}
