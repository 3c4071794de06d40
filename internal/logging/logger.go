// Package logging defines the structured-logging contract used across the
// service. Components depend on the Logger interface, never on a concrete
// backend, so the handler can change without touching call sites.
package logging

import "context"

// Logger is a leveled, context-aware structured logger. The variadic args
// are key-value pairs:
//
//	log.Info(ctx, "sweep finished", "examined", n, "errors", errs)
type Logger interface {
	// Debug logs diagnostic detail, usually disabled in production.
	Debug(ctx context.Context, msg string, args ...any)

	// Info logs an informational message.
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs an unusual but non-fatal condition.
	Warn(ctx context.Context, msg string, args ...any)

	// Error logs a failure.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always carries the given key-value
	// pairs, typically a component name.
	With(args ...any) Logger
}
