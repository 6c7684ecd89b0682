// Package logging defines the structured logging abstraction used across
// wct. It mirrors the engine/telemetry split the orchestration package
// depends on: callers program against the Logger interface and pick a
// concrete backend (zap-backed or no-op) at process startup.
package logging

import "context"

// Logger emits structured log messages with key-value pairs. Implementations
// must be safe for concurrent use.
type Logger interface {
	Debug(ctx context.Context, msg string, keyvals ...any)
	Info(ctx context.Context, msg string, keyvals ...any)
	Warn(ctx context.Context, msg string, keyvals ...any)
	Error(ctx context.Context, msg string, keyvals ...any)

	// With returns a Logger that prepends the given key-value pairs to every
	// subsequent call, without mutating the receiver.
	With(keyvals ...any) Logger
}
