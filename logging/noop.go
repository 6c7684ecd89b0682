package logging

import "context"

// noopLogger discards every log message. Useful in tests and for callers
// that have not configured a logger.
type noopLogger struct{}

// NewNoop constructs a Logger that discards all log messages.
func NewNoop() Logger { return noopLogger{} }

func (noopLogger) Debug(context.Context, string, ...any) {}
func (noopLogger) Info(context.Context, string, ...any)  {}
func (noopLogger) Warn(context.Context, string, ...any)  {}
func (noopLogger) Error(context.Context, string, ...any) {}
func (noopLogger) With(...any) Logger                    { return noopLogger{} }
