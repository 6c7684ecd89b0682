package logging

import (
	"context"

	"go.uber.org/zap"
)

// zapLogger adapts a *zap.SugaredLogger to the Logger interface.
type zapLogger struct {
	l *zap.SugaredLogger
}

// NewZap constructs a Logger backed by the given zap logger. Pass
// zap.NewProduction() or zap.NewDevelopment() depending on deployment mode.
func NewZap(z *zap.Logger) Logger {
	return &zapLogger{l: z.Sugar()}
}

func (z *zapLogger) Debug(_ context.Context, msg string, keyvals ...any) { z.l.Debugw(msg, keyvals...) }
func (z *zapLogger) Info(_ context.Context, msg string, keyvals ...any)  { z.l.Infow(msg, keyvals...) }
func (z *zapLogger) Warn(_ context.Context, msg string, keyvals ...any)  { z.l.Warnw(msg, keyvals...) }
func (z *zapLogger) Error(_ context.Context, msg string, keyvals ...any) { z.l.Errorw(msg, keyvals...) }

func (z *zapLogger) With(keyvals ...any) Logger {
	return &zapLogger{l: z.l.With(keyvals...)}
}
