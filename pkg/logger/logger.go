package logger

import (
	"context"
	"log"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type loggerKey string

// LoggerKey is the context key under which the request-scoped logger lives.
const LoggerKey loggerKey = "logger"

var fallback *zap.SugaredLogger

func init() {
	l, err := zap.NewProduction()
	if err != nil {
		log.Fatalln("logger: can't build fallback zap logger:", err)
	}
	fallback = l.Sugar()
}

// Run builds the application logger with the given level ("debug", "info",
// "warn", "error"). Unknown levels fall back to info.
func Run(level string) *zap.SugaredLogger {
	cfg := zap.NewProductionConfig()
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	l, err := cfg.Build()
	if err != nil {
		log.Fatalln("logger: can't build zap logger:", err)
	}
	return l.Sugar()
}

// WithLogger stores a request-scoped logger in the context.
func WithLogger(ctx context.Context, l *zap.SugaredLogger) context.Context {
	return context.WithValue(ctx, LoggerKey, l)
}

// Log returns the logger bound to the context or the process-wide fallback.
func Log(ctx context.Context) *zap.SugaredLogger {
	if l, ok := ctx.Value(LoggerKey).(*zap.SugaredLogger); ok && l != nil {
		return l
	}
	return fallback
}
