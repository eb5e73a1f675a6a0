package middleware

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"forum/pkg/common"
	"forum/pkg/logger"
)

type traceKey string

const TraceKey traceKey = "traceId"

type Logging struct {
	log *zap.SugaredLogger
}

func NewLoggingMiddleware(log *zap.SugaredLogger) *Logging {
	return &Logging{log: log}
}

// SetupTracing assigns every request a trace id.
func (l *Logging) SetupTracing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), TraceKey, common.NewID())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SetupLogging binds a trace-scoped logger into the context so handlers can
// use logger.Log(ctx).
func (l *Logging) SetupLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID, _ := r.Context().Value(TraceKey).(string)
		reqLogger := l.log.With("trace_id", traceID)
		next.ServeHTTP(w, r.WithContext(logger.WithLogger(r.Context(), reqLogger)))
	})
}

func (l *Logging) AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Log(r.Context()).Infow("request handled",
			"method", r.Method,
			"url", r.URL.Path,
			"took", time.Since(start),
		)
	})
}
