// Package logger holds the process-wide zap logger and the HTTP request
// logging middleware.
package logger

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Log is the global SugaredLogger. It discards everything until Init is called.
var Log = zap.NewNop().Sugar()

// Init builds a development logger at the given level ("debug", "info", ...).
func Init(level string) error {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return err
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = lvl
	zl, err := cfg.Build()
	if err != nil {
		return err
	}
	Log = zl.Sugar()

	return nil
}

// Sync flushes any buffered log entries.
func Sync() error {
	if err := Log.Sync(); err != nil && !errors.Is(err, os.ErrInvalid) {
		return err
	}

	return nil
}

// requestLog collects what handlers learn about a request while serving it.
type requestLog struct {
	status int
	size   int
	userID string
}

type requestLogKey struct{}

// AnnotateUserID adds the authenticated user to the request's log line.
// Outside of WithLoggingHTTPMiddleware it does nothing.
func AnnotateUserID(ctx context.Context, userID string) {
	if entry, ok := ctx.Value(requestLogKey{}).(*requestLog); ok {
		entry.userID = userID
	}
}

type statusRecorder struct {
	http.ResponseWriter
	entry *requestLog
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	if r.entry.status == 0 {
		r.entry.status = statusCode
	}
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.entry.status == 0 {
		r.entry.status = http.StatusOK
	}
	size, err := r.ResponseWriter.Write(b)
	r.entry.size += size

	return size, err
}

// WithLoggingHTTPMiddleware writes one line per request. Server errors are
// logged at warn level, everything else at info.
func WithLoggingHTTPMiddleware(h http.Handler) http.Handler {
	logFn := func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		entry := &requestLog{}

		ctx := context.WithValue(r.Context(), requestLogKey{}, entry)
		h.ServeHTTP(&statusRecorder{ResponseWriter: w, entry: entry}, r.WithContext(ctx))

		if entry.status == 0 {
			entry.status = http.StatusOK
		}

		fields := []interface{}{
			"uri", r.RequestURI,
			"method", r.Method,
			"status", entry.status,
			"duration", time.Since(start),
			"size", entry.size,
		}
		if requestID := middleware.GetReqID(r.Context()); requestID != "" {
			fields = append(fields, "request_id", requestID)
		}
		if entry.userID != "" {
			fields = append(fields, "user_id", entry.userID)
		}

		if entry.status >= http.StatusInternalServerError {
			Log.Warnw("request served", fields...)
			return
		}
		Log.Infow("request served", fields...)
	}

	return http.HandlerFunc(logFn)
}
