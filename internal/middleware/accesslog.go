// Package middleware holds small, composable HTTP wrappers.
package middleware

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/gitconf/internal/requestinfo"
)

// statusRecorder captures the response status code for logging, since
// http.ResponseWriter does not expose what was actually written.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// AccessLog wraps h, attaching a requestinfo.RequestInfo (parsed User-Agent,
// method, path, timestamp) to the request context and emitting one
// structured log line per request once h returns.
func AccessLog(log *zap.Logger, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info := requestinfo.FromRequest(r)
		ctx := requestinfo.WithContext(r.Context(), info)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		h.ServeHTTP(rec, r.WithContext(ctx))

		log.Info("request",
			zap.String("method", info.Method),
			zap.String("path", info.Path),
			zap.Int("status", rec.status),
			zap.String("browser", info.UA.Browser),
			zap.String("os", info.UA.OS),
			zap.String("device", info.UA.Device),
			zap.Bool("bot", info.UA.IsBot),
			zap.Duration("latency", time.Since(info.Timestamp)),
		)
	})
}
