package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/ayush/user-auth-service/internal/logging"
)

// RequestLogger logs one line per request once it completes.
func RequestLogger(logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			args := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
			}
			if id := chimw.GetReqID(r.Context()); id != "" {
				args = append(args, "request_id", id)
			}

			switch {
			case status >= http.StatusInternalServerError:
				logger.Error(r.Context(), "request completed", args...)
			case status >= http.StatusBadRequest:
				logger.Warn(r.Context(), "request completed", args...)
			default:
				logger.Info(r.Context(), "request completed", args...)
			}
		})
	}
}
