package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/siteway/siteway/internal/errors"
	"github.com/siteway/siteway/internal/logging"
)

// Recovery creates a panic recovery middleware.
func Recovery() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logging.Error("panic recovered",
						zap.Any("error", err),
						zap.String("path", r.URL.Path),
						zap.ByteString("stack", debug.Stack()),
					)

					httpErr := errors.ErrInternalServer.WithDetails(fmt.Sprintf("panic: %v", err))
					if reqID := w.Header().Get("X-Request-ID"); reqID != "" {
						httpErr = httpErr.WithRequestID(reqID)
					}
					httpErr.WriteJSON(w)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
