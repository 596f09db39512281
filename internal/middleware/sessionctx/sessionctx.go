// Package sessionctx implements the session and auth-guard stages of the
// origin pipeline.
package sessionctx

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/siteway/siteway/internal/logging"
	"github.com/siteway/siteway/internal/middleware"
	"github.com/siteway/siteway/internal/session"
)

type sessionKey struct{}
type userKey struct{}

// FromContext retrieves the validated session, nil when anonymous.
func FromContext(ctx context.Context) *session.Session {
	s, _ := ctx.Value(sessionKey{}).(*session.Session)
	return s
}

// UserFromContext retrieves the authenticated user, nil when anonymous.
func UserFromContext(ctx context.Context) *session.User {
	u, _ := ctx.Value(userKey{}).(*session.User)
	return u
}

// Validator validates a raw session token. *session.Client implements it.
type Validator interface {
	Validate(ctx context.Context, token string) (*session.Session, error)
}

// Session establishes a validated session from the request cookie. Every
// failure (missing cookie, forged or expired token, auth service
// unreachable) degrades to anonymous; this stage never errors a request.
func Session(validator Validator, cookieName string) middleware.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			sess, err := validator.Validate(r.Context(), cookie.Value)
			if err != nil {
				logging.Debug("session validation failed, continuing anonymous",
					zap.String("path", r.URL.Path),
					zap.Error(err),
				)
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey{}, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AuthGuard propagates the session's identity into the request context.
// It never redirects; whether an anonymous request may proceed is a page
// handler decision.
func AuthGuard() middleware.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := FromContext(r.Context())
			if sess == nil || sess.User == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), userKey{}, sess.User)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
