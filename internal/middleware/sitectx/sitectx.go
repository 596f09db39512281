// Package sitectx implements the tenant-resolution stage of the origin
// pipeline.
package sitectx

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	httperrors "github.com/siteway/siteway/internal/errors"
	"github.com/siteway/siteway/internal/hostname"
	"github.com/siteway/siteway/internal/logging"
	"github.com/siteway/siteway/internal/metrics"
	"github.com/siteway/siteway/internal/middleware"
	"github.com/siteway/siteway/internal/resolver"
	"github.com/siteway/siteway/internal/site"
)

type siteKey struct{}
type classificationKey struct{}

// FromContext retrieves the resolved site. Nil means main-domain traffic
// or an unresolved host, which handlers on tenant paths surface as 404.
func FromContext(ctx context.Context) *site.Site {
	s, _ := ctx.Value(siteKey{}).(*site.Site)
	return s
}

// ClassificationFromContext retrieves the request's host classification.
func ClassificationFromContext(ctx context.Context) hostname.Classification {
	c, _ := ctx.Value(classificationKey{}).(hostname.Classification)
	return c
}

// Resolve classifies the effective host (the edge gateway's forwarded host
// wins over the directly observed one) and attaches the site lookup result
// to the request context.
//
// An absent site is a normal outcome and flows through as a nil site. A
// store failure is not: misreporting a real tenant as nonexistent is worse
// than failing the request, so it is surfaced as a 500.
func Resolve(res *resolver.Resolver, baseDomain string) middleware.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c := hostname.Classify(hostname.EffectiveHost(r), baseDomain)
			metrics.HostClassifications.WithLabelValues(c.Kind.String()).Inc()
			ctx := context.WithValue(r.Context(), classificationKey{}, c)

			s, err := res.Resolve(ctx, c)
			switch {
			case err == nil:
				if s != nil {
					ctx = context.WithValue(ctx, siteKey{}, s)
				}
			case errors.Is(err, site.ErrSiteNotFound):
				logging.Debug("no active site for host",
					zap.String("host", hostname.EffectiveHost(r)),
					zap.String("kind", c.Kind.String()),
				)
			default:
				logging.Error("site store lookup failed",
					zap.String("host", hostname.EffectiveHost(r)),
					zap.Error(err),
				)
				httperrors.ErrInternalServer.WithDetails("site lookup failed").WriteJSON(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
