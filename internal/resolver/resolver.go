// Package resolver maps a host classification to an active site record.
package resolver

import (
	"context"
	"errors"

	"github.com/siteway/siteway/internal/hostname"
	"github.com/siteway/siteway/internal/metrics"
	"github.com/siteway/siteway/internal/site"
)

// Resolver performs one store lookup per resolvable request. It carries no
// cache of its own: response caching lives entirely at the edge tier, which
// keeps resolution always consistent with the store.
type Resolver struct {
	repo site.Repository
}

func New(repo site.Repository) *Resolver {
	return &Resolver{repo: repo}
}

// Resolve returns the active site for a classification.
//
//   - Main-domain and www traffic never touches the store; the result is
//     (nil, nil).
//   - An absent or inactive site returns site.ErrSiteNotFound.
//   - A store failure propagates as-is; callers must not conflate it with
//     an absent site.
func (r *Resolver) Resolve(ctx context.Context, c hostname.Classification) (*site.Site, error) {
	var (
		s   *site.Site
		err error
	)

	switch c.Kind {
	case hostname.KindSubdomain:
		s, err = r.repo.GetBySubdomain(ctx, c.Label)
	case hostname.KindForeign:
		s, err = r.repo.GetByCustomDomain(ctx, c.Host)
	default:
		metrics.ResolverOutcomes.WithLabelValues("skipped").Inc()
		return nil, nil
	}

	switch {
	case err == nil:
		metrics.ResolverOutcomes.WithLabelValues("resolved").Inc()
		return s, nil
	case errors.Is(err, site.ErrSiteNotFound):
		metrics.ResolverOutcomes.WithLabelValues("not_found").Inc()
		return nil, site.ErrSiteNotFound
	default:
		metrics.ResolverOutcomes.WithLabelValues("error").Inc()
		return nil, err
	}
}
