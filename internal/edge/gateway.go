// Package edge implements the cache gateway that fronts the origin: it
// serves cache hits without touching the application, forwards everything
// else, and populates the cache off the response path.
package edge

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/siteway/siteway/internal/cache"
	"github.com/siteway/siteway/internal/config"
	httperrors "github.com/siteway/siteway/internal/errors"
	"github.com/siteway/siteway/internal/hostname"
	"github.com/siteway/siteway/internal/logging"
	"github.com/siteway/siteway/internal/metrics"
)

// maxCacheableBody bounds what a single cache entry may hold.
const maxCacheableBody = 1 << 20 // 1MB

// Policy is the part of the edge configuration that may rotate at runtime:
// the cache TTL and the bypass list.
type Policy struct {
	TTL            time.Duration
	BypassPrefixes []string
}

// Gateway is the reverse-proxy entry point. It is stateless except for the
// cache store and performs no tenant resolution of its own: it only
// classifies hosts for observability and forwards the client-facing host
// so the origin can resolve tenants itself.
type Gateway struct {
	store      cache.Store
	origin     *url.URL
	baseDomain string
	transport  http.RoundTripper
	policy     atomic.Pointer[Policy]

	// pending tracks in-flight asynchronous cache writes so shutdown can
	// drain them; the response path never waits on it.
	pending sync.WaitGroup
}

// New creates a gateway forwarding to origin.
func New(cfg *config.EdgeConfig, store cache.Store) (*Gateway, error) {
	origin, err := url.Parse(cfg.OriginURL)
	if err != nil {
		return nil, fmt.Errorf("invalid origin URL: %w", err)
	}
	if origin.Scheme == "" || origin.Host == "" {
		return nil, fmt.Errorf("origin URL %q must include scheme and host", cfg.OriginURL)
	}

	g := &Gateway{
		store:      store,
		origin:     origin,
		baseDomain: cfg.BaseDomain,
		// A bare transport: redirects from the origin pass through to the
		// client untouched instead of being followed here.
		transport: http.DefaultTransport,
	}
	g.SetPolicy(&Policy{
		TTL:            cfg.Cache.TTL(),
		BypassPrefixes: cfg.BypassPrefixes,
	})
	return g, nil
}

// SetPolicy atomically swaps the runtime policy. Used by config reload.
func (g *Gateway) SetPolicy(p *Policy) {
	g.policy.Store(p)
}

// Drain waits for in-flight cache writes to complete. Called during
// graceful shutdown, after the listener stops accepting requests.
func (g *Gateway) Drain() {
	g.pending.Wait()
}

func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c := hostname.Classify(r.Host, g.baseDomain)
	metrics.HostClassifications.WithLabelValues(c.Kind.String()).Inc()

	policy := g.policy.Load()

	// Only the exact retrieval method is cacheable. HEAD and everything
	// else goes straight to origin.
	if r.Method != http.MethodGet {
		metrics.CacheRequests.WithLabelValues("bypass").Inc()
		g.forward(w, r, "BYPASS")
		return
	}

	if bypassed(policy.BypassPrefixes, r.URL.Path) {
		metrics.CacheRequests.WithLabelValues("bypass").Inc()
		g.forward(w, r, "BYPASS")
		return
	}

	key := canonicalKey(r)

	// Entries carry their own expiry: store TTLs are fixed at boot, but
	// the policy TTL can shrink on reload, and a served entry must never
	// outlive what its Cache-Control promised.
	if entry, ok := g.store.Get(key); ok {
		if time.Now().After(entry.ExpiresAt) {
			g.store.Delete(key)
		} else {
			metrics.CacheRequests.WithLabelValues("hit").Inc()
			writeEntry(w, entry)
			return
		}
	}

	metrics.CacheRequests.WithLabelValues("miss").Inc()
	g.forwardAndStore(w, r, key, policy.TTL)
}

// forward proxies the request to origin and streams the response back
// without consulting or populating the cache.
func (g *Gateway) forward(w http.ResponseWriter, r *http.Request, cacheState string) {
	resp, err := g.roundTrip(r)
	if err != nil {
		g.writeUpstreamError(w, r, err)
		return
	}
	defer resp.Body.Close()

	copyHeaders(w.Header(), resp.Header)
	w.Header().Set("X-Cache", cacheState)
	w.WriteHeader(resp.StatusCode)
	copyBody(w, resp.Body)
}

// forwardAndStore proxies a cacheable miss. The response is returned to
// the client first; cache population happens in a detached goroutine so
// the client never waits on the write. Concurrent misses for one URL may
// each populate the cache; last writer wins, which is fine because
// identical origin responses make the write idempotent.
func (g *Gateway) forwardAndStore(w http.ResponseWriter, r *http.Request, key string, ttl time.Duration) {
	resp, err := g.roundTrip(r)
	if err != nil {
		g.writeUpstreamError(w, r, err)
		return
	}
	defer resp.Body.Close()

	body, overflow, err := readBody(resp.Body, maxCacheableBody)
	if err != nil {
		logging.Warn("reading origin response failed",
			zap.String("key", key),
			zap.Error(err),
		)
		httperrors.ErrBadGateway.WithDetails("reading origin response failed").WriteJSON(w)
		return
	}

	storable := resp.StatusCode == http.StatusOK && !overflow

	copyHeaders(w.Header(), resp.Header)
	w.Header().Set("X-Cache", "MISS")
	if storable {
		w.Header().Set("Cache-Control", cacheControl(ttl))
	}
	w.WriteHeader(resp.StatusCode)
	w.Write(body)
	if overflow {
		// The buffered prefix went out already; stream the remainder.
		copyBody(w, resp.Body)
	}

	if !storable {
		if overflow {
			metrics.CacheStores.WithLabelValues("too_large").Inc()
		} else {
			metrics.CacheStores.WithLabelValues("uncacheable_status").Inc()
		}
		return
	}

	headers := cloneHeaders(resp.Header)
	headers.Set("Cache-Control", cacheControl(ttl))
	now := time.Now()
	entry := &cache.Entry{
		StatusCode: resp.StatusCode,
		Headers:    headers,
		Body:       body,
		StoredAt:   now,
		ExpiresAt:  now.Add(ttl),
	}

	g.pending.Add(1)
	go func() {
		defer g.pending.Done()
		g.store.Set(key, entry)
		metrics.CacheStores.WithLabelValues("stored").Inc()
	}()
}

// roundTrip sends the request to origin with the client-facing host
// preserved in X-Forwarded-Host. The origin's own hostname must never
// reach tenant-resolution logic.
func (g *Gateway) roundTrip(r *http.Request) (*http.Response, error) {
	target := *g.origin
	target.Path = r.URL.Path
	target.RawQuery = r.URL.RawQuery

	proxyReq := (&http.Request{
		Method:        r.Method,
		URL:           &target,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Body:          r.Body,
		ContentLength: r.ContentLength,
		Host:          g.origin.Host,
	}).WithContext(r.Context())

	proxyReq.Header = make(http.Header, len(r.Header)+3)
	for k, vv := range r.Header {
		proxyReq.Header[k] = vv
	}
	removeHopHeaders(proxyReq.Header)

	proxyReq.Header.Set("X-Forwarded-Host", r.Host)
	proxyReq.Header.Set("X-Forwarded-Proto", requestScheme(r))
	if ip := clientIP(r); ip != "" {
		if prior := proxyReq.Header.Get("X-Forwarded-For"); prior != "" {
			proxyReq.Header.Set("X-Forwarded-For", prior+", "+ip)
		} else {
			proxyReq.Header.Set("X-Forwarded-For", ip)
		}
	}

	return g.transport.RoundTrip(proxyReq)
}

func (g *Gateway) writeUpstreamError(w http.ResponseWriter, r *http.Request, err error) {
	logging.Error("origin fetch failed",
		zap.String("host", r.Host),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	httperrors.ErrBadGateway.WithDetails("origin unreachable").WriteJSON(w)
}

func bypassed(prefixes []string, path string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// canonicalKey builds the cache key: the full canonical request URL. The
// host is part of the key so the same path on two tenant hosts can never
// collide, and the raw URL form keeps entries inspectable and
// prefix-addressable.
func canonicalKey(r *http.Request) string {
	var b strings.Builder
	b.WriteString(requestScheme(r))
	b.WriteString("://")
	b.WriteString(r.Host)
	b.WriteString(r.URL.Path)
	if r.URL.RawQuery != "" {
		b.WriteByte('?')
		b.WriteString(r.URL.RawQuery)
	}
	return b.String()
}

func cacheControl(ttl time.Duration) string {
	return fmt.Sprintf("public, max-age=%d", int(ttl.Seconds()))
}

func writeEntry(w http.ResponseWriter, entry *cache.Entry) {
	copyHeaders(w.Header(), entry.Headers)
	w.Header().Set("X-Cache", "HIT")
	w.WriteHeader(entry.StatusCode)
	w.Write(entry.Body)
}
