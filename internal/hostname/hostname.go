// Package hostname classifies inbound request hosts against the base
// application domain and rewrites tenant-site paths into the internal
// routing namespace.
//
// The edge gateway and the origin server both link this package; the
// classification semantics must never diverge between the two, so keep it
// pure and dependency-free.
package hostname

import (
	"net/http"
	"strings"
)

// Kind is the category of an inbound host relative to the base domain.
type Kind int

const (
	// KindMain is the bare base domain.
	KindMain Kind = iota
	// KindWWW is the www alias of the base domain. Treated the same as
	// KindMain downstream: no tenant.
	KindWWW
	// KindSubdomain is a tenant subdomain under the base domain.
	KindSubdomain
	// KindForeign is any host outside the base domain. Custom tenant
	// domains land here and are separated from unrelated hosts by the
	// resolver's lookup result, not by classification.
	KindForeign
)

func (k Kind) String() string {
	switch k {
	case KindMain:
		return "main"
	case KindWWW:
		return "www"
	case KindSubdomain:
		return "subdomain"
	case KindForeign:
		return "foreign"
	}
	return "unknown"
}

// Classification is the result of classifying one request host.
type Classification struct {
	Kind Kind
	// Label is the subdomain token for KindSubdomain, empty otherwise.
	Label string
	// Host is the port-stripped host for KindForeign, empty otherwise.
	Host string
}

// HasTenant reports whether the classification denotes tenant-site traffic.
func (c Classification) HasTenant() bool {
	return c.Kind == KindSubdomain || c.Kind == KindForeign
}

// Classify categorizes host against baseDomain. It is total: every input
// maps to exactly one classification and there are no error cases.
// Ports are ignored on both sides of the comparison.
func Classify(host, baseDomain string) Classification {
	h := stripPort(host)
	base := stripPort(baseDomain)

	if !strings.HasSuffix(h, base) {
		return Classification{Kind: KindForeign, Host: h}
	}

	// Everything before the separating dot. Both runtime contexts must
	// compute this identically, so the slice arithmetic stays exactly as
	// written here.
	var label string
	if len(h) > len(base) {
		label = h[:len(h)-len(base)-1]
	}

	switch label {
	case "":
		return Classification{Kind: KindMain}
	case "www":
		return Classification{Kind: KindWWW}
	}
	return Classification{Kind: KindSubdomain, Label: label}
}

// Rewrite maps the externally visible path onto the internal routing path.
// Tenant traffic is namespaced under /site; main-domain traffic passes
// through unchanged. Callers apply it exactly once per request, at the
// dispatch boundary.
func Rewrite(c Classification, path string) string {
	if !c.HasTenant() {
		return path
	}
	if path == "/" {
		return "/site"
	}
	return "/site" + path
}

// EffectiveHost returns the client-facing host for a request: the
// X-Forwarded-Host header when an intermediary (the edge gateway) set one,
// otherwise the Host the request arrived with.
func EffectiveHost(r *http.Request) string {
	if fh := r.Header.Get("X-Forwarded-Host"); fh != "" {
		return fh
	}
	return r.Host
}

// stripPort drops a trailing :port. Unlike net.SplitHostPort it never
// rejects input; a host with no port is returned as-is.
func stripPort(host string) string {
	if i := strings.LastIndexByte(host, ':'); i >= 0 && !strings.Contains(host[i:], "]") {
		return host[:i]
	}
	return host
}
