package sitectx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/siteway/siteway/internal/hostname"
	"github.com/siteway/siteway/internal/resolver"
	"github.com/siteway/siteway/internal/site"
)

type stubRepo struct {
	bySubdomain map[string]*site.Site
	byDomain    map[string]*site.Site
	err         error
}

func (r *stubRepo) GetByID(ctx context.Context, id uuid.UUID) (*site.Site, error) {
	return nil, site.ErrSiteNotFound
}

func (r *stubRepo) GetBySubdomain(ctx context.Context, subdomain string) (*site.Site, error) {
	if r.err != nil {
		return nil, r.err
	}
	if s, ok := r.bySubdomain[subdomain]; ok {
		return s, nil
	}
	return nil, site.ErrSiteNotFound
}

func (r *stubRepo) GetByCustomDomain(ctx context.Context, domain string) (*site.Site, error) {
	if r.err != nil {
		return nil, r.err
	}
	if s, ok := r.byDomain[domain]; ok {
		return s, nil
	}
	return nil, site.ErrSiteNotFound
}

func (r *stubRepo) Create(ctx context.Context, s *site.Site) (*site.Site, error) { return s, nil }
func (r *stubRepo) Update(ctx context.Context, s *site.Site) (*site.Site, error) { return s, nil }
func (r *stubRepo) Delete(ctx context.Context, id uuid.UUID) error               { return nil }
func (r *stubRepo) List(ctx context.Context) ([]*site.Site, error)               { return nil, nil }

func activeSite(subdomain string) *site.Site {
	return &site.Site{
		ID:        uuid.New(),
		Name:      subdomain,
		Subdomain: subdomain,
		Status:    site.StatusActive,
	}
}

func serveResolve(t *testing.T, repo site.Repository, req *http.Request) (*httptest.ResponseRecorder, *site.Site, hostname.Classification) {
	t.Helper()
	var gotSite *site.Site
	var gotClass hostname.Classification
	h := Resolve(resolver.New(repo), "lvh.me")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSite = FromContext(r.Context())
		gotClass = ClassificationFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w, gotSite, gotClass
}

func TestResolveSubdomainHost(t *testing.T) {
	repo := &stubRepo{bySubdomain: map[string]*site.Site{"site1": activeSite("site1")}}
	req := httptest.NewRequest(http.MethodGet, "http://site1.lvh.me/", nil)

	w, s, c := serveResolve(t, repo, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if s == nil || s.Subdomain != "site1" {
		t.Errorf("site = %+v, want site1", s)
	}
	if c.Kind != hostname.KindSubdomain {
		t.Errorf("kind = %v, want subdomain", c.Kind)
	}
}

func TestResolvePrefersForwardedHost(t *testing.T) {
	repo := &stubRepo{bySubdomain: map[string]*site.Site{"site1": activeSite("site1")}}

	// The direct host is the internal origin address; the edge gateway
	// forwards the client-facing one.
	req := httptest.NewRequest(http.MethodGet, "http://origin.internal:8080/", nil)
	req.Header.Set("X-Forwarded-Host", "site1.lvh.me")

	_, s, c := serveResolve(t, repo, req)
	if s == nil || s.Subdomain != "site1" {
		t.Errorf("site = %+v, want site1 resolved from forwarded host", s)
	}
	if c.Kind != hostname.KindSubdomain || c.Label != "site1" {
		t.Errorf("classification = %+v, want subdomain site1", c)
	}
}

func TestResolveCustomDomain(t *testing.T) {
	s1 := activeSite("billing")
	s1.CustomDomain = "billing.example.com"
	repo := &stubRepo{byDomain: map[string]*site.Site{"billing.example.com": s1}}
	req := httptest.NewRequest(http.MethodGet, "http://billing.example.com/", nil)

	_, s, _ := serveResolve(t, repo, req)
	if s == nil || s.CustomDomain != "billing.example.com" {
		t.Errorf("site = %+v, want custom-domain site", s)
	}
}

func TestResolveUnknownHostFlowsThrough(t *testing.T) {
	repo := &stubRepo{}
	req := httptest.NewRequest(http.MethodGet, "http://ghost.lvh.me/", nil)

	w, s, _ := serveResolve(t, repo, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: unknown host is not an error here", w.Code)
	}
	if s != nil {
		t.Errorf("site = %+v, want nil", s)
	}
}

func TestResolveMainDomainSkipsLookup(t *testing.T) {
	repo := &stubRepo{err: errors.New("must not be called")}
	req := httptest.NewRequest(http.MethodGet, "http://lvh.me/", nil)

	w, s, c := serveResolve(t, repo, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if s != nil {
		t.Error("main-domain traffic must not resolve a site")
	}
	if c.Kind != hostname.KindMain {
		t.Errorf("kind = %v, want main", c.Kind)
	}
}

func TestResolveStoreFailureIs500(t *testing.T) {
	repo := &stubRepo{err: errors.New("connection refused")}
	req := httptest.NewRequest(http.MethodGet, "http://site1.lvh.me/", nil)

	w, _, _ := serveResolve(t, repo, req)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500: a store failure must not read as not-found", w.Code)
	}
}
