// Package origin assembles the origin-side request pipeline and handlers.
package origin

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/siteway/siteway/internal/config"
	"github.com/siteway/siteway/internal/hostname"
	"github.com/siteway/siteway/internal/middleware"
	"github.com/siteway/siteway/internal/middleware/sessionctx"
	"github.com/siteway/siteway/internal/middleware/sitectx"
	"github.com/siteway/siteway/internal/resolver"
	"github.com/siteway/siteway/internal/site"
)

// Server is the origin HTTP entry point: the middleware pipeline in front
// of the internal router.
//
// Stage order is load-bearing: the session stage must precede site
// resolution, and the path rewrite happens exactly once, at the dispatch
// boundary after resolution.
type Server struct {
	handler http.Handler
}

// New assembles the origin server.
func New(cfg *config.OriginConfig, repo site.Repository, validator sessionctx.Validator) *Server {
	router := httprouter.New()

	sites := &sitesAPI{repo: repo}
	router.GET("/api/sites", sites.list)
	router.POST("/api/sites", sites.create)
	router.PUT("/api/sites/:id", sites.update)
	router.DELETE("/api/sites/:id", sites.remove)

	router.GET("/site", serveSiteRoot)
	router.GET("/site/*path", serveSitePath)

	router.GET("/healthz", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	router.GET("/", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		writeJSON(w, http.StatusOK, map[string]string{"app": "siteway"})
	})

	chain := middleware.NewChain(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.AccessLog(),
		sessionctx.Session(validator, cfg.Auth.CookieName),
		sessionctx.AuthGuard(),
		sitectx.Resolve(resolver.New(repo), cfg.BaseDomain),
	)

	return &Server{handler: chain.Then(dispatch(router))}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// dispatch applies the internal path rewrite and hands off to the router.
// Tenant traffic is namespaced under /site here and nowhere else; the URL
// the client sees never changes.
func dispatch(router http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := sitectx.ClassificationFromContext(r.Context())
		internalPath := hostname.Rewrite(c, r.URL.Path)
		if internalPath == r.URL.Path {
			router.ServeHTTP(w, r)
			return
		}

		r2 := new(http.Request)
		*r2 = *r
		u2 := *r.URL
		u2.Path = internalPath
		r2.URL = &u2
		router.ServeHTTP(w, r2)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
