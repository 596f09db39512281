package origin

import (
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"

	httperrors "github.com/siteway/siteway/internal/errors"
	"github.com/siteway/siteway/internal/middleware/sitectx"
)

// sitePayload is the JSON shape of a resolved site, shared by the site
// handler and the admin API.
type sitePayload struct {
	ID           string `json:"id"`
	Reference    int64  `json:"reference"`
	Name         string `json:"name"`
	Subdomain    string `json:"subdomain"`
	CustomDomain string `json:"custom_domain,omitempty"`
	Status       int    `json:"status"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

func serveSiteRoot(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	serveSite(w, r, "")
}

func serveSitePath(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	serveSite(w, r, strings.TrimPrefix(ps.ByName("path"), "/"))
}

// serveSite renders the tenant-site document. A request only reaches a
// /site path through the rewrite, so a nil site here means the subdomain
// or custom domain did not resolve: that surfaces as 404, not earlier in
// the routing core.
func serveSite(w http.ResponseWriter, r *http.Request, path string) {
	s := sitectx.FromContext(r.Context())
	if s == nil {
		httperrors.ErrNotFound.WithDetails("site not found").WriteJSON(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"site": toPayload(s),
		"path": path,
	})
}
