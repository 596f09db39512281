package origin

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"

	httperrors "github.com/siteway/siteway/internal/errors"
	"github.com/siteway/siteway/internal/middleware/sessionctx"
	"github.com/siteway/siteway/internal/site"
)

// sitesAPI is the thin CRUD surface over the site store. Format validation
// happens here, at the write boundary, so the resolver can assume stored
// subdomains and custom domains are well-formed and lowercase.
type sitesAPI struct {
	repo site.Repository
}

type siteRequest struct {
	Name         string `json:"name"`
	Subdomain    string `json:"subdomain"`
	CustomDomain string `json:"custom_domain"`
	Status       *int   `json:"status"`
}

func (a *sitesAPI) list(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if !requireUser(w, r) {
		return
	}

	sites, err := a.repo.List(r.Context())
	if err != nil {
		httperrors.ErrInternalServer.WithDetails("listing sites failed").WriteJSON(w)
		return
	}

	payload := make([]sitePayload, 0, len(sites))
	for _, s := range sites {
		payload = append(payload, toPayload(s))
	}
	writeJSON(w, http.StatusOK, map[string]any{"sites": payload})
}

func (a *sitesAPI) create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if !requireUser(w, r) {
		return
	}

	req, ok := decodeSiteRequest(w, r)
	if !ok {
		return
	}

	status := site.StatusActive
	if req.Status != nil {
		status = site.Status(*req.Status)
	}

	created, err := a.repo.Create(r.Context(), &site.Site{
		Name:         strings.TrimSpace(req.Name),
		Subdomain:    strings.ToLower(strings.TrimSpace(req.Subdomain)),
		CustomDomain: strings.TrimSpace(req.CustomDomain),
		Status:       status,
	})
	if err != nil {
		writeSiteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPayload(created))
}

func (a *sitesAPI) update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if !requireUser(w, r) {
		return
	}

	id, err := uuid.Parse(ps.ByName("id"))
	if err != nil {
		httperrors.ErrBadRequest.WithDetails("invalid site id").WriteJSON(w)
		return
	}

	req, ok := decodeSiteRequest(w, r)
	if !ok {
		return
	}

	existing, err := a.repo.GetByID(r.Context(), id)
	if err != nil {
		writeSiteError(w, err)
		return
	}

	existing.Name = strings.TrimSpace(req.Name)
	existing.Subdomain = strings.ToLower(strings.TrimSpace(req.Subdomain))
	existing.CustomDomain = strings.TrimSpace(req.CustomDomain)
	if req.Status != nil {
		existing.Status = site.Status(*req.Status)
	}

	updated, err := a.repo.Update(r.Context(), existing)
	if err != nil {
		writeSiteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPayload(updated))
}

func (a *sitesAPI) remove(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if !requireUser(w, r) {
		return
	}

	id, err := uuid.Parse(ps.ByName("id"))
	if err != nil {
		httperrors.ErrBadRequest.WithDetails("invalid site id").WriteJSON(w)
		return
	}

	if err := a.repo.Delete(r.Context(), id); err != nil {
		writeSiteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// requireUser rejects anonymous requests. The session stage never fails a
// request on its own; the admin surface is where anonymity stops.
func requireUser(w http.ResponseWriter, r *http.Request) bool {
	if sessionctx.UserFromContext(r.Context()) == nil {
		httperrors.ErrUnauthorized.WriteJSON(w)
		return false
	}
	return true
}

func decodeSiteRequest(w http.ResponseWriter, r *http.Request) (*siteRequest, bool) {
	var req siteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.ErrBadRequest.WithDetails("invalid JSON body").WriteJSON(w)
		return nil, false
	}

	if strings.TrimSpace(req.Name) == "" {
		httperrors.ErrBadRequest.WithDetails("site name is required").WriteJSON(w)
		return nil, false
	}
	if err := site.ValidateSubdomain(strings.ToLower(strings.TrimSpace(req.Subdomain))); err != nil {
		httperrors.ErrBadRequest.WithDetails(err.Error()).WriteJSON(w)
		return nil, false
	}
	if err := site.ValidateCustomDomain(strings.TrimSpace(req.CustomDomain)); err != nil {
		httperrors.ErrBadRequest.WithDetails(err.Error()).WriteJSON(w)
		return nil, false
	}
	return &req, true
}

func writeSiteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, site.ErrSiteNotFound):
		httperrors.ErrNotFound.WithDetails("site not found").WriteJSON(w)
	case errors.Is(err, site.ErrSubdomainTaken):
		httperrors.ErrConflict.WithDetails("subdomain already in use").WriteJSON(w)
	case errors.Is(err, site.ErrCustomDomainTaken):
		httperrors.ErrConflict.WithDetails("custom domain already in use").WriteJSON(w)
	default:
		httperrors.ErrInternalServer.WithDetails("site store error").WriteJSON(w)
	}
}

func toPayload(s *site.Site) sitePayload {
	return sitePayload{
		ID:           s.ID.String(),
		Reference:    s.Reference,
		Name:         s.Name,
		Subdomain:    s.Subdomain,
		CustomDomain: s.CustomDomain,
		Status:       int(s.Status),
		CreatedAt:    s.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    s.UpdatedAt.Format(time.RFC3339),
	}
}
