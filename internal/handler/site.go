package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/pkordes/dive-logbook/internal/domain"
)

// searchSites handles POST /sites/search. The JSON object in the body is
// forwarded to the directory as query parameters and the directory's JSON
// answer is returned unchanged, e.g.
//
//	{"mode": "search", "str": "pinnacle"}
//	{"mode": "sites", "lat": 32, "lng": -117, "dist": 100}
func (s *Server) searchSites(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeMessage(w, r, http.StatusBadRequest, "Request body could not be read.")
		return
	}
	var params map[string]any
	if err := json.Unmarshal(raw, &params); err != nil || params == nil {
		s.writeMessage(w, r, http.StatusBadRequest, "Request body must be a JSON object.")
		return
	}

	body, err := s.sites.Search(r.Context(), params)
	if err != nil {
		s.serverErrorJSON(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// siteDetail is the data of the site detail page.
type siteDetail struct {
	Site domain.DiveSite
}

// showSite handles GET /sites/{id}. An unseen site is fetched from the
// directory and cached before it is shown.
func (s *Server) showSite(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.notFound(w, r)
		return
	}

	site, err := s.sites.Show(r.Context(), id)
	if errors.Is(err, domain.ErrNotFound) {
		s.notFound(w, r)
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, pageSiteDetail, pageData{Data: siteDetail{Site: site}})
}
