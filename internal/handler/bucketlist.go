package handler

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/pkordes/dive-logbook/internal/domain"
	"github.com/pkordes/dive-logbook/internal/validation"
)

// Bucket-list JSON messages.
const (
	msgBucketAdded     = "Site added to bucket list"
	msgBucketDuplicate = "This site is already in your bucket list."
	msgBucketDeleted   = "Deleted"
	msgBucketMissing   = "Site not found in bucket list."
	msgSiteMissing     = "Site not found."
	msgSiteIDRequired  = "A numeric site id is required."
	msgJSONRequired    = "Content-Type must be application/json."
)

// siteRef is the body of POST /bucketlist. The front-end reads the id from
// a data attribute, so it arrives as a string or a number.
type siteRef struct {
	ID flexID `json:"id"`
}

type flexID int64

func (f *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("id %q is not an integer", b)
	}
	*f = flexID(n)
	return nil
}

// listBucketList handles GET /bucketlist.
func (s *Server) listBucketList(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	sites, err := s.bucketList.List(r.Context(), user.ID)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, pageBucketList, pageData{Data: sites})
}

// addBucketListSite handles POST /bucketlist with a JSON body {"id": 123}.
// A duplicate is reported with status 200 and a distinct message, the way
// the front-end shows it.
func (s *Server) addBucketListSite(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	if !s.jsonWriteAllowed(w, r) {
		return
	}

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeMessage(w, r, http.StatusBadRequest, "Request body could not be read.")
		return
	}
	var ref siteRef
	if err := json.Unmarshal(raw, &ref); err != nil || ref.ID <= 0 {
		s.writeMessage(w, r, http.StatusBadRequest, msgSiteIDRequired)
		return
	}

	_, err = s.bucketList.Add(r.Context(), user.ID, int64(ref.ID))
	switch {
	case errors.Is(err, domain.ErrConflict):
		s.writeMessage(w, r, http.StatusOK, msgBucketDuplicate)
	case errors.Is(err, domain.ErrNotFound):
		s.writeMessage(w, r, http.StatusNotFound, msgSiteMissing)
	case err != nil:
		s.serverErrorJSON(w, r, err)
	default:
		s.writeMessage(w, r, http.StatusOK, msgBucketAdded)
	}
}

// removeBucketListSite handles POST /bucketlist/{id}/delete.
func (s *Server) removeBucketListSite(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	if !s.validCSRF(r, r.Header.Get(csrfHeader)) {
		s.writeMessage(w, r, http.StatusForbidden, validation.MsgCSRFInvalid)
		return
	}
	id, ok := pathID(r)
	if !ok {
		s.writeMessage(w, r, http.StatusNotFound, msgBucketMissing)
		return
	}

	err := s.bucketList.Remove(r.Context(), user.ID, id)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		s.writeMessage(w, r, http.StatusNotFound, msgBucketMissing)
	case err != nil:
		s.serverErrorJSON(w, r, err)
	default:
		s.writeMessage(w, r, http.StatusOK, msgBucketDeleted)
	}
}

// jsonWriteAllowed rejects JSON writes without a JSON content type or, with
// CSRF protection on, without a matching X-CSRF-Token header. It writes the
// error response itself.
func (s *Server) jsonWriteAllowed(w http.ResponseWriter, r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		s.writeMessage(w, r, http.StatusUnsupportedMediaType, msgJSONRequired)
		return false
	}
	if !s.validCSRF(r, r.Header.Get(csrfHeader)) {
		s.writeMessage(w, r, http.StatusForbidden, validation.MsgCSRFInvalid)
		return false
	}
	return true
}
