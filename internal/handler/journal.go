package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/pkordes/dive-logbook/internal/domain"
	"github.com/pkordes/dive-logbook/internal/session"
	"github.com/pkordes/dive-logbook/internal/validation"
)

// journalFormPage is the data of the add and edit journal form.
type journalFormPage struct {
	Site   domain.DiveSite
	Action string
	Edit   bool
}

// listJournal handles GET /journal.
func (s *Server) listJournal(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	entries, err := s.journal.List(r.Context(), user.ID)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, pageDiveJournal, pageData{Data: entries})
}

// showJournalEntry handles GET /journal/{id}. Entries of other users are
// reported as missing.
func (s *Server) showJournalEntry(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	entry, ok := s.loadJournalEntry(w, r, user)
	if !ok {
		return
	}
	s.render(w, r, http.StatusOK, pageJournalDetail, pageData{Data: entry})
}

// addJournalEntryPage handles GET /journal/{id}/add, where id is a site id.
func (s *Server) addJournalEntryPage(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	site, ok := s.siteForNewEntry(w, r, user)
	if !ok {
		return
	}
	s.render(w, r, http.StatusOK, pageJournalForm, pageData{
		Form: journalForm{},
		Data: journalFormPage{Site: site, Action: fmt.Sprintf("/journal/%d/add", site.ID)},
	})
}

// addJournalEntry handles POST /journal/{id}/add.
func (s *Server) addJournalEntry(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	site, ok := s.siteForNewEntry(w, r, user)
	if !ok {
		return
	}
	page := journalFormPage{Site: site, Action: fmt.Sprintf("/journal/%d/add", site.ID)}

	var f journalForm
	errs, err := s.bindForm(r, &f)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	if len(errs) > 0 {
		s.render(w, r, http.StatusOK, pageJournalForm, pageData{Form: f, Errors: errs, Data: page})
		return
	}

	_, err = s.journal.Add(r.Context(), user.ID, site.ID, f.input())
	switch {
	case errors.Is(err, domain.ErrConflict):
		s.flashRedirect(w, r, session.Danger, "Site already in dive journal.", fmt.Sprintf("/sites/%d", site.ID))
	case errors.Is(err, domain.ErrValidation):
		s.render(w, r, http.StatusOK, pageJournalForm, pageData{
			Form: f, Errors: map[string]string{"rating": ratingMessage()}, Data: page,
		})
	case errors.Is(err, domain.ErrNotFound):
		s.notFound(w, r)
	case err != nil:
		s.serverError(w, r, err)
	default:
		s.flashRedirect(w, r, session.Success, "Site added to dive journal.", "/")
	}
}

// editJournalEntryPage handles GET /journal/{id}/edit.
func (s *Server) editJournalEntryPage(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	entry, ok := s.loadJournalEntry(w, r, user)
	if !ok {
		return
	}
	s.render(w, r, http.StatusOK, pageJournalForm, pageData{
		Form: journalForm{Description: entry.Description, Notes: entry.Notes, Rating: entry.Rating},
		Data: editPage(entry),
	})
}

// editJournalEntry handles POST /journal/{id}/edit. All three fields are
// replaced by the submitted values.
func (s *Server) editJournalEntry(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	entry, ok := s.loadJournalEntry(w, r, user)
	if !ok {
		return
	}

	var f journalForm
	errs, err := s.bindForm(r, &f)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	if len(errs) > 0 {
		s.render(w, r, http.StatusOK, pageJournalForm, pageData{Form: f, Errors: errs, Data: editPage(entry)})
		return
	}

	updated, err := s.journal.Update(r.Context(), user.ID, entry.ID, f.input())
	switch {
	case errors.Is(err, domain.ErrValidation):
		s.render(w, r, http.StatusOK, pageJournalForm, pageData{
			Form: f, Errors: map[string]string{"rating": ratingMessage()}, Data: editPage(entry),
		})
	case errors.Is(err, domain.ErrNotFound):
		s.notFound(w, r)
	case err != nil:
		s.serverError(w, r, err)
	default:
		s.flashRedirect(w, r, session.Success, "Site updated.", fmt.Sprintf("/journal/%d", updated.ID))
	}
}

// deleteJournalEntry handles POST /journal/{id}/delete.
func (s *Server) deleteJournalEntry(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r)
	if !ok {
		s.notFound(w, r)
		return
	}
	if !s.checkCSRF(r) {
		s.flashRedirect(w, r, session.Danger, validation.MsgCSRFInvalid, fmt.Sprintf("/journal/%d", id))
		return
	}

	err := s.journal.Delete(r.Context(), user.ID, id)
	if errors.Is(err, domain.ErrNotFound) {
		s.notFound(w, r)
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.flashRedirect(w, r, session.Danger, "Site deleted.", "/journal")
}

// loadJournalEntry resolves {id} to one of the user's entries, writing the
// 404 or error page itself when it cannot.
func (s *Server) loadJournalEntry(w http.ResponseWriter, r *http.Request, user domain.User) (domain.JournalEntry, bool) {
	id, ok := pathID(r)
	if !ok {
		s.notFound(w, r)
		return domain.JournalEntry{}, false
	}
	entry, err := s.journal.Get(r.Context(), user.ID, id)
	if errors.Is(err, domain.ErrNotFound) {
		s.notFound(w, r)
		return domain.JournalEntry{}, false
	}
	if err != nil {
		s.serverError(w, r, err)
		return domain.JournalEntry{}, false
	}
	return entry, true
}

// siteForNewEntry resolves {id} to a cached site the user has not journaled.
// An already journaled site redirects back to the site page.
func (s *Server) siteForNewEntry(w http.ResponseWriter, r *http.Request, user domain.User) (domain.DiveSite, bool) {
	id, ok := pathID(r)
	if !ok {
		s.notFound(w, r)
		return domain.DiveSite{}, false
	}
	site, err := s.journal.SiteForNewEntry(r.Context(), user.ID, id)
	switch {
	case errors.Is(err, domain.ErrConflict):
		s.flashRedirect(w, r, session.Danger, "Site already in dive journal.", fmt.Sprintf("/sites/%d", id))
		return domain.DiveSite{}, false
	case errors.Is(err, domain.ErrNotFound):
		s.notFound(w, r)
		return domain.DiveSite{}, false
	case err != nil:
		s.serverError(w, r, err)
		return domain.DiveSite{}, false
	}
	return site, true
}

func editPage(entry domain.JournalEntry) journalFormPage {
	return journalFormPage{Site: entry.Site, Action: fmt.Sprintf("/journal/%d/edit", entry.ID), Edit: true}
}

func (f journalForm) input() domain.JournalInput {
	return domain.JournalInput{Description: f.Description, Notes: f.Notes, Rating: f.Rating}
}

func ratingMessage() string {
	return fmt.Sprintf("Number must be between %d and %d.", domain.MinRating, domain.MaxRating)
}
