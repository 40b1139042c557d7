package handler

import (
	"errors"
	"net/http"

	"github.com/pkordes/dive-logbook/internal/domain"
	"github.com/pkordes/dive-logbook/internal/session"
	"github.com/pkordes/dive-logbook/internal/validation"
)

// editUserPage handles GET /user/edit.
func (s *Server) editUserPage(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	s.render(w, r, http.StatusOK, pageEditUser, pageData{
		Form: profileForm{Username: user.Username, Email: user.Email},
	})
}

// editUser handles POST /user/edit. The current password must be supplied
// for any change to apply.
func (s *Server) editUser(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var f profileForm
	errs, err := s.bindForm(r, &f)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	f.Password = ""
	if len(errs) > 0 {
		s.render(w, r, http.StatusOK, pageEditUser, pageData{Form: f, Errors: errs})
		return
	}

	ctx := r.Context()
	sess := session.FromContext(ctx)
	_, err = s.users.UpdateProfile(ctx, user.ID, domain.ProfileInput{
		Username: f.Username,
		Email:    f.Email,
		Password: r.PostForm.Get("password"),
	})
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		sess.AddFlash(session.Danger, "Invalid credentials.")
		s.render(w, r, http.StatusOK, pageEditUser, pageData{Form: f})
	case errors.Is(err, domain.ErrConflict):
		s.flashRedirect(w, r, session.Danger, "Username or email is already taken.", "/user/edit")
	case errors.Is(err, domain.ErrValidation):
		sess.AddFlash(session.Danger, validationMessage(err))
		s.render(w, r, http.StatusOK, pageEditUser, pageData{Form: f})
	case err != nil:
		s.serverError(w, r, err)
	default:
		s.flashRedirect(w, r, session.Success, "Profile Updated", "/")
	}
}

// deleteUser handles POST /user/delete. It ends the session and removes the
// account together with its bucket list and journal.
func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	if !s.checkCSRF(r) {
		s.flashRedirect(w, r, session.Danger, validation.MsgCSRFInvalid, "/user/edit")
		return
	}

	if err := s.users.Delete(r.Context(), user.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		s.serverError(w, r, err)
		return
	}

	session.FromContext(r.Context()).Logout()
	s.flashRedirect(w, r, session.Danger, "User Deleted", "/")
}
