package handler

import (
	"errors"
	"net/http"

	"github.com/pkordes/dive-logbook/internal/domain"
	"github.com/pkordes/dive-logbook/internal/session"
)

// home handles GET /.
func (s *Server) home(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, pageHome, pageData{})
}

// signupPage handles GET /signup.
func (s *Server) signupPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, pageSignup, pageData{Form: signupForm{}})
}

// signup handles POST /signup. A successful signup logs the user in and
// sends a confirmation email; a failed send is logged and otherwise ignored.
func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	var f signupForm
	errs, err := s.bindForm(r, &f)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	if len(errs) > 0 {
		s.render(w, r, http.StatusOK, pageSignup, pageData{Form: f, Errors: errs})
		return
	}

	ctx := r.Context()
	sess := session.FromContext(ctx)
	user, err := s.users.Signup(ctx, domain.SignupInput{
		Username: f.Username,
		Email:    f.Email,
		Password: f.Password,
	})
	switch {
	case errors.Is(err, domain.ErrConflict):
		sess.AddFlash(session.Danger, "Username/email already exists")
		s.render(w, r, http.StatusOK, pageSignup, pageData{Form: f})
		return
	case errors.Is(err, domain.ErrValidation):
		sess.AddFlash(session.Danger, validationMessage(err))
		s.render(w, r, http.StatusOK, pageSignup, pageData{Form: f})
		return
	case err != nil:
		s.serverError(w, r, err)
		return
	}

	if err := s.confirmations.Send(ctx, user); err != nil {
		s.logger.WarnContext(ctx, "confirmation email not sent", "user_id", user.ID, "error", err)
	}

	sess.Login(user.ID)
	s.flashRedirect(w, r, session.Success, "Welcome "+user.Username+"!", "/")
}

// loginPage handles GET /login.
func (s *Server) loginPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, pageLogin, pageData{Form: loginForm{}})
}

// login handles POST /login.
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var f loginForm
	errs, err := s.bindForm(r, &f)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	if len(errs) > 0 {
		s.render(w, r, http.StatusOK, pageLogin, pageData{Form: f, Errors: errs})
		return
	}

	ctx := r.Context()
	sess := session.FromContext(ctx)
	user, ok, err := s.users.Authenticate(ctx, f.Username, f.Password)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	if !ok {
		sess.AddFlash(session.Danger, "Invalid credentials.")
		s.render(w, r, http.StatusOK, pageLogin, pageData{Form: loginForm{Username: f.Username}})
		return
	}

	sess.Login(user.ID)
	s.flashRedirect(w, r, session.Success, "Hello, "+user.Username+"!", "/")
}

// logout handles GET /logout.
func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	session.FromContext(r.Context()).Logout()
	s.flashRedirect(w, r, session.Success, "You have been logged out.", "/")
}

// requireUser returns the current user. When there is none it flashes
// "Access unauthorized.", redirects home and returns false; the caller must
// then return without writing.
func (s *Server) requireUser(w http.ResponseWriter, r *http.Request) (domain.User, bool) {
	u, ok := session.CurrentUser(r.Context())
	if !ok {
		s.flashRedirect(w, r, session.Danger, msgUnauthorized, "/")
	}
	return u, ok
}
