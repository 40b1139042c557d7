package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/dive-logbook/internal/domain"
	"github.com/pkordes/dive-logbook/internal/session"
)

// confirmEmail handles GET /confirm/{token}, the link sent after signup.
func (s *Server) confirmEmail(w http.ResponseWriter, r *http.Request) {
	_, err := s.confirmations.Confirm(r.Context(), chi.URLParam(r, "token"))
	switch {
	case errors.Is(err, domain.ErrInvalidToken):
		s.flashRedirect(w, r, session.Danger, "The confirmation link is invalid or has expired.", "/")
	case errors.Is(err, domain.ErrAlreadyConfirmed):
		s.flashRedirect(w, r, session.Info, "Account already confirmed.", "/")
	case err != nil:
		s.serverError(w, r, err)
	default:
		s.flashRedirect(w, r, session.Success, "You have confirmed your account. Thanks!", "/")
	}
}
