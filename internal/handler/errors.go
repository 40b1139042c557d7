package handler

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/pkordes/dive-logbook/internal/domain"
	"github.com/pkordes/dive-logbook/internal/session"
)

// Messages shown to the user for access and lookup failures.
const (
	msgUnauthorized = "Access unauthorized."
	msgServerError  = "Looks like something went wrong."
	msgTooMany      = "Too many attempts. Please wait a minute and try again."
)

// serverError logs err and renders the generic error page with status 500.
func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.ErrorContext(r.Context(), "request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", chimiddleware.GetReqID(r.Context()),
		"error", err,
	)
	s.render(w, r, http.StatusInternalServerError, pageError, pageData{})
}

// serverErrorJSON is serverError for endpoints called by the front-end script.
func (s *Server) serverErrorJSON(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.ErrorContext(r.Context(), "request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", chimiddleware.GetReqID(r.Context()),
		"error", err,
	)
	s.writeMessage(w, r, http.StatusInternalServerError, msgServerError)
}

// notFound renders the 404 page.
func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusNotFound, pageNotFound, pageData{})
}

// tooManyRequests answers a rate-limited login or signup attempt.
func (s *Server) tooManyRequests(w http.ResponseWriter, r *http.Request) {
	session.FromContext(r.Context()).AddFlash(session.Danger, msgTooMany)
	if strings.HasPrefix(r.URL.Path, "/signup") {
		s.render(w, r, http.StatusTooManyRequests, pageSignup, pageData{Form: signupForm{}})
		return
	}
	s.render(w, r, http.StatusTooManyRequests, pageLogin, pageData{Form: loginForm{}})
}

// recoverer turns a panic into a logged error and the generic error page.
// http.ErrAbortHandler is re-panicked so net/http can abort the connection.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			s.logger.ErrorContext(r.Context(), "panic recovered", "panic", rec, "stack", string(debug.Stack()))
			s.serverError(w, r, fmt.Errorf("handler: panic: %v", rec))
		}()
		next.ServeHTTP(w, r)
	})
}

// validationMessage extracts the human-readable part from a wrapped
// domain.ErrValidation, e.g.
// "service.UserService.Signup: validation error: username is required" -> "username is required".
func validationMessage(err error) string {
	if err == nil || !errors.Is(err, domain.ErrValidation) {
		return ""
	}
	msg := err.Error()
	marker := domain.ErrValidation.Error() + ": "
	if i := strings.Index(msg, marker); i >= 0 {
		msg = msg[i+len(marker):]
	}
	if msg == "" {
		return msg
	}
	return strings.ToUpper(msg[:1]) + msg[1:] + "."
}
