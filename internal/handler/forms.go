package handler

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/pkordes/dive-logbook/internal/session"
	"github.com/pkordes/dive-logbook/internal/validation"
)

// csrfField is the hidden form input carrying the session's CSRF token.
// JSON writes send the same token in csrfHeader.
const (
	csrfField  = "csrf_token"
	csrfHeader = "X-CSRF-Token"
)

// Length limits mirror domain.Max*Length; the welcome flash carries the
// username inside the session cookie.
type signupForm struct {
	Username string `form:"username" validate:"required,max=50"`
	Email    string `form:"email" validate:"required,email,max=254"`
	Password string `form:"password" validate:"min=8,max=72"`
}

type loginForm struct {
	Username string `form:"username" validate:"required,max=50"`
	Password string `form:"password" validate:"required,max=72"`
}

// profileForm edits username and email. Password is the current password.
type profileForm struct {
	Username string `form:"username" validate:"required,max=50"`
	Email    string `form:"email" validate:"required,email,max=254"`
	Password string `form:"password" validate:"required,max=72"`
}

type journalForm struct {
	Description string `form:"description" validate:"max=2000"`
	Notes       string `form:"notes" validate:"max=5000"`
	Rating      int    `form:"rating" validate:"required,rating"`
}

// bindForm decodes the posted form into dst (a pointer to a struct whose
// fields carry `form` tags), checks the CSRF token and validates dst.
// The returned map holds one message per failing field; it is empty when
// the form is valid. The error is non-nil only if the body cannot be read.
func (s *Server) bindForm(r *http.Request, dst any) (map[string]string, error) {
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("handler.bindForm: %w", err)
	}

	errs := decodeForm(r, dst)
	if verr := validation.ValidateStruct(dst); verr != nil {
		for field, msg := range verr.FieldErrors() {
			if _, seen := errs[field]; !seen {
				errs[field] = msg
			}
		}
	}
	if !s.validCSRF(r, r.PostForm.Get(csrfField)) {
		errs[csrfField] = validation.MsgCSRFInvalid
	}
	return errs, nil
}

// decodeForm copies r.PostForm into the string and int fields of dst.
// Integers that fail to parse are reported by form name and left zero.
func decodeForm(r *http.Request, dst any) map[string]string {
	errs := map[string]string{}
	v := reflect.ValueOf(dst).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("form"), ",")
		if name == "" || name == "-" {
			continue
		}
		raw := r.PostForm.Get(name)

		switch f := v.Field(i); f.Kind() {
		case reflect.String:
			f.SetString(raw)
		case reflect.Int, reflect.Int64:
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				errs[name] = validation.MsgInteger
				continue
			}
			f.SetInt(n)
		}
	}
	return errs
}

// checkCSRF validates the token of a form post that carries no other fields.
func (s *Server) checkCSRF(r *http.Request) bool {
	if err := r.ParseForm(); err != nil {
		return false
	}
	return s.validCSRF(r, r.PostForm.Get(csrfField))
}

// validCSRF reports whether token matches the session. It always passes
// when CSRF protection is off.
func (s *Server) validCSRF(r *http.Request, token string) bool {
	if !s.opts.CSRF {
		return true
	}
	want := session.FromContext(r.Context()).CSRFToken()
	return token != "" && subtle.ConstantTimeCompare([]byte(token), []byte(want)) == 1
}
