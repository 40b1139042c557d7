// Package session keeps per-browser state in a signed cookie: the logged-in
// user id, pending flash messages and the CSRF token. The cookie value is an
// HS256 JWT issued by go-chi/jwtauth, so it is tamper-evident but not secret.
package session

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"

	"github.com/pkordes/dive-logbook/internal/domain"
)

// CookieName is the name of the session cookie.
const CookieName = "session"

// Claim keys carried in the session token.
const (
	userIDKey  = "user_id"
	flashesKey = "flashes"
	csrfKey    = "csrf"
)

// Flash categories, used by templates to pick an alert style.
const (
	Success = "success"
	Danger  = "danger"
	Info    = "info"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

// Session is the decoded cookie for one request. Mutations mark it dirty so
// the next Save writes a fresh cookie.
type Session struct {
	userID  int64
	flashes []Flash
	csrf    string
	dirty   bool
}

// UserID returns the logged-in user's id, or 0 for an anonymous session.
func (s *Session) UserID() int64 { return s.userID }

// Login binds the session to a user and rotates the CSRF token.
func (s *Session) Login(userID int64) {
	s.userID = userID
	s.csrf = ""
	s.dirty = true
}

// Logout drops the user id. Pending flashes survive so the next page can
// show a goodbye message.
func (s *Session) Logout() {
	s.userID = 0
	s.csrf = ""
	s.dirty = true
}

// AddFlash queues a message for the next rendered page.
func (s *Session) AddFlash(category, message string) {
	s.flashes = append(s.flashes, Flash{Category: category, Message: message})
	s.dirty = true
}

// PopFlashes returns and clears all queued messages.
func (s *Session) PopFlashes() []Flash {
	out := s.flashes
	if len(out) > 0 {
		s.flashes = nil
		s.dirty = true
	}
	return out
}

// CSRFToken returns the session's CSRF token, creating one on first use.
func (s *Session) CSRFToken() string {
	if s.csrf == "" {
		s.csrf = uuid.NewString()
		s.dirty = true
	}
	return s.csrf
}

// Dirty reports whether the session changed since it was loaded.
func (s *Session) Dirty() bool { return s.dirty }

// Manager encodes sessions into cookies and decodes them back.
type Manager struct {
	auth     *jwtauth.JWTAuth
	lifetime time.Duration
	secure   bool
}

// NewManager constructs a Manager signing with secret. Cookies expire after
// lifetime and carry the Secure attribute when secure is set.
func NewManager(secret string, lifetime time.Duration, secure bool) *Manager {
	return &Manager{
		auth:     jwtauth.New("HS256", []byte(secret), nil),
		lifetime: lifetime,
		secure:   secure,
	}
}

// Middleware verifies the session cookie and stores the decoded Session in the
// request context. A missing, expired or tampered cookie yields an empty
// anonymous session; it is never an error.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	load := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := &Session{}
		if _, claims, err := jwtauth.FromContext(r.Context()); err == nil {
			sess = fromClaims(claims)
		}
		next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), sess)))
	})
	return jwtauth.Verify(m.auth, tokenFromCookie)(load)
}

// Save writes sess as the session cookie if it changed. It must run before
// the response status is written.
func (m *Manager) Save(w http.ResponseWriter, sess *Session) error {
	if sess == nil || !sess.dirty {
		return nil
	}
	c, err := m.Cookie(sess)
	if err != nil {
		return err
	}
	http.SetCookie(w, c)
	sess.dirty = false
	return nil
}

// Cookie encodes sess into a session cookie without writing it.
func (m *Manager) Cookie(sess *Session) (*http.Cookie, error) {
	claims := map[string]any{}
	if sess.userID != 0 {
		claims[userIDKey] = strconv.FormatInt(sess.userID, 10)
	}
	if len(sess.flashes) > 0 {
		claims[flashesKey] = sess.flashes
	}
	if sess.csrf != "" {
		claims[csrfKey] = sess.csrf
	}
	expires := time.Now().Add(m.lifetime)
	jwtauth.SetExpiry(claims, expires)

	_, signed, err := m.auth.Encode(claims)
	if err != nil {
		return nil, err
	}
	return &http.Cookie{
		Name:     CookieName,
		Value:    signed,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

func tokenFromCookie(r *http.Request) string {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// fromClaims rebuilds a Session from verified claims. Claims of the wrong
// shape are ignored rather than rejected.
func fromClaims(claims map[string]any) *Session {
	sess := &Session{}
	if s, ok := claims[userIDKey].(string); ok {
		if id, err := strconv.ParseInt(s, 10, 64); err == nil && id > 0 {
			sess.userID = id
		}
	}
	if s, ok := claims[csrfKey].(string); ok {
		sess.csrf = s
	}
	if list, ok := claims[flashesKey].([]any); ok {
		for _, item := range list {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			category, _ := m["category"].(string)
			message, _ := m["message"].(string)
			if message != "" {
				sess.flashes = append(sess.flashes, Flash{Category: category, Message: message})
			}
		}
	}
	return sess
}

type ctxKey int

const (
	sessionKey ctxKey = iota
	userKey
)

// NewContext returns a copy of ctx carrying sess.
func NewContext(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionKey, sess)
}

// FromContext returns the request's Session. It never returns nil: outside
// the middleware it returns a fresh anonymous session.
func FromContext(ctx context.Context) *Session {
	if sess, ok := ctx.Value(sessionKey).(*Session); ok && sess != nil {
		return sess
	}
	return &Session{}
}

// WithCurrentUser returns a copy of ctx carrying the resolved current user.
func WithCurrentUser(ctx context.Context, u domain.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// CurrentUser returns the user resolved for this request, if any.
func CurrentUser(ctx context.Context) (domain.User, bool) {
	u, ok := ctx.Value(userKey).(domain.User)
	return u, ok
}
