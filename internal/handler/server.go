// Package handler implements the HTTP surface of the dive logbook: server
// rendered pages, the small JSON API used by the front-end script, and the
// operational endpoints.
// All handlers are methods on Server. Methods are split into domain-specific
// files (auth.go, journal.go, etc.) but all share the same Server struct so
// they can access its dependencies.
package handler

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/pkordes/dive-logbook/internal/domain"
	"github.com/pkordes/dive-logbook/internal/metrics"
	"github.com/pkordes/dive-logbook/internal/middleware"
	"github.com/pkordes/dive-logbook/internal/session"
)

// UserServicer defines the account operations the handlers depend on.
// Defining the interface here (in the consumer package) follows the Go
// convention: "accept interfaces, return concrete types". It lets handler
// tests inject a mock without touching the database or service layer.
type UserServicer interface {
	Signup(ctx context.Context, in domain.SignupInput) (domain.User, error)
	Authenticate(ctx context.Context, username, password string) (domain.User, bool, error)
	UpdateProfile(ctx context.Context, userID int64, in domain.ProfileInput) (domain.User, error)
	Delete(ctx context.Context, userID int64) error
	GetByID(ctx context.Context, id int64) (domain.User, error)
}

// ConfirmationServicer sends and redeems email confirmation links.
type ConfirmationServicer interface {
	Send(ctx context.Context, user domain.User) error
	Confirm(ctx context.Context, token string) (domain.User, error)
}

// SiteServicer searches the dive-site directory and shows cached sites.
type SiteServicer interface {
	Search(ctx context.Context, params map[string]any) ([]byte, error)
	Show(ctx context.Context, id int64) (domain.DiveSite, error)
}

// BucketListServicer manages a user's bucket list.
type BucketListServicer interface {
	List(ctx context.Context, userID int64) ([]domain.DiveSite, error)
	Add(ctx context.Context, userID, siteID int64) (domain.BucketListEntry, error)
	Remove(ctx context.Context, userID, siteID int64) error
}

// JournalServicer manages a user's dive journal.
type JournalServicer interface {
	List(ctx context.Context, userID int64) ([]domain.JournalEntry, error)
	Get(ctx context.Context, userID, entryID int64) (domain.JournalEntry, error)
	SiteForNewEntry(ctx context.Context, userID, siteID int64) (domain.DiveSite, error)
	Add(ctx context.Context, userID, siteID int64, in domain.JournalInput) (domain.JournalEntry, error)
	Update(ctx context.Context, userID, entryID int64, in domain.JournalInput) (domain.JournalEntry, error)
	Delete(ctx context.Context, userID, entryID int64) error
}

// Services bundles the business dependencies of Server.
type Services struct {
	Users         UserServicer
	Confirmations ConfirmationServicer
	Sites         SiteServicer
	BucketList    BucketListServicer
	Journal       JournalServicer
}

// Options tunes request handling.
type Options struct {
	// CSRF requires a csrf_token form field (or X-CSRF-Token header on JSON
	// writes) matching the session's token.
	CSRF bool

	// Debug mounts the chi profiler under /debug.
	Debug bool

	// AuthRateLimit caps POST /login and POST /signup per client IP within
	// AuthRateWindow. Zero disables the limit.
	AuthRateLimit  int
	AuthRateWindow time.Duration
}

// Server holds the dependencies shared by every handler.
type Server struct {
	users         UserServicer
	confirmations ConfirmationServicer
	sites         SiteServicer
	bucketList    BucketListServicer
	journal       JournalServicer

	sessions *session.Manager
	logger   *slog.Logger
	opts     Options
	pages    map[string]*template.Template
}

// NewServer constructs the Server with all its dependencies.
// It panics if the embedded templates fail to parse.
func NewServer(svc Services, sessions *session.Manager, logger *slog.Logger, opts Options) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		users:         svc.Users,
		confirmations: svc.Confirmations,
		sites:         svc.Sites,
		bucketList:    svc.BucketList,
		journal:       svc.Journal,
		sessions:      sessions,
		logger:        logger,
		opts:          opts,
		pages:         mustParsePages(),
	}
}

// Routes returns the application router. Cross-cutting middleware that does
// not depend on the session (request ids, logging, CORS) is applied by the
// caller in main.go.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.recoverer)
	r.Use(s.sessions.Middleware)
	r.Use(middleware.NewCurrentUser(s.users, s.serverError))

	r.NotFound(s.notFound)
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.serverError(w, r, fmt.Errorf("handler: method %s not allowed on %s", r.Method, r.URL.Path))
	})

	r.Get("/healthz", s.health)
	r.Handle("/metrics", metrics.Handler())
	r.Get("/openapi.yaml", s.openAPI)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(staticFS)))
	if s.opts.Debug {
		r.Mount("/debug", chimiddleware.Profiler())
	}

	r.Get("/", s.home)
	r.Get("/signup", s.signupPage)
	r.Get("/login", s.loginPage)
	r.Group(func(r chi.Router) {
		if s.opts.AuthRateLimit > 0 {
			r.Use(httprate.Limit(
				s.opts.AuthRateLimit,
				s.opts.AuthRateWindow,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(s.tooManyRequests),
			))
		}
		r.Post("/signup", s.signup)
		r.Post("/login", s.login)
	})
	r.Get("/logout", s.logout)

	r.Get("/user/edit", s.editUserPage)
	r.Post("/user/edit", s.editUser)
	r.Post("/user/delete", s.deleteUser)

	r.Post("/sites/search", s.searchSites)
	r.Get("/sites/{id}", s.showSite)

	r.Get("/bucketlist", s.listBucketList)
	r.Post("/bucketlist", s.addBucketListSite)
	r.Post("/bucketlist/{id}/delete", s.removeBucketListSite)

	r.Get("/journal", s.listJournal)
	r.Get("/journal/{id}", s.showJournalEntry)
	r.Get("/journal/{id}/add", s.addJournalEntryPage)
	r.Post("/journal/{id}/add", s.addJournalEntry)
	r.Get("/journal/{id}/edit", s.editJournalEntryPage)
	r.Post("/journal/{id}/edit", s.editJournalEntry)
	r.Post("/journal/{id}/delete", s.deleteJournalEntry)

	r.Get("/confirm/{token}", s.confirmEmail)

	return r
}
