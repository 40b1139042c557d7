package handler

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/pkordes/dive-logbook/internal/domain"
	"github.com/pkordes/dive-logbook/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var assets embed.FS

// staticFS serves the files under static/ at /static/.
var staticFS = mustSub(assets, "static")

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

// Page templates. Each is parsed together with base.html, which defines the
// layout and calls the page's "title" and "content" blocks.
const (
	pageHome          = "home.html"
	pageSignup        = "signup.html"
	pageLogin         = "login.html"
	pageEditUser      = "user-form.html"
	pageSiteDetail    = "site-detail.html"
	pageBucketList    = "bucket-list.html"
	pageDiveJournal   = "dive-journal.html"
	pageJournalForm   = "journal-form.html"
	pageJournalDetail = "journal-detail.html"
	pageNotFound      = "404.html"
	pageError         = "error.html"
)

var templateFuncs = template.FuncMap{
	"ratings": func() []int {
		out := make([]int, 0, domain.MaxRating-domain.MinRating+1)
		for i := domain.MinRating; i <= domain.MaxRating; i++ {
			out = append(out, i)
		}
		return out
	},
	"stars": func(n int) string {
		b := make([]rune, 0, domain.MaxRating)
		for i := domain.MinRating; i <= domain.MaxRating; i++ {
			if i <= n {
				b = append(b, '★')
			} else {
				b = append(b, '☆')
			}
		}
		return string(b)
	},
}

func mustParsePages() map[string]*template.Template {
	pages := []string{
		pageHome, pageSignup, pageLogin, pageEditUser, pageSiteDetail,
		pageBucketList, pageDiveJournal, pageJournalForm, pageJournalDetail,
		pageNotFound, pageError,
	}
	out := make(map[string]*template.Template, len(pages))
	for _, name := range pages {
		out[name] = template.Must(template.New(name).Funcs(templateFuncs).
			ParseFS(templateFS, "templates/base.html", "templates/"+name))
	}
	return out
}

// pageData is the value every page template is executed with.
type pageData struct {
	User      *domain.User
	Flashes   []session.Flash
	CSRFToken string

	// Form holds the values to redisplay and Errors the inline message per
	// field name. Both are empty outside of form pages.
	Form   any
	Errors map[string]string

	Data any
}

// render executes a page and writes it with status. Pending flashes are
// consumed and the session cookie is written before the body.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, page string, data pageData) {
	tmpl, ok := s.pages[page]
	if !ok {
		s.serverError(w, r, fmt.Errorf("handler.render: unknown page %q", page))
		return
	}

	sess := session.FromContext(r.Context())
	if u, ok := session.CurrentUser(r.Context()); ok {
		data.User = &u
	}
	data.Flashes = sess.PopFlashes()
	if s.opts.CSRF {
		data.CSRFToken = sess.CSRFToken()
	}
	if data.Errors == nil {
		data.Errors = map[string]string{}
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", data); err != nil {
		if page == pageError {
			s.logger.ErrorContext(r.Context(), "error page failed to render", "error", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		s.serverError(w, r, fmt.Errorf("handler.render %s: %w", page, err))
		return
	}

	if err := s.sessions.Save(w, sess); err != nil {
		s.logger.ErrorContext(r.Context(), "session cookie not written", "error", err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// redirect saves the session and sends a 302 to url.
func (s *Server) redirect(w http.ResponseWriter, r *http.Request, url string) {
	if err := s.sessions.Save(w, session.FromContext(r.Context())); err != nil {
		s.serverError(w, r, fmt.Errorf("handler.redirect: %w", err))
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

// flashRedirect queues a flash message and redirects.
func (s *Server) flashRedirect(w http.ResponseWriter, r *http.Request, category, message, url string) {
	session.FromContext(r.Context()).AddFlash(category, message)
	s.redirect(w, r, url)
}

// messageBody is the JSON shape of every bucket-list response.
type messageBody struct {
	Message string `json:"message"`
}

// writeJSON encodes v as the response body with the given status.
func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		s.serverError(w, r, fmt.Errorf("handler.writeJSON: %w", err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// writeMessage writes {"message": msg}.
func (s *Server) writeMessage(w http.ResponseWriter, r *http.Request, status int, msg string) {
	s.writeJSON(w, r, status, messageBody{Message: msg})
}
