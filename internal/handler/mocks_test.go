package handler_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pkordes/dive-logbook/internal/domain"
	"github.com/pkordes/dive-logbook/internal/handler"
	"github.com/pkordes/dive-logbook/internal/session"
)

// ---- mocks -----------------------------------------------------------------
// Each mock is a hand-written test double with one function field per
// method. Set only the ones your test needs; calling an unset one panics,
// which the server reports as a 500.

type mockUserServicer struct {
	signup        func(ctx context.Context, in domain.SignupInput) (domain.User, error)
	authenticate  func(ctx context.Context, username, password string) (domain.User, bool, error)
	updateProfile func(ctx context.Context, userID int64, in domain.ProfileInput) (domain.User, error)
	delete        func(ctx context.Context, userID int64) error
	getByID       func(ctx context.Context, id int64) (domain.User, error)
}

func (m *mockUserServicer) Signup(ctx context.Context, in domain.SignupInput) (domain.User, error) {
	return m.signup(ctx, in)
}
func (m *mockUserServicer) Authenticate(ctx context.Context, username, password string) (domain.User, bool, error) {
	return m.authenticate(ctx, username, password)
}
func (m *mockUserServicer) UpdateProfile(ctx context.Context, userID int64, in domain.ProfileInput) (domain.User, error) {
	return m.updateProfile(ctx, userID, in)
}
func (m *mockUserServicer) Delete(ctx context.Context, userID int64) error {
	return m.delete(ctx, userID)
}
func (m *mockUserServicer) GetByID(ctx context.Context, id int64) (domain.User, error) {
	return m.getByID(ctx, id)
}

type mockConfirmationServicer struct {
	send    func(ctx context.Context, user domain.User) error
	confirm func(ctx context.Context, token string) (domain.User, error)
}

func (m *mockConfirmationServicer) Send(ctx context.Context, user domain.User) error {
	return m.send(ctx, user)
}
func (m *mockConfirmationServicer) Confirm(ctx context.Context, token string) (domain.User, error) {
	return m.confirm(ctx, token)
}

type mockSiteServicer struct {
	search func(ctx context.Context, params map[string]any) ([]byte, error)
	show   func(ctx context.Context, id int64) (domain.DiveSite, error)
}

func (m *mockSiteServicer) Search(ctx context.Context, params map[string]any) ([]byte, error) {
	return m.search(ctx, params)
}
func (m *mockSiteServicer) Show(ctx context.Context, id int64) (domain.DiveSite, error) {
	return m.show(ctx, id)
}

type mockBucketListServicer struct {
	list   func(ctx context.Context, userID int64) ([]domain.DiveSite, error)
	add    func(ctx context.Context, userID, siteID int64) (domain.BucketListEntry, error)
	remove func(ctx context.Context, userID, siteID int64) error
}

func (m *mockBucketListServicer) List(ctx context.Context, userID int64) ([]domain.DiveSite, error) {
	return m.list(ctx, userID)
}
func (m *mockBucketListServicer) Add(ctx context.Context, userID, siteID int64) (domain.BucketListEntry, error) {
	return m.add(ctx, userID, siteID)
}
func (m *mockBucketListServicer) Remove(ctx context.Context, userID, siteID int64) error {
	return m.remove(ctx, userID, siteID)
}

type mockJournalServicer struct {
	list            func(ctx context.Context, userID int64) ([]domain.JournalEntry, error)
	get             func(ctx context.Context, userID, entryID int64) (domain.JournalEntry, error)
	siteForNewEntry func(ctx context.Context, userID, siteID int64) (domain.DiveSite, error)
	add             func(ctx context.Context, userID, siteID int64, in domain.JournalInput) (domain.JournalEntry, error)
	update          func(ctx context.Context, userID, entryID int64, in domain.JournalInput) (domain.JournalEntry, error)
	delete          func(ctx context.Context, userID, entryID int64) error
}

func (m *mockJournalServicer) List(ctx context.Context, userID int64) ([]domain.JournalEntry, error) {
	return m.list(ctx, userID)
}
func (m *mockJournalServicer) Get(ctx context.Context, userID, entryID int64) (domain.JournalEntry, error) {
	return m.get(ctx, userID, entryID)
}
func (m *mockJournalServicer) SiteForNewEntry(ctx context.Context, userID, siteID int64) (domain.DiveSite, error) {
	return m.siteForNewEntry(ctx, userID, siteID)
}
func (m *mockJournalServicer) Add(ctx context.Context, userID, siteID int64, in domain.JournalInput) (domain.JournalEntry, error) {
	return m.add(ctx, userID, siteID, in)
}
func (m *mockJournalServicer) Update(ctx context.Context, userID, entryID int64, in domain.JournalInput) (domain.JournalEntry, error) {
	return m.update(ctx, userID, entryID, in)
}
func (m *mockJournalServicer) Delete(ctx context.Context, userID, entryID int64) error {
	return m.delete(ctx, userID, entryID)
}

// compile-time checks: the mocks must satisfy the handler interfaces.
var (
	_ handler.UserServicer         = (*mockUserServicer)(nil)
	_ handler.ConfirmationServicer = (*mockConfirmationServicer)(nil)
	_ handler.SiteServicer         = (*mockSiteServicer)(nil)
	_ handler.BucketListServicer   = (*mockBucketListServicer)(nil)
	_ handler.JournalServicer      = (*mockJournalServicer)(nil)
)

// ---- fixtures --------------------------------------------------------------

func testUser() domain.User {
	return domain.User{ID: 1111, Username: "testuser", Email: "test@test.com", CreatedAt: time.Now().UTC()}
}

func otherUser() domain.User {
	return domain.User{ID: 2222, Username: "tester22", Email: "test22@test.com", CreatedAt: time.Now().UTC()}
}

func blueHole() domain.DiveSite {
	return domain.DiveSite{
		ID:          23265,
		Name:        "The Blue Hole - Lighthouse Atoll",
		Lat:         17.3158,
		Lng:         -87.5347,
		Description: "A giant marine sinkhole.",
		Location:    "Belize City, Belize",
	}
}

// usersWith returns a user servicer whose GetByID knows the given accounts,
// which is all the current-user middleware needs.
func usersWith(accounts ...domain.User) *mockUserServicer {
	return &mockUserServicer{
		getByID: func(_ context.Context, id int64) (domain.User, error) {
			for _, u := range accounts {
				if u.ID == id {
					return u, nil
				}
			}
			return domain.User{}, domain.ErrNotFound
		},
	}
}

// ---- test server -----------------------------------------------------------

// testEnv runs the full router behind httptest.Server and talks to it with a
// cookie-keeping client that follows redirects, the way a browser would.
type testEnv struct {
	srv      *httptest.Server
	client   *http.Client
	sessions *session.Manager
}

func newTestEnv(t *testing.T, svc handler.Services, opts handler.Options) *testEnv {
	t.Helper()
	if svc.Users == nil {
		svc.Users = usersWith()
	}
	sessions := session.NewManager("test-secret", time.Hour, false)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := httptest.NewServer(handler.NewServer(svc, sessions, logger, opts).Routes())
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &testEnv{srv: srv, client: &http.Client{Jar: jar}, sessions: sessions}
}

// loginAs plants a session cookie for userID in the client's jar.
func (e *testEnv) loginAs(t *testing.T, userID int64) {
	t.Helper()
	var sess session.Session
	sess.Login(userID)
	c, err := e.sessions.Cookie(&sess)
	require.NoError(t, err)
	u, err := url.Parse(e.srv.URL)
	require.NoError(t, err)
	e.client.Jar.SetCookies(u, []*http.Cookie{c})
}

// noRedirects returns a client sharing the jar that stops at the first response.
func (e *testEnv) noRedirects() *http.Client {
	return &http.Client{
		Jar: e.client.Jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (e *testEnv) do(t *testing.T, client *http.Client, req *http.Request) (*http.Response, string) {
	t.Helper()
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func (e *testEnv) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, e.srv.URL+path, nil)
	require.NoError(t, err)
	return e.do(t, e.client, req)
}

func (e *testEnv) postForm(t *testing.T, path string, form url.Values) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, e.srv.URL+path, strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return e.do(t, e.client, req)
}

func (e *testEnv) postJSON(t *testing.T, path, body string, header http.Header) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, e.srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	return e.do(t, e.client, req)
}

var (
	csrfInput = regexp.MustCompile(`name="csrf_token" value="([^"]+)"`)
	csrfMeta  = regexp.MustCompile(`<meta name="csrf-token" content="([^"]+)">`)
)

// csrfToken loads path and returns the token embedded in its form.
func (e *testEnv) csrfToken(t *testing.T, path string) string {
	t.Helper()
	_, body := e.get(t, path)
	m := csrfInput.FindStringSubmatch(body)
	require.Len(t, m, 2, "no csrf_token input on %s", path)
	return m[1]
}
