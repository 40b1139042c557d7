package service_test

import (
	"context"

	"github.com/pkordes/dive-logbook/internal/divesites"
	"github.com/pkordes/dive-logbook/internal/domain"
	"github.com/pkordes/dive-logbook/internal/mail"
	"github.com/pkordes/dive-logbook/internal/repo"
	"github.com/pkordes/dive-logbook/internal/service"
)

// Hand-written test doubles. Each method is a function field; set only the
// ones a test needs. Calling an unset one panics, which flags an unexpected call.

type mockUserRepo struct {
	create        func(ctx context.Context, u domain.User) (domain.User, error)
	getByID       func(ctx context.Context, id int64) (domain.User, error)
	getByUsername func(ctx context.Context, username string) (domain.User, error)
	getByEmail    func(ctx context.Context, email string) (domain.User, error)
	updateProfile func(ctx context.Context, id int64, username, email string) (domain.User, error)
	markConfirmed func(ctx context.Context, email string) (domain.User, error)
	delete        func(ctx context.Context, id int64) error
}

func (m *mockUserRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	return m.create(ctx, u)
}
func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (domain.User, error) {
	return m.getByID(ctx, id)
}
func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	return m.getByUsername(ctx, username)
}
func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return m.getByEmail(ctx, email)
}
func (m *mockUserRepo) UpdateProfile(ctx context.Context, id int64, username, email string) (domain.User, error) {
	return m.updateProfile(ctx, id, username, email)
}
func (m *mockUserRepo) MarkConfirmed(ctx context.Context, email string) (domain.User, error) {
	return m.markConfirmed(ctx, email)
}
func (m *mockUserRepo) Delete(ctx context.Context, id int64) error {
	return m.delete(ctx, id)
}

type mockDiveSiteRepo struct {
	getByID func(ctx context.Context, id int64) (domain.DiveSite, error)
	create  func(ctx context.Context, s domain.DiveSite) (domain.DiveSite, error)
}

func (m *mockDiveSiteRepo) GetByID(ctx context.Context, id int64) (domain.DiveSite, error) {
	return m.getByID(ctx, id)
}
func (m *mockDiveSiteRepo) Create(ctx context.Context, s domain.DiveSite) (domain.DiveSite, error) {
	return m.create(ctx, s)
}

type mockBucketListRepo struct {
	add       func(ctx context.Context, userID, siteID int64) (domain.BucketListEntry, error)
	exists    func(ctx context.Context, userID, siteID int64) (bool, error)
	remove    func(ctx context.Context, userID, siteID int64) error
	listSites func(ctx context.Context, userID int64) ([]domain.DiveSite, error)
}

func (m *mockBucketListRepo) Add(ctx context.Context, userID, siteID int64) (domain.BucketListEntry, error) {
	return m.add(ctx, userID, siteID)
}
func (m *mockBucketListRepo) Exists(ctx context.Context, userID, siteID int64) (bool, error) {
	return m.exists(ctx, userID, siteID)
}
func (m *mockBucketListRepo) Remove(ctx context.Context, userID, siteID int64) error {
	return m.remove(ctx, userID, siteID)
}
func (m *mockBucketListRepo) ListSites(ctx context.Context, userID int64) ([]domain.DiveSite, error) {
	return m.listSites(ctx, userID)
}

type mockJournalRepo struct {
	create        func(ctx context.Context, e domain.JournalEntry) (domain.JournalEntry, error)
	getByID       func(ctx context.Context, userID, entryID int64) (domain.JournalEntry, error)
	listByUser    func(ctx context.Context, userID int64) ([]domain.JournalEntry, error)
	existsForSite func(ctx context.Context, userID, siteID int64) (bool, error)
	update        func(ctx context.Context, e domain.JournalEntry) (domain.JournalEntry, error)
	delete        func(ctx context.Context, userID, entryID int64) error
}

func (m *mockJournalRepo) Create(ctx context.Context, e domain.JournalEntry) (domain.JournalEntry, error) {
	return m.create(ctx, e)
}
func (m *mockJournalRepo) GetByID(ctx context.Context, userID, entryID int64) (domain.JournalEntry, error) {
	return m.getByID(ctx, userID, entryID)
}
func (m *mockJournalRepo) ListByUser(ctx context.Context, userID int64) ([]domain.JournalEntry, error) {
	return m.listByUser(ctx, userID)
}
func (m *mockJournalRepo) ExistsForSite(ctx context.Context, userID, siteID int64) (bool, error) {
	return m.existsForSite(ctx, userID, siteID)
}
func (m *mockJournalRepo) Update(ctx context.Context, e domain.JournalEntry) (domain.JournalEntry, error) {
	return m.update(ctx, e)
}
func (m *mockJournalRepo) Delete(ctx context.Context, userID, entryID int64) error {
	return m.delete(ctx, userID, entryID)
}

type mockDirectory struct {
	search func(ctx context.Context, params map[string]any) ([]byte, error)
	detail func(ctx context.Context, id int64) (divesites.Site, error)
}

func (m *mockDirectory) Search(ctx context.Context, params map[string]any) ([]byte, error) {
	return m.search(ctx, params)
}
func (m *mockDirectory) Detail(ctx context.Context, id int64) (divesites.Site, error) {
	return m.detail(ctx, id)
}

type mockGeocoder struct {
	reverse func(ctx context.Context, lat, lng float64) (string, error)
}

func (m *mockGeocoder) Reverse(ctx context.Context, lat, lng float64) (string, error) {
	return m.reverse(ctx, lat, lng)
}

type mockTokens struct {
	generate func(email string) (string, error)
	confirm  func(token string) (string, error)
}

func (m *mockTokens) Generate(email string) (string, error) { return m.generate(email) }
func (m *mockTokens) Confirm(token string) (string, error)  { return m.confirm(token) }

type mockSender struct {
	send func(ctx context.Context, msg mail.Message) error
}

func (m *mockSender) Send(ctx context.Context, msg mail.Message) error { return m.send(ctx, msg) }

// compile-time checks: mocks must satisfy the interfaces they stand in for.
var (
	_ repo.UserRepo           = (*mockUserRepo)(nil)
	_ repo.DiveSiteRepo       = (*mockDiveSiteRepo)(nil)
	_ repo.BucketListRepo     = (*mockBucketListRepo)(nil)
	_ repo.JournalRepo        = (*mockJournalRepo)(nil)
	_ service.DirectoryClient = (*mockDirectory)(nil)
	_ service.Geocoder        = (*mockGeocoder)(nil)
	_ service.TokenIssuer     = (*mockTokens)(nil)
	_ mail.Sender             = (*mockSender)(nil)
)
