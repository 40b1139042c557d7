package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/dive-logbook/internal/domain"
)

// UserRepo defines the persistence operations for Users.
// The service layer depends on this interface, not the concrete Postgres implementation,
// which allows the service to be unit-tested with a mock.
type UserRepo interface {
	// Create inserts a new user and returns the persisted record.
	// Returns domain.ErrConflict if the username or email is already taken.
	Create(ctx context.Context, user domain.User) (domain.User, error)

	// GetByID retrieves a user by primary key.
	// Returns domain.ErrNotFound if no user with that ID exists.
	GetByID(ctx context.Context, id int64) (domain.User, error)

	// GetByUsername retrieves a user by exact, case-sensitive username.
	// Returns domain.ErrNotFound if no user has that username.
	GetByUsername(ctx context.Context, username string) (domain.User, error)

	// GetByEmail retrieves a user by exact email address.
	// Returns domain.ErrNotFound if no user has that email.
	GetByEmail(ctx context.Context, email string) (domain.User, error)

	// UpdateProfile overwrites username and email.
	// Returns domain.ErrConflict on a uniqueness collision and
	// domain.ErrNotFound if the user does not exist.
	UpdateProfile(ctx context.Context, id int64, username, email string) (domain.User, error)

	// MarkConfirmed flags the user owning email as confirmed. Confirming an
	// already-confirmed user keeps the original confirmation time.
	// Returns domain.ErrNotFound if no user has that email.
	MarkConfirmed(ctx context.Context, email string) (domain.User, error)

	// Delete removes a user. Bucket-list and journal rows cascade.
	// Returns domain.ErrNotFound if the user does not exist.
	Delete(ctx context.Context, id int64) error
}

// pgUserRepo is the Postgres implementation of UserRepo.
type pgUserRepo struct {
	db db
}

// NewUserRepo constructs a UserRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewUserRepo(db db) UserRepo {
	return &pgUserRepo{db: db}
}

const userColumns = `id, username, email, password, confirmed, confirmed_at, created_at`

func (r *pgUserRepo) Create(ctx context.Context, user domain.User) (domain.User, error) {
	const q = `
		INSERT INTO users (username, email, password, confirmed)
		VALUES (@username, @email, @password, @confirmed)
		RETURNING ` + userColumns

	args := pgx.NamedArgs{
		"username":  user.Username,
		"email":     user.Email,
		"password":  user.PasswordHash,
		"confirmed": user.Confirmed,
	}

	result, err := scanUser(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.User{}, fmt.Errorf("repo.UserRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgUserRepo) GetByID(ctx context.Context, id int64) (domain.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = @id`

	result, err := scanUser(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.User{}, fmt.Errorf("repo.UserRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgUserRepo) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE username = @username`

	result, err := scanUser(r.db.QueryRow(ctx, q, pgx.NamedArgs{"username": username}))
	if err != nil {
		return domain.User{}, fmt.Errorf("repo.UserRepo.GetByUsername: %w", err)
	}
	return result, nil
}

func (r *pgUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE email = @email`

	result, err := scanUser(r.db.QueryRow(ctx, q, pgx.NamedArgs{"email": email}))
	if err != nil {
		return domain.User{}, fmt.Errorf("repo.UserRepo.GetByEmail: %w", err)
	}
	return result, nil
}

func (r *pgUserRepo) UpdateProfile(ctx context.Context, id int64, username, email string) (domain.User, error) {
	const q = `
		UPDATE users
		SET username = @username,
		    email    = @email
		WHERE id = @id
		RETURNING ` + userColumns

	args := pgx.NamedArgs{"id": id, "username": username, "email": email}

	result, err := scanUser(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.User{}, fmt.Errorf("repo.UserRepo.UpdateProfile: %w", err)
	}
	return result, nil
}

func (r *pgUserRepo) MarkConfirmed(ctx context.Context, email string) (domain.User, error) {
	const q = `
		UPDATE users
		SET confirmed    = TRUE,
		    confirmed_at = COALESCE(confirmed_at, now())
		WHERE email = @email
		RETURNING ` + userColumns

	result, err := scanUser(r.db.QueryRow(ctx, q, pgx.NamedArgs{"email": email}))
	if err != nil {
		return domain.User{}, fmt.Errorf("repo.UserRepo.MarkConfirmed: %w", err)
	}
	return result, nil
}

func (r *pgUserRepo) Delete(ctx context.Context, id int64) error {
	const q = `DELETE FROM users WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.UserRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.UserRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// scanUser maps a single users row into a domain.User.
func scanUser(s scanner) (domain.User, error) {
	var (
		u           domain.User
		confirmedAt pgtype.Timestamptz
	)

	err := s.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Confirmed, &confirmedAt, &u.CreatedAt)
	if err != nil {
		return domain.User{}, mapError(err)
	}
	if confirmedAt.Valid {
		t := confirmedAt.Time
		u.ConfirmedAt = &t
	}
	return u, nil
}
