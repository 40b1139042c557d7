// Package service contains the business logic for the dive logbook.
// Services validate inputs, enforce business rules, and orchestrate repo calls.
// No SQL lives here: services depend on repo interfaces, not implementations.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/pkordes/dive-logbook/internal/domain"
	"github.com/pkordes/dive-logbook/internal/repo"
)

// UserService implements account management and password authentication.
type UserService struct {
	repo repo.UserRepo
	cost int

	// dummyHash is compared against when a username does not exist so that
	// unknown users and wrong passwords cost the same bcrypt work.
	dummyHash []byte
}

// NewUserService constructs a UserService hashing with the given bcrypt cost.
// A cost outside bcrypt's accepted range falls back to bcrypt.DefaultCost.
func NewUserService(r repo.UserRepo, cost int) *UserService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), cost)
	if err != nil {
		panic(fmt.Sprintf("service.NewUserService: dummy hash: %v", err))
	}
	return &UserService{repo: r, cost: cost, dummyHash: dummy}
}

// Signup validates input, hashes the password and creates the user.
// Returns domain.ErrConflict when the username or email is taken.
func (s *UserService) Signup(ctx context.Context, in domain.SignupInput) (domain.User, error) {
	username, email, err := normalizeAccount(in.Username, in.Email)
	if err != nil {
		return domain.User{}, err
	}
	if len(in.Password) < domain.MinPasswordLength {
		return domain.User{}, fmt.Errorf("%w: password must be at least %d characters", domain.ErrValidation, domain.MinPasswordLength)
	}
	if len(in.Password) > domain.MaxPasswordLength {
		return domain.User{}, fmt.Errorf("%w: password must be at most %d bytes", domain.ErrValidation, domain.MaxPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return domain.User{}, fmt.Errorf("service.UserService.Signup: hash: %w", err)
	}

	user, err := s.repo.Create(ctx, domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("service.UserService.Signup: %w", err)
	}
	return user, nil
}

// Authenticate checks a username and password. The username is trimmed the
// same way Signup stores it. A wrong password or unknown username is reported
// as ok=false with a nil error; err is set only when the store fails.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (domain.User, bool, error) {
	user, err := s.repo.GetByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, domain.ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return domain.User{}, false, nil
	}
	if err != nil {
		return domain.User{}, false, fmt.Errorf("service.UserService.Authenticate: %w", err)
	}

	if password == "" || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return domain.User{}, false, nil
	}
	return user, true, nil
}

// UpdateProfile changes username and email after re-checking the current
// password. Returns domain.ErrInvalidCredentials when the password is wrong
// and domain.ErrConflict when the new username or email is taken.
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, in domain.ProfileInput) (domain.User, error) {
	current, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return domain.User{}, fmt.Errorf("service.UserService.UpdateProfile: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(current.PasswordHash), []byte(in.Password)) != nil {
		return domain.User{}, domain.ErrInvalidCredentials
	}

	username, email, err := normalizeAccount(in.Username, in.Email)
	if err != nil {
		return domain.User{}, err
	}

	user, err := s.repo.UpdateProfile(ctx, userID, username, email)
	if err != nil {
		return domain.User{}, fmt.Errorf("service.UserService.UpdateProfile: %w", err)
	}
	return user, nil
}

// Delete removes the user and, through cascades, their bucket list and journal.
func (s *UserService) Delete(ctx context.Context, userID int64) error {
	if err := s.repo.Delete(ctx, userID); err != nil {
		return fmt.Errorf("service.UserService.Delete: %w", err)
	}
	return nil
}

// GetByID returns a single user by ID.
func (s *UserService) GetByID(ctx context.Context, id int64) (domain.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.User{}, fmt.Errorf("service.UserService.GetByID: %w", err)
	}
	return user, nil
}

// normalizeAccount trims and validates a username/email pair.
func normalizeAccount(username, email string) (string, string, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if username == "" {
		return "", "", fmt.Errorf("%w: username is required", domain.ErrValidation)
	}
	if email == "" {
		return "", "", fmt.Errorf("%w: email is required", domain.ErrValidation)
	}
	if utf8.RuneCountInString(username) > domain.MaxUsernameLength {
		return "", "", fmt.Errorf("%w: username must be at most %d characters", domain.ErrValidation, domain.MaxUsernameLength)
	}
	if len(email) > domain.MaxEmailLength {
		return "", "", fmt.Errorf("%w: email must be at most %d characters", domain.ErrValidation, domain.MaxEmailLength)
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return "", "", fmt.Errorf("%w: invalid email address", domain.ErrValidation)
	}
	return username, email, nil
}
