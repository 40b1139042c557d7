package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"

	"github.com/pkordes/dive-logbook/internal/domain"
	"github.com/pkordes/dive-logbook/internal/mail"
	"github.com/pkordes/dive-logbook/internal/metrics"
	"github.com/pkordes/dive-logbook/internal/repo"
)

// TokenIssuer signs and verifies email confirmation tokens.
// *token.Confirmer satisfies it.
type TokenIssuer interface {
	Generate(email string) (string, error)
	Confirm(token string) (string, error)
}

const confirmSubject = "Please confirm your email"

var confirmEmail = template.Must(template.New("confirm").Parse(
	`<p>Welcome {{.Username}}! Thanks for signing up. Please follow this link to activate your account:</p>
<p><a href="{{.Link}}">{{.Link}}</a></p>
<br>
<p>Cheers!</p>`))

// ConfirmationService sends confirmation links and redeems them.
type ConfirmationService struct {
	users   repo.UserRepo
	tokens  TokenIssuer
	mailer  mail.Sender
	baseURL string
}

// NewConfirmationService constructs a ConfirmationService. Links in emails
// are built on baseURL, which has no trailing slash.
func NewConfirmationService(users repo.UserRepo, tokens TokenIssuer, mailer mail.Sender, baseURL string) *ConfirmationService {
	return &ConfirmationService{users: users, tokens: tokens, mailer: mailer, baseURL: baseURL}
}

// Send emails user a confirmation link.
func (s *ConfirmationService) Send(ctx context.Context, user domain.User) (err error) {
	defer func() { metrics.RecordConfirmationEmail(err) }()

	tok, err := s.tokens.Generate(user.Email)
	if err != nil {
		return fmt.Errorf("service.ConfirmationService.Send: %w", err)
	}

	var body bytes.Buffer
	data := struct{ Username, Link string }{user.Username, s.baseURL + "/confirm/" + tok}
	if err := confirmEmail.Execute(&body, data); err != nil {
		return fmt.Errorf("service.ConfirmationService.Send: render: %w", err)
	}

	msg := mail.Message{To: user.Email, Subject: confirmSubject, HTML: body.String()}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("service.ConfirmationService.Send: %w", err)
	}
	return nil
}

// Confirm redeems a token and marks its user confirmed.
// Returns domain.ErrInvalidToken for a bad or expired token (or one whose
// email no longer belongs to any account) and domain.ErrAlreadyConfirmed,
// together with the user, when there is nothing to do.
func (s *ConfirmationService) Confirm(ctx context.Context, token string) (domain.User, error) {
	email, err := s.tokens.Confirm(token)
	if err != nil {
		return domain.User{}, fmt.Errorf("service.ConfirmationService.Confirm: %w: %v", domain.ErrInvalidToken, err)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.User{}, fmt.Errorf("service.ConfirmationService.Confirm: %w: no account for token", domain.ErrInvalidToken)
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("service.ConfirmationService.Confirm: %w", err)
	}
	if user.Confirmed {
		return user, domain.ErrAlreadyConfirmed
	}

	user, err = s.users.MarkConfirmed(ctx, email)
	if err != nil {
		return domain.User{}, fmt.Errorf("service.ConfirmationService.Confirm: %w", err)
	}
	return user, nil
}
