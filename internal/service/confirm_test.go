package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/dive-logbook/internal/domain"
	"github.com/pkordes/dive-logbook/internal/mail"
	"github.com/pkordes/dive-logbook/internal/service"
	"github.com/pkordes/dive-logbook/internal/token"
)

func TestConfirmationService_Send(t *testing.T) {
	var sent mail.Message
	sender := &mockSender{send: func(_ context.Context, msg mail.Message) error {
		sent = msg
		return nil
	}}
	tokens := &mockTokens{generate: func(email string) (string, error) { return "tok-" + email, nil }}
	svc := service.NewConfirmationService(&mockUserRepo{}, tokens, sender, "https://dive.example.com")

	err := svc.Send(context.Background(), domain.User{Username: "diver1", Email: "diver1@test.com"})

	require.NoError(t, err)
	assert.Equal(t, "diver1@test.com", sent.To)
	assert.Equal(t, "Please confirm your email", sent.Subject)
	assert.Contains(t, sent.HTML, `href="https://dive.example.com/confirm/tok-diver1@test.com"`)
	assert.Contains(t, sent.HTML, "Welcome diver1!")
}

func TestConfirmationService_Send_MailError(t *testing.T) {
	mailErr := errors.New("smtp down")
	sender := &mockSender{send: func(context.Context, mail.Message) error { return mailErr }}
	tokens := &mockTokens{generate: func(string) (string, error) { return "tok", nil }}
	svc := service.NewConfirmationService(&mockUserRepo{}, tokens, sender, "http://localhost:8080")

	err := svc.Send(context.Background(), domain.User{Email: "diver1@test.com"})

	assert.ErrorIs(t, err, mailErr)
}

// TestConfirmationService_Confirm_RealTokens drives the service with the real
// token package end to end.
func TestConfirmationService_Confirm_RealTokens(t *testing.T) {
	confirmedAt := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	user := domain.User{ID: 1, Username: "diver1", Email: "diver1@test.com"}
	users := &mockUserRepo{
		getByEmail: func(_ context.Context, email string) (domain.User, error) {
			if email != user.Email {
				return domain.User{}, domain.ErrNotFound
			}
			return user, nil
		},
		markConfirmed: func(_ context.Context, email string) (domain.User, error) {
			user.Confirmed = true
			user.ConfirmedAt = &confirmedAt
			return user, nil
		},
	}
	confirmer := token.NewConfirmer("secret", "salt")
	svc := service.NewConfirmationService(users, confirmer, &mockSender{}, "")

	tok, err := confirmer.Generate("diver1@test.com")
	require.NoError(t, err)

	got, err := svc.Confirm(context.Background(), tok)
	require.NoError(t, err)
	assert.True(t, got.Confirmed)

	_, err = svc.Confirm(context.Background(), tok)
	assert.ErrorIs(t, err, domain.ErrAlreadyConfirmed)

	_, err = svc.Confirm(context.Background(), "garbage")
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestConfirmationService_Confirm_UnknownEmail(t *testing.T) {
	users := &mockUserRepo{
		getByEmail: func(context.Context, string) (domain.User, error) { return domain.User{}, domain.ErrNotFound },
	}
	tokens := &mockTokens{confirm: func(string) (string, error) { return "gone@test.com", nil }}
	svc := service.NewConfirmationService(users, tokens, &mockSender{}, "")

	_, err := svc.Confirm(context.Background(), "tok")

	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}
