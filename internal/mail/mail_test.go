package mail_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/dive-logbook/internal/config"
	"github.com/pkordes/dive-logbook/internal/mail"
)

func TestBuild(t *testing.T) {
	raw := string(mail.Build("noreply@dive.test", mail.Message{
		To:      "diver1@test.com",
		Subject: "Please confirm your email",
		HTML:    "<p>Welcome!</p>\n<p>Click below.</p>",
	}))

	head, body, ok := strings.Cut(raw, "\r\n\r\n")
	require.True(t, ok, "headers and body are separated by a blank line")
	assert.Contains(t, head, "From: noreply@dive.test\r\n")
	assert.Contains(t, head, "To: diver1@test.com\r\n")
	assert.Contains(t, head, "Subject: Please confirm your email\r\n")
	assert.Contains(t, head, "Content-Type: text/html; charset=\"utf-8\"")
	assert.Equal(t, "<p>Welcome!</p>\r\n<p>Click below.</p>\r\n", body)
}

func TestNew_SuppressedUsesLogSender(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	sender := mail.New(config.Mail{Suppress: true}, logger)
	require.IsType(t, &mail.LogSender{}, sender)

	err := sender.Send(context.Background(), mail.Message{To: "diver1@test.com", Subject: "hi"})

	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"msg":"mail suppressed"`)
	assert.Contains(t, buf.String(), `"to":"diver1@test.com"`)
}

func TestNew_SMTP(t *testing.T) {
	sender := mail.New(config.Mail{Server: "smtp.example.com", Port: 465, UseSSL: true}, nil)

	assert.IsType(t, &mail.SMTPSender{}, sender)
}

func TestSMTPSender_DialFailure(t *testing.T) {
	// Port 0 on localhost is never listening.
	sender := mail.NewSMTPSender(config.Mail{Server: "127.0.0.1", Port: 0})

	err := sender.Send(context.Background(), mail.Message{To: "diver1@test.com"})

	assert.ErrorContains(t, err, "mail.SMTPSender.Send: dial")
}
