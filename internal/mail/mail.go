// Package mail sends outbound email. The SMTP sender speaks implicit TLS
// (port 465) or STARTTLS; the log sender stands in when delivery is suppressed.
package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/pkordes/dive-logbook/internal/config"
)

// Message is a single HTML email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender delivers a Message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// New returns the Sender described by cfg: a LogSender when delivery is
// suppressed, otherwise an SMTPSender.
func New(cfg config.Mail, logger *slog.Logger) Sender {
	if cfg.Suppress {
		return NewLogSender(logger)
	}
	return NewSMTPSender(cfg)
}

// SMTPSender delivers mail through an authenticated SMTP server.
// The envelope sender is the account username.
type SMTPSender struct {
	cfg config.Mail
}

// NewSMTPSender constructs an SMTPSender.
func NewSMTPSender(cfg config.Mail) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	addr := net.JoinHostPort(s.cfg.Server, strconv.Itoa(s.cfg.Port))
	tlsConfig := &tls.Config{ServerName: s.cfg.Server, MinVersion: tls.VersionTLS12}

	dialer := &net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("mail.SMTPSender.Send: dial: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	if s.cfg.UseSSL {
		conn = tls.Client(conn, tlsConfig)
	}

	c, err := smtp.NewClient(conn, s.cfg.Server)
	if err != nil {
		conn.Close()
		return fmt.Errorf("mail.SMTPSender.Send: handshake: %w", err)
	}
	defer c.Close()

	if !s.cfg.UseSSL {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(tlsConfig); err != nil {
				return fmt.Errorf("mail.SMTPSender.Send: starttls: %w", err)
			}
		}
	}
	if s.cfg.Username != "" {
		auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Server)
		if err := c.Auth(auth); err != nil {
			return fmt.Errorf("mail.SMTPSender.Send: auth: %w", err)
		}
	}

	if err := c.Mail(s.cfg.Username); err != nil {
		return fmt.Errorf("mail.SMTPSender.Send: MAIL FROM: %w", err)
	}
	if err := c.Rcpt(msg.To); err != nil {
		return fmt.Errorf("mail.SMTPSender.Send: RCPT TO: %w", err)
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("mail.SMTPSender.Send: DATA: %w", err)
	}
	if _, err := w.Write(Build(s.cfg.Username, msg)); err != nil {
		return fmt.Errorf("mail.SMTPSender.Send: write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("mail.SMTPSender.Send: close data: %w", err)
	}
	return c.Quit()
}

// Build renders msg as an RFC 5322 message with an HTML body.
func Build(from string, msg Message) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(msg.HTML, "\n", "\r\n"))
	b.WriteString("\r\n")
	return b.Bytes()
}

// LogSender records messages in the log instead of delivering them.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender constructs a LogSender. A nil logger uses slog.Default.
func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.logger.InfoContext(ctx, "mail suppressed", "to", msg.To, "subject", msg.Subject)
	return nil
}
