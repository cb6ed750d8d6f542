// Package notify delivers outbound email over SMTP.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/hope-foundation/apiserver/config"
	"github.com/hope-foundation/apiserver/internal/logging"
	"github.com/hope-foundation/apiserver/types"
)

// ErrNotConfigured is returned when no SMTP host or recipient is set.
var ErrNotConfigured = errors.New("smtp not configured")

// Message is a plain-text email.
type Message struct {
	To      []string
	ReplyTo string
	Subject string
	Body    string
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Mailer sends mail through the configured relay. smtp.SendMail upgrades
// to STARTTLS whenever the server offers it.
type Mailer struct {
	cfg  config.SMTPConfig
	log  *slog.Logger
	send sendFunc
	now  func() time.Time
}

func NewMailer(cfg config.SMTPConfig, log *slog.Logger) *Mailer {
	if log == nil {
		log = logging.Discard()
	}
	return &Mailer{cfg: cfg, log: log, send: smtp.SendMail, now: time.Now}
}

// Enabled reports whether a relay and contact inbox are configured.
func (m *Mailer) Enabled() bool {
	return m.cfg.Host != "" && m.cfg.ContactInbox != ""
}

func (m *Mailer) Send(ctx context.Context, msg Message) error {
	const op = "notify.Mailer.Send"
	log := m.log.With(slog.String("op", op))

	if m.cfg.Host == "" {
		return ErrNotConfigured
	}
	if len(msg.To) == 0 {
		return errors.New("message has no recipients")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if m.cfg.User != "" {
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)
	}
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	if err := m.send(addr, auth, m.cfg.From, msg.To, m.build(msg)); err != nil {
		log.Error("failed to send mail", logging.Err(err), slog.String("subject", msg.Subject))
		return fmt.Errorf("%s: %w", op, err)
	}
	log.Info("mail sent", slog.Int("recipients", len(msg.To)))
	return nil
}

// SendContact forwards a contact form submission to the contact inbox.
func (m *Mailer) SendContact(ctx context.Context, contact types.ContactMessage) error {
	if m.cfg.ContactInbox == "" {
		return ErrNotConfigured
	}
	subject := strings.TrimSpace(contact.Subject)
	if subject == "" {
		subject = "New message"
	}
	body := fmt.Sprintf("From: %s <%s>\nReceived: %s\n\n%s\n",
		contact.Name, contact.Email, contact.SubmittedAt.Format(time.RFC1123Z), contact.Message)

	return m.Send(ctx, Message{
		To:      []string{m.cfg.ContactInbox},
		ReplyTo: contact.Email,
		Subject: "[Contact] " + subject,
		Body:    body,
	})
}

func (m *Mailer) build(msg Message) []byte {
	var b strings.Builder
	writeHeader := func(key, value string) {
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(stripNewlines(value))
		b.WriteString("\r\n")
	}
	writeHeader("From", m.cfg.From)
	writeHeader("To", strings.Join(msg.To, ", "))
	if msg.ReplyTo != "" {
		writeHeader("Reply-To", msg.ReplyTo)
	}
	writeHeader("Subject", mime.QEncoding.Encode("utf-8", stripNewlines(msg.Subject)))
	writeHeader("Date", m.now().Format(time.RFC1123Z))
	writeHeader("MIME-Version", "1.0")
	writeHeader("Content-Type", `text/plain; charset="utf-8"`)
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	return []byte(b.String())
}

func stripNewlines(s string) string {
	return strings.NewReplacer("\r", "", "\n", "").Replace(s)
}
