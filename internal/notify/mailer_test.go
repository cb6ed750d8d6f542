package notify

import (
	"context"
	"errors"
	"net/smtp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hope-foundation/apiserver/config"
	"github.com/hope-foundation/apiserver/types"
)

type capturedMail struct {
	addr string
	from string
	to   []string
	msg  string
	auth smtp.Auth
}

func newTestMailer(cfg config.SMTPConfig, captured *capturedMail, sendErr error) *Mailer {
	m := NewMailer(cfg, nil)
	m.now = func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		captured.addr = addr
		captured.from = from
		captured.to = to
		captured.msg = string(msg)
		captured.auth = a
		return sendErr
	}
	return m
}

func TestSendContact(t *testing.T) {
	var got capturedMail
	m := newTestMailer(config.SMTPConfig{
		Host:         "smtp.example.org",
		Port:         587,
		User:         "mailer",
		Password:     "pw",
		From:         "site@example.org",
		ContactInbox: "inbox@example.org",
	}, &got, nil)
	require.True(t, m.Enabled())

	err := m.SendContact(context.Background(), types.ContactMessage{
		Name:    "Ravi",
		Email:   "ravi@example.org",
		Subject: "Volunteering\r\nBcc: evil@example.org",
		Message: "I'd like to help.\nThanks",
	})
	require.NoError(t, err)

	assert.Equal(t, "smtp.example.org:587", got.addr)
	assert.Equal(t, "site@example.org", got.from)
	assert.Equal(t, []string{"inbox@example.org"}, got.to)
	assert.NotNil(t, got.auth)
	assert.Contains(t, got.msg, "Reply-To: ravi@example.org\r\n")
	assert.Contains(t, got.msg, "Subject: [Contact] VolunteeringBcc: evil@example.org\r\n")
	assert.NotContains(t, got.msg, "\r\nBcc:")
	assert.Contains(t, got.msg, "I'd like to help.\r\nThanks")
}

func TestSendWithoutHost(t *testing.T) {
	var got capturedMail
	m := newTestMailer(config.SMTPConfig{ContactInbox: "inbox@example.org"}, &got, nil)
	assert.False(t, m.Enabled())
	assert.ErrorIs(t, m.SendContact(context.Background(), types.ContactMessage{}), ErrNotConfigured)
}

func TestSendPropagatesRelayError(t *testing.T) {
	var got capturedMail
	relayErr := errors.New("relay refused")
	m := newTestMailer(config.SMTPConfig{Host: "smtp.example.org", Port: 25}, &got, relayErr)

	err := m.Send(context.Background(), Message{To: []string{"a@example.org"}, Subject: "hi"})
	assert.ErrorIs(t, err, relayErr)
	assert.Nil(t, got.auth)
}
