package mail

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captured struct {
	addr string
	from string
	to   []string
	msg  string
}

func newTestSMTP(t *testing.T, out *captured, err error) *SMTP {
	t.Helper()

	s, nerr := NewSMTP(SMTPConfig{Host: "localhost", Port: 1025, From: "no-reply@gosignup.local"})
	require.NoError(t, nerr)
	s.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		*out = captured{addr: addr, from: from, to: to, msg: string(msg)}
		return err
	}
	return s
}

func TestNewSMTP_RequiresHostPort(t *testing.T) {
	_, err := NewSMTP(SMTPConfig{})
	assert.ErrorIs(t, err, ErrSMTPHostPortRequired)
}

func TestSMTP_SendMultipart(t *testing.T) {
	// Arrange
	var out captured
	s := newTestSMTP(t, &out, nil)

	// Act
	err := s.Send(context.Background(), Message{
		To:       []string{"a@x.com"},
		Bcc:      []string{"audit@x.com"},
		Subject:  "Verify your account",
		TextBody: "code 123456",
		HTMLBody: "<p>code 123456</p>",
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "localhost:1025", out.addr)
	assert.Equal(t, "no-reply@gosignup.local", out.from)
	assert.Equal(t, []string{"a@x.com", "audit@x.com"}, out.to)
	assert.Contains(t, out.msg, "Subject: Verify your account\r\n")
	assert.Contains(t, out.msg, "multipart/alternative; boundary=gosignup-alt-")
	assert.NotContains(t, out.msg, "audit@x.com")
	assert.Contains(t, out.msg, "Content-Type: text/plain; charset=UTF-8\r\n\r\ncode 123456")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out.msg), "--"))
}

func TestSMTP_SendErrors(t *testing.T) {
	var out captured
	s := newTestSMTP(t, &out, nil)

	err := s.Send(context.Background(), Message{Subject: "x"})
	assert.ErrorIs(t, err, ErrSMTPNoRecipients)

	noSender := newTestSMTP(t, &out, nil)
	noSender.defaultFrom = ""
	err = noSender.Send(context.Background(), Message{To: []string{"a@x.com"}})
	assert.ErrorIs(t, err, ErrSMTPNoSender)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = s.Send(ctx, Message{To: []string{"a@x.com"}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, out.to)
}

type flakyMail struct {
	failures int
	calls    int
	err      error
}

func (f *flakyMail) Send(context.Context, Message) error {
	f.calls++
	if f.calls <= f.failures {
		return f.err
	}
	return nil
}

func (f *flakyMail) Close() error { return nil }

func TestRetrying_Send(t *testing.T) {
	t.Run("recovers from transient failure", func(t *testing.T) {
		inner := &flakyMail{failures: 2, err: errors.New("421 try again")}
		r := NewRetrying(inner, 3, time.Millisecond)

		require.NoError(t, r.Send(context.Background(), Message{To: []string{"a@x.com"}}))
		assert.Equal(t, 3, inner.calls)
	})

	t.Run("gives up after attempts", func(t *testing.T) {
		inner := &flakyMail{failures: 10, err: errors.New("connection refused")}
		r := NewRetrying(inner, 2, time.Millisecond)

		err := r.Send(context.Background(), Message{To: []string{"a@x.com"}})
		require.Error(t, err)
		assert.Equal(t, 3, inner.calls)
	})

	t.Run("permanent error is not retried", func(t *testing.T) {
		inner := &flakyMail{failures: 10, err: ErrSMTPNoSender}
		r := NewRetrying(inner, 5, time.Millisecond)

		err := r.Send(context.Background(), Message{})
		assert.ErrorIs(t, err, ErrSMTPNoSender)
		assert.Equal(t, 1, inner.calls)
	})
}
