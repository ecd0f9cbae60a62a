package mail

import (
	"bytes"
	"cmp"
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net"
	"net/smtp"
	"net/textproto"
	"slices"
	"strconv"
	"strings"
)

var (
	// ErrSMTPHostPortRequired is returned when Host/Port are missing.
	ErrSMTPHostPortRequired = errors.New("smtp host and port are required")
	// ErrSMTPNoRecipients is returned when To/Cc/Bcc are all empty.
	ErrSMTPNoRecipients = errors.New("no recipients provided")
	// ErrSMTPNoSender is returned when both Message.From and the configured default From are empty.
	ErrSMTPNoSender = errors.New("no sender provided")
)

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTP delivers mail through a relay with net/smtp, one connection per
// message. Bcc recipients get the envelope but no header.
type SMTP struct {
	addr        string
	defaultFrom string
	auth        smtp.Auth
	send        sendFunc
}

// SMTPConfig configures the SMTP implementation. Authentication is used
// only when both Username and Password are set.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// NewSMTP constructs an SMTP mail sender.
func NewSMTP(cfg SMTPConfig) (*SMTP, error) {
	if cfg.Host == "" || cfg.Port == 0 {
		return nil, ErrSMTPHostPortRequired
	}

	s := &SMTP{
		addr:        net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		defaultFrom: cfg.From,
		send:        smtp.SendMail,
	}
	if cfg.Username != "" && cfg.Password != "" {
		s.auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	return s, nil
}

// Send delivers msg. net/smtp cannot be interrupted, so ctx is only checked
// before dialing.
func (s *SMTP) Send(ctx context.Context, msg Message) error {
	rcpt := slices.Concat(msg.To, msg.Cc, msg.Bcc)
	if len(rcpt) == 0 {
		return ErrSMTPNoRecipients
	}

	from := cmp.Or(msg.From, s.defaultFrom)
	if from == "" {
		return ErrSMTPNoSender
	}

	raw, err := compose(from, msg)
	if err != nil {
		return fmt.Errorf("compose message: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	return s.send(s.addr, s.auth, from, rcpt, raw)
}

// Close is a no-op; every Send dials its own connection.
func (s *SMTP) Close() error {
	return nil
}

// compose renders the RFC 5322 message. With both bodies it is a
// multipart/alternative, text part first.
func compose(from string, msg Message) ([]byte, error) {
	var buf bytes.Buffer

	header := func(k, v string) { fmt.Fprintf(&buf, "%s: %s\r\n", k, v) }
	header("From", from)
	header("To", strings.Join(msg.To, ", "))
	if len(msg.Cc) > 0 {
		header("Cc", strings.Join(msg.Cc, ", "))
	}
	header("Subject", mime.QEncoding.Encode("utf-8", msg.Subject))
	header("MIME-Version", "1.0")

	if msg.HTMLBody == "" || msg.TextBody == "" {
		ct, body := "text/plain; charset=UTF-8", msg.TextBody
		if msg.HTMLBody != "" {
			ct, body = "text/html; charset=UTF-8", msg.HTMLBody
		}
		header("Content-Type", ct)
		buf.WriteString("\r\n")
		buf.WriteString(body)
		return buf.Bytes(), nil
	}

	mw := multipart.NewWriter(&buf)
	if err := mw.SetBoundary(boundary()); err != nil {
		return nil, err
	}
	header("Content-Type", "multipart/alternative; boundary="+mw.Boundary())
	buf.WriteString("\r\n")

	for _, part := range []struct{ ct, body string }{
		{"text/plain; charset=UTF-8", msg.TextBody},
		{"text/html; charset=UTF-8", msg.HTMLBody},
	} {
		w, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {part.ct}})
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(part.body)); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func boundary() string {
	var b [12]byte
	_, _ = rand.Read(b[:])
	return "gosignup-alt-" + hex.EncodeToString(b[:])
}
