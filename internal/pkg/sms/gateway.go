package sms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptrace"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/atomic"
)

// errGatewayUnavailable marks failures where the message was certainly not
// accepted: a request that never went out, 429 or 5xx.
var errGatewayUnavailable = errors.New("sms: gateway unavailable")

// ErrGatewayConfig is returned when required gateway settings are missing.
var ErrGatewayConfig = errors.New("sms: base url, account sid, auth token and sender are required")

// GatewayConfig configures the REST gateway.
type GatewayConfig struct {
	BaseURL    string
	AccountSID string
	AuthToken  string
	From       string
	Retries    uint64
	RetryBase  time.Duration
	Client     *http.Client
}

// Gateway posts messages to "<base>/2010-04-01/Accounts/<sid>/Messages.json"
// with basic auth and a form body of To, From and Body.
type Gateway struct {
	endpoint string
	cfg      GatewayConfig
}

type gatewayError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// NewGateway validates cfg and returns a Gateway.
func NewGateway(cfg GatewayConfig) (*Gateway, error) {
	if cfg.BaseURL == "" || cfg.AccountSID == "" || cfg.AuthToken == "" || cfg.From == "" {
		return nil, ErrGatewayConfig
	}
	if cfg.Client == nil {
		cfg.Client = http.DefaultClient
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 200 * time.Millisecond
	}

	endpoint, err := url.JoinPath(cfg.BaseURL, "2010-04-01", "Accounts", cfg.AccountSID, "Messages.json")
	if err != nil {
		return nil, fmt.Errorf("sms: build endpoint: %w", err)
	}

	return &Gateway{endpoint: endpoint, cfg: cfg}, nil
}

// Send posts msg to the gateway. 5xx and 429 responses and requests that
// failed before being written are retried. A connection lost after the
// request was written fails with ErrDeliveryUnknown and is not retried, so a
// code is never sent twice. Other 4xx responses fail with ErrGatewayRejected.
func (g *Gateway) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}

	form := url.Values{}
	form.Set("To", msg.To)
	form.Set("From", g.cfg.From)
	form.Set("Body", msg.Body)
	payload := form.Encode()

	b := retry.NewExponential(g.cfg.RetryBase)
	b = retry.WithMaxRetries(g.cfg.Retries, b)
	b = retry.WithCappedDuration(5*time.Second, b)

	return retry.Do(ctx, b, func(ctx context.Context) error {
		err := g.post(ctx, payload)
		if !errors.Is(err, errGatewayUnavailable) {
			return err
		}

		slog.WarnContext(ctx, "sms gateway send failed, retrying", "error", err)
		return retry.RetryableError(err)
	})
}

func (g *Gateway) post(ctx context.Context, payload string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, strings.NewReader(payload))
	if err != nil {
		return err
	}
	req.SetBasicAuth(g.cfg.AccountSID, g.cfg.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	var wrote atomic.Bool
	req = req.WithContext(httptrace.WithClientTrace(ctx, &httptrace.ClientTrace{
		WroteRequest: func(info httptrace.WroteRequestInfo) { wrote.Store(info.Err == nil) },
	}))

	resp, err := g.cfg.Client.Do(req)
	if err != nil {
		if wrote.Load() {
			return fmt.Errorf("%w: %w", ErrDeliveryUnknown, err)
		}
		return fmt.Errorf("%w: %w", errGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	var gerr gatewayError
	_ = json.NewDecoder(io.LimitReader(resp.Body, 4<<10)).Decode(&gerr)

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return fmt.Errorf("%w: status %d: %s", errGatewayUnavailable, resp.StatusCode, gerr.Message)
	}

	return fmt.Errorf("%w: status %d code %d: %s", ErrGatewayRejected, resp.StatusCode, gerr.Code, gerr.Message)
}

// Close releases idle connections.
func (g *Gateway) Close() error {
	g.cfg.Client.CloseIdleConnections()
	return nil
}
