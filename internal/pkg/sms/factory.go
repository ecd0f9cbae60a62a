package sms

import (
	"fmt"
	"net/http"
	"time"
)

const (
	// DriverTwilio sends through a Twilio-compatible REST gateway.
	DriverTwilio = "twilio"
	// DriverLog writes messages to the log with digits masked.
	DriverLog = "log"
)

// Config selects and configures a driver.
type Config struct {
	Driver     string
	BaseURL    string
	AccountSID string
	AuthToken  string
	From       string
	Timeout    time.Duration
	Retries    uint64
	RetryBase  time.Duration
}

// New builds the SMS implementation named by cfg.Driver.
func New(cfg Config) (SMS, error) {
	switch cfg.Driver {
	case DriverTwilio:
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}

		return NewGateway(GatewayConfig{
			BaseURL:    cfg.BaseURL,
			AccountSID: cfg.AccountSID,
			AuthToken:  cfg.AuthToken,
			From:       cfg.From,
			Retries:    cfg.Retries,
			RetryBase:  cfg.RetryBase,
			Client:     &http.Client{Timeout: timeout},
		})
	case DriverLog, "":
		return NewLog(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}
