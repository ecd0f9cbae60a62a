package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
app:
  server:
    cors: "http://localhost:3000, ,http://example.com"
modules:
  signup:
    delivery_policy: strict_email
    otp_ttl_seconds: 300
    providers:
      - smtp
      - " twilio "
`

func TestViper_Getters(t *testing.T) {
	cfg, err := NewViperFromBytes("yaml", []byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "strict_email", cfg.GetString("modules.signup.delivery_policy"))
	assert.Equal(t, 300*time.Second, cfg.GetSecond("modules.signup.otp_ttl_seconds"))
	assert.Equal(t, []string{"http://localhost:3000", "http://example.com"}, cfg.GetArray("app.server.cors"))
	assert.Equal(t, []string{"smtp", "twilio"}, cfg.GetArray("modules.signup.providers"))
	assert.Empty(t, cfg.GetArray("missing.key"))
	assert.NoError(t, cfg.Close())
}

func TestViper_EnvOverride(t *testing.T) {
	t.Setenv("GOSIGNUP_MODULES_SIGNUP_DELIVERY_POLICY", "best_effort")

	cfg, err := NewViperFromBytes("yaml", []byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "best_effort", cfg.GetString("modules.signup.delivery_policy"))
}

func TestNewViperFromBytes_RequiresType(t *testing.T) {
	_, err := NewViperFromBytes(" ", nil)
	assert.ErrorIs(t, err, ErrConfigTypeRequired)
}
