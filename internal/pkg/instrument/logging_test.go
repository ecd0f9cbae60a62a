package instrument

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskHandler_Handle(t *testing.T) {
	// Arrange
	buf := &bytes.Buffer{}
	h := &contextHandler{
		Handler: &maskHandler{
			Handler: slog.NewJSONHandler(buf, nil),
			masker:  NewMasker([]string{"password", " Email_Code ", ""}),
		},
		serviceName: "gosignup",
	}
	logger := slog.New(h)
	ctx := SetCorrelationID(context.Background(), "cid-1")

	// Act
	logger.InfoContext(ctx, "signup",
		"password", "pw123456",
		"body", `{"email_code":"123456","username":"alice"}`,
		"username", "alice",
	)

	// Assert
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "***", line["password"])
	assert.JSONEq(t, `{"email_code":"***","username":"alice"}`, line["body"].(string))
	assert.Equal(t, "alice", line["username"])
	assert.Equal(t, "cid-1", line["_cID"])
	assert.Equal(t, "gosignup", line["service"])
}

func TestMasker(t *testing.T) {
	m := NewMasker([]string{"Authorization", "phone_code"})

	got := m.Value(map[string]any{
		"phone_code": "771045",
		"nested":     []any{map[string]any{"PHONE_CODE": "1"}, "x"},
	})
	assert.Equal(t, map[string]any{
		"phone_code": Masked,
		"nested":     []any{map[string]any{"PHONE_CODE": Masked}, "x"},
	}, got)

	h := http.Header{"Authorization": {"Bearer t"}, "Accept": {"*/*"}}
	masked := m.Header(h)
	assert.Equal(t, Masked, masked.Get("Authorization"))
	assert.Equal(t, "Bearer t", h.Get("Authorization"))
	assert.Equal(t, "*/*", masked.Get("Accept"))

	_, ok := m.JSON([]byte("plain text"))
	assert.False(t, ok)
	assert.False(t, NewMasker([]string{" ", ""}).Enabled())
}

func TestCorrelationID(t *testing.T) {
	assert.Empty(t, GetCorrelationID(context.Background()))
	assert.Equal(t, "abc", GetCorrelationID(SetCorrelationID(context.Background(), "abc")))
}

func TestNewNoop(t *testing.T) {
	ins := NewNoop()
	_, span := ins.Tracer("x").Start(context.Background(), "op")
	span.End()
	assert.NoError(t, ins.Shutdown(context.Background()))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel(" WARN "))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
	assert.Equal(t, slog.LevelInfo, parseLevel("loud"))
}
