package encrypt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAESGCM_RoundTrip(t *testing.T) {
	// Arrange
	enc := NewAESGCM(DerivedKey{Secret: []byte("session-secret")})
	scope := Scope{Subject: "sid-1", Purpose: PurposePendingSignup}

	// Act
	sealed, err := enc.Encrypt([]byte(`{"username":"alice"}`), scope)
	require.NoError(t, err)
	plain, err := enc.Decrypt(sealed, scope)

	// Assert
	require.NoError(t, err)
	assert.JSONEq(t, `{"username":"alice"}`, string(plain))
	assert.NotContains(t, string(sealed), "alice")
}

func TestAESGCM_WrongScope(t *testing.T) {
	enc := NewAESGCM(DerivedKey{Secret: []byte("session-secret")})

	sealed, err := enc.Encrypt([]byte("draft"), Scope{Subject: "sid-1", Purpose: PurposePendingSignup})
	require.NoError(t, err)

	_, err = enc.Decrypt(sealed, Scope{Subject: "sid-2", Purpose: PurposePendingSignup})
	assert.ErrorIs(t, err, ErrDecryptFailed)
}

func TestAESGCM_Errors(t *testing.T) {
	enc := NewAESGCM(DerivedKey{Secret: []byte("s")})
	scope := Scope{Subject: "x"}

	_, err := enc.Encrypt(nil, scope)
	assert.ErrorIs(t, err, ErrPlaintextEmpty)

	_, err = enc.Decrypt([]byte{0, 1, 2}, scope)
	assert.ErrorIs(t, err, ErrCiphertextTooShort)

	bad := make([]byte, headerLen+4)
	bad[1] = 9
	_, err = enc.Decrypt(bad, scope)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)

	_, err = NewAESGCM(DerivedKey{}).Encrypt([]byte("x"), scope)
	assert.ErrorIs(t, err, ErrMissingSecret)

	var nilEnc *AESGCM
	_, err = nilEnc.Encrypt([]byte("x"), scope)
	assert.ErrorIs(t, err, ErrNotConfigured)
}
