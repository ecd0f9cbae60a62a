package encrypt

import "errors"

var (
	// ErrNotConfigured indicates a missing key provider.
	ErrNotConfigured = errors.New("encrypt: not configured")
	// ErrPlaintextEmpty indicates an empty plaintext input.
	ErrPlaintextEmpty = errors.New("encrypt: plaintext is empty")
	// ErrInvalidKeyLength indicates the key is not 32 bytes.
	ErrInvalidKeyLength = errors.New("encrypt: invalid key length")
	// ErrCiphertextTooShort indicates a truncated ciphertext.
	ErrCiphertextTooShort = errors.New("encrypt: ciphertext too short")
	// ErrUnsupportedVersion indicates an unknown ciphertext version.
	ErrUnsupportedVersion = errors.New("encrypt: unsupported ciphertext version")
	// ErrDecryptFailed hides whether the key, the scope or the payload was wrong.
	ErrDecryptFailed = errors.New("encrypt: decrypt failed")
	// ErrMissingSecret indicates an empty secret for a derived key.
	ErrMissingSecret = errors.New("encrypt: missing secret")
)

// Purpose names what a sealed value is used for.
type Purpose string

// PurposePendingSignup scopes unconfirmed signup drafts held in a session.
const PurposePendingSignup Purpose = "pending_signup"

// Scope binds a ciphertext to its owner and purpose.
type Scope struct {
	Subject string
	Purpose Purpose
}

// Encryptor seals and opens values for a scope.
type Encryptor interface {
	Encrypt(plaintext []byte, scope Scope) ([]byte, error)
	Decrypt(ciphertext []byte, scope Scope) ([]byte, error)
}

// KeyProvider returns the raw 32-byte AES key for a scope.
type KeyProvider interface {
	Key(scope Scope) ([]byte, error)
}
