package encrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// Ciphertext layout: uint16 version | 12-byte nonce | sealed payload and tag.
const (
	version   uint16 = 1
	nonceSize        = 12
	keySize          = 32
	headerLen        = 2 + nonceSize
)

// AESGCM implements Encryptor with AES-256-GCM.
type AESGCM struct {
	keys KeyProvider
}

// NewAESGCM constructs an AES-GCM encryptor.
func NewAESGCM(keys KeyProvider) *AESGCM {
	return &AESGCM{keys: keys}
}

// Encrypt seals plaintext for scope.
func (e *AESGCM) Encrypt(plaintext []byte, scope Scope) ([]byte, error) {
	if len(plaintext) == 0 {
		return nil, ErrPlaintextEmpty
	}

	gcm, err := e.cipher(scope)
	if err != nil {
		return nil, err
	}

	out := make([]byte, headerLen, headerLen+len(plaintext)+gcm.Overhead())
	binary.BigEndian.PutUint16(out[:2], version)
	if _, err := rand.Read(out[2:headerLen]); err != nil {
		return nil, fmt.Errorf("encrypt: nonce generation failed: %w", err)
	}

	return gcm.Seal(out, out[2:headerLen], plaintext, scopeAAD(scope)), nil
}

// Decrypt opens a ciphertext produced by Encrypt for the same scope.
func (e *AESGCM) Decrypt(ciphertext []byte, scope Scope) ([]byte, error) {
	if len(ciphertext) <= headerLen {
		return nil, ErrCiphertextTooShort
	}
	if v := binary.BigEndian.Uint16(ciphertext[:2]); v != version {
		return nil, fmt.Errorf("encrypt: version %d: %w", v, ErrUnsupportedVersion)
	}

	gcm, err := e.cipher(scope)
	if err != nil {
		return nil, err
	}

	plain, err := gcm.Open(nil, ciphertext[2:headerLen], ciphertext[headerLen:], scopeAAD(scope))
	if err != nil {
		return nil, ErrDecryptFailed
	}

	return plain, nil
}

func (e *AESGCM) cipher(scope Scope) (cipher.AEAD, error) {
	if e == nil || e.keys == nil {
		return nil, ErrNotConfigured
	}

	key, err := e.keys.Key(scope)
	if err != nil {
		return nil, fmt.Errorf("encrypt: key provider: %w", err)
	}
	if len(key) != keySize {
		return nil, fmt.Errorf("encrypt: key length %d: %w", len(key), ErrInvalidKeyLength)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("encrypt: aes init: %w", err)
	}

	return cipher.NewGCMWithNonceSize(block, nonceSize)
}

// scopeAAD hashes a labelled canonical form so the AAD has a fixed length
// and raw identifiers never appear in it.
func scopeAAD(s Scope) []byte {
	sum := sha256.Sum256(fmt.Appendf(nil, "sub=%s\npurpose=%s\n", s.Subject, s.Purpose))
	return sum[:]
}

// DerivedKey turns an arbitrary-length secret into a single AES-256 key.
type DerivedKey struct {
	Secret []byte
}

// Key returns sha256(secret) for every scope.
func (p DerivedKey) Key(_ Scope) ([]byte, error) {
	if len(p.Secret) == 0 {
		return nil, ErrMissingSecret
	}

	sum := sha256.Sum256(p.Secret)
	return sum[:], nil
}
