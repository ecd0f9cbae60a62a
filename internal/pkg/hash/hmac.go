package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// HMACSHA256 signs values with a keyed SHA-256. Session ids carried in
// cookies are signed with it.
type HMACSHA256 struct {
	key []byte
}

// NewHMACSHA256 returns a signer keyed by secret.
func NewHMACSHA256(secret string) *HMACSHA256 {
	return &HMACSHA256{key: []byte(secret)}
}

// Hash returns the lowercase hex signature of value.
func (s *HMACSHA256) Hash(value string) ([]byte, error) {
	return s.sign(value), nil
}

// Verify reports whether sig is the signature of value.
func (s *HMACSHA256) Verify(sig, value string) bool {
	return hmac.Equal([]byte(sig), s.sign(value))
}

func (s *HMACSHA256) sign(value string) []byte {
	mac := hmac.New(sha256.New, s.key)
	_, _ = mac.Write([]byte(value))
	return hex.AppendEncode(nil, mac.Sum(nil))
}
