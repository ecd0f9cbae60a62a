package hash

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

const (
	// DriverBcrypt selects the bcrypt password hasher.
	DriverBcrypt = "bcrypt"
	// DriverArgon2id selects the argon2id password hasher.
	DriverArgon2id = "argon2id"
)

// ErrUnknownDriver indicates an unsupported password hash driver.
var ErrUnknownDriver = errors.New("hash: unknown driver")

// Hash hashes a plaintext and verifies a plaintext against a stored hash.
type Hash interface {
	Hash(plaintext string) ([]byte, error)
	Verify(hashed, plaintext string) bool
}

// PasswordOptions configures NewPassword. Peppers are mixed into the
// plaintext before hashing and live in configuration, never in the database.
type PasswordOptions struct {
	BcryptCost     int
	BcryptPepper   string
	Argon2idPepper string
}

// NewPassword returns the password hasher named by driver. Empty means bcrypt.
func NewPassword(driver string, opts PasswordOptions) (Hash, error) {
	switch strings.TrimSpace(driver) {
	case DriverBcrypt, "":
		return NewBcrypt(opts.BcryptCost, opts.BcryptPepper), nil
	case DriverArgon2id:
		return NewArgon2id(opts.Argon2idPepper), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, driver)
	}
}

// Bcrypt hashes passwords with bcrypt. The plaintext is first keyed with
// the pepper through HMAC-SHA256 and base64 encoded, so bcrypt always sees
// 44 bytes and its 72-byte input limit never depends on the password length.
type Bcrypt struct {
	cost   int
	pepper string
}

// NewBcrypt returns a bcrypt hasher. Out of range costs use bcrypt.DefaultCost.
func NewBcrypt(cost int, pepper string) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{cost: cost, pepper: pepper}
}

func (b *Bcrypt) Hash(plaintext string) ([]byte, error) {
	return bcrypt.GenerateFromPassword(b.prehash(plaintext), b.cost)
}

func (b *Bcrypt) Verify(hashed, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), b.prehash(plaintext)) == nil
}

func (b *Bcrypt) prehash(plaintext string) []byte {
	mac := hmac.New(sha256.New, []byte(b.pepper))
	_, _ = mac.Write([]byte(plaintext))
	return base64.StdEncoding.AppendEncode(nil, mac.Sum(nil))
}

// argon2Params are the cost parameters encoded in every argon2id hash.
type argon2Params struct {
	memory  uint32 // KiB
	time    uint32
	threads uint8
}

// Argon2id hashes passwords with argon2id and encodes them in PHC form:
// $argon2id$v=19$m=..,t=..,p=..$salt$key
type Argon2id struct {
	params argon2Params
	pepper string
}

const (
	argon2SaltLen = 16
	argon2KeyLen  = 32
)

// NewArgon2id returns an argon2id hasher with OWASP recommended costs.
func NewArgon2id(pepper string) *Argon2id {
	return &Argon2id{params: argon2Params{memory: 32 * 1024, time: 3, threads: 2}, pepper: pepper}
}

func (a *Argon2id) Hash(plaintext string) ([]byte, error) {
	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}

	p := a.params
	key := argon2.IDKey([]byte(plaintext+a.pepper), salt, p.time, p.memory, p.threads, argon2KeyLen)

	enc := base64.RawStdEncoding
	return fmt.Appendf(nil, "$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.memory, p.time, p.threads, enc.EncodeToString(salt), enc.EncodeToString(key)), nil
}

// Verify recomputes the key with the parameters stored in hashed, so hashes
// made under older costs keep verifying.
func (a *Argon2id) Verify(hashed, plaintext string) bool {
	if plaintext == "" {
		return false
	}

	p, salt, key, ok := decodeArgon2(hashed)
	if !ok {
		return false
	}

	got := argon2.IDKey([]byte(plaintext+a.pepper), salt, p.time, p.memory, p.threads, uint32(len(key))) //nolint:gosec // key length is 32
	return subtle.ConstantTimeCompare(key, got) == 1
}

func decodeArgon2(hashed string) (argon2Params, []byte, []byte, bool) {
	var p argon2Params

	parts := strings.Split(hashed, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return p, nil, nil, false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, nil, nil, false
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.threads); err != nil {
		return p, nil, nil, false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return p, nil, nil, false
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return p, nil, nil, false
	}

	return p, salt, key, true
}
