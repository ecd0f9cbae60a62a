package otp

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"io"
	"math/big"
	"strconv"
	"strings"

	"github.com/pquerna/otp"
)

// Generator produces fixed-width numeric codes.
type Generator interface {
	Generate() (string, error)
}

// Numeric draws codes uniformly from [0, 10^digits) and keeps leading zeros.
type Numeric struct {
	digits otp.Digits
	upper  *big.Int
	rand   io.Reader
}

// NewNumeric returns a generator for codes of the given width.
// Widths other than six or eight fall back to six.
func NewNumeric(digits otp.Digits) *Numeric {
	if digits != otp.DigitsSix && digits != otp.DigitsEight {
		digits = otp.DigitsSix
	}

	upper := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits.Length())), nil)

	return &Numeric{digits: digits, upper: upper, rand: rand.Reader}
}

// Generate returns a new code.
func (n *Numeric) Generate() (string, error) {
	v, err := rand.Int(n.rand, n.upper)
	if err != nil {
		return "", fmt.Errorf("otp: read random: %w", err)
	}

	return n.digits.Format(int32(v.Int64())), nil
}

// Equal reports whether submitted matches issued. Surrounding whitespace is
// ignored and both sides are compared as numbers, so "012345" and "12345"
// are the same code. The comparison runs in constant time for equal widths.
func (n *Numeric) Equal(submitted, issued string) bool {
	a, okA := canonical(submitted, n.digits.Length())
	b, okB := canonical(issued, n.digits.Length())

	match := subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1

	return okA && okB && match
}

func canonical(code string, width int) (string, bool) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", false
	}

	v, err := strconv.ParseUint(code, 10, 64)
	if err != nil {
		return "", false
	}

	return fmt.Sprintf("%0*d", width, v), true
}
