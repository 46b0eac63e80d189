package otp

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
)

// DefaultDigits is the passcode length used when none is configured.
const DefaultDigits = 6

// Generator produces plaintext passcodes.
type Generator interface {
	Generate() (string, error)
}

// Numeric draws codes uniformly from [0, 10^digits).
type Numeric struct {
	digits int
	max    *big.Int
	source io.Reader
}

// NewNumeric returns a generator for codes of the given length.
// Lengths outside [4, 10] fall back to DefaultDigits.
func NewNumeric(digits int) *Numeric {
	if digits < 4 || digits > 10 {
		digits = DefaultDigits
	}

	return &Numeric{
		digits: digits,
		max:    new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil),
		source: rand.Reader,
	}
}

// Digits returns the code length.
func (n *Numeric) Digits() int {
	return n.digits
}

// Generate returns a zero-padded code. rand.Int rejects out-of-range
// samples, so there is no modulo bias.
func (n *Numeric) Generate() (string, error) {
	v, err := rand.Int(n.source, n.max)
	if err != nil {
		return "", fmt.Errorf("otp: read random source: %w", err)
	}

	return fmt.Sprintf("%0*d", n.digits, v), nil
}
