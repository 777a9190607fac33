package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Generator defines the contract for producing one-time passcodes.
type Generator interface {
	// Generate returns a fresh fixed-width numeric code.
	Generate() string
}

// Numeric generates fixed-width decimal codes from crypto/rand.
type Numeric struct {
	digits int
	bound  *big.Int
}

// NewNumeric constructs a Numeric generator.
//
// If digits is outside [4, 10] it falls back to 6 digits, which keeps the
// guessing probability per attempt at or below 1e-6.
func NewNumeric(digits int) *Numeric {
	if digits < 4 || digits > 10 {
		digits = 6
	}

	return &Numeric{
		digits: digits,
		bound:  new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil),
	}
}

// Generate returns a zero-padded decimal code.
//
// An unreadable entropy source is a process-level defect, not a handled
// error, so this panics rather than degrading to a guessable code.
func (g *Numeric) Generate() string {
	v, err := rand.Int(rand.Reader, g.bound)
	if err != nil {
		panic(fmt.Sprintf("otp: entropy source unavailable: %v", err))
	}

	return fmt.Sprintf("%0*d", g.digits, v)
}
