package jwt

import (
	"errors"
	"testing"
	"time"
)

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

type fixedID struct{}

func (fixedID) Generate() string { return "jti-1" }

func newTestJWT(t *testing.T, clk *fixedClock) *Symmetric {
	t.Helper()

	j, err := NewHS512(Config{
		Secret:    []byte("0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"),
		Issuer:    "gramconnect",
		Audiences: []string{"gramconnect-app"},
		TTL:       time.Hour,
		Clock:     clk,
		UUID:      fixedID{},
	})
	if err != nil {
		t.Fatalf("failed to build jwt: %v", err)
	}
	return j
}

func TestSymmetric(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		// Arrange
		clk := &fixedClock{now: time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)}
		j := newTestJWT(t, clk)

		// Act
		token, err := j.Generate("u1", "CITIZEN")
		if err != nil {
			t.Fatalf("generate failed: %v", err)
		}
		claims, err := j.Verify(token)

		// Assert
		if err != nil {
			t.Fatalf("verify failed: %v", err)
		}
		if claims.Subject != "u1" || claims.Role != "CITIZEN" || claims.Issuer != "gramconnect" {
			t.Fatalf("unexpected claims: %+v", claims)
		}
	})

	t.Run("ExpiredToken", func(t *testing.T) {
		// Arrange
		clk := &fixedClock{now: time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)}
		j := newTestJWT(t, clk)
		token, err := j.Generate("u1", "CITIZEN")
		if err != nil {
			t.Fatalf("generate failed: %v", err)
		}
		clk.now = clk.now.Add(2 * time.Hour)

		// Act
		_, err = j.Verify(token)

		// Assert
		if !errors.Is(err, ErrTokenExpired) {
			t.Fatalf("expected expired token error, got %v", err)
		}
	})

	t.Run("TamperedToken", func(t *testing.T) {
		// Arrange
		clk := &fixedClock{now: time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)}
		j := newTestJWT(t, clk)
		token, err := j.Generate("u1", "CITIZEN")
		if err != nil {
			t.Fatalf("generate failed: %v", err)
		}

		// Act
		_, err = j.Verify(token + "x")

		// Assert
		if !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected invalid token error, got %v", err)
		}
	})

	t.Run("ShortSecretRejected", func(t *testing.T) {
		// Act
		_, err := NewHS512(Config{Secret: []byte("too-short")})

		// Assert
		if !errors.Is(err, ErrSigningKeyTooShort) {
			t.Fatalf("expected short key rejection, got %v", err)
		}
	})
}
