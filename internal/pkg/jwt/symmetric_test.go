package jwt

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/baginvent/passcode/internal/pkg/clock"
)

type fixedUUID string

func (f fixedUUID) Generate() string { return string(f) }

func newSymmetric(t *testing.T, clk *clock.Manual) *Symmetric {
	t.Helper()

	s, err := NewHS512(Config{
		Secret:    bytes.Repeat([]byte("k"), 64),
		Issuer:    "passcode",
		Audiences: []string{"web"},
		TTL:       5 * time.Minute,
		Clock:     clk,
		UUID:      fixedUUID("0199a1b2-0000-7000-8000-000000000001"),
	})
	if err != nil {
		t.Fatalf("NewHS512() error = %v", err)
	}
	return s
}

func TestNewHS512ShortSecret(t *testing.T) {
	if _, err := NewHS512(Config{Secret: []byte("short")}); !errors.Is(err, ErrSigningKeyTooShort) {
		t.Fatalf("NewHS512() error = %v, want ErrSigningKeyTooShort", err)
	}
}

func TestSymmetricRoundTrip(t *testing.T) {
	clk := clock.NewManual(time.Now().Truncate(time.Second))
	s := newSymmetric(t, clk)

	tok, err := s.Generate(Proof{AccountID: 42, Identifier: "user@example.com", Channel: "email"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	claims, err := s.Verify(tok)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if claims.AccountID != 42 || claims.Identifier != "user@example.com" || claims.Channel != "email" {
		t.Fatalf("claims = %+v", claims)
	}
	if claims.Subject != "42" {
		t.Fatalf("Subject = %q, want 42", claims.Subject)
	}
}

func TestSymmetricExpired(t *testing.T) {
	clk := clock.NewManual(time.Now().Truncate(time.Second))
	s := newSymmetric(t, clk)

	tok, err := s.Generate(Proof{AccountID: 1, Identifier: "+15551234567", Channel: "phone"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	clk.Advance(6 * time.Minute)
	if _, err := s.Verify(tok); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("Verify() error = %v, want ErrTokenExpired", err)
	}
}

func TestSymmetricWrongSecret(t *testing.T) {
	clk := clock.NewManual(time.Now().Truncate(time.Second))
	s := newSymmetric(t, clk)

	tok, _ := s.Generate(Proof{AccountID: 1})

	other, _ := NewHS512(Config{
		Secret: bytes.Repeat([]byte("x"), 64), Issuer: "passcode", Audiences: []string{"web"},
		Clock: clk, UUID: fixedUUID("id"),
	})
	if _, err := other.Verify(tok); err == nil {
		t.Fatal("Verify() with a different secret succeeded")
	}
}
