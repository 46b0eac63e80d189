package hash

import (
	"bytes"
	"errors"
	"testing"
)

func TestDeriveKey(t *testing.T) {
	a, err := DeriveKey([]byte("server-secret"), "passcode-digest")
	if err != nil {
		t.Fatalf("DeriveKey() error = %v", err)
	}
	if len(a) != 32 {
		t.Fatalf("len(key) = %d, want 32", len(a))
	}

	again, _ := DeriveKey([]byte("server-secret"), "passcode-digest")
	if !bytes.Equal(a, again) {
		t.Fatalf("DeriveKey is not deterministic")
	}

	other, _ := DeriveKey([]byte("server-secret"), "another-purpose")
	if bytes.Equal(a, other) {
		t.Fatalf("different info labels produced the same key")
	}

	if _, err := DeriveKey(nil, "x"); !errors.Is(err, ErrEmptySecret) {
		t.Fatalf("DeriveKey(nil) error = %v, want ErrEmptySecret", err)
	}
}

func TestHMACSHA256(t *testing.T) {
	h := NewHMACSHA256([]byte("k1"))

	d1, _ := h.Hash("email:user@example.com:123456")
	d2, _ := h.Hash("email:user@example.com:123456")
	if !bytes.Equal(d1, d2) {
		t.Fatalf("digest is not deterministic")
	}
	if len(d1) != 64 {
		t.Fatalf("len(digest) = %d, want 64", len(d1))
	}
	if bytes.Contains(d1, []byte("123456")) {
		t.Fatalf("digest leaks plaintext")
	}

	if !h.Verify(string(d1), "email:user@example.com:123456") {
		t.Fatalf("Verify() = false for matching input")
	}
	if h.Verify(string(d1), "email:user@example.com:123457") {
		t.Fatalf("Verify() = true for different input")
	}

	other := NewHMACSHA256([]byte("k2"))
	d3, _ := other.Hash("email:user@example.com:123456")
	if bytes.Equal(d1, d3) {
		t.Fatalf("different keys produced the same digest")
	}
}
