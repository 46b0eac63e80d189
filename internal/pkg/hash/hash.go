package hash

import (
	"crypto/sha256"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
)

// ErrEmptySecret is returned when a key is derived from an empty secret.
var ErrEmptySecret = errors.New("hash: secret must not be empty")

// Hash produces and checks digests.
type Hash interface {
	// Hash returns the digest of str.
	Hash(str string) ([]byte, error)
	// Verify reports whether str hashes to hashed, in constant time.
	Verify(hashed, str string) bool
}

// DeriveKey expands secret into a 32-byte key bound to info using HKDF-SHA256.
//
// Different info labels yield independent keys from the same secret.
func DeriveKey(secret []byte, info string) ([]byte, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}

	key := make([]byte, sha256.Size)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(info)), key); err != nil {
		return nil, err
	}

	return key, nil
}
