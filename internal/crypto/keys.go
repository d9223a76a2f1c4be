package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"
)

// KeySize is the length of master and derived keys in bytes.
const KeySize = 32

// InfoWorkspaceSnapshot binds a derived key to workspace snapshot sealing.
const InfoWorkspaceSnapshot = "boardroom-workspace-snapshot"

// DeriveKey derives a 32-byte subkey from the master key using HKDF-SHA256.
func DeriveKey(master []byte, info string) ([]byte, error) {
	if len(master) != KeySize {
		return nil, ErrInvalidKeyLength
	}
	h := hkdf.New(sha256.New, master, nil, []byte(info))
	out := make([]byte, KeySize)
	if _, err := io.ReadFull(h, out); err != nil {
		return nil, err
	}
	return out, nil
}

// GenerateKey returns a fresh random master key.
func GenerateKey() []byte {
	return MustRandom(KeySize)
}

// MustRandom returns n random bytes or panics.
func MustRandom(n int) []byte {
	b := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		panic(err)
	}
	return b
}
