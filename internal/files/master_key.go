package files

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/harrylevesque/boardroom/internal/crypto"
)

const (
	// MasterKeyEnv holds the hex-encoded master key.
	MasterKeyEnv = "MASTER_KEY_HEX"
	// MasterKeyFile is read when MasterKeyEnv is unset.
	MasterKeyFile = "master.key"
)

var ErrNoMasterKey = errors.New("master key not configured")

// ReadMasterKey reads MASTER_KEY_HEX, falling back to keyFile (hex, 64 chars
// -> 32 bytes). An empty keyFile means MasterKeyFile in the working directory.
func ReadMasterKey(keyFile string) ([]byte, error) {
	h := os.Getenv(MasterKeyEnv)
	if h == "" {
		if keyFile == "" {
			keyFile = MasterKeyFile
		}
		data, err := os.ReadFile(keyFile)
		if err != nil {
			return nil, fmt.Errorf("%w: %s not set and %s unreadable", ErrNoMasterKey, MasterKeyEnv, keyFile)
		}
		h = string(data)
	}
	b, err := hex.DecodeString(strings.TrimSpace(h))
	if err != nil {
		return nil, fmt.Errorf("master key hex decode error: %w", err)
	}
	if len(b) != crypto.KeySize {
		return nil, fmt.Errorf("master key length must be %d bytes (hex %d chars)", crypto.KeySize, crypto.KeySize*2)
	}
	return b, nil
}

// WriteMasterKey writes a new random master key to path. It refuses to
// overwrite an existing file unless force is set.
func WriteMasterKey(path string, force bool) error {
	if !force && FileExists(path) {
		return fmt.Errorf("%s already exists, refusing to overwrite", path)
	}
	hexKey := hex.EncodeToString(crypto.GenerateKey())
	return writeFileAtomic(path, []byte(hexKey+"\n"), 0600)
}

// FileExists checks if the given file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
