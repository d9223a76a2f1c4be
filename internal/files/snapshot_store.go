package files

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/harrylevesque/boardroom/internal/crypto"
	"github.com/harrylevesque/boardroom/internal/models"
)

// SnapshotVersion is written into every snapshot.
const SnapshotVersion = 1

// DefaultSnapshotName is the file name used inside a data directory.
const DefaultSnapshotName = "workspace.json"

// SnapshotStore persists a workspace snapshot as a single JSON file,
// optionally sealed with AES-GCM.
type SnapshotStore struct {
	filePath string
	key      []byte
	mu       sync.RWMutex
}

// StoreOption configures a SnapshotStore.
type StoreOption func(*SnapshotStore)

// WithSealKey enables sealing with a key derived from master.
func WithSealKey(master []byte) StoreOption {
	return func(s *SnapshotStore) {
		s.key = master
	}
}

// NewSnapshotStore creates a store at path. When sealing is requested the
// snapshot key is derived from the master key up front.
func NewSnapshotStore(path string, opts ...StoreOption) (*SnapshotStore, error) {
	s := &SnapshotStore{filePath: path}
	for _, opt := range opts {
		opt(s)
	}
	if s.key != nil {
		k, err := crypto.DeriveKey(s.key, crypto.InfoWorkspaceSnapshot)
		if err != nil {
			return nil, fmt.Errorf("derive snapshot key: %w", err)
		}
		s.key = k
	}
	return s, nil
}

// Path returns the snapshot file path.
func (s *SnapshotStore) Path() string {
	return s.filePath
}

// Sealed reports whether snapshots are encrypted at rest.
func (s *SnapshotStore) Sealed() bool {
	return s.key != nil
}

// Load reads the snapshot. A missing file yields an empty snapshot.
func (s *SnapshotStore) Load(ctx context.Context) (models.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return models.Snapshot{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return models.Snapshot{Version: SnapshotVersion}, nil
		}
		return models.Snapshot{}, err
	}
	if s.key != nil {
		data, err = crypto.Open(s.key, data)
		if err != nil {
			return models.Snapshot{}, fmt.Errorf("open sealed snapshot: %w", err)
		}
	}
	var snap models.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return models.Snapshot{}, fmt.Errorf("decode snapshot %s: %w", s.filePath, err)
	}
	if snap.Version > SnapshotVersion {
		return models.Snapshot{}, fmt.Errorf("snapshot version %d is newer than supported %d", snap.Version, SnapshotVersion)
	}
	return snap, nil
}

// Save writes the snapshot atomically.
func (s *SnapshotStore) Save(ctx context.Context, snap models.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snap.Version = SnapshotVersion
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	if s.key != nil {
		data, err = crypto.Seal(s.key, data)
		if err != nil {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Dir(s.filePath), 0700); err != nil {
		return err
	}
	return writeFileAtomic(s.filePath, data, 0600)
}

// Clear removes the snapshot file.
func (s *SnapshotStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.filePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
