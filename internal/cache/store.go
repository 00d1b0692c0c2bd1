package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Store is the key-value blob store boundary behind the cache manager.
type Store interface {
	// Get returns the blob for an exact key, or ok=false on miss.
	Get(key string) (blob []byte, ok bool, err error)
	// GetPrefix returns the best entry whose key starts with prefix:
	// the most recently written candidate. ok=false when none match.
	GetPrefix(prefix string) (blob []byte, key string, ok bool, err error)
	// Put commits a blob under key. The committed blob must become visible
	// atomically: readers never observe a partial write.
	Put(key string, blob []byte) error
}

// fsStore is the default filesystem-backed store. Entries are files named by
// key; commits stage to a temp file and publish with an atomic rename.
type fsStore struct {
	dir string
}

// NewFSStore creates a filesystem store rooted at dir.
func NewFSStore(dir string) (Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &fsStore{dir: dir}, nil
}

func (s *fsStore) Get(key string) ([]byte, bool, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, key))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (s *fsStore) GetPrefix(prefix string) ([]byte, string, bool, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, "", false, err
	}

	var bestKey string
	var bestTime time.Time
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		// Skip staged temp files that have not been published.
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if bestKey == "" || info.ModTime().After(bestTime) {
			bestKey = e.Name()
			bestTime = info.ModTime()
		}
	}

	if bestKey == "" {
		return nil, "", false, nil
	}

	data, err := os.ReadFile(filepath.Join(s.dir, bestKey))
	if err != nil {
		return nil, "", false, err
	}
	return data, bestKey, true, nil
}

// Put stages the blob next to its final location and publishes it with a
// rename, so concurrent readers see either the old blob or the new one,
// never a torn write.
func (s *fsStore) Put(key string, blob []byte) error {
	tmp, err := os.CreateTemp(s.dir, "."+key+".stage-*")
	if err != nil {
		return fmt.Errorf("stage cache entry: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(blob); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("stage cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("stage cache entry: %w", err)
	}

	if err := os.Rename(tmpName, filepath.Join(s.dir, key)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("publish cache entry: %w", err)
	}
	return nil
}
