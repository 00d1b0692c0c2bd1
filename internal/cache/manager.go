package cache

import (
	"strings"
	"sync"
	"sync/atomic"

	matrixerrors "github.com/matrixci/matrixci/internal/errors"
)

// Source records where a cache restore came from.
type Source string

const (
	SourceExact  Source = "exact"  // Full restore from an exact key match
	SourcePrefix Source = "prefix" // Partial restore from a namespace prefix match
	SourceEmpty  Source = "empty"  // No usable entry; job starts cold
)

// Handle is one job's lease on the cache. Multiple jobs may hold read
// handles for the same key concurrently; commits are serialized per key.
type Handle struct {
	Key    string
	Data   []byte
	Source Source
}

// Hit reports whether the handle restored from an exact key match.
func (h *Handle) Hit() bool {
	return h.Source == SourceExact
}

// Manager governs access to the shared cache store. Reads are concurrent;
// at most one writer per distinct key commits at a time, and a commit is
// atomic-visible (staging is the store's responsibility).
type Manager struct {
	store Store

	mu      sync.Mutex
	writers map[string]*sync.Mutex

	exactHits atomic.Int64
}

// NewManager creates a cache manager over a store.
func NewManager(store Store) *Manager {
	return &Manager{
		store:   store,
		writers: make(map[string]*sync.Mutex),
	}
}

// Acquire restores cached state for the given inputs. Policy: exact key
// match first; on miss, the most specific available namespace prefix
// (segments trimmed from the right); else start empty. Acquire never fails
// the job for a degraded store: read errors fall through to an empty start.
func (m *Manager) Acquire(in Inputs) *Handle {
	key := Key(in)

	if blob, ok, err := m.store.Get(key); err == nil && ok {
		m.exactHits.Add(1)
		return &Handle{Key: key, Data: blob, Source: SourceExact}
	}

	// Longest matching namespace prefix wins.
	for prefix := in.Namespace; prefix != ""; prefix = trimSegment(prefix) {
		if blob, _, ok, err := m.store.GetPrefix(prefix); err == nil && ok {
			return &Handle{Key: key, Data: blob, Source: SourcePrefix}
		}
	}

	return &Handle{Key: key, Source: SourceEmpty}
}

// Release commits updated state under the handle's key. A nil newState
// means the job left the cache unchanged and nothing is written. Commits
// for the same key are serialized (last write wins); a write failure is
// returned as a warning-level error and must never fail the job.
func (m *Manager) Release(h *Handle, newState []byte) error {
	if newState == nil {
		return nil
	}

	m.writerLock(h.Key).Lock()
	defer m.writerLock(h.Key).Unlock()

	if err := m.store.Put(h.Key, newState); err != nil {
		return matrixerrors.Wrap(err, "cache write failed for "+h.Key)
	}
	return nil
}

// ExactHits returns how many acquisitions restored from an exact key match.
func (m *Manager) ExactHits() int {
	return int(m.exactHits.Load())
}

// writerLock returns the per-key commit lock, creating it on first use.
func (m *Manager) writerLock(key string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.writers[key]
	if !ok {
		lock = &sync.Mutex{}
		m.writers[key] = lock
	}
	return lock
}

// trimSegment drops the last hyphen-separated segment of a namespace.
// "deps-linux-x86" -> "deps-linux" -> "deps" -> "".
func trimSegment(ns string) string {
	i := strings.LastIndex(ns, "-")
	if i < 0 {
		return ""
	}
	return ns[:i]
}
