// Package cache manages the shared dependency cache used across jobs.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
)

// Inputs are the cache key derivation inputs for one job.
type Inputs struct {
	Namespace   string // Logical cache namespace (e.g. "dependency-lock")
	Fingerprint string // Digest of the dependency lock state
}

// Key derives the cache key for a set of inputs. The rendered form keeps the
// namespace as a readable prefix so prefix-match restores can scan for it.
func Key(in Inputs) string {
	h := sha256.New()
	h.Write([]byte(in.Namespace))
	h.Write([]byte{0})
	h.Write([]byte(in.Fingerprint))
	return fmt.Sprintf("%s-%s", in.Namespace, hex.EncodeToString(h.Sum(nil))[:16])
}

// FingerprintFile returns the fingerprint of a dependency lock file.
// A missing or unreadable file fingerprints as empty lock state, which keeps
// key derivation total and deterministic.
func FingerprintFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		data = nil
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
