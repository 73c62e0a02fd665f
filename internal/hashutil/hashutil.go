// Package hashutil provides the content-hashing primitives shared by the
// exports-info renamer, the chunk renderer, and the incremental cache:
// xxhash-based, non-cryptographic, fast fingerprints truncated to a
// configurable hex length for [contenthash]/[chunkhash] tokens and cache
// keys (spec.md §4.7, §9).
package hashutil

import (
	"encoding/hex"
	"sort"

	"github.com/cespare/xxhash/v2"
)

// Hash computes the xxhash digest of data, returned as lowercase hex.
func Hash(data []byte) string {
	sum := xxhash.Sum64(data)
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(sum >> (56 - 8*i))
	}
	return hex.EncodeToString(buf[:])
}

// Truncate returns the first n hex characters of a hash string, or the
// whole string if it is already shorter (spec.md §6 "[hash:N]" /
// "[contenthash:N]" tokens).
func Truncate(hash string, n int) string {
	if n <= 0 || n >= len(hash) {
		return hash
	}
	return hash[:n]
}

// Combine deterministically folds multiple hash inputs into one digest.
// Used to combine a module's own content hash with its outgoing
// dependency ids for the incremental cache's module-graph key (spec.md
// §9), and to combine multiple modules' content hashes into one chunk
// content hash (spec.md §4.7 step 5).
func Combine(parts ...string) string {
	sorted := append([]string(nil), parts...)
	sort.Strings(sorted)
	h := xxhash.New()
	for _, p := range sorted {
		_, _ = h.WriteString(p)
		_, _ = h.Write([]byte{0})
	}
	var buf [8]byte
	sum := h.Sum64()
	for i := 0; i < 8; i++ {
		buf[i] = byte(sum >> (56 - 8*i))
	}
	return hex.EncodeToString(buf[:])
}

// New returns a fresh streaming xxhash.Digest for callers that want to
// feed bytes incrementally (e.g. the chunk renderer hashing a
// concatenated body one init-fragment at a time) rather than materializing
// the full buffer first.
func New() *xxhash.Digest {
	return xxhash.New()
}
