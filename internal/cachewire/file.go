package cachewire

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jmylchreest/wbcore/internal/cache"
	"github.com/jmylchreest/wbcore/internal/ident"
)

// snapshotIDLen is the fixed width of a ulid.ULID's string form, used to
// split a cache file's header (the snapshot id) from its payload (the
// Encode output) without needing a length prefix.
const snapshotIDLen = ulid.EncodedSize

// Save atomically writes a cache snapshot to path: a fresh ULID names this
// snapshot generation (written as the file's first snapshotIDLen bytes, so
// two cache files can be ordered or correlated with a build's logs without
// decoding the payload), followed by the wire bytes. Both are written to a
// sibling temp file first, then renamed into place, so a process killed
// mid-write never leaves a corrupt cache file for the next build to trip
// over. Returns the generated snapshot id.
func Save(path string, snapshot map[ident.ModuleIdentifier]cache.CacheEntry) (string, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("cachewire: creating cache directory: %w", err)
	}

	suffix, err := randomHex(8)
	if err != nil {
		return "", fmt.Errorf("cachewire: generating temp suffix: %w", err)
	}
	tempPath := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", filepath.Base(path), suffix))

	id := ulid.Make()
	payload := append([]byte(id.String()), Encode(snapshot)...)

	if err := os.WriteFile(tempPath, payload, 0o640); err != nil {
		return "", fmt.Errorf("cachewire: writing temporary cache file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return "", fmt.Errorf("cachewire: renaming cache file into place: %w", err)
	}
	return id.String(), nil
}

// Load reads and decodes a cache snapshot previously written by Save,
// returning its snapshot id alongside the entries. A missing file is not
// an error: it returns an empty snapshot and an empty id, the cold start
// case.
func Load(path string, table *ident.Table) (string, map[ident.ModuleIdentifier]cache.CacheEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", map[ident.ModuleIdentifier]cache.CacheEntry{}, nil
		}
		return "", nil, fmt.Errorf("cachewire: reading cache file: %w", err)
	}
	if len(data) < snapshotIDLen {
		return "", nil, fmt.Errorf("cachewire: cache file too short to contain a snapshot id")
	}
	id, payload := string(data[:snapshotIDLen]), data[snapshotIDLen:]

	snapshot, err := Decode(payload, table)
	if err != nil {
		return "", nil, err
	}
	return id, snapshot, nil
}

// SnapshotAge returns how long ago a snapshot id returned by Save/Load was
// minted, decoded from the ULID's own embedded millisecond timestamp
// rather than a separately stored field. Callers compare the result
// against a config.CacheConfig.TTL to decide whether a persisted
// incremental-rebuild cache is still usable.
func SnapshotAge(id string) (time.Duration, error) {
	parsed, err := ulid.ParseStrict(id)
	if err != nil {
		return 0, fmt.Errorf("cachewire: parsing snapshot id: %w", err)
	}
	return time.Since(ulid.Time(parsed.Time())), nil
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
