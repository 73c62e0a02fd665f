// Package cachewire encodes an internal/cache.UnaffectedModulesCache
// snapshot to and from the protobuf wire format, so a cache directory
// survives process restarts (spec.md §9). It encodes by hand against
// google.golang.org/protobuf/encoding/protowire's low-level varint/bytes
// primitives rather than against a .proto-generated message type: there is
// no protoc invocation available in this environment, and protowire is
// the same library the generated code itself would call into, so hand
// framing the field tags below is exactly what a
// generated Marshal method does, without the generator.
//
// Wire shape (no .proto file; documented here instead):
//
//	Snapshot  { repeated CacheEntry entries = 1; }
//	CacheEntry {
//	  string module_id        = 1;
//	  string module_graph_key = 2;
//	  string chunk_graph_key  = 3;
//	}
package cachewire

import (
	"fmt"
	"sort"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/jmylchreest/wbcore/internal/cache"
	"github.com/jmylchreest/wbcore/internal/ident"
)

const (
	fieldSnapshotEntries = protowire.Number(1)

	fieldEntryModuleID       = protowire.Number(1)
	fieldEntryModuleGraphKey = protowire.Number(2)
	fieldEntryChunkGraphKey  = protowire.Number(3)
)

// Encode serializes a cache snapshot (as returned by
// UnaffectedModulesCache.Snapshot) to its protobuf wire-format bytes, in
// module-id order so the output is deterministic across runs.
func Encode(snapshot map[ident.ModuleIdentifier]cache.CacheEntry) []byte {
	ids := make([]ident.ModuleIdentifier, 0, len(snapshot))
	for id := range snapshot {
		ids = append(ids, id)
	}
	sortModuleIDs(ids)

	var out []byte
	for _, id := range ids {
		entry := snapshot[id]
		encoded := encodeEntry(id, entry)
		out = protowire.AppendTag(out, fieldSnapshotEntries, protowire.BytesType)
		out = protowire.AppendBytes(out, encoded)
	}
	return out
}

func encodeEntry(id ident.ModuleIdentifier, entry cache.CacheEntry) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldEntryModuleID, protowire.BytesType)
	b = protowire.AppendString(b, id.String())
	b = protowire.AppendTag(b, fieldEntryModuleGraphKey, protowire.BytesType)
	b = protowire.AppendString(b, entry.ModuleGraphKey)
	b = protowire.AppendTag(b, fieldEntryChunkGraphKey, protowire.BytesType)
	b = protowire.AppendString(b, entry.ChunkGraphKey)
	return b
}

// Decode parses Encode's output back into a snapshot, keyed by a
// ModuleIdentifier built from each entry's module_id field via table (the
// same intern table the running process's Compilation uses, so decoded
// ids compare equal to freshly-built ones for the same path).
func Decode(data []byte, table *ident.Table) (map[ident.ModuleIdentifier]cache.CacheEntry, error) {
	out := map[ident.ModuleIdentifier]cache.CacheEntry{}

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("cachewire: invalid snapshot tag: %w", protowire.ParseError(n))
		}
		data = data[n:]

		if num != fieldSnapshotEntries || typ != protowire.BytesType {
			m := protowire.ConsumeFieldValue(num, typ, data)
			if m < 0 {
				return nil, fmt.Errorf("cachewire: invalid snapshot field: %w", protowire.ParseError(m))
			}
			data = data[m:]
			continue
		}

		raw, n := protowire.ConsumeBytes(data)
		if n < 0 {
			return nil, fmt.Errorf("cachewire: invalid entry bytes: %w", protowire.ParseError(n))
		}
		data = data[n:]

		id, entry, err := decodeEntry(raw, table)
		if err != nil {
			return nil, err
		}
		out[id] = entry
	}
	return out, nil
}

func decodeEntry(data []byte, table *ident.Table) (ident.ModuleIdentifier, cache.CacheEntry, error) {
	var moduleID, moduleGraphKey, chunkGraphKey string

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return ident.ModuleIdentifier{}, cache.CacheEntry{}, fmt.Errorf("cachewire: invalid entry tag: %w", protowire.ParseError(n))
		}
		data = data[n:]

		if typ != protowire.BytesType {
			m := protowire.ConsumeFieldValue(num, typ, data)
			if m < 0 {
				return ident.ModuleIdentifier{}, cache.CacheEntry{}, fmt.Errorf("cachewire: invalid entry field: %w", protowire.ParseError(m))
			}
			data = data[m:]
			continue
		}

		s, n := protowire.ConsumeString(data)
		if n < 0 {
			return ident.ModuleIdentifier{}, cache.CacheEntry{}, fmt.Errorf("cachewire: invalid entry string: %w", protowire.ParseError(n))
		}
		data = data[n:]

		switch num {
		case fieldEntryModuleID:
			moduleID = s
		case fieldEntryModuleGraphKey:
			moduleGraphKey = s
		case fieldEntryChunkGraphKey:
			chunkGraphKey = s
		}
	}

	return table.Intern(moduleID), cache.CacheEntry{ModuleGraphKey: moduleGraphKey, ChunkGraphKey: chunkGraphKey}, nil
}

func sortModuleIDs(ids []ident.ModuleIdentifier) {
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
}
