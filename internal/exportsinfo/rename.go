package exportsinfo

import (
	"github.com/jmylchreest/wbcore/internal/hashutil"
)

// NameMode selects the renamer's output style (spec.md §4.3 "Output":
// "either hash-based deterministic IDs or sequential a,b,c,...,z,aa,...").
type NameMode int

const (
	// Deterministic derives each mangled name from a content hash of the
	// module identifier and export name, stable across rebuilds that
	// don't touch the export set itself (good for long-term caching).
	Deterministic NameMode = iota
	// Sequential assigns a,b,...,z,aa,ab,... in sorted-name order,
	// shortest and most compressible but shifts every time a new export
	// is added earlier in sort order.
	Sequential
)

// alphabet is the base used for Sequential short-name generation,
// restricted to valid leading identifier characters (no digits first).
const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// AssignExportNames computes the short output identifier for every
// can-mangle export of module's ExportsInfo (spec.md §4.3 "Output"). It
// returns a map from original export name to its assigned short name.
// Exports with CanMangle explicitly false keep their original name (they
// are not included in the returned map — callers fall back to the
// original name for any export absent from it). Exports with a non-nil
// CanInline/InlinedValue are skipped entirely: spec.md "inlinable exports
// disappear from the output entirely", so they are neither mangled nor
// assigned an output binding.
func AssignExportNames(info *ExportsInfo, mode NameMode) map[string]string {
	names := info.SortedNames()
	mangleable := make([]string, 0, len(names))
	for _, name := range names {
		exp, ok := info.Named[name]
		if !ok {
			continue
		}
		if exp.InlinedValue != nil || (exp.CanInline != nil && *exp.CanInline) {
			continue
		}
		if exp.CanMangle != nil && !*exp.CanMangle {
			continue
		}
		mangleable = append(mangleable, name)
	}

	assigned := make(map[string]string, len(mangleable))
	used := make(map[string]bool, len(mangleable))

	switch mode {
	case Sequential:
		next := sequentialNamer()
		for _, name := range mangleable {
			short := next()
			for used[short] {
				short = next()
			}
			used[short] = true
			assigned[name] = short
		}
	default: // Deterministic
		for _, name := range mangleable {
			short := deterministicName(info.Module.String(), name)
			for used[short] {
				// Re-hash on collision by widening the combined input
				// rather than truncating further, so a collision never
				// silently reuses another export's identifier.
				short = deterministicName(short, name)
			}
			used[short] = true
			assigned[name] = short
		}
	}
	return assigned
}

// deterministicName derives a short identifier from a content hash,
// truncated to 6 hex characters and prefixed so it is always a valid
// identifier even though hex digits may lead (spec.md §4.7 reuses the same
// hashutil primitives for content hashes; the renamer borrows them here
// for short, stable mangled names rather than inventing a second hash).
func deterministicName(module, export string) string {
	return "_" + hashutil.Truncate(hashutil.Combine(module, export), 6)
}

// sequentialNamer returns a function producing a,b,...,z,aa,ab,...,za,...
// in that order each call, the classic bijective base-26 sequence.
func sequentialNamer() func() string {
	n := 0
	return func() string {
		n++
		return bijectiveBase26(n)
	}
}

func bijectiveBase26(n int) string {
	var out []byte
	for n > 0 {
		n--
		out = append([]byte{alphabet[n%26]}, out...)
		n /= 26
	}
	return string(out)
}

