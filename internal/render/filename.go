// Package render implements the chunk renderer and filename/asset
// machinery (spec.md §4.7): ordering a chunk's modules, wrapping and
// concatenating their generated bodies, hashing the result per
// source-type, and resolving output filenames from a fixed token set.
package render

import (
	"regexp"
	"strconv"

	"github.com/jmylchreest/wbcore/internal/hashutil"
)

// FilenameTemplate is a filename pattern using the fixed token set from
// spec.md §6. It is not a free-form string formatter: only recognized
// tokens are substituted, and a token with no known value is passed
// through verbatim rather than rendered as empty.
type FilenameTemplate string

// tokenPattern matches one `[name]` or `[name:N]` token. Because every
// token is delimited by brackets, "longer literal match wins" (spec.md
// §6) reduces to matching the full bracketed identifier rather than a
// shorter prefix of it (e.g. "[contenthash]" is matched whole, never
// confused with a bare "hash" substring).
var tokenPattern = regexp.MustCompile(`\[([a-zA-Z]+)(?::(\d+))?\]`)

// TokenValues supplies the substitution value for each token spec.md §6
// recognizes. Fields left at their zero value render as empty strings;
// a token entirely absent from this set (a name Render doesn't
// recognize) is left in the output unchanged.
type TokenValues struct {
	Name        string
	ID          string
	Hash        string // full build hash
	ChunkHash   string
	ContentHash string
	Runtime     string
	Ext         string
	File        string
	Path        string
	Base        string
	Query       string
	Fragment    string
}

func (v TokenValues) lookup(name string) (string, bool) {
	switch name {
	case "name":
		return v.Name, true
	case "id":
		return v.ID, true
	case "hash":
		return v.Hash, true
	case "chunkhash":
		return v.ChunkHash, true
	case "contenthash":
		return v.ContentHash, true
	case "runtime":
		return v.Runtime, true
	case "ext":
		return v.Ext, true
	case "file":
		return v.File, true
	case "path":
		return v.Path, true
	case "base":
		return v.Base, true
	case "query":
		return v.Query, true
	case "fragment":
		return v.Fragment, true
	default:
		return "", false
	}
}

// Render substitutes every recognized token in t with its value from
// values, truncating hash-family tokens to N hex characters when a
// "[token:N]" length suffix is present (spec.md §6 "[hash:N]" etc).
func (t FilenameTemplate) Render(values TokenValues) string {
	return tokenPattern.ReplaceAllStringFunc(string(t), func(match string) string {
		sub := tokenPattern.FindStringSubmatch(match)
		name, lengthSpec := sub[1], sub[2]
		val, ok := values.lookup(name)
		if !ok {
			return match
		}
		if lengthSpec != "" {
			n, err := strconv.Atoi(lengthSpec)
			if err == nil {
				val = hashutil.Truncate(val, n)
			}
		}
		return val
	})
}
