package modulegraph

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"sort"

	"github.com/jmylchreest/wbcore/internal/ident"
)

// EnumerateContextElements walks a ContextModule's directory through the
// FileSystem capability, filters entries by the module's regex, and
// synthesizes one ContextElementDependency per match in sorted-name order
// so the result is deterministic across rebuilds (original_source/
// context_module_factory.rs: wildcard require.context imports enumerate a
// directory filtered by a regex and yield one ContextElementDependency per
// matching entry — performed by the factory/builder, never the parser).
func EnumerateContextElements(ctx context.Context, fs FileSystem, counters *ident.Counters, cm *ContextModule) ([]Dependency, error) {
	re, err := regexp.Compile(cm.Regex)
	if err != nil {
		return nil, fmt.Errorf("compiling context regex %q: %w", cm.Regex, err)
	}

	matches, err := walkDir(ctx, fs, cm.Directory, cm.Recursive, re)
	if err != nil {
		return nil, fmt.Errorf("enumerating context directory %q: %w", cm.Directory, err)
	}
	sort.Strings(matches)

	deps := make([]Dependency, 0, len(matches))
	for _, m := range matches {
		id := counters.NextDependencyID()
		deps = append(deps, &ContextElementDependency{
			BaseDependency: BaseDependency{
				Id:  id,
				Cat: DependencyCategoryCommonJS,
				Typ: DependencyTypeContextElement,
				Req: m,
			},
			UserRequest: "./" + m,
		})
	}
	return deps, nil
}

func walkDir(ctx context.Context, fs FileSystem, dir string, recursive bool, re *regexp.Regexp) ([]string, error) {
	entries, err := fs.ReadDir(ctx, dir)
	if err != nil {
		return nil, err
	}

	var out []string
	for _, e := range entries {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		full := path.Join(dir, e.Name)
		if e.IsDir {
			if !recursive {
				continue
			}
			sub, err := walkDir(ctx, fs, full, recursive, re)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
			continue
		}
		if re.MatchString(e.Name) {
			out = append(out, full)
		}
	}
	return out, nil
}
