package analysis

import (
	"context"
	"strings"

	"github.com/cqs-dev/cqs/internal/store"
)

// DeadCodeHit is one function find_dead_code could not account for any
// caller of.
type DeadCodeHit struct {
	Chunk store.Chunk
}

// FindDeadCode implements find_dead_code's three phases (spec §4.6):
// SQL no-incoming-edges, SQL-equivalent test-path/name exclusion, then
// an application-level pass excluding function-pointer values,
// interface-method implementations, reflection-registered names, and
// language entry points.
func (a *Analyzer) FindDeadCode(ctx context.Context) ([]DeadCodeHit, error) {
	graph, err := a.store.GetCallGraph(ctx)
	if err != nil {
		return nil, err
	}

	allFuncs, err := a.store.FindAllFunctionNames(ctx)
	if err != nil {
		return nil, err
	}

	// Phase 1: no incoming edges in function_calls.
	var noCallers []store.Chunk
	for _, c := range allFuncs {
		if _, hasCallers := graph.Reverse[c.Name]; hasCallers {
			continue
		}
		noCallers = append(noCallers, c)
	}

	// Phase 2: exclude test-path / test-name patterns.
	var candidates []store.Chunk
	for _, c := range noCallers {
		if a.isTestChunk(c) {
			continue
		}
		candidates = append(candidates, c)
	}

	// Phase 3 (application): exclude function-pointer values, interface
	// implementations, reflection-registered names, and entry points.
	referenced, err := a.findFunctionPointerReferences(ctx, candidates)
	if err != nil {
		return nil, err
	}

	var out []DeadCodeHit
	for _, c := range candidates {
		def, ok := a.registry.ByName(c.Language)
		if ok && def.IsEntryPoint(c.Name) {
			continue
		}
		if _, ok := referenced[c.Name]; ok {
			continue
		}
		out = append(out, DeadCodeHit{Chunk: c})
	}
	return out, nil
}

// findFunctionPointerReferences flags candidate names that appear as a
// bare identifier (not immediately followed by "(") somewhere in the
// corpus — a struct field initializer, an interface satisfaction site,
// or a reflection/serde registration, any of which reference the
// function as a value rather than by calling it directly (spec §4.6
// phase 3). This is a conservative, corpus-wide text scan rather than a
// per-language AST check, since spec §4.6 only requires these sites be
// excluded, not classified by kind.
func (a *Analyzer) findFunctionPointerReferences(ctx context.Context, candidates []store.Chunk) (map[string]struct{}, error) {
	referenced := make(map[string]struct{})
	if len(candidates) == 0 {
		return referenced, nil
	}

	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.Name
	}
	hits, err := a.store.FindIdentifierOccurrences(ctx, names)
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		for _, occurrence := range hits[name] {
			if lineReferencesAsValue(occurrence, name) {
				referenced[name] = struct{}{}
				break
			}
		}
	}
	return referenced, nil
}

// lineReferencesAsValue reports whether any whole-word occurrence of
// name in line is NOT immediately followed by a call's "(" (skipping
// intervening spaces) — i.e. the name is used as a value rather than
// invoked.
func lineReferencesAsValue(line, name string) bool {
	idx := strings.Index(line, name)
	for idx >= 0 {
		before := idx == 0 || !isIdentByte(line[idx-1])
		afterIdx := idx + len(name)
		after := afterIdx >= len(line) || !isIdentByte(line[afterIdx])
		if before && after {
			j := afterIdx
			for j < len(line) && line[j] == ' ' {
				j++
			}
			if j >= len(line) || line[j] != '(' {
				return true
			}
		}
		next := strings.Index(line[idx+1:], name)
		if next < 0 {
			break
		}
		idx = idx + 1 + next
	}
	return false
}

func isIdentByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
