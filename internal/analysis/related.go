package analysis

import (
	"context"
	"regexp"
	"sort"
	"unicode"

	"github.com/cqs-dev/cqs/internal/store"
)

// RelatedHit is one function related to a resolved target by shared
// callers, shared callees, or a shared type in its signature.
type RelatedHit struct {
	Chunk         store.Chunk
	SharedCallers int
	SharedCallees int
	SharedType    bool
}

// FindRelated implements find_related(target): other functions sharing
// at least one caller or callee with target, plus functions whose
// signature mentions a type also named in target's signature (spec
// §4.6).
func (a *Analyzer) FindRelated(ctx context.Context, target string) ([]RelatedHit, error) {
	resolved, err := a.resolveTarget(ctx, target)
	if err != nil {
		return nil, err
	}
	name := resolved.Name

	graph, err := a.store.GetCallGraph(ctx)
	if err != nil {
		return nil, err
	}

	sharedCallers := make(map[string]int)
	for caller := range graph.Reverse[name] {
		for sibling := range graph.Forward[caller] {
			if sibling == name {
				continue
			}
			sharedCallers[sibling]++
		}
	}

	sharedCallees := make(map[string]int)
	for callee := range graph.Forward[name] {
		for sibling := range graph.Reverse[callee] {
			if sibling == name {
				continue
			}
			sharedCallees[sibling]++
		}
	}

	byName := make(map[string]*RelatedHit)
	allNames := make([]string, 0, len(sharedCallers)+len(sharedCallees))
	for n, c := range sharedCallers {
		byName[n] = &RelatedHit{SharedCallers: c}
		allNames = append(allNames, n)
	}
	for n, c := range sharedCallees {
		if h, ok := byName[n]; ok {
			h.SharedCallees = c
		} else {
			byName[n] = &RelatedHit{SharedCallees: c}
			allNames = append(allNames, n)
		}
	}

	typeNames := extractTypeNames(resolved.Signature)
	if len(typeNames) > 0 {
		candidates, err := a.store.SearchChunksBySignatureTypes(ctx, typeNames)
		if err != nil {
			return nil, err
		}
		boundaries := make([]*regexp.Regexp, len(typeNames))
		for i, t := range typeNames {
			boundaries[i] = regexp.MustCompile(`\b` + regexp.QuoteMeta(t) + `\b`)
		}
		for _, c := range candidates {
			if c.Name == name {
				continue
			}
			matched := false
			for _, re := range boundaries {
				if re.MatchString(c.Signature) {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
			if h, ok := byName[c.Name]; ok {
				h.SharedType = true
			} else {
				byName[c.Name] = &RelatedHit{SharedType: true}
				allNames = append(allNames, c.Name)
			}
		}
	}

	chunksByName, err := a.store.GetChunksByNamesBatch(ctx, allNames)
	if err != nil {
		return nil, err
	}

	var out []RelatedHit
	for n, h := range byName {
		chunks := chunksByName[n]
		if len(chunks) == 0 {
			continue
		}
		h.Chunk = chunks[0]
		out = append(out, *h)
	}
	sort.Slice(out, func(i, j int) bool {
		si := out[i].SharedCallers + out[i].SharedCallees
		sj := out[j].SharedCallers + out[j].SharedCallees
		if si != sj {
			return si > sj
		}
		return out[i].Chunk.Name < out[j].Chunk.Name
	})
	return out, nil
}

// extractTypeNames pulls capitalized identifier-like tokens out of a
// signature as a heuristic for "referenced type name" — good enough for
// the LIKE-prefiltered, regex-verified overlap spec §4.6 describes,
// without a per-language signature grammar.
func extractTypeNames(signature string) []string {
	var tokens []string
	var cur []rune
	flush := func() {
		if len(cur) > 1 && unicode.IsUpper(cur[0]) {
			tokens = append(tokens, string(cur))
		}
		cur = nil
	}
	for _, r := range signature {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			cur = append(cur, r)
		} else {
			flush()
		}
	}
	flush()

	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
