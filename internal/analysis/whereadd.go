package analysis

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"github.com/cqs-dev/cqs/internal/search"
	"github.com/cqs-dev/cqs/internal/store"
)

// FilePatterns is one candidate file's inferred conventions, used by
// suggest_placement to recommend where new code should live (spec
// §4.6).
type FilePatterns struct {
	File             string
	Score            float32
	MajorityExported bool
	NamingStyle      string // "snake_case", "camelCase", "PascalCase", or "" if indeterminate
	ImportPrefixes   []string
	ErrorMarkers     []string
	HasInlineTests   bool
}

// SuggestPlacement implements suggest_placement(description, limit):
// semantic search aggregated per file, then pattern extraction from the
// chunks the search already fetched — full-file chunks are only pulled
// when a pattern (here, import lines) needs whole-file context the
// function-level search results don't carry (spec §4.6).
func (a *Analyzer) SuggestPlacement(ctx context.Context, queryEmb []float32, limit int) ([]FilePatterns, error) {
	results, err := a.engine.SearchFilteredWithIndex(ctx, queryEmb, search.Filter{Limit: limit * 5})
	if err != nil {
		return nil, err
	}

	type fileAgg struct {
		score  float32
		chunks []store.Chunk
	}
	byFile := make(map[string]*fileAgg)
	var order []string
	for _, r := range results {
		f, ok := byFile[r.Chunk.Origin]
		if !ok {
			f = &fileAgg{}
			byFile[r.Chunk.Origin] = f
			order = append(order, r.Chunk.Origin)
		}
		f.score += r.Score
		f.chunks = append(f.chunks, r.Chunk)
	}

	sort.Slice(order, func(i, j int) bool { return byFile[order[i]].score > byFile[order[j]].score })
	if len(order) > limit {
		order = order[:limit]
	}

	out := make([]FilePatterns, 0, len(order))
	for _, file := range order {
		agg := byFile[file]
		fp := FilePatterns{File: file, Score: agg.score}

		exportedCount, total := 0, 0
		for _, c := range agg.chunks {
			total++
			if isExportedName(c.Name) {
				exportedCount++
			}
			if a.isTestChunk(c) {
				fp.HasInlineTests = true
			}
			if def, ok := a.registry.ByName(c.Language); ok {
				for _, marker := range def.Pattern.ErrorMarkers {
					if strings.Contains(c.Content, marker) && !containsString(fp.ErrorMarkers, marker) {
						fp.ErrorMarkers = append(fp.ErrorMarkers, marker)
					}
				}
			}
		}
		fp.MajorityExported = total > 0 && exportedCount*2 >= total
		fp.NamingStyle = majorityNamingStyle(agg.chunks)

		if len(fp.ImportPrefixes) == 0 {
			fp.ImportPrefixes = a.extractImportPrefixes(ctx, file, agg.chunks)
		}

		out = append(out, fp)
	}
	return out, nil
}

// extractImportPrefixes needs whole-file context: import lines live at
// the top of a file, outside any individual function-level chunk, so
// this is the one pattern SuggestPlacement fetches beyond the search
// results already in hand.
func (a *Analyzer) extractImportPrefixes(ctx context.Context, file string, searchChunks []store.Chunk) []string {
	language := ""
	for _, c := range searchChunks {
		language = c.Language
		break
	}
	def, ok := a.registry.ByName(language)
	if !ok || len(def.Pattern.ImportLinePrefixes) == 0 {
		return nil
	}

	chunks, err := a.store.GetChunksByOrigin(ctx, file)
	if err != nil || len(chunks) == 0 {
		return nil
	}
	first := chunks[0]
	var found []string
	for _, line := range strings.Split(first.Content, "\n") {
		trimmed := strings.TrimSpace(line)
		for _, prefix := range def.Pattern.ImportLinePrefixes {
			if strings.HasPrefix(trimmed, prefix) && !containsString(found, prefix) {
				found = append(found, prefix)
			}
		}
	}
	return found
}

func isExportedName(name string) bool {
	for _, r := range name {
		return unicode.IsUpper(r)
	}
	return false
}

func majorityNamingStyle(chunks []store.Chunk) string {
	var snake, camel, pascal int
	for _, c := range chunks {
		switch {
		case strings.Contains(c.Name, "_"):
			snake++
		case len(c.Name) > 0 && unicode.IsUpper(rune(c.Name[0])):
			pascal++
		default:
			camel++
		}
	}
	switch {
	case snake >= camel && snake >= pascal && snake > 0:
		return "snake_case"
	case pascal >= camel && pascal > 0:
		return "PascalCase"
	case camel > 0:
		return "camelCase"
	default:
		return ""
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
