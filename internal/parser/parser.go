package parser

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"lukechampine.com/blake3"

	"github.com/cqs-dev/cqs/internal/langregistry"
)

// Parser wraps tree-sitter for the languages known to registry. One
// Parser is not safe for concurrent use (tree-sitter's C parser state is
// reused across calls) — the pipeline's parser pool holds one per worker.
type Parser struct {
	ts       *sitter.Parser
	registry *langregistry.Registry
}

// New creates a Parser bound to the given registry.
func New(registry *langregistry.Registry) *Parser {
	return &Parser{ts: sitter.NewParser(), registry: registry}
}

// Close releases the underlying tree-sitter parser.
func (p *Parser) Close() {
	if p.ts != nil {
		p.ts.Close()
	}
}

// Parse implements the spec §4.1 contract. A parse failure (unsupported
// language, tree-sitter error) is returned as an error; callers (the
// pipeline's parser stage) are responsible for counting it and continuing
// rather than aborting the batch.
func (p *Parser) Parse(ctx context.Context, origin, language string, content []byte) (Result, error) {
	def, ok := p.registry.ByName(language)
	if !ok {
		return Result{}, fmt.Errorf("unsupported language: %s", language)
	}

	normalized := normalizeCRLF(content)

	p.ts.SetLanguage(def.TSLanguage)
	tsTree, err := p.ts.ParseCtx(ctx, nil, normalized)
	if err != nil {
		return Result{}, fmt.Errorf("parse %s: %w", origin, err)
	}
	if tsTree == nil {
		return Result{}, fmt.Errorf("parse %s: nil tree", origin)
	}

	t := &tree{
		Root:     convert(tsTree.RootNode(), normalized),
		Source:   normalized,
		Language: language,
	}

	chunks := p.extractChunks(t, origin, def)
	calls := extractCalls(t, def)
	for i := range calls {
		calls[i].CallerFile = origin
	}

	return Result{Chunks: chunks, Calls: calls}, nil
}

// normalizeCRLF converts CRLF line endings to LF before chunking, per
// spec §4.1: "line numbers therefore refer to the normalised text."
func normalizeCRLF(content []byte) []byte {
	if !strings.Contains(string(content), "\r\n") {
		return content
	}
	return []byte(strings.ReplaceAll(string(content), "\r\n", "\n"))
}

func (p *Parser) extractChunks(t *tree, origin string, def *langregistry.LanguageDef) []Chunk {
	var chunks []Chunk

	t.Root.walk(func(n *node) bool {
		kind, ok := def.CaptureKinds[n.Type]
		if !ok {
			return true
		}

		name := symbolName(n, t.Source, def)
		if name == "" {
			return true
		}

		doc := extractDocComment(n, t.Source, def)
		body := n.content(t.Source)
		full := body
		if doc != "" {
			full = doc + "\n" + body
		}

		lineStart := int(n.StartLine) + 1
		lineEnd := int(n.EndLine) + 1

		base := Chunk{
			Origin:    origin,
			Name:      name,
			Signature: extractSignature(n, t.Source, def),
			Content:   full,
			Doc:       doc,
			ChunkKind: kind,
			Language:  def.Name,
			LineStart: lineStart,
			LineEnd:   lineEnd,
		}
		hash := contentHash(full)
		base.ContentHash = hash
		base.ID = chunkID(origin, lineStart, hash, -1)

		if len(full) <= MaxChunkBytes && (lineEnd-lineStart+1) <= MaxChunkLines {
			chunks = append(chunks, base)
			return false // symbol-defining nodes don't nest further chunks
		}

		// Oversized body: emit the full chunk (content truncated for
		// embedding purposes, per spec §4.1) plus fixed-size windows.
		truncated := base
		truncated.Content = truncateForEmbedding(full)
		chunks = append(chunks, truncated)
		chunks = append(chunks, windowChunk(base, t.Source)...)
		return false
	})

	return chunks
}

// truncateForEmbedding caps the full chunk's content at MaxChunkBytes so
// the parent chunk is still embeddable; the windows carry the complete
// text.
func truncateForEmbedding(content string) string {
	if len(content) <= MaxChunkBytes {
		return content
	}
	return content[:MaxChunkBytes]
}

// windowChunk splits an oversized chunk's content into fixed-size,
// disjoint windows, each with parent_id set and sharing the parent's
// line_start (spec §4.1: "windowed children share the parent's
// line_start").
func windowChunk(parent Chunk, source []byte) []Chunk {
	lines := strings.Split(parent.Content, "\n")
	var windows []Chunk
	for i := 0; i < len(lines); i += MaxChunkLines {
		end := i + MaxChunkLines
		if end > len(lines) {
			end = len(lines)
		}
		windowContent := strings.Join(lines[i:end], "\n")
		w := parent
		w.Content = windowContent
		w.ContentHash = contentHash(windowContent)
		w.ParentID = parent.ID
		w.LineStart = parent.LineStart // shared, per spec
		w.LineEnd = parent.LineStart + (end - 1)
		w.ID = fmt.Sprintf("%s:w%d", parent.ID, len(windows))
		windows = append(windows, w)
		if end >= len(lines) {
			break
		}
	}
	return windows
}

// symbolName resolves n's declared name via the language's name field,
// falling back to the first nested identifier for constructs with no
// direct name field (e.g. Go's const_declaration wrapping multiple
// const_spec children).
func symbolName(n *node, source []byte, def *langregistry.LanguageDef) string {
	if nameNode := n.childByField(def.NameField); nameNode != nil {
		return strings.TrimSpace(nameNode.content(source))
	}
	if ids := n.findAllByType("identifier"); len(ids) > 0 {
		return strings.TrimSpace(ids[0].content(source))
	}
	return ""
}

func extractSignature(n *node, source []byte, def *langregistry.LanguageDef) string {
	content := n.content(source)
	switch def.SignatureBoundary {
	case langregistry.UntilBrace:
		if idx := strings.IndexByte(content, '{'); idx >= 0 {
			return strings.TrimSpace(content[:idx])
		}
	case langregistry.UntilColon:
		if idx := strings.IndexByte(content, ':'); idx >= 0 {
			return strings.TrimSpace(content[:idx])
		}
	}
	return strings.TrimSpace(firstLine(content))
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}

// extractDocComment looks backward from n's start line for contiguous
// single-line comments in this language's comment style.
func extractDocComment(n *node, source []byte, def *langregistry.LanguageDef) string {
	if def.LineCommentPrefix == "" {
		return ""
	}
	lineStart := int(n.StartByte)
	for lineStart > 0 && source[lineStart-1] != '\n' {
		lineStart--
	}
	if lineStart <= 1 {
		return ""
	}

	var lines []string
	pos := lineStart - 1
	for pos > 0 {
		pos--
		for pos > 0 && source[pos] != '\n' {
			pos--
		}
		prevStart := pos
		if pos > 0 {
			prevStart++
		}
		prevEnd := lineStart - 1
		for prevEnd > prevStart && source[prevEnd-1] == '\n' {
			prevEnd--
		}
		prevLine := strings.TrimSpace(string(source[prevStart:prevEnd]))
		if strings.HasPrefix(prevLine, def.LineCommentPrefix) {
			lines = append([]string{strings.TrimPrefix(prevLine, def.LineCommentPrefix)}, lines...)
			lineStart = prevStart
			continue
		}
		break
	}
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// contentHash returns the hex BLAKE3-128 digest of canonicalized content,
// per spec §3 ("content_hash — BLAKE3-128 of canonicalised content").
func contentHash(content string) string {
	sum := blake3.Sum256([]byte(content))
	return hex.EncodeToString(sum[:16]) // 128 bits
}

// chunkID builds the "<origin>:<line_start>:<hash8>" id from spec §3. The
// windowIdx parameter is unused here (windows append their own suffix in
// windowChunk) and kept only so callers can see the full scheme at a
// glance.
func chunkID(origin string, lineStart int, hash string, windowIdx int) string {
	short := hash
	if len(short) > 8 {
		short = short[:8]
	}
	id := fmt.Sprintf("%s:%d:%s", origin, lineStart, short)
	if windowIdx >= 0 {
		id = fmt.Sprintf("%s:w%d", id, windowIdx)
	}
	return id
}
