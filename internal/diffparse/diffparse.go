// Package diffparse parses unified diffs for diff-impact analysis (spec
// §4.6, §6). Stdlib-only (bufio.Scanner): spec §6 pins the exact format
// accepted ("diff --git", "+++ b/path", "@@ -a,b +c,d @@", content lines
// "+"/"-"/" "), a fixed grammar a third-party diff library would not
// simplify — the teacher has no diff concept to ground a library choice
// on either.
package diffparse

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/cqs-dev/cqs/internal/cqserrors"
)

// Line is one content line of a hunk.
type Line struct {
	Kind LineKind
	Text string
}

// LineKind distinguishes added, removed, and context lines.
type LineKind int

const (
	LineContext LineKind = iota
	LineAdded
	LineRemoved
)

// Hunk is one "@@ ... @@" block.
type Hunk struct {
	OldStart, OldCount int
	NewStart, NewCount int
	Lines              []Line
}

// FileDiff groups the hunks that apply to one file path (the new-side
// path after a rename).
type FileDiff struct {
	Path  string
	Hunks []Hunk
}

// Parse reads a unified diff from r and returns one FileDiff per file
// section, in the order files appear in the diff. "diff --git" resets the
// current file context; a "+++" line appearing inside hunk content (a
// line of diff text that happens to start with "+++") does not, since by
// that point the scanner is inside a hunk body, not file-header state.
func Parse(r io.Reader) ([]FileDiff, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	var files []FileDiff
	var cur *FileDiff
	var curHunk *Hunk
	inHeader := false

	flushHunk := func() {
		if curHunk != nil && cur != nil {
			cur.Hunks = append(cur.Hunks, *curHunk)
			curHunk = nil
		}
	}
	flushFile := func() {
		flushHunk()
		if cur != nil {
			files = append(files, *cur)
			cur = nil
		}
	}

	for scanner.Scan() {
		line := normalizeCRLF(scanner.Text())

		switch {
		case strings.HasPrefix(line, "diff --git "):
			flushFile()
			cur = &FileDiff{}
			inHeader = true
			continue

		case inHeader && strings.HasPrefix(line, "+++ "):
			cur.Path = stripDiffPathPrefix(line[len("+++ "):])
			inHeader = false
			continue

		case inHeader:
			// "---", "index", "new file mode", etc: ignored header noise.
			continue

		case strings.HasPrefix(line, "@@ "):
			flushHunk()
			h, err := parseHunkHeader(line)
			if err != nil {
				return nil, err
			}
			if cur == nil {
				cur = &FileDiff{}
			}
			curHunk = &h
			continue

		case line == `\ No newline at end of file`:
			continue

		case curHunk != nil:
			if line == "" {
				curHunk.Lines = append(curHunk.Lines, Line{Kind: LineContext, Text: ""})
				continue
			}
			switch line[0] {
			case '+':
				curHunk.Lines = append(curHunk.Lines, Line{Kind: LineAdded, Text: line[1:]})
			case '-':
				curHunk.Lines = append(curHunk.Lines, Line{Kind: LineRemoved, Text: line[1:]})
			case ' ':
				curHunk.Lines = append(curHunk.Lines, Line{Kind: LineContext, Text: line[1:]})
			default:
				// Stray line outside any recognised prefix; ignore rather
				// than fail the whole diff.
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, cqserrors.Wrap(cqserrors.KindParse, "scan unified diff", err)
	}
	flushFile()
	return files, nil
}

// stripDiffPathPrefix strips the leading "a/"/"b/" diff path prefix and a
// trailing "\r" spec §6 calls out explicitly, and recognises "/dev/null"
// for added/removed files.
func stripDiffPathPrefix(path string) string {
	path = strings.TrimSuffix(path, "\r")
	if idx := strings.IndexByte(path, '\t'); idx >= 0 {
		path = path[:idx]
	}
	if path == "/dev/null" {
		return ""
	}
	if after, ok := strings.CutPrefix(path, "a/"); ok {
		return after
	}
	if after, ok := strings.CutPrefix(path, "b/"); ok {
		return after
	}
	return path
}

// parseHunkHeader parses "@@ -a,b +c,d @@" (the ",b"/",d" counts default
// to 1 when a hunk touches exactly one line, per diff convention).
func parseHunkHeader(line string) (Hunk, error) {
	body := strings.TrimPrefix(line, "@@ ")
	end := strings.Index(body, " @@")
	if end < 0 {
		return Hunk{}, cqserrors.New(cqserrors.KindParse, "malformed hunk header: "+line)
	}
	body = body[:end]

	fields := strings.Fields(body)
	if len(fields) != 2 || !strings.HasPrefix(fields[0], "-") || !strings.HasPrefix(fields[1], "+") {
		return Hunk{}, cqserrors.New(cqserrors.KindParse, "malformed hunk header: "+line)
	}

	oldStart, oldCount, err := parseRange(fields[0][1:])
	if err != nil {
		return Hunk{}, err
	}
	newStart, newCount, err := parseRange(fields[1][1:])
	if err != nil {
		return Hunk{}, err
	}
	return Hunk{OldStart: oldStart, OldCount: oldCount, NewStart: newStart, NewCount: newCount}, nil
}

func parseRange(s string) (start, count int, err error) {
	parts := strings.SplitN(s, ",", 2)
	start, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, cqserrors.Wrap(cqserrors.KindParse, "parse hunk range start", err)
	}
	if len(parts) == 1 {
		return start, 1, nil
	}
	count, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, cqserrors.Wrap(cqserrors.KindParse, "parse hunk range count", err)
	}
	return start, count, nil
}

func normalizeCRLF(s string) string {
	return strings.TrimSuffix(s, "\r")
}
