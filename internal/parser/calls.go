package parser

import (
	"strings"

	"github.com/cqs-dev/cqs/internal/langregistry"
)

// extractCalls walks t looking for call-site nodes (def.CallNodeTypes)
// nested inside callable bodies, emitting one CallEdge per call site.
// Name resolution is lexical only: a call to "foo()" resolves to the
// bare identifier "foo", and a method/attribute call such as "obj.Foo()"
// resolves to "Foo" with the receiver expression dropped, matching
// spec §3's "no cross-file type resolution" note. CallerLine is
// 1-indexed like Chunk.LineStart.
func extractCalls(t *tree, def *langregistry.LanguageDef) []CallEdge {
	callNodeTypes := make(map[string]struct{}, len(def.CallNodeTypes))
	for _, ct := range def.CallNodeTypes {
		callNodeTypes[ct] = struct{}{}
	}

	var edges []CallEdge
	var walkScope func(n *node, enclosingName string)
	walkScope = func(n *node, enclosingName string) {
		if n == nil {
			return
		}
		current := enclosingName
		if kind, ok := def.CaptureKinds[n.Type]; ok && def.IsCallable(kind) {
			if name := symbolName(n, t.Source, def); name != "" {
				current = name
			}
		}

		if _, ok := callNodeTypes[n.Type]; ok && current != "" {
			if callee := calleeName(n, t.Source, def); callee != "" {
				edges = append(edges, CallEdge{
					CallerName: current,
					CalleeName: callee,
					CallerLine: int(n.StartLine) + 1,
				})
			}
		}

		for _, c := range n.Children {
			walkScope(c, current)
		}
	}
	walkScope(t.Root, "")
	return edges
}

// calleeName extracts the invoked name from a call expression, reading
// the language's CallFunctionField (e.g. Go's call_expression has a
// "function" field; Python's call node also uses "function").
func calleeName(callNode *node, source []byte, def *langregistry.LanguageDef) string {
	fnNode := callNode.childByField(def.CallFunctionField)
	if fnNode == nil {
		return ""
	}
	text := fnNode.content(source)
	// Strip any receiver/module qualifier: "pkg.Foo" / "obj.method" /
	// "a.b.c" all resolve to the trailing identifier.
	if idx := strings.LastIndexByte(text, '.'); idx >= 0 {
		text = text[idx+1:]
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	return text
}
