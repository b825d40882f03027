// Package langregistry implements the compile-time language table from
// spec §4.1: for each supported language, a tree-sitter grammar handle,
// a capture-name→chunk-kind map, a signature-boundary rule, callable-kind
// predicates used by SQL filters, test-detection hints, and optional
// pattern-extraction hints for where-to-add placement.
package langregistry

import (
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// ChunkKind is the closed set of chunk kinds from spec §3.
type ChunkKind string

const (
	KindFunction  ChunkKind = "function"
	KindMethod    ChunkKind = "method"
	KindClass     ChunkKind = "class"
	KindStruct    ChunkKind = "struct"
	KindEnum      ChunkKind = "enum"
	KindTrait     ChunkKind = "trait"
	KindInterface ChunkKind = "interface"
	KindConstant  ChunkKind = "constant"
)

// SignatureBoundary selects how a symbol's signature is delimited from its
// body when the parser renders a truncated signature string.
type SignatureBoundary string

const (
	UntilBrace SignatureBoundary = "until-brace"
	UntilColon SignatureBoundary = "until-colon"
)

// TestHints describes how to recognize test code for this language, used
// by impact (test discovery), scout, and dead-code (test exclusion).
type TestHints struct {
	NamePrefixes  []string // e.g. "Test" (Go), "test_" (Python)
	NameSuffixes  []string // e.g. "_test" (Python unittest methods)
	NameContains  []string // e.g. "Test" anywhere
	PathPatterns  []string // substrings: "_test.go", "/test_", "/tests/"
	ContentMarkers []string // e.g. "import unittest", "@Test", "describe("
}

// PatternHints assists where-to-add placement inference (spec §4.6).
type PatternHints struct {
	ImportLinePrefixes []string // "import ", "from ", `"` (go) …
	ErrorMarkers       []string // "if err != nil", "raise ", "throw new "
}

// LanguageDef is one row of the registry.
type LanguageDef struct {
	Name       string
	Extensions []string
	TSLanguage *sitter.Language

	// CaptureKinds maps tree-sitter node types to chunk kinds.
	CaptureKinds map[string]ChunkKind

	// CallNodeTypes are node types that denote a call expression, used by
	// the parser to emit function_calls edges.
	CallNodeTypes []string
	// CallFunctionField is the field name on a call node holding the
	// callee expression (tree-sitter field name, not node type).
	CallFunctionField string

	SignatureBoundary SignatureBoundary
	NameField         string // field name holding the symbol's identifier

	Test    TestHints
	Pattern PatternHints

	// EntryPointNames are language-conventional entry points excluded from
	// dead-code analysis phase 3 (spec §4.6).
	EntryPointNames []string

	// LineCommentPrefix is used for doc-comment extraction.
	LineCommentPrefix string
}

// IsCallable reports whether a chunk kind participates in the call graph
// (functions and methods only — classes/structs/etc. are never callers or
// callees themselves).
func (d *LanguageDef) IsCallable(kind ChunkKind) bool {
	return kind == KindFunction || kind == KindMethod
}

// CallableKinds returns the kinds IsCallable accepts, for use in SQL
// `chunk_kind IN (...)` filters.
func (d *LanguageDef) CallableKinds() []ChunkKind {
	return []ChunkKind{KindFunction, KindMethod}
}

// IsTestName reports whether name matches this language's test naming
// convention.
func (d *LanguageDef) IsTestName(name string) bool {
	for _, p := range d.Test.NamePrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	for _, s := range d.Test.NameSuffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	for _, c := range d.Test.NameContains {
		if strings.Contains(name, c) {
			return true
		}
	}
	return false
}

// IsTestPath reports whether a project-relative path looks like test code
// for this language.
func (d *LanguageDef) IsTestPath(origin string) bool {
	for _, p := range d.Test.PathPatterns {
		if strings.Contains(origin, p) {
			return true
		}
	}
	return false
}

// IsEntryPoint reports whether name is a language-conventional program
// entry point (excluded from dead-code reporting).
func (d *LanguageDef) IsEntryPoint(name string) bool {
	for _, e := range d.EntryPointNames {
		if name == e {
			return true
		}
	}
	return false
}

// Registry is the thread-safe table of LanguageDefs, keyed by canonical
// name and by file extension.
type Registry struct {
	mu        sync.RWMutex
	byName    map[string]*LanguageDef
	extToName map[string]string
}

// New builds a registry containing the default language set (go, python,
// javascript, jsx, typescript, tsx).
func New() *Registry {
	r := &Registry{
		byName:    make(map[string]*LanguageDef),
		extToName: make(map[string]string),
	}
	r.register(goDef())
	r.register(pythonDef())
	jsDef, jsxDef := javascriptDefs()
	r.register(jsDef)
	r.register(jsxDef)
	tsDef, tsxDefV := typescriptDefs()
	r.register(tsDef)
	r.register(tsxDefV)
	return r
}

func (r *Registry) register(d *LanguageDef) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byName[d.Name] = d
	for _, ext := range d.Extensions {
		r.extToName[ext] = d.Name
	}
}

// ByName looks up a LanguageDef by its canonical name.
func (r *Registry) ByName(name string) (*LanguageDef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byName[name]
	return d, ok
}

// ByExtension looks up a LanguageDef by file extension (with or without
// the leading dot).
func (r *Registry) ByExtension(ext string) (*LanguageDef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	name, ok := r.extToName[ext]
	if !ok {
		return nil, false
	}
	d, ok := r.byName[name]
	return d, ok
}

// SupportedExtensions lists every registered extension.
func (r *Registry) SupportedExtensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make([]string, 0, len(r.extToName))
	for ext := range r.extToName {
		exts = append(exts, ext)
	}
	return exts
}

var defaultRegistry = New()

// Default returns the process-wide language registry.
func Default() *Registry { return defaultRegistry }

func goDef() *LanguageDef {
	return &LanguageDef{
		Name:       "go",
		Extensions: []string{".go"},
		TSLanguage: golang.GetLanguage(),
		CaptureKinds: map[string]ChunkKind{
			"function_declaration": KindFunction,
			"method_declaration":   KindMethod,
			"type_declaration":     KindStruct,
			"const_declaration":    KindConstant,
		},
		CallNodeTypes:     []string{"call_expression"},
		CallFunctionField: "function",
		SignatureBoundary: UntilBrace,
		NameField:         "name",
		Test: TestHints{
			NamePrefixes: []string{"Test", "Benchmark", "Example", "Fuzz"},
			PathPatterns: []string{"_test.go"},
		},
		Pattern: PatternHints{
			ImportLinePrefixes: []string{"import "},
			ErrorMarkers:       []string{"if err != nil"},
		},
		EntryPointNames:   []string{"main", "init"},
		LineCommentPrefix: "//",
	}
}

func pythonDef() *LanguageDef {
	return &LanguageDef{
		Name:       "python",
		Extensions: []string{".py"},
		TSLanguage: python.GetLanguage(),
		CaptureKinds: map[string]ChunkKind{
			"function_definition": KindFunction,
			"class_definition":    KindClass,
		},
		CallNodeTypes:     []string{"call"},
		CallFunctionField: "function",
		SignatureBoundary: UntilColon,
		NameField:         "name",
		Test: TestHints{
			NamePrefixes:   []string{"test_"},
			NameContains:   []string{"Test"},
			PathPatterns:   []string{"/test_", "_test.py", "/tests/"},
			ContentMarkers: []string{"import unittest", "import pytest"},
		},
		Pattern: PatternHints{
			ImportLinePrefixes: []string{"import ", "from "},
			ErrorMarkers:       []string{"raise ", "except "},
		},
		EntryPointNames:   []string{"main", "__init__"},
		LineCommentPrefix: "#",
	}
}

func javascriptDefs() (js, jsx *LanguageDef) {
	js = &LanguageDef{
		Name:       "javascript",
		Extensions: []string{".js", ".mjs"},
		TSLanguage: javascript.GetLanguage(),
		CaptureKinds: map[string]ChunkKind{
			"function_declaration": KindFunction,
			"method_definition":    KindMethod,
			"class_declaration":    KindClass,
		},
		CallNodeTypes:     []string{"call_expression"},
		CallFunctionField: "function",
		SignatureBoundary: UntilBrace,
		NameField:         "name",
		Test: TestHints{
			NameSuffixes:   []string{".test", ".spec"},
			PathPatterns:   []string{".test.js", ".spec.js", "/__tests__/"},
			ContentMarkers: []string{"describe(", "it(", "test("},
		},
		Pattern: PatternHints{
			ImportLinePrefixes: []string{"import ", "const ", "require("},
			ErrorMarkers:       []string{"throw new ", "catch ("},
		},
		EntryPointNames:   []string{"main"},
		LineCommentPrefix: "//",
	}
	jsxDef := *js
	jsxDef.Name = "jsx"
	jsxDef.Extensions = []string{".jsx"}
	return js, &jsxDef
}

func typescriptDefs() (ts, tsxLang *LanguageDef) {
	ts = &LanguageDef{
		Name:       "typescript",
		Extensions: []string{".ts"},
		TSLanguage: typescript.GetLanguage(),
		CaptureKinds: map[string]ChunkKind{
			"function_declaration":  KindFunction,
			"method_definition":     KindMethod,
			"class_declaration":     KindClass,
			"interface_declaration": KindInterface,
			"type_alias_declaration": KindStruct,
			"enum_declaration":      KindEnum,
		},
		CallNodeTypes:     []string{"call_expression"},
		CallFunctionField: "function",
		SignatureBoundary: UntilBrace,
		NameField:         "name",
		Test: TestHints{
			NameSuffixes:   []string{".test", ".spec"},
			PathPatterns:   []string{".test.ts", ".spec.ts", "/__tests__/"},
			ContentMarkers: []string{"describe(", "it(", "test("},
		},
		Pattern: PatternHints{
			ImportLinePrefixes: []string{"import "},
			ErrorMarkers:       []string{"throw new ", "catch ("},
		},
		EntryPointNames:   []string{"main"},
		LineCommentPrefix: "//",
	}
	tsxCopy := *ts
	tsxCopy.Name = "tsx"
	tsxCopy.Extensions = []string{".tsx"}
	tsxCopy.TSLanguage = tsx.GetLanguage()
	return ts, &tsxCopy
}
