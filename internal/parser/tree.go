package parser

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// node is a plain-data mirror of a tree-sitter node. Converting once up
// front keeps the rest of this package free of cgo-adjacent pointer
// lifetimes and lets tests build trees by hand.
type node struct {
	Type       string
	StartByte  uint32
	EndByte    uint32
	StartLine  uint32 // 0-indexed
	EndLine    uint32
	FieldName  string // field name under the parent, if any
	Children   []*node
}

type tree struct {
	Root     *node
	Source   []byte
	Language string
}

func convert(n *sitter.Node, source []byte) *node {
	return convertField(n, source, "")
}

func convertField(n *sitter.Node, source []byte, field string) *node {
	if n == nil {
		return nil
	}
	out := &node{
		Type:      n.Type(),
		StartByte: n.StartByte(),
		EndByte:   n.EndByte(),
		StartLine: n.StartPoint().Row,
		EndLine:   n.EndPoint().Row,
		FieldName: field,
		Children:  make([]*node, 0, n.ChildCount()),
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		out.Children = append(out.Children, convertField(child, source, n.FieldNameForChild(i)))
	}
	return out
}

func (n *node) content(source []byte) string {
	if n == nil || n.StartByte >= n.EndByte || int(n.EndByte) > len(source) {
		return ""
	}
	return string(source[n.StartByte:n.EndByte])
}

func (n *node) childByType(t string) *node {
	for _, c := range n.Children {
		if c.Type == t {
			return c
		}
	}
	return nil
}

func (n *node) childByField(field string) *node {
	for _, c := range n.Children {
		if c.FieldName == field {
			return c
		}
	}
	return nil
}

// walk visits n and every descendant depth-first. fn returning false skips
// that node's children, not the remainder of the walk.
func (n *node) walk(fn func(*node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.walk(fn)
	}
}

func (n *node) findAllByType(t string) []*node {
	var out []*node
	n.walk(func(x *node) bool {
		if x.Type == t {
			out = append(out, x)
		}
		return true
	})
	return out
}
