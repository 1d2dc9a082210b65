// Package syntax defines the parser-independent syntax tree graded by the
// comparison engine.
package syntax

import (
	"fmt"
	"strconv"
	"strings"
)

// Span is a source range. Lines are 1-based, columns are 0-based byte offsets.
type Span struct {
	StartLine   int
	StartColumn int
	EndLine     int
	EndColumn   int
}

// Node is a typed syntax tree node.
//
// Name carries the identifier of definitions, imports and keyword arguments;
// Value carries identifier or literal text. Neither participates in feature
// counting beyond the named keys, but both are part of the canonical dump.
type Node struct {
	Kind     Kind
	Name     string
	Value    string
	Span     Span
	Children []*Node
}

// Tree is an immutable syntax tree produced by a parser adapter.
type Tree struct {
	root *Node
}

// NewTree wraps root. A nil root yields an empty module.
func NewTree(root *Node) *Tree {
	if root == nil {
		root = &Node{Kind: Module}
	}
	return &Tree{root: root}
}

// Root returns the root node.
func (t *Tree) Root() *Node { return t.root }

// Walk visits every node in pre-order, children in source order.
// Returning false from fn skips the node's subtree.
func (t *Tree) Walk(fn func(n *Node) bool) {
	walk(t.root, fn)
}

func walk(n *Node, fn func(n *Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children {
		walk(c, fn)
	}
}

// Len returns the number of nodes in the tree.
func (t *Tree) Len() int {
	count := 0
	t.Walk(func(*Node) bool {
		count++
		return true
	})
	return count
}

// Dump renders the canonical serialized form of the tree: the tree shape with
// names and values but without positions, so two sources that differ only in
// formatting produce the same dump.
func (t *Tree) Dump() string {
	var b strings.Builder
	dumpNode(&b, t.root)
	return b.String()
}

func dumpNode(b *strings.Builder, n *Node) {
	b.WriteString(n.Kind.String())
	if n.Name == "" && n.Value == "" && len(n.Children) == 0 {
		return
	}

	b.WriteByte('(')
	sep := false
	writeSep := func() {
		if sep {
			b.WriteString(", ")
		}
		sep = true
	}
	if n.Name != "" {
		writeSep()
		b.WriteString("name=")
		b.WriteString(strconv.Quote(n.Name))
	}
	if n.Value != "" {
		writeSep()
		b.WriteString("value=")
		b.WriteString(strconv.Quote(n.Value))
	}
	for _, c := range n.Children {
		writeSep()
		dumpNode(b, c)
	}
	b.WriteByte(')')
}

// ParseError reports source text that does not parse.
type ParseError struct {
	Line    int
	Column  int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d, col %d: %s", e.Line, e.Column, e.Message)
}
