package grader

import "github.com/kailas-cloud/codegrade/internal/syntax"

// LocationIndex lists the spans of every kind in pre-order.
type LocationIndex map[syntax.Kind][]syntax.Span

// Locate indexes the spans of tree.
func Locate(tree *syntax.Tree) LocationIndex {
	index := make(LocationIndex)
	tree.Walk(func(n *syntax.Node) bool {
		index[n.Kind] = append(index[n.Kind], n.Span)
		return true
	})
	return index
}

// At returns the i-th span of kind k.
func (idx LocationIndex) At(k syntax.Kind, i int) (syntax.Span, bool) {
	spans := idx[k]
	if i < 0 || i >= len(spans) {
		return syntax.Span{}, false
	}
	return spans[i], true
}
