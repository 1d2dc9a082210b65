package grader

import (
	"github.com/kailas-cloud/codegrade/internal/syntax"
)

// Composite feature key prefixes.
const (
	keyFunction   = "function:"
	keyClass      = "class:"
	keyImport     = "import:"
	keyImportFrom = "import_from:"
	keyCall       = "call:"
)

// FeatureMultiset counts node kinds and named entities of one tree.
type FeatureMultiset map[string]int

// Total returns the sum of all counts.
func (f FeatureMultiset) Total() int {
	total := 0
	for _, n := range f {
		total += n
	}
	return total
}

// Kind returns the count of the bare kind tag.
func (f FeatureMultiset) Kind(k syntax.Kind) int {
	return f[k.String()]
}

// ExtractFeatures walks tree once and counts its features.
func ExtractFeatures(tree *syntax.Tree) FeatureMultiset {
	features := make(FeatureMultiset)
	tree.Walk(func(n *syntax.Node) bool {
		features[n.Kind.String()]++

		switch n.Kind {
		case syntax.FunctionDef, syntax.AsyncFunctionDef:
			features[keyFunction+n.Name]++
		case syntax.ClassDef:
			features[keyClass+n.Name]++
		case syntax.Import:
			for _, alias := range n.Children {
				if alias.Kind == syntax.Alias {
					features[keyImport+alias.Name]++
				}
			}
		case syntax.ImportFrom:
			features[keyImportFrom+n.Name]++
		case syntax.Call:
			if len(n.Children) > 0 && n.Children[0].Kind == syntax.Name {
				features[keyCall+n.Children[0].Value]++
			}
		}
		return true
	})
	return features
}
