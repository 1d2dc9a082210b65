package grader

import (
	"math"
	"testing"

	"github.com/kailas-cloud/codegrade/internal/syntax"
)

func name(v string) *syntax.Node { return &syntax.Node{Kind: syntax.Name, Value: v} }

func TestExtractFeatures(t *testing.T) {
	tree := syntax.NewTree(&syntax.Node{Kind: syntax.Module, Children: []*syntax.Node{
		{Kind: syntax.Import, Children: []*syntax.Node{
			{Kind: syntax.Alias, Name: "os"},
			{Kind: syntax.Alias, Name: "sys"},
		}},
		{Kind: syntax.ImportFrom, Name: "..pkg", Children: []*syntax.Node{{Kind: syntax.Alias, Name: "x"}}},
		{Kind: syntax.ClassDef, Name: "A", Children: []*syntax.Node{
			{Kind: syntax.AsyncFunctionDef, Name: "run", Children: []*syntax.Node{
				{Kind: syntax.Arguments},
				{Kind: syntax.Expr, Children: []*syntax.Node{
					{Kind: syntax.Call, Children: []*syntax.Node{name("print"), name("x")}},
				}},
				{Kind: syntax.Expr, Children: []*syntax.Node{
					{Kind: syntax.Call, Children: []*syntax.Node{
						{Kind: syntax.Attribute, Value: "join", Children: []*syntax.Node{name("os")}},
					}},
				}},
			}},
		}},
	}})

	f := ExtractFeatures(tree)
	want := map[string]int{
		"Module":            1,
		"Import":            1,
		"alias":             3,
		"import:os":         1,
		"import:sys":        1,
		"ImportFrom":        1,
		"import_from:..pkg": 1,
		"ClassDef":          1,
		"class:A":           1,
		"AsyncFunctionDef":  1,
		"function:run":      1,
		"Call":              2,
		"call:print":        1,
		"Name":              3,
		"Attribute":         1,
	}
	for k, n := range want {
		if f[k] != n {
			t.Errorf("features[%q] = %d, want %d", k, f[k], n)
		}
	}
	if _, ok := f["call:join"]; ok {
		t.Error("attribute calls must not produce call: keys")
	}
}

func TestExtractFeatures_EmptyModule(t *testing.T) {
	f := ExtractFeatures(syntax.NewTree(nil))
	if f.Total() != 1 || f.Kind(syntax.Module) != 1 {
		t.Errorf("unexpected features %v", f)
	}
}

func TestStructuralSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b FeatureMultiset
		want float64
	}{
		{"both empty", FeatureMultiset{}, FeatureMultiset{}, 1},
		{"identical", FeatureMultiset{"Return": 2, "Name": 1}, FeatureMultiset{"Return": 2, "Name": 1}, 1},
		{"one sided", FeatureMultiset{"Return": 2}, FeatureMultiset{}, 1 - 2.0/3.0},
		{"disjoint", FeatureMultiset{"A": 1}, FeatureMultiset{"B": 1}, 1 - 2.0/4.0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := StructuralSimilarity(tc.a, tc.b)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("got %v, want %v", got, tc.want)
			}
			if rev := StructuralSimilarity(tc.b, tc.a); math.Abs(rev-got) > 1e-9 {
				t.Errorf("not symmetric: %v vs %v", got, rev)
			}
		})
	}
}

func TestTextSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"", "", 1},
		{"abcd", "abcd", 1},
		{"abcd", "", 0},
		{"ab", "ac", 0.5},
		{"abc", "xyz", 0},
	}
	for _, tc := range tests {
		if got := TextSimilarity(tc.a, tc.b); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("TextSimilarity(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestSimilarity_Weights(t *testing.T) {
	f := FeatureMultiset{"A": 1}
	got := Similarity(f, f, "abc", "xyz")
	if math.Abs(got-0.7) > 1e-9 {
		t.Errorf("Similarity = %v, want 0.7", got)
	}
}

func TestLocate_PreOrder(t *testing.T) {
	tree := syntax.NewTree(&syntax.Node{Kind: syntax.Module, Children: []*syntax.Node{
		{Kind: syntax.Return, Span: syntax.Span{StartLine: 2}},
		{Kind: syntax.If, Span: syntax.Span{StartLine: 3}, Children: []*syntax.Node{
			{Kind: syntax.Return, Span: syntax.Span{StartLine: 4}},
		}},
		{Kind: syntax.Return, Span: syntax.Span{StartLine: 5}},
	}})
	idx := Locate(tree)
	lines := []int{}
	for _, s := range idx[syntax.Return] {
		lines = append(lines, s.StartLine)
	}
	if len(lines) != 3 || lines[0] != 2 || lines[1] != 4 || lines[2] != 5 {
		t.Errorf("Return spans = %v, want [2 4 5]", lines)
	}
	if _, ok := idx.At(syntax.Return, 3); ok {
		t.Error("At past the end must fail")
	}
}
