package grader

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/kailas-cloud/codegrade/internal/syntax"
)

func TestClassifyParsed_Boundaries(t *testing.T) {
	tests := []struct {
		ratio float64
		want  Tier
	}{
		{1.0, TierHighSimilarity},
		{0.8500001, TierHighSimilarity},
		{0.85, TierInterpretable},
		{0.3000001, TierInterpretable},
		{0.3, TierWrongIntent},
		{0, TierWrongIntent},
	}
	for _, tc := range tests {
		if got := ClassifyParsed(tc.ratio); got != tc.want {
			t.Errorf("ClassifyParsed(%v) = %v, want %v", tc.ratio, got, tc.want)
		}
	}
}

func TestClassifyUnparsed_NeverWrongIntent(t *testing.T) {
	for _, q := range []float64{0, 0.3, 0.31, 0.85, 0.9, 1} {
		got := ClassifyUnparsed(q)
		if got == TierWrongIntent || got == TierExactMatch {
			t.Errorf("ClassifyUnparsed(%v) = %v", q, got)
		}
	}
	if ClassifyUnparsed(0.3) != TierGarbage {
		t.Error("0.3 must be garbage")
	}
}

func TestScore(t *testing.T) {
	tests := []struct {
		tier  Tier
		lines int
		want  float64
	}{
		{TierExactMatch, 1, 27},
		{TierExactMatch, 500, 27},
		{TierHighSimilarity, 7, 0},
		{TierHighSimilarity, 8, 4},
		{TierHighSimilarity, 17, 8},
		{TierInterpretable, 6, 0},
		{TierInterpretable, 14, 2},
		{TierWrongIntent, 100, 0},
		{TierGarbage, 6, 0},
		{TierGarbage, 7, -1},
		{TierGarbage, 21, -3},
		{TierHighSimilarity, 0, 0},
	}
	for _, tc := range tests {
		if got := Score(tc.tier, tc.lines); got != tc.want {
			t.Errorf("Score(%v, %d) = %v, want %v", tc.tier, tc.lines, got, tc.want)
		}
	}
}

func TestLineCount(t *testing.T) {
	tests := []struct {
		src  string
		want int
	}{
		{"", 1},
		{"   \n\n", 1},
		{"x = 1", 1},
		{"\n\nx = 1\n\ny = 2\n\n", 2},
		{"a\r\nb\r\n", 2},
	}
	for _, tc := range tests {
		if got := LineCount(tc.src); got != tc.want {
			t.Errorf("LineCount(%q) = %d, want %d", tc.src, got, tc.want)
		}
	}
}

func TestTier_Text(t *testing.T) {
	data, err := json.Marshal(TierHighSimilarity)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `"high_similarity"` {
		t.Errorf("marshal = %s", data)
	}
	var tier Tier
	if err := json.Unmarshal([]byte(`"wrong_intent"`), &tier); err != nil {
		t.Fatal(err)
	}
	if tier != TierWrongIntent {
		t.Errorf("unmarshal = %v", tier)
	}
	if err := tier.UnmarshalText([]byte("bogus")); err == nil {
		t.Error("expected error for unknown tier")
	}
}

func TestEstimateQuality(t *testing.T) {
	tests := []struct {
		name       string
		src        string
		wantScore  float64
		wantIssues []string
	}{
		{
			name:       "nonsense",
			src:        "this is not even python code!",
			wantScore:  0,
			wantIssues: []string{"No recognizable code structures found"},
		},
		{
			name:       "flat block",
			src:        "def foo(x):\nreturn x",
			wantScore:  0.2 * 0.8 * 0.8,
			wantIssues: []string{"Missing indentation after blocks"},
		},
		{
			name:       "assignment floor",
			src:        "x = (1, 2",
			wantScore:  0.3 * 0.8,
			wantIssues: []string{"No recognizable code structures found", "Unbalanced parentheses"},
		},
		{
			name:       "default argument is not an assignment",
			src:        "def f(a=1) return a",
			wantScore:  0.2,
			wantIssues: nil,
		},
		{
			name: "all brackets",
			src:  "x = [1, {2, (3\nfor i in y:\n    pass",
			// loop pattern only, raised to the assignment floor.
			wantScore:  0.3 * 0.8,
			wantIssues: []string{"Unbalanced parentheses", "Unbalanced braces", "Unbalanced brackets"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			score, issues := EstimateQuality(tc.src)
			if math.Abs(score-tc.wantScore) > 1e-9 {
				t.Errorf("score = %v, want %v", score, tc.wantScore)
			}
			if len(issues) != len(tc.wantIssues) {
				t.Fatalf("issues = %v, want %v", issues, tc.wantIssues)
			}
			for i := range issues {
				if issues[i] != tc.wantIssues[i] {
					t.Errorf("issues[%d] = %q, want %q", i, issues[i], tc.wantIssues[i])
				}
			}
		})
	}
}

func TestDiff_Order(t *testing.T) {
	ref := syntax.NewTree(&syntax.Node{Kind: syntax.Module, Children: []*syntax.Node{
		{Kind: syntax.FunctionDef, Name: "f", Span: syntax.Span{StartLine: 1, StartColumn: 0, EndLine: 5, EndColumn: 0}, Children: []*syntax.Node{
			{Kind: syntax.If, Span: syntax.Span{StartLine: 2, StartColumn: 4, EndLine: 3, EndColumn: 0}, Children: []*syntax.Node{
				{Kind: syntax.Return, Span: syntax.Span{StartLine: 3, StartColumn: 8, EndLine: 3, EndColumn: 16}},
			}},
			{Kind: syntax.Return, Span: syntax.Span{StartLine: 4, StartColumn: 4, EndLine: 4, EndColumn: 12}},
		}},
	}})
	sub := syntax.NewTree(&syntax.Node{Kind: syntax.Module, Children: []*syntax.Node{
		{Kind: syntax.FunctionDef, Name: "g", Children: []*syntax.Node{
			{Kind: syntax.Return},
		}},
	}})

	refF, subF := ExtractFeatures(ref), ExtractFeatures(sub)
	issues := Diff(ref, refF, subF, Locate(ref))

	want := []string{
		"Missing 1 If node(s)",
		"Missing 1 Return node(s)",
		"Missing function definition 'f'",
	}
	if len(issues) != len(want) {
		t.Fatalf("issues = %+v", issues)
	}
	for i := range want {
		if issues[i].Message != want[i] {
			t.Errorf("issues[%d] = %q, want %q", i, issues[i].Message, want[i])
		}
	}
	// The submission has one Return, so the second reference Return is reported.
	if issues[1].Line != 4 || *issues[1].Column != 4 {
		t.Errorf("Return issue at %d:%d, want 4:4", issues[1].Line, *issues[1].Column)
	}
	if issues[2].Column != nil || issues[2].Line != 1 {
		t.Errorf("named issue must be unlocated, got %+v", issues[2])
	}
}

func TestDiff_UnlocatedWhenIndexShort(t *testing.T) {
	ref := syntax.NewTree(&syntax.Node{Kind: syntax.Module, Children: []*syntax.Node{{Kind: syntax.Pass}}})
	refF := FeatureMultiset{"Module": 1, "Pass": 2}
	issues := Diff(ref, refF, FeatureMultiset{"Module": 1, "Pass": 1}, Locate(ref))
	if len(issues) != 1 || issues[0].Column != nil || issues[0].Line != 1 {
		t.Errorf("issues = %+v", issues)
	}
}
