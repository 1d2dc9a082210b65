package grader

import (
	"errors"
	"fmt"

	"github.com/kailas-cloud/codegrade/internal/syntax"
)

// Parser turns source text into a syntax tree. Syntax errors must be
// reported as *syntax.ParseError.
type Parser interface {
	Parse(src []byte) (*syntax.Tree, error)
}

// Engine grades submissions. It holds no mutable state and is safe for
// concurrent use.
type Engine struct {
	parser Parser
}

// New creates an engine backed by parser.
func New(parser Parser) *Engine {
	return &Engine{parser: parser}
}

// Compare grades submission against reference. When referenceDump is not
// empty it replaces the reference's own dump in the exact-match test; the
// reference is still parsed for features and locations.
//
// A reference that does not parse yields *ReferenceParseError. A submission
// that does not parse is graded by the heuristic estimator instead.
func (e *Engine) Compare(submission, reference, referenceDump string) (result ScoreResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = ScoreResult{}, &InternalError{Cause: r}
		}
	}()

	refTree, err := e.parser.Parse([]byte(reference))
	if err != nil {
		var perr *syntax.ParseError
		if errors.As(err, &perr) {
			return ScoreResult{}, &ReferenceParseError{Err: perr}
		}
		return ScoreResult{}, fmt.Errorf("parse reference: %w", err)
	}

	lines := LineCount(submission)

	subTree, err := e.parser.Parse([]byte(submission))
	if err != nil {
		var perr *syntax.ParseError
		if errors.As(err, &perr) {
			return gradeUnparsed(submission, perr, lines), nil
		}
		return ScoreResult{}, fmt.Errorf("parse submission: %w", err)
	}

	return gradeParsed(subTree, refTree, referenceDump, lines), nil
}

// Dump parses reference and returns its canonical dump, the value callers
// store and later pass to Compare.
func (e *Engine) Dump(reference string) (string, error) {
	tree, err := e.parser.Parse([]byte(reference))
	if err != nil {
		var perr *syntax.ParseError
		if errors.As(err, &perr) {
			return "", &ReferenceParseError{Err: perr}
		}
		return "", fmt.Errorf("parse reference: %w", err)
	}
	return tree.Dump(), nil
}

func gradeParsed(sub, ref *syntax.Tree, referenceDump string, lines int) ScoreResult {
	subDump, refDump := sub.Dump(), ref.Dump()
	expected := referenceDump
	if expected == "" {
		expected = refDump
	}
	if subDump == expected {
		return exactMatch()
	}

	subFeatures, refFeatures := ExtractFeatures(sub), ExtractFeatures(ref)
	ratio := Similarity(subFeatures, refFeatures, subDump, refDump)
	tier := ClassifyParsed(ratio)

	issues := Diff(ref, refFeatures, subFeatures, Locate(ref))
	if len(issues) == 0 {
		issues = []Issue{unlocated(fallbackMessage)}
	}
	res := mismatch(tier, lines, issues)
	res.Parsed = true
	return res
}

func gradeUnparsed(submission string, perr *syntax.ParseError, lines int) ScoreResult {
	quality, hints := EstimateQuality(submission)
	tier := ClassifyUnparsed(quality)

	issues := make([]Issue, 0, len(hints)+2)
	issues = append(issues, unlocated(leadingMessage(tier)))

	col := perr.Column
	issues = append(issues, Issue{
		Line:    max(perr.Line, 1),
		Column:  &col,
		Message: syntaxErrorPrefix + perr.Message,
	})
	for _, h := range hints {
		issues = append(issues, unlocated(h))
	}
	return mismatch(tier, lines, issues)
}

func leadingMessage(tier Tier) string {
	switch tier {
	case TierHighSimilarity:
		return "Minor syntax errors"
	case TierInterpretable:
		return "Code structure somewhat interpretable, but syntax is invalid"
	default:
		return "Code is nonsensical or unrecognizable"
	}
}

func exactMatch() ScoreResult {
	return ScoreResult{
		ExactMatch: true,
		Parsed:     true,
		Score:      MaxScore,
		Tier:       TierExactMatch,
		Feedback:   Feedback{Message: perfectMessage, Issues: []Issue{}},
	}
}

func mismatch(tier Tier, lines int, issues []Issue) ScoreResult {
	return ScoreResult{
		Score:    Score(tier, lines),
		Tier:     tier,
		Feedback: Feedback{Message: reviewMessage, Issues: issues},
	}
}
