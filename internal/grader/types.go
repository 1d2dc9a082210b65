// Package grader compares a submitted program with a reference solution and
// scores it on a five-tier rubric.
package grader

import (
	"errors"
	"fmt"

	"github.com/kailas-cloud/codegrade/internal/domain"
	"github.com/kailas-cloud/codegrade/internal/syntax"
)

// MaxScore is awarded for an exact structural match.
const MaxScore = 27.0

const (
	perfectMessage  = "Perfect match!"
	reviewMessage   = "Review your code structure."
	fallbackMessage = "Structure differs from expected solution"

	syntaxErrorPrefix = "Syntax error: "
)

// Issue is one piece of feedback. Column fields are nil when the issue
// cannot be localized.
type Issue struct {
	Line      int    `json:"line_number"`
	Column    *int   `json:"column"`
	EndLine   *int   `json:"end_line_number"`
	EndColumn *int   `json:"end_column"`
	Message   string `json:"message"`
}

// Feedback is the human-facing part of a result.
type Feedback struct {
	Message string  `json:"message"`
	Issues  []Issue `json:"issues"`
}

// ScoreResult is the outcome of one comparison. Parsed is false when the
// submission did not parse and was graded by the heuristic estimator.
type ScoreResult struct {
	ExactMatch bool     `json:"exact_match"`
	Parsed     bool     `json:"parsed"`
	Score      float64  `json:"score"`
	Tier       Tier     `json:"tier"`
	Feedback   Feedback `json:"feedback"`
}

// SyntaxError returns the issue locating the submission's syntax error. On
// the unparsed path it is the only issue carrying a column.
func (r ScoreResult) SyntaxError() (Issue, bool) {
	if r.Parsed {
		return Issue{}, false
	}
	for _, is := range r.Feedback.Issues {
		if is.Column != nil {
			return is, true
		}
	}
	return Issue{}, false
}

// unlocated builds an issue pinned to line 1 with no columns.
func unlocated(msg string) Issue {
	return Issue{Line: 1, Message: msg}
}

// located builds an issue covering span.
func located(span syntax.Span, msg string) Issue {
	col, endLine, endCol := span.StartColumn, span.EndLine, span.EndColumn
	return Issue{
		Line:      span.StartLine,
		Column:    &col,
		EndLine:   &endLine,
		EndColumn: &endCol,
		Message:   msg,
	}
}

// ReferenceParseError reports a reference solution that does not parse.
// There is nothing to grade against, so it is fatal.
type ReferenceParseError struct {
	Err *syntax.ParseError
}

func (e *ReferenceParseError) Error() string {
	return fmt.Sprintf("reference: syntax error on line %d, col %d: %s",
		e.Err.Line, e.Err.Column, e.Err.Message)
}

func (e *ReferenceParseError) Unwrap() []error {
	return []error{domain.ErrReferenceParse, e.Err}
}

// InternalError reports an unexpected failure while scoring valid trees.
type InternalError struct {
	Cause any
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal scoring error: %v", e.Cause)
}

func (e *InternalError) Unwrap() error {
	return domain.ErrInternalScoring
}

// AsReferenceParseError extracts the reference parse location from err.
func AsReferenceParseError(err error) (*syntax.ParseError, bool) {
	var rpe *ReferenceParseError
	if errors.As(err, &rpe) {
		return rpe.Err, true
	}
	return nil, false
}
