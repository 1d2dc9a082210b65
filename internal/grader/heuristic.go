package grader

import (
	"regexp"
	"strings"
)

// surfacePattern is one structural hint looked for in unparsable source.
type surfacePattern struct {
	name string
	re   *regexp.Regexp
}

var surfacePatterns = []surfacePattern{
	{"function", regexp.MustCompile(`def\s+\w+\s*\(`)},
	{"class", regexp.MustCompile(`class\s+\w+`)},
	{"import", regexp.MustCompile(`(import|from)\s+[\w.]+`)},
	{"loop", regexp.MustCompile(`(for|while)\s+.+:`)},
	{"condition", regexp.MustCompile(`if\s+.+:`)},
}

var structureKeywords = []string{"def", "return", "for", "if", "while", "class", "import", "with", "try"}

var bracketPairs = []struct {
	open, close string
	issue       string
}{
	{"(", ")", "Unbalanced parentheses"},
	{"{", "}", "Unbalanced braces"},
	{"[", "]", "Unbalanced brackets"},
}

var (
	assignmentRe      = regexp.MustCompile(`[^=!<>]=[^=]`)
	defaultArgumentRe = regexp.MustCompile(`def\s+\w+\s*\([^)]*=`)
)

const (
	noKeywordPenalty   = 0.5
	indentationPenalty = 0.8
	assignmentFloor    = 0.3
	anyIssuePenalty    = 0.8
)

const (
	noStructureIssue   = "No recognizable code structures found"
	missingIndentIssue = "Missing indentation after blocks"
)

// EstimateQuality guesses how close unparsable source is to real code. The
// quality is in [0,1]; issues explain the deductions.
func EstimateQuality(src string) (float64, []string) {
	var issues []string

	matched := 0
	for _, p := range surfacePatterns {
		if p.re.MatchString(src) {
			matched++
		}
	}
	score := float64(matched) / float64(len(surfacePatterns))

	if !containsAny(src, structureKeywords) {
		issues = append(issues, noStructureIssue)
		score *= noKeywordPenalty
	}

	for _, b := range bracketPairs {
		if strings.Count(src, b.open) != strings.Count(src, b.close) {
			issues = append(issues, b.issue)
		}
	}

	if lacksBlockIndentation(src) {
		issues = append(issues, missingIndentIssue)
		score *= indentationPenalty
	}

	if assignmentRe.MatchString(src) && !defaultArgumentRe.MatchString(src) {
		score = max(score, assignmentFloor)
	}

	if len(issues) > 0 {
		score *= anyIssuePenalty
	}
	return score, issues
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// lacksBlockIndentation reports a block opener with no indented line anywhere.
func lacksBlockIndentation(src string) bool {
	lines := strings.Split(src, "\n")
	opensBlock := false
	for _, line := range lines {
		if strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t") {
			return false
		}
		if strings.HasSuffix(strings.TrimRight(line, " \t\r\v\f"), ":") {
			opensBlock = true
		}
	}
	return opensBlock
}
