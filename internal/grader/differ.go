package grader

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/codegrade/internal/syntax"
)

// Diff reports the constructs the submission lacks compared to the
// reference. Kind deficits come first, in order of first appearance in the
// reference, each located at the first reference occurrence the submission
// has not matched. Coarse named-entity issues follow, sorted by key.
func Diff(ref *syntax.Tree, refFeatures, subFeatures FeatureMultiset, index LocationIndex) []Issue {
	var issues []Issue

	for _, k := range kindOrder(ref) {
		want, have := refFeatures.Kind(k), subFeatures.Kind(k)
		if want <= have {
			continue
		}
		msg := fmt.Sprintf("Missing %d %s node(s)", want-have, k)
		if span, ok := index.At(k, have); ok {
			issues = append(issues, located(span, msg))
		} else {
			issues = append(issues, unlocated(msg))
		}
	}

	return append(issues, namedIssues(refFeatures, subFeatures)...)
}

// kindOrder lists the distinct kinds of tree in pre-order of first appearance.
func kindOrder(tree *syntax.Tree) []syntax.Kind {
	var order []syntax.Kind
	seen := make(map[syntax.Kind]bool)
	tree.Walk(func(n *syntax.Node) bool {
		if !seen[n.Kind] {
			seen[n.Kind] = true
			order = append(order, n.Kind)
		}
		return true
	})
	return order
}

func namedIssues(ref, sub FeatureMultiset) []Issue {
	keys := make([]string, 0, len(ref))
	for k := range ref {
		if strings.Contains(k, ":") {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var issues []Issue
	if hasImports(ref) && !hasImports(sub) {
		issues = append(issues, unlocated("Missing required imports"))
	}
	for _, k := range keys {
		if sub[k] > 0 {
			continue
		}
		switch {
		case strings.HasPrefix(k, keyFunction):
			issues = append(issues, unlocated(
				fmt.Sprintf("Missing function definition '%s'", strings.TrimPrefix(k, keyFunction))))
		case strings.HasPrefix(k, keyClass):
			issues = append(issues, unlocated(
				fmt.Sprintf("Missing class definition '%s'", strings.TrimPrefix(k, keyClass))))
		}
	}
	return issues
}

func hasImports(f FeatureMultiset) bool {
	for k, n := range f {
		if n > 0 && (strings.HasPrefix(k, keyImport) || strings.HasPrefix(k, keyImportFrom)) {
			return true
		}
	}
	return false
}
