package grader

import (
	"fmt"
	"strings"
)

// Tier is a rubric band.
type Tier uint8

// Tiers, lowest first.
const (
	TierGarbage Tier = iota
	TierWrongIntent
	TierInterpretable
	TierHighSimilarity
	TierExactMatch
)

// Tier thresholds on the similarity ratio. Both are strict lower bounds.
const (
	highSimilarityThreshold = 0.85
	interpretableThreshold  = 0.3
)

var tierNames = map[Tier]string{
	TierGarbage:        "garbage",
	TierWrongIntent:    "wrong_intent",
	TierInterpretable:  "interpretable",
	TierHighSimilarity: "high_similarity",
	TierExactMatch:     "exact_match",
}

func (t Tier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Tier(%d)", uint8(t))
}

// MarshalText encodes the tier as its name.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes a tier name.
func (t *Tier) UnmarshalText(b []byte) error {
	for tier, name := range tierNames {
		if name == string(b) {
			*t = tier
			return nil
		}
	}
	return fmt.Errorf("unknown tier %q", string(b))
}

// ClassifyParsed picks the tier of a submission that parsed but is not an
// exact match.
func ClassifyParsed(ratio float64) Tier {
	switch {
	case ratio > highSimilarityThreshold:
		return TierHighSimilarity
	case ratio > interpretableThreshold:
		return TierInterpretable
	default:
		return TierWrongIntent
	}
}

// ClassifyUnparsed picks the tier of a submission that failed to parse, from
// its heuristic quality.
func ClassifyUnparsed(quality float64) Tier {
	switch {
	case quality > highSimilarityThreshold:
		return TierHighSimilarity
	case quality > interpretableThreshold:
		return TierInterpretable
	default:
		return TierGarbage
	}
}

// Score applies the tier formula. Scores grow in whole buckets of lines and
// are not clamped from above.
func Score(tier Tier, lineCount int) float64 {
	if lineCount < 1 {
		lineCount = 1
	}
	switch tier {
	case TierExactMatch:
		return MaxScore
	case TierHighSimilarity:
		return float64(4 * (lineCount / 8))
	case TierInterpretable:
		return float64(1 * (lineCount / 7))
	case TierGarbage:
		return float64(-1 * (lineCount / 7))
	default:
		return 0
	}
}

// LineCount counts non-blank lines of the stripped source, at least one.
func LineCount(src string) int {
	count := 0
	for _, line := range strings.Split(strings.TrimSpace(src), "\n") {
		if strings.TrimSpace(line) != "" {
			count++
		}
	}
	return max(count, 1)
}
