package query

import (
	"strings"
	"unicode/utf8"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Scorer rates how well candidate matches term, in [0, 1]
type Scorer interface {
	Score(term, candidate string) float64
}

// ScorerFunc adapts a function to Scorer
type ScorerFunc func(term, candidate string) float64

func (f ScorerFunc) Score(term, candidate string) float64 {
	return f(term, candidate)
}

// LevenshteinScorer scores by normalised edit distance, ignoring case
type LevenshteinScorer struct{}

func (LevenshteinScorer) Score(term, candidate string) float64 {
	term = strings.ToLower(term)
	candidate = strings.ToLower(candidate)
	if term == candidate {
		return 1
	}

	longest := max(utf8.RuneCountInString(term), utf8.RuneCountInString(candidate))
	if longest == 0 {
		return 1
	}

	dist := fuzzy.LevenshteinDistance(term, candidate)
	return 1 - float64(dist)/float64(longest)
}

// toPercent converts a [0, 1] score to the stored integer form
func toPercent(score float64) int {
	pct := int(score*100 + 1e-9)
	return min(max(pct, 0), 100)
}
