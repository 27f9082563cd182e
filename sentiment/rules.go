package sentiment

import (
	"slices"
	"strings"

	goahocorasick "github.com/anknown/ahocorasick"
)

// Rules is the deterministic keyword classifier. It is safe for concurrent use
// because nothing is mutated after construction.
type Rules struct {
	keywords KeywordSet
	positive *goahocorasick.Machine
	negative *goahocorasick.Machine
}

// NewRules builds one Aho-Corasick automaton per polarity from the canonical keyword sets.
func NewRules(keywords KeywordSet) (*Rules, error) {
	keywords = keywords.Canonical()

	positive, err := buildMachine(keywords.Positive)
	if err != nil {
		return nil, err
	}
	negative, err := buildMachine(keywords.Negative)
	if err != nil {
		return nil, err
	}

	return &Rules{keywords: keywords, positive: positive, negative: negative}, nil
}

func buildMachine(words []string) (*goahocorasick.Machine, error) {
	if len(words) == 0 {
		return nil, nil
	}

	patterns := make([][]rune, len(words))
	for i, w := range words {
		patterns[i] = []rune(w)
	}
	// The double-array trie is built from lexicographically ordered keys.
	slices.SortFunc(patterns, func(a, b []rune) int { return slices.Compare(a, b) })

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, err
	}
	return m, nil
}

// Classify labels text by comparing how many distinct positive and negative
// keywords occur in it as case-insensitive substrings.
func (r *Rules) Classify(text string) Label {
	p, n := r.Score(text)
	switch {
	case p > n:
		return Positive
	case n > p:
		return Negative
	default:
		return Neutral
	}
}

// Score returns the number of distinct positive and negative keywords found in text.
func (r *Rules) Score(text string) (positive, negative int) {
	normalized := []rune(strings.ToLower(text))
	return countDistinct(r.positive, normalized), countDistinct(r.negative, normalized)
}

// Keywords returns the canonical keyword sets in use.
func (r *Rules) Keywords() KeywordSet {
	return KeywordSet{
		Positive: slices.Clone(r.keywords.Positive),
		Negative: slices.Clone(r.keywords.Negative),
	}
}

func countDistinct(m *goahocorasick.Machine, text []rune) int {
	if m == nil || len(text) == 0 {
		return 0
	}
	seen := make(map[string]struct{})
	for _, term := range m.MultiPatternSearch(text, false) {
		seen[string(term.Word)] = struct{}{}
	}
	return len(seen)
}
