package sentiment

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/samber/lo"
)

//go:embed keywords.json
var defaultKeywords []byte

// KeywordSet holds the curated keyword lists for both polarities.
type KeywordSet struct {
	Positive []string `json:"positive"`
	Negative []string `json:"negative"`
}

// DefaultKeywords returns the built-in English and Turkish keyword sets.
func DefaultKeywords() KeywordSet {
	set, err := ParseKeywords(defaultKeywords)
	if err != nil {
		panic(fmt.Sprintf("sentiment: embedded keywords are invalid: %v", err))
	}
	return set
}

// LoadKeywords reads a keyword document from path. An empty path yields the defaults.
func LoadKeywords(path string) (KeywordSet, error) {
	if path == "" {
		return DefaultKeywords(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return KeywordSet{}, fmt.Errorf("failed to read keywords file: %w", err)
	}
	return ParseKeywords(data)
}

// ParseKeywords decodes a JSON keyword document and canonicalizes it.
func ParseKeywords(data []byte) (KeywordSet, error) {
	var set KeywordSet
	if err := json.Unmarshal(data, &set); err != nil {
		return KeywordSet{}, fmt.Errorf("failed to decode keywords: %w", err)
	}
	return set.Canonical(), nil
}

// Canonical returns a copy with every keyword trimmed and lower-cased,
// empty entries removed and duplicates collapsed.
func (k KeywordSet) Canonical() KeywordSet {
	return KeywordSet{
		Positive: canonicalize(k.Positive),
		Negative: canonicalize(k.Negative),
	}
}

func canonicalize(words []string) []string {
	normalized := lo.Map(words, func(w string, _ int) string {
		return strings.ToLower(strings.TrimSpace(w))
	})
	return lo.Uniq(lo.Compact(normalized))
}
