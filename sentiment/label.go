// Package sentiment assigns one of three polarity labels to chat text.
//
// Rules classify locally from curated keyword sets; Pipeline prefers an
// optional remote classifier and falls back to the rules whenever the remote
// side has no answer.
package sentiment

import "strings"

// Label is the polarity assigned to a message.
type Label string

const (
	Positive Label = "positive"
	Negative Label = "negative"
	Neutral  Label = "neutral"
)

// Labels lists every valid label.
var Labels = []Label{Positive, Negative, Neutral}

// ParseLabel accepts a label name in any case with surrounding whitespace.
func ParseLabel(s string) (Label, bool) {
	l := Label(strings.ToLower(strings.TrimSpace(s)))
	if !l.Valid() {
		return "", false
	}
	return l, true
}

// Valid reports whether l is one of the three labels.
func (l Label) Valid() bool {
	switch l {
	case Positive, Negative, Neutral:
		return true
	}
	return false
}

func (l Label) String() string {
	return string(l)
}
