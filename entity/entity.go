// Package entity implements the entity extractor (C4): given a chunk's
// text, it emits deduplicated (surface, normalized, type, confidence,
// span) tuples from three fixed-confidence sources — a statistical
// tagger, a curated pattern library, and numeric extractors (§4.4).
package entity

import "strings"

// Candidate is one extracted entity mention before it is written to the
// graph store.
type Candidate struct {
	Surface    string
	Normalized string
	Type       string
	Confidence float64
	Span       [2]int // byte offsets into the source chunk text
}

// Source confidences, fixed by contract.
const (
	ConfidenceStatistical = 0.90
	ConfidenceCurated     = 0.85
	ConfidenceNumeric     = 0.95
)

// Entity types.
const (
	TypeProduct = "PRODUCT"
	TypeTerm    = "TERM"
	TypeAmount  = "AMOUNT"
	TypePercent = "PERCENT"
	TypeOrg     = "ORG"
	TypePerson  = "PERSON"
	TypeOther   = "OTHER"
)

// normalize casefolds, strips punctuation except '/' and '-', and collapses
// whitespace, per §4.4.
func normalize(surface string) string {
	lower := strings.ToLower(surface)
	var b strings.Builder
	lastWasSpace := false
	for _, r := range lower {
		switch {
		case r == '/' || r == '-':
			b.WriteRune(r)
			lastWasSpace = false
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			if !lastWasSpace && b.Len() > 0 {
				b.WriteRune(' ')
				lastWasSpace = true
			}
		case isWordRune(r):
			b.WriteRune(r)
			lastWasSpace = false
		default:
			// drop all other punctuation
		}
	}
	return strings.TrimSpace(b.String())
}

func isWordRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r > 127
}
