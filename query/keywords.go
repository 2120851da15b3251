package query

import (
	"strings"
)

var punctReplacer = strings.NewReplacer(
	"\"", "", "*", "", "(", "", ")", "",
	"+", "", "^", "", ":", "",
	"?", "", "[", "", "]", "", "{", "",
	"}", "", "!", "", ".", "", ",", "",
	";", "",
)

// isNumeric reports whether w is entirely digits (with optional
// decimal point), kept verbatim regardless of stopword status (§4.8:
// "keep numbers verbatim").
func isNumeric(w string) bool {
	if w == "" {
		return false
	}
	seenDigit := false
	for _, r := range w {
		switch {
		case r >= '0' && r <= '9':
			seenDigit = true
		case r == '.' || r == ',':
		default:
			return false
		}
	}
	return seenDigit
}

// extractKeywords tokenizes a query, lowercases, strips punctuation, drops
// generic and banking-generic stopwords (the latter only when standalone,
// not as the second word of a two-word phrase), keeps numbers verbatim,
// and guarantees any class-promoted keyword survives even if it would
// otherwise have been filtered.
func extractKeywords(q string, pattern *classPattern) []string {
	cleaned := punctReplacer.Replace(q)
	words := strings.Fields(cleaned)

	var kept []string
	seen := make(map[string]bool)
	add := func(w string) {
		if w == "" || seen[w] {
			return
		}
		seen[w] = true
		kept = append(kept, w)
	}

	for i, raw := range words {
		w := strings.ToLower(strings.Trim(raw, "-"))
		if w == "" {
			continue
		}
		if isNumeric(w) {
			add(w)
			continue
		}
		if isGenericStopword(w) {
			continue
		}
		if isBankingGenericStopword(w) {
			precededByNoun := i > 0 && !breaksNounPhrase(strings.ToLower(words[i-1]))
			if !precededByNoun {
				continue
			}
		}
		add(w)
	}

	if pattern != nil {
		for _, m := range pattern.promoteKeep.FindAllString(strings.ToLower(q), -1) {
			add(strings.ToLower(m))
		}
	}

	return kept
}
