package entity

import "regexp"

// reTitleRun matches a run of two or more consecutive Title-Case words,
// the signal a lightweight statistical tagger uses in place of a full NER
// model (§4.4's "statistical NER" source).
var reTitleRun = regexp.MustCompile(`\b(?:[A-Z][a-z]+(?:\s+|$)){2,5}`)

// reAcronym matches a 2-6 letter all-caps acronym, a common ORG signal.
var reAcronym = regexp.MustCompile(`\b[A-Z]{2,6}\b`)

var orgSuffixes = []string{"Inc", "Inc.", "Corp", "Corp.", "Ltd", "Ltd.", "LLC", "LLP", "PLC", "Group", "Holdings", "Bank"}

// extractStatistical finds capitalization-run candidates and classifies
// them into ORG, PERSON, or PRODUCT using simple surface heuristics: a
// trailing corporate suffix means ORG, an all-caps short token means ORG,
// a run limited to exactly two words defaults to PERSON, anything longer
// defaults to PRODUCT.
func extractStatistical(text string) []Candidate {
	var out []Candidate

	for _, loc := range reTitleRun.FindAllStringIndex(text, -1) {
		surface := trimSpaceBounds(text, loc[0], loc[1])
		if surface == "" {
			continue
		}
		out = append(out, Candidate{
			Surface:    surface,
			Normalized: normalize(surface),
			Type:       classifyCapitalizationRun(surface),
			Confidence: ConfidenceStatistical,
			Span:       [2]int{loc[0], loc[1]},
		})
	}

	for _, loc := range reAcronym.FindAllStringIndex(text, -1) {
		surface := text[loc[0]:loc[1]]
		if isKnownUnitAcronym(surface) {
			continue
		}
		out = append(out, Candidate{
			Surface:    surface,
			Normalized: normalize(surface),
			Type:       TypeOrg,
			Confidence: ConfidenceStatistical,
			Span:       [2]int{loc[0], loc[1]},
		})
	}

	return out
}

func classifyCapitalizationRun(surface string) string {
	words := splitWords(surface)
	for _, suf := range orgSuffixes {
		if len(words) > 0 && words[len(words)-1] == suf {
			return TypeOrg
		}
	}
	if len(words) == 2 {
		return TypePerson
	}
	return TypeProduct
}

func splitWords(s string) []string {
	var words []string
	start := -1
	for i, r := range s {
		if r == ' ' {
			if start >= 0 {
				words = append(words, s[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		words = append(words, s[start:])
	}
	return words
}

func trimSpaceBounds(text string, start, end int) string {
	for start < end && text[start] == ' ' {
		start++
	}
	for end > start && text[end-1] == ' ' {
		end--
	}
	return text[start:end]
}

var unitAcronyms = map[string]bool{
	"USD": true, "EUR": true, "GBP": true, "JPY": true, "CHF": true,
	"AUD": true, "CAD": true, "PSIG": true, "KPA": true, "MPA": true,
}

func isKnownUnitAcronym(s string) bool {
	return unitAcronyms[s]
}
