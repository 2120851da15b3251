package entity

import "regexp"

var (
	reCurrencyAmount = regexp.MustCompile(
		`(?i)(?:[$€£¥]\s?\d[\d,]*(?:\.\d+)?(?:\s?(?:million|billion|thousand|mm|bn|k))?|\b\d[\d,]*(?:\.\d+)?\s?(?:USD|EUR|GBP|JPY|CHF|AUD|CAD)\b)`,
	)
	rePercent = regexp.MustCompile(`\b\d+(?:\.\d+)?\s?(?:%|(?:percent|bps|basis points)\b)`)
)

// extractNumeric finds currency amounts and percentages, the two types
// the numeric extractor owns at confidence 0.95 (§4.4).
func extractNumeric(text string) []Candidate {
	var out []Candidate
	for _, loc := range reCurrencyAmount.FindAllStringIndex(text, -1) {
		surface := text[loc[0]:loc[1]]
		out = append(out, Candidate{
			Surface:    surface,
			Normalized: normalize(surface),
			Type:       TypeAmount,
			Confidence: ConfidenceNumeric,
			Span:       [2]int{loc[0], loc[1]},
		})
	}
	for _, loc := range rePercent.FindAllStringIndex(text, -1) {
		surface := text[loc[0]:loc[1]]
		out = append(out, Candidate{
			Surface:    surface,
			Normalized: normalize(surface),
			Type:       TypePercent,
			Confidence: ConfidenceNumeric,
			Span:       [2]int{loc[0], loc[1]},
		})
	}
	return out
}
