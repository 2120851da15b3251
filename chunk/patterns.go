package chunk

import (
	"regexp"
	"strings"
)

var (
	reDefinition = regexp.MustCompile(`(?i)\bis (defined as|a|an)\b`)
	// reTermColon catches a "Term: definition" line: a short capitalized
	// lead-in followed by a colon and more text.
	reTermColon = regexp.MustCompile(`(?m)^[A-Z][A-Za-z0-9 /-]{1,40}:\s+\S`)
	reExample   = regexp.MustCompile(`(?i)\b(for example|e\.g\.|such as)\b`)
)

func hasDefinitions(text string) bool {
	return reDefinition.MatchString(text) || reTermColon.MatchString(text)
}

func hasExamples(text string) bool {
	return reExample.MatchString(text)
}

// classify assigns chunk_type by priority table > definition > example >
// content (§4.2). isTable is decided by the caller from the table-block
// detector, not re-derived here.
func classify(text string, isTable bool) string {
	switch {
	case isTable:
		return "table"
	case hasDefinitions(text):
		return "definition"
	case hasExamples(text):
		return "example"
	default:
		return "content"
	}
}

// semanticDensity is the ratio of distinct casefolded word tokens to total
// word tokens, in [0,1]. An empty chunk has density 0.
func semanticDensity(text string) float64 {
	words := strings.Fields(text)
	if len(words) == 0 {
		return 0
	}
	seen := make(map[string]struct{}, len(words))
	for _, w := range words {
		seen[strings.ToLower(strings.Trim(w, ".,;:!?()\"'"))] = struct{}{}
	}
	return float64(len(seen)) / float64(len(words))
}
