package query

import "regexp"

// Class is a query's pattern classification (§4.8).
type Class string

const (
	ClassDefinition  Class = "definition"
	ClassRequirement Class = "requirement"
	ClassFee         Class = "fee"
	ClassProcess     Class = "process"
	ClassLimit       Class = "limit"
	ClassGeneral     Class = "general"
)

// classPattern pairs a class with the regex that detects it and the
// keyword pattern that promotes class-relevant tokens during extraction.
type classPattern struct {
	class       Class
	detect      *regexp.Regexp
	promoteKeep *regexp.Regexp
}

// classifiers are checked in order; the first match wins. Order encodes
// priority when a query could plausibly match more than one class (e.g.
// "what is the maximum fee" matches both definition and fee detectors —
// fee is listed first since the fee-specific noun is the more actionable
// classification for retrieval biasing).
var classifiers = []classPattern{
	{
		class:       ClassFee,
		detect:      regexp.MustCompile(`(?i)\b(fee|charge|cost|premium|price)\b`),
		promoteKeep: regexp.MustCompile(`(?i)\b(fee|charge|cost|premium)\b`),
	},
	{
		class:       ClassLimit,
		detect:      regexp.MustCompile(`(?i)\b(limit|maximum|minimum|cap|threshold|ceiling)\b`),
		promoteKeep: regexp.MustCompile(`(?i)\b(limit|maximum|minimum|cap|threshold)\b`),
	},
	{
		class:       ClassRequirement,
		detect:      regexp.MustCompile(`(?i)\b(must|shall|required|requirement|mandatory|obligated)\b`),
		promoteKeep: regexp.MustCompile(`(?i)\b(must|shall|required|requirement|mandatory)\b`),
	},
	{
		class:       ClassProcess,
		detect:      regexp.MustCompile(`(?i)\b(how (do|does|can|to)|process|procedure|steps)\b`),
		promoteKeep: regexp.MustCompile(`(?i)\b(process|procedure|steps?)\b`),
	},
	{
		class:       ClassDefinition,
		detect:      regexp.MustCompile(`(?i)\b(what is|define|definition of|meaning of)\b`),
		promoteKeep: regexp.MustCompile(`(?i)\b(definition|meaning)\b`),
	},
}

// classify assigns a deterministic pattern class to a query. A query
// matching no pattern is ClassGeneral.
func classify(q string) (Class, *classPattern) {
	for i, c := range classifiers {
		if c.detect.MatchString(q) {
			return c.class, &classifiers[i]
		}
	}
	return ClassGeneral, nil
}
