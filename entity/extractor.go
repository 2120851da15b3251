package entity

// Extractor runs all three entity sources over a chunk's text and
// deduplicates the result.
type Extractor struct{}

// New returns an Extractor. It holds no state: all sources are pure
// functions of the input text.
func New() *Extractor {
	return &Extractor{}
}

// Extract returns the deduplicated candidate set for a single chunk's
// text. Within a chunk, candidates that collapse to the same
// (normalized, type) after alias canonicalization are merged into one,
// keeping the highest confidence together with that candidate's surface
// and span (§4.4).
func (e *Extractor) Extract(text string) []Candidate {
	var all []Candidate
	all = append(all, extractStatistical(text)...)
	all = append(all, extractCurated(text)...)
	all = append(all, extractNumeric(text)...)

	for i := range all {
		all[i].Normalized = canonicalize(all[i].Normalized)
	}

	type key struct {
		normalized string
		typ        string
	}
	best := make(map[key]int) // key -> index into deduped
	var deduped []Candidate

	for _, c := range all {
		if c.Normalized == "" {
			continue
		}
		k := key{normalized: c.Normalized, typ: c.Type}
		if idx, ok := best[k]; ok {
			if c.Confidence > deduped[idx].Confidence {
				deduped[idx].Confidence = c.Confidence
				deduped[idx].Surface = c.Surface
				deduped[idx].Span = c.Span
			}
			continue
		}
		best[k] = len(deduped)
		deduped = append(deduped, c)
	}

	return deduped
}
