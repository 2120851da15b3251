// Package retrieval implements the C9 retrievers: keyword, vector, entity,
// community-aware two-phase, and hybrid. Every retriever returns
// seq<Candidate> normalized to store.RetrievalResult{chunk_id, score∈[0,1],
// source_tag} (§4.9).
package retrieval

import "strings"

func clip01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// phraseAdjacencyWindow bounds how many words apart two keywords may be
// and still count as adjacent for the keyword retriever's phrase bonus.
const phraseAdjacencyWindow = 5

// phraseAdjacent reports whether at least two distinct keywords occur
// within phraseAdjacencyWindow words of each other in text.
func phraseAdjacent(text string, keywords []string) bool {
	if len(keywords) < 2 {
		return false
	}
	words := strings.Fields(strings.ToLower(text))
	positions := make(map[string][]int)
	for i, w := range words {
		positions[w] = append(positions[w], i)
	}

	var allPositions, owner []int
	for ki, k := range keywords {
		for _, p := range positions[strings.ToLower(k)] {
			allPositions = append(allPositions, p)
			owner = append(owner, ki)
		}
	}
	if len(allPositions) < 2 {
		return false
	}
	for i := 0; i < len(allPositions); i++ {
		for j := i + 1; j < len(allPositions); j++ {
			if owner[i] == owner[j] {
				continue
			}
			d := allPositions[i] - allPositions[j]
			if d < 0 {
				d = -d
			}
			if d > 0 && d <= phraseAdjacencyWindow {
				return true
			}
		}
	}
	return false
}
