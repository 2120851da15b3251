package chunk

import (
	"regexp"
	"strings"
)

// minTableLines is the shortest run of table-like lines the heuristic
// treats as a table block (§4.2 table preservation rule).
const minTableLines = 3

var alignedColumns = regexp.MustCompile(`\S+(?:\s{2,}\S+){2,}`)

// isTableLine reports whether a single line looks like a row of a table:
// at least two pipe characters, or at least three whitespace-aligned
// columns.
func isTableLine(line string) bool {
	if strings.Count(line, "|") >= 2 {
		return true
	}
	return alignedColumns.MatchString(line)
}

// lineRange is a half-open [Start,End) range of line indices.
type lineRange struct {
	Start, End int
}

// detectTableBlocks scans lines and returns contiguous runs of at least
// minTableLines table-like lines. Blocks never overlap and are returned in
// document order.
func detectTableBlocks(lines []string) []lineRange {
	var blocks []lineRange
	runStart := -1
	for i, line := range lines {
		if isTableLine(line) {
			if runStart < 0 {
				runStart = i
			}
			continue
		}
		if runStart >= 0 {
			if i-runStart >= minTableLines {
				blocks = append(blocks, lineRange{Start: runStart, End: i})
			}
			runStart = -1
		}
	}
	if runStart >= 0 && len(lines)-runStart >= minTableLines {
		blocks = append(blocks, lineRange{Start: runStart, End: len(lines)})
	}
	return blocks
}
