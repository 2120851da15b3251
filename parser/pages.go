package parser

import (
	"sort"
	"strings"
)

// groupSectionText concatenates each page's sections (heading then content,
// in order) into a single block of text per page number.
func groupSectionText(sections []Section) map[int]*strings.Builder {
	byPage := make(map[int]*strings.Builder)
	for _, s := range sections {
		num := s.PageNumber
		if num <= 0 {
			num = 1
		}
		b, ok := byPage[num]
		if !ok {
			b = &strings.Builder{}
			byPage[num] = b
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		if s.Heading != "" {
			b.WriteString(s.Heading)
			b.WriteString("\n")
		}
		b.WriteString(s.Content)
	}
	return byPage
}

// sectionsToPages folds a parser's section tree into the ordered,
// 1-indexed, contiguous pages the chunker consumes (§4.1). Formats without
// native pagination (DOCX) put every section on page 1; formats with a
// natural page-like unit (PPTX slides, XLSX sheets) carry it in
// Section.PageNumber and are grouped by it, then renumbered sequentially so
// a document with text on slides 1 and 3 still reports pages 1-2, not a gap
// at 2.
func sectionsToPages(sections []Section) []Page {
	if len(sections) == 0 {
		return nil
	}

	byPage := groupSectionText(sections)

	nums := make([]int, 0, len(byPage))
	for n := range byPage {
		nums = append(nums, n)
	}
	sort.Ints(nums)

	pages := make([]Page, len(nums))
	for i, n := range nums {
		pages[i] = Page{PageNum: i + 1, Text: byPage[n].String()}
	}
	return pages
}

// overlaySectionText replaces each page's text with its corrected section
// text (post heading-deduplication) wherever sections map to that page
// number, leaving pages with no sections — blank or unreadable originals —
// untouched. This is how fixRunningHeaders' corrected headings reach the
// chunker instead of being computed and discarded: pageNums here are real
// PDF page numbers, so the existing contiguous Page slate is preserved
// rather than rebuilt (unlike sectionsToPages, which renumbers).
func overlaySectionText(pages []Page, sections []Section) []Page {
	byPage := groupSectionText(sections)
	for i := range pages {
		if b, ok := byPage[pages[i].PageNum]; ok {
			pages[i].Text = b.String()
		}
	}
	return pages
}
