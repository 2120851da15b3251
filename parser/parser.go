package parser

import (
	"context"
	"errors"
)

// ErrEmptyDocument is returned when total extracted text (native plus OCR
// fallback) is below the minimum useful length (§4.1).
var ErrEmptyDocument = errors.New("parser: document produced no extractable text")

// minExtractedChars is the threshold below which the OCR fallback engages,
// and below which (after OCR) the document is rejected as empty.
const minExtractedChars = 100

// Page is a single page's page-structured raw text (§4.1 contract).
type Page struct {
	PageNum int
	Text    string
}

// ParseResult is what a parser produces from a document file. Pages and
// TotalPages are the only fields the ingestion pipeline (C2 onward)
// consumes; Section is an
// internal intermediate the format-specific parsers use to build Pages
// (see sectionsToPages).
type ParseResult struct {
	Pages      []Page // Ordered, 1-indexed, contiguous pages with raw text
	TotalPages int    // total page count, independent of how many yielded text
	Method     string // "native", "ocr", "llamaparse"
	Metadata   map[string]string
}

// Section represents a logical section of a parsed document.
type Section struct {
	Heading    string
	Content    string
	Level      int    // Heading level (1=top, 2=sub, etc.)
	PageNumber int
	Type       string // "section", "table", "definition", "requirement", "paragraph"
	Children   []Section
	Metadata   map[string]string
}

// Parser can parse a specific document format.
type Parser interface {
	Parse(ctx context.Context, path string) (*ParseResult, error)
	SupportedFormats() []string
}
