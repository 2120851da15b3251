package chunk

import (
	"strings"
	"testing"

	"github.com/brunobiangulo/graphrag/parser"
)

func TestChunkCoversAllPages(t *testing.T) {
	pages := []parser.Page{
		{PageNum: 1, Text: "The platform is defined as a system for managing risk. It tracks exposure across desks."},
		{PageNum: 2, Text: "For example, a trader may hedge a position using an FX forward contract."},
	}

	c := New(DefaultConfig())
	chunks, err := c.Chunk(pages)
	if err != nil {
		t.Fatalf("chunking: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected one chunk per short page, got %d", len(chunks))
	}
	if chunks[0].PageNum != 1 || chunks[1].PageNum != 2 {
		t.Fatalf("unexpected page assignment: %+v", chunks)
	}
	for i, ch := range chunks {
		if ch.ChunkIndex != i {
			t.Fatalf("expected sequential chunk_index, got %+v", ch)
		}
	}
}

func TestChunkSkipsBlankPages(t *testing.T) {
	pages := []parser.Page{
		{PageNum: 1, Text: "   \n\n  "},
		{PageNum: 2, Text: "Some real content appears here."},
	}
	c := New(DefaultConfig())
	chunks, err := c.Chunk(pages)
	if err != nil {
		t.Fatalf("chunking: %v", err)
	}
	if len(chunks) != 1 || chunks[0].PageNum != 2 {
		t.Fatalf("expected only page 2's content, got %+v", chunks)
	}
}

func TestTablePreservedAsSingleChunk(t *testing.T) {
	text := "Intro paragraph before the table.\n" +
		"Name | Rate | Term\n" +
		"Alpha | 2.5% | 30d\n" +
		"Beta | 3.1% | 60d\n" +
		"Gamma | 4.0% | 90d\n" +
		"Closing paragraph after the table."

	pages := []parser.Page{{PageNum: 1, Text: text}}
	c := New(DefaultConfig())
	chunks, err := c.Chunk(pages)
	if err != nil {
		t.Fatalf("chunking: %v", err)
	}

	var tableChunks int
	for _, ch := range chunks {
		if ch.ChunkType == "table" {
			tableChunks++
			if !strings.Contains(ch.Text, "Alpha") || !strings.Contains(ch.Text, "Gamma") {
				t.Fatalf("table chunk missing rows: %q", ch.Text)
			}
		}
	}
	if tableChunks != 1 {
		t.Fatalf("expected exactly one table chunk, got %d", tableChunks)
	}
}

func TestMetadataDefinitionAndExample(t *testing.T) {
	pages := []parser.Page{
		{PageNum: 1, Text: "An FX forward is defined as an agreement to exchange currency at a future date."},
		{PageNum: 2, Text: "For example, a corporate treasurer might lock in a rate six months ahead."},
	}
	c := New(DefaultConfig())
	chunks, err := c.Chunk(pages)
	if err != nil {
		t.Fatalf("chunking: %v", err)
	}
	if !chunks[0].HasDefinitions || chunks[0].ChunkType != "definition" {
		t.Fatalf("expected page 1 chunk classified as definition, got %+v", chunks[0])
	}
	if !chunks[1].HasExamples || chunks[1].ChunkType != "example" {
		t.Fatalf("expected page 2 chunk classified as example, got %+v", chunks[1])
	}
}

func TestWindowRespectsOverlapAndHardMax(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 900; i++ {
		b.WriteString("token ")
	}
	text := b.String()

	cfg := Config{Target: 50, Overlap: 10, MaxTokens: 80, BoundaryLookback: 5}
	c := New(cfg)
	windows, err := c.window(text)
	if err != nil {
		t.Fatalf("windowing: %v", err)
	}
	if len(windows) < 2 {
		t.Fatalf("expected long text to split into multiple windows, got %d", len(windows))
	}
	for _, w := range windows {
		n, err := CountTokens(w)
		if err != nil {
			t.Fatalf("counting tokens: %v", err)
		}
		if n > cfg.MaxTokens {
			t.Fatalf("window exceeds hard max: %d tokens", n)
		}
	}
}

func TestSemanticDensityBounds(t *testing.T) {
	d := semanticDensity("the the the the")
	if d <= 0 || d > 1 {
		t.Fatalf("expected density in (0,1], got %f", d)
	}
	if semanticDensity("") != 0 {
		t.Fatalf("expected zero density for empty text")
	}
}

func TestDetectTableBlocksRequiresMinimumRun(t *testing.T) {
	lines := []string{
		"a | b | c",
		"c | d | e",
		"just a sentence.",
	}
	if blocks := detectTableBlocks(lines); len(blocks) != 0 {
		t.Fatalf("expected no table block below the 3-line minimum, got %+v", blocks)
	}
}
