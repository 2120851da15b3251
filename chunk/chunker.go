// Package chunk implements the chunker (C2): it turns a parsed document's
// ordered pages into a finite, ordered sequence of store.Chunk candidates
// with overlap and per-chunk metadata (§4.2).
package chunk

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/brunobiangulo/graphrag/parser"
	"github.com/brunobiangulo/graphrag/store"
)

// Config controls the chunking window.
type Config struct {
	Target    int // target window size in tokens (T)
	Overlap   int // back-overlap between consecutive windows (O)
	MaxTokens int // hard maximum a single chunk may grow to
	// BoundaryLookback is how many trailing tokens are checked for
	// sentence-terminal punctuation before extending a window (K).
	BoundaryLookback int
}

// DefaultConfig returns the §4.2 parameters: T=512, O=128, hard max 1024,
// K=30.
func DefaultConfig() Config {
	return Config{Target: 512, Overlap: 128, MaxTokens: 1024, BoundaryLookback: 30}
}

// Chunker converts parsed pages into store-ready chunk candidates.
type Chunker struct {
	cfg Config
}

// New returns a Chunker with the given configuration. Zero fields fall back
// to DefaultConfig.
func New(cfg Config) *Chunker {
	d := DefaultConfig()
	if cfg.Target == 0 {
		cfg.Target = d.Target
	}
	if cfg.Overlap == 0 {
		cfg.Overlap = d.Overlap
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = d.MaxTokens
	}
	if cfg.BoundaryLookback == 0 {
		cfg.BoundaryLookback = d.BoundaryLookback
	}
	return &Chunker{cfg: cfg}
}

// Chunk walks every page's text and returns the ordered chunk sequence.
// ChunkIndex is assigned sequentially across the whole document and PageNum
// is taken from the page; NextChunkID, DocumentID, and ID are left for the
// store layer to fill in on insert.
func (c *Chunker) Chunk(pages []parser.Page) ([]*store.Chunk, error) {
	var out []*store.Chunk
	idx := 0
	for _, pg := range pages {
		if strings.TrimSpace(pg.Text) == "" {
			continue
		}
		pieces, err := c.chunkPage(pg.Text)
		if err != nil {
			return nil, fmt.Errorf("chunk: page %d: %w", pg.PageNum, err)
		}
		for _, p := range pieces {
			out = append(out, &store.Chunk{
				ChunkIndex:      idx,
				PageNum:         pg.PageNum,
				Text:            p.text,
				ChunkType:       classify(p.text, p.isTable),
				HasDefinitions:  hasDefinitions(p.text),
				HasExamples:     hasExamples(p.text),
				SemanticDensity: semanticDensity(p.text),
				ContentHash:     contentHash(p.text),
			})
			idx++
		}
	}
	return out, nil
}

type piece struct {
	text    string
	isTable bool
}

// chunkPage splits one page's raw text into table blocks (preserved whole)
// and prose segments (windowed with overlap).
func (c *Chunker) chunkPage(text string) ([]piece, error) {
	lines := strings.Split(text, "\n")
	blocks := detectTableBlocks(lines)

	var pieces []piece
	cursor := 0
	for _, b := range blocks {
		if b.Start > cursor {
			proseLines := lines[cursor:b.Start]
			if err := c.appendProse(&pieces, strings.Join(proseLines, "\n")); err != nil {
				return nil, err
			}
		}
		tableText := strings.TrimSpace(strings.Join(lines[b.Start:b.End], "\n"))
		if tableText != "" {
			pieces = append(pieces, piece{text: tableText, isTable: true})
		}
		cursor = b.End
	}
	if cursor < len(lines) {
		if err := c.appendProse(&pieces, strings.Join(lines[cursor:], "\n")); err != nil {
			return nil, err
		}
	}
	return pieces, nil
}

func (c *Chunker) appendProse(pieces *[]piece, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	windows, err := c.window(text)
	if err != nil {
		return err
	}
	for _, w := range windows {
		*pieces = append(*pieces, piece{text: w})
	}
	return nil
}

// window walks text's cl100k tokens and emits overlapping chunks per the
// target/overlap/hard-max/boundary rule.
func (c *Chunker) window(text string) ([]string, error) {
	ids, err := Encode(text)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	var out []string
	i := 0
	for i < len(ids) {
		end := i + c.cfg.Target
		if end >= len(ids) {
			end = len(ids)
		} else {
			end, err = c.extendToBoundary(ids, i, end)
			if err != nil {
				return nil, err
			}
		}

		chunkText, err := Decode(ids[i:end])
		if err != nil {
			return nil, err
		}
		out = append(out, strings.TrimSpace(chunkText))

		if end >= len(ids) {
			break
		}
		next := end - c.cfg.Overlap
		if next <= i {
			next = end
		}
		i = next
	}
	return out, nil
}

// extendToBoundary implements the boundary rule: if the proposed split at
// `end` falls inside a sentence, extend forward up to the hard max until a
// sentence terminator is found in the trailing K tokens.
func (c *Chunker) extendToBoundary(ids []uint, start, end int) (int, error) {
	ok, err := c.endsAtSentenceBoundary(ids, start, end)
	if err != nil {
		return 0, err
	}
	if ok {
		return end, nil
	}

	hardEnd := start + c.cfg.MaxTokens
	if hardEnd > len(ids) {
		hardEnd = len(ids)
	}
	for e := end + 1; e <= hardEnd; e++ {
		ok, err := c.endsAtSentenceBoundary(ids, start, e)
		if err != nil {
			return 0, err
		}
		if ok {
			return e, nil
		}
	}
	return hardEnd, nil
}

func (c *Chunker) endsAtSentenceBoundary(ids []uint, start, end int) (bool, error) {
	lookback := start
	if end-c.cfg.BoundaryLookback > start {
		lookback = end - c.cfg.BoundaryLookback
	}
	tail, err := Decode(ids[lookback:end])
	if err != nil {
		return false, err
	}
	return endsWithTerminal(tail), nil
}

func endsWithTerminal(s string) bool {
	s = strings.TrimRight(s, " \t\n\r\"')]}")
	if s == "" {
		return false
	}
	last := s[len(s)-1]
	return last == '.' || last == '?' || last == '!'
}

func contentHash(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}
