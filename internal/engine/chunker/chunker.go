package chunker

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/crimson-sun/splinter/internal/model"
)

// Config bounds chunk size and the overlap between consecutive chunks.
type Config struct {
	MaxChars int // maximum characters per chunk (default 1200)
	Overlap  int // characters shared between consecutive chunks (default 200)
}

// DefaultConfig returns chunk bounds sized for embedding-model context.
func DefaultConfig() Config {
	return Config{MaxChars: 1200, Overlap: 200}
}

// Chunker splits failure excerpts into retrieval-sized units.
type Chunker struct {
	cfg Config
}

// New creates a Chunker. Invalid bounds fall back to defaults; overlap is
// clamped below MaxChars so every step makes progress.
func New(cfg Config) *Chunker {
	def := DefaultConfig()
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = def.MaxChars
	}
	if cfg.Overlap < 0 {
		cfg.Overlap = def.Overlap
	}
	if cfg.Overlap >= cfg.MaxChars {
		cfg.Overlap = cfg.MaxChars / 4
	}
	return &Chunker{cfg: cfg}
}

// Split cuts an excerpt into chunks of at most MaxChars with a fixed
// overlap, breaking on line boundaries where possible so no error token is
// split without at least one chunk containing it whole. Deterministic: the
// same excerpt always yields the same sequence.
func (c *Chunker) Split(e model.FailureExcerpt) []model.Chunk {
	text := e.Text()
	if text == "" {
		return nil
	}

	var chunks []model.Chunk
	start := 0
	for start < len(text) {
		end := start + c.cfg.MaxChars
		if end >= len(text) {
			end = len(text)
		} else if nl := strings.LastIndexByte(text[start:end], '\n'); nl > 0 {
			// Prefer a line boundary inside the window.
			end = start + nl
		} else {
			// Never cut a multibyte rune at the window edge.
			for end > start+1 && !utf8.RuneStart(text[end]) {
				end--
			}
		}

		piece := text[start:end]
		chunks = append(chunks, model.Chunk{
			ID:        fmt.Sprintf("%s-c%d", e.ID, len(chunks)),
			ExcerptID: e.ID,
			RunID:     e.RunID,
			Seq:       len(chunks),
			Text:      piece,
			Tokens:    EstimateTokens(piece),
		})

		if end == len(text) {
			break
		}
		next := end - c.cfg.Overlap
		if next <= start {
			next = start + 1
		}
		for next < len(text) && !utf8.RuneStart(text[next]) {
			next++
		}
		start = next
	}
	return chunks
}

// EstimateTokens returns an approximate token count using a whitespace
// heuristic with a 1.3x subword expansion factor. Not a real tokenizer:
// accurate within ~20% of BPE counts, sufficient for sizing chunks.
func EstimateTokens(s string) int {
	if s == "" {
		return 0
	}
	words := len(strings.Fields(s))
	return int(math.Ceil(float64(words) * 1.3))
}
