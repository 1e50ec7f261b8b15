package extractor

import (
	"fmt"

	"github.com/crimson-sun/splinter/internal/model"
)

// Config controls excerpt assembly.
type Config struct {
	MaxLines int // maximum lines per excerpt; longer blocks keep head and tail (default 60)
}

// DefaultConfig returns the default excerpt bounds.
func DefaultConfig() Config {
	return Config{MaxLines: 60}
}

// Extractor assembles classified log lines into failure excerpts.
type Extractor struct {
	cfg Config
}

// New creates an Extractor. A non-positive MaxLines falls back to the default.
func New(cfg Config) *Extractor {
	if cfg.MaxLines <= 0 {
		cfg.MaxLines = DefaultConfig().MaxLines
	}
	return &Extractor{cfg: cfg}
}

// Extract groups contiguous non-noise lines into one excerpt per block and
// tags each with its detected language. A log with no error-signal lines
// yields nil, the clean-log outcome, not an error.
func (x *Extractor) Extract(runID string, lines []model.LogLine) []model.FailureExcerpt {
	var excerpts []model.FailureExcerpt
	var block []model.LogLine
	hasSignal := false

	flush := func() {
		if hasSignal && len(block) > 0 {
			excerpts = append(excerpts, x.build(runID, len(excerpts), block))
		}
		block = nil
		hasSignal = false
	}

	for _, l := range lines {
		if l.Category == model.Noise {
			flush()
			continue
		}
		if l.Category == model.ErrorSignal {
			hasSignal = true
		}
		block = append(block, l)
	}
	flush()

	return excerpts
}

// build creates one excerpt from a contiguous block, truncating to
// MaxLines by keeping the head and tail. Outermost stack frames carry the
// most localizing information, so both ends survive truncation.
func (x *Extractor) build(runID string, seq int, block []model.LogLine) model.FailureExcerpt {
	lines := block
	if len(lines) > x.cfg.MaxLines {
		head := x.cfg.MaxLines / 2
		tail := x.cfg.MaxLines - head
		kept := make([]model.LogLine, 0, x.cfg.MaxLines)
		kept = append(kept, lines[:head]...)
		kept = append(kept, lines[len(lines)-tail:]...)
		lines = kept
	}

	e := model.FailureExcerpt{
		ID:    fmt.Sprintf("%s-%d", runID, seq),
		RunID: runID,
		Lines: lines,
	}
	e.Language = DetectLanguage(e.Text())
	return e
}
