package classifier

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/crimson-sun/splinter/internal/model"
)

// Config controls the classification window around error-signal lines.
type Config struct {
	ContextBefore int // lines before an error signal marked as context (default 5)
	ContextAfter  int // lines after an error signal marked as context (default 20)
}

// DefaultConfig returns the window sizes tuned on CI log corpora.
func DefaultConfig() Config {
	return Config{ContextBefore: 5, ContextAfter: 20}
}

// errorMarkers match high-signal failure lines across the stack-trace
// conventions we support. Pattern-based, not exhaustive: unknown formats
// degrade to the generic CI markers at the end of the list.
var errorMarkers = []*regexp.Regexp{
	// Python
	regexp.MustCompile(`Traceback \(most recent call last\):`),
	regexp.MustCompile(`\b[A-Za-z][A-Za-z0-9]*Error:`),
	regexp.MustCompile(`\bException\b`),
	regexp.MustCompile(`\bAssertionError\b`),
	// JVM
	regexp.MustCompile(`Exception in thread`),
	regexp.MustCompile(`Caused by:`),
	regexp.MustCompile(`^\s+at [\w.$<>]+\(.*\)`),
	// Node.js
	regexp.MustCompile(`UnhandledPromiseRejection`),
	regexp.MustCompile(`^\s+at .+\.[cm]?js:?\d*`),
	// Go
	regexp.MustCompile(`^panic:`),
	regexp.MustCompile(`^goroutine \d+ \[`),
	regexp.MustCompile(`^--- FAIL`),
	// C / C++
	regexp.MustCompile(`Segmentation fault`),
	regexp.MustCompile(`core dumped`),
	// CI / shell
	regexp.MustCompile(`exit code [1-9]\d*`),
	regexp.MustCompile(`returned non-zero`),
	regexp.MustCompile(`command failed`),
	regexp.MustCompile(`assertion failed`),
	regexp.MustCompile(`\bFAILED\b`),
	regexp.MustCompile(`\bFATAL\b`),
	regexp.MustCompile(`\bERROR\b`),
}

// Classifier labels log lines as noise, context, or error-signal.
type Classifier struct {
	cfg Config
}

// New creates a Classifier with the given window config. Zero or negative
// window values fall back to the defaults.
func New(cfg Config) *Classifier {
	def := DefaultConfig()
	if cfg.ContextBefore <= 0 {
		cfg.ContextBefore = def.ContextBefore
	}
	if cfg.ContextAfter <= 0 {
		cfg.ContextAfter = def.ContextAfter
	}
	return &Classifier{cfg: cfg}
}

// Classify labels every line of a raw log. Two passes: first mark
// error-signal lines, then promote lines inside the context window around
// each signal from noise to context. Malformed or binary lines are always
// noise; classification never fails.
func (c *Classifier) Classify(raw string) []model.LogLine {
	split := strings.Split(raw, "\n")
	lines := make([]model.LogLine, len(split))

	for i, text := range split {
		cat := model.Noise
		if isSignal(text) {
			cat = model.ErrorSignal
		}
		lines[i] = model.LogLine{Number: i + 1, Text: text, Category: cat}
	}

	for i := range lines {
		if lines[i].Category != model.ErrorSignal {
			continue
		}
		lo := max(0, i-c.cfg.ContextBefore)
		hi := min(len(lines), i+c.cfg.ContextAfter+1)
		for j := lo; j < hi; j++ {
			if lines[j].Category == model.Noise {
				lines[j].Category = model.Context
			}
		}
	}

	return lines
}

// isSignal reports whether a line matches a known error marker.
// Non-UTF-8 or control-character-heavy lines never match.
func isSignal(text string) bool {
	if text == "" || !utf8.ValidString(text) || binaryish(text) {
		return false
	}
	for _, re := range errorMarkers {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// binaryish reports whether more than a quarter of the line is
// non-printable, which marks accidental binary output.
func binaryish(text string) bool {
	if len(text) == 0 {
		return false
	}
	bad := 0
	for _, r := range text {
		if r < 0x20 && r != '\t' {
			bad++
		}
	}
	return bad*4 > len(text)
}
