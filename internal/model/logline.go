package model

// LineCategory labels a single log line by its role in failure analysis.
type LineCategory int

const (
	// Noise is anything that carries no failure signal: progress bars,
	// timestamps-only lines, successful-step output.
	Noise LineCategory = iota
	// Context is a line adjacent to an error signal, kept for grounding.
	Context
	// ErrorSignal is a line matching a known error marker.
	ErrorSignal
)

// String returns the lowercase label used in logs and JSON.
func (c LineCategory) String() string {
	switch c {
	case Context:
		return "context"
	case ErrorSignal:
		return "error-signal"
	default:
		return "noise"
	}
}

// LogLine is a single raw log line with its classification.
// Immutable once classified.
type LogLine struct {
	Number   int    // 1-based line number in the source log
	Text     string // raw text, unmodified
	Category LineCategory
}
