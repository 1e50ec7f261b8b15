package model

import "strings"

// Language is the detected source language of a failure excerpt.
type Language string

const (
	LangPython  Language = "python"
	LangNode    Language = "node"
	LangJVM     Language = "jvm"
	LangGo      Language = "go"
	LangDotnet  Language = "dotnet"
	LangUnknown Language = "unknown"
)

// FailureExcerpt is one contiguous block of error-signal lines plus their
// surrounding context, cut out of a raw log. Owned by a single pipeline
// invocation; the core never persists it.
type FailureExcerpt struct {
	ID       string  // stable within the invocation (incidentID-seq)
	RunID    string  // source CI run / incident identifier
	Language Language
	Lines    []LogLine
}

// Text joins the excerpt lines into a single block.
func (e FailureExcerpt) Text() string {
	parts := make([]string, len(e.Lines))
	for i, l := range e.Lines {
		parts[i] = l.Text
	}
	return strings.Join(parts, "\n")
}

// FirstSignal returns the first error-signal line, or the first line if
// none is marked (which only happens for truncated excerpts).
func (e FailureExcerpt) FirstSignal() LogLine {
	for _, l := range e.Lines {
		if l.Category == ErrorSignal {
			return l
		}
	}
	if len(e.Lines) > 0 {
		return e.Lines[0]
	}
	return LogLine{}
}
