package chunker

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/crimson-sun/splinter/internal/model"
)

func excerptOf(lines ...string) model.FailureExcerpt {
	e := model.FailureExcerpt{ID: "run-1-0", RunID: "run-1"}
	for i, text := range lines {
		e.Lines = append(e.Lines, model.LogLine{Number: i + 1, Text: text, Category: model.Context})
	}
	return e
}

func TestSplitShortExcerptSingleChunk(t *testing.T) {
	c := New(DefaultConfig())
	e := excerptOf("one", "two", "three")

	chunks := c.Split(e)
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks", len(chunks))
	}
	if chunks[0].Text != "one\ntwo\nthree" {
		t.Errorf("text = %q", chunks[0].Text)
	}
	if chunks[0].ID != "run-1-0-c0" || chunks[0].Seq != 0 {
		t.Errorf("id = %q seq = %d", chunks[0].ID, chunks[0].Seq)
	}
}

func TestSplitEmptyExcerpt(t *testing.T) {
	c := New(DefaultConfig())
	if got := c.Split(model.FailureExcerpt{ID: "x"}); got != nil {
		t.Fatalf("empty excerpt produced %d chunks", len(got))
	}
}

func TestSplitRespectsMaxChars(t *testing.T) {
	c := New(Config{MaxChars: 100, Overlap: 20})
	var lines []string
	for i := range 40 {
		lines = append(lines, fmt.Sprintf("log line number %d with some padding", i))
	}
	chunks := c.Split(excerptOf(lines...))

	if len(chunks) < 2 {
		t.Fatalf("got %d chunks, want several", len(chunks))
	}
	for _, ch := range chunks {
		if len(ch.Text) > 100 {
			t.Errorf("chunk %s has %d chars", ch.ID, len(ch.Text))
		}
		if ch.Tokens <= 0 {
			t.Errorf("chunk %s has no token estimate", ch.ID)
		}
	}
}

func TestSplitConsecutiveChunksOverlap(t *testing.T) {
	c := New(Config{MaxChars: 100, Overlap: 30})
	var lines []string
	for i := range 40 {
		lines = append(lines, fmt.Sprintf("line %d padding padding", i))
	}
	chunks := c.Split(excerptOf(lines...))
	if len(chunks) < 2 {
		t.Fatalf("got %d chunks", len(chunks))
	}

	// each chunk starts with the last Overlap characters of its predecessor
	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1].Text
		tail := prev
		if len(tail) > 30 {
			tail = tail[len(tail)-30:]
		}
		if !strings.HasPrefix(chunks[i].Text, tail) {
			t.Errorf("chunk %d does not start with predecessor tail %q", i, tail)
		}
	}
}

func TestSplitDeterministic(t *testing.T) {
	c := New(Config{MaxChars: 80, Overlap: 10})
	var lines []string
	for i := range 30 {
		lines = append(lines, fmt.Sprintf("deterministic line %d", i))
	}
	e := excerptOf(lines...)

	first := c.Split(e)
	for range 3 {
		again := c.Split(e)
		if len(again) != len(first) {
			t.Fatal("chunk count varies between runs")
		}
		for i := range first {
			if again[i].Text != first[i].Text || again[i].ID != first[i].ID {
				t.Fatal("chunking not deterministic")
			}
		}
	}
}

func TestSplitCoversWholeText(t *testing.T) {
	c := New(Config{MaxChars: 60, Overlap: 10})
	var lines []string
	for i := range 20 {
		lines = append(lines, fmt.Sprintf("coverage line %d", i))
	}
	e := excerptOf(lines...)
	text := e.Text()

	chunks := c.Split(e)
	var rebuilt strings.Builder
	for _, ch := range chunks {
		rebuilt.WriteString(ch.Text)
	}
	// with overlap every source line must appear somewhere
	for _, line := range lines {
		if !strings.Contains(rebuilt.String(), line) {
			t.Errorf("line %q lost in chunking", line)
		}
	}
	if !strings.HasPrefix(text, chunks[0].Text) {
		t.Error("first chunk is not the text head")
	}
}

func TestSplitKeepsRunesIntact(t *testing.T) {
	c := New(Config{MaxChars: 10, Overlap: 3})
	// one long line of multibyte runes, so no newline break is available
	e := excerptOf(strings.Repeat("fehlgeschlagen für prüfung ", 5))

	chunks := c.Split(e)
	if len(chunks) < 2 {
		t.Fatalf("got %d chunks", len(chunks))
	}
	for _, ch := range chunks {
		if !utf8.ValidString(ch.Text) {
			t.Errorf("chunk %s splits a rune: %q", ch.ID, ch.Text)
		}
	}
}

func TestEstimateTokens(t *testing.T) {
	if got := EstimateTokens(""); got != 0 {
		t.Errorf("empty = %d", got)
	}
	if got := EstimateTokens("one two three"); got != 4 {
		t.Errorf("three words = %d, want 4", got)
	}
}
