package fingerprint

import (
	"errors"
	"testing"

	"github.com/crimson-sun/splinter/internal/engine/classifier"
	"github.com/crimson-sun/splinter/internal/engine/extractor"
	"github.com/crimson-sun/splinter/internal/engine/testdata"
	"github.com/crimson-sun/splinter/internal/model"
)

func extract(t *testing.T, runID, raw string) model.FailureExcerpt {
	t.Helper()
	lines := classifier.New(classifier.DefaultConfig()).Classify(raw)
	excerpts := extractor.New(extractor.DefaultConfig()).Extract(runID, lines)
	if len(excerpts) == 0 {
		t.Fatalf("no excerpt from log")
	}
	return excerpts[0]
}

func TestNormalizeMasksVolatileTokens(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2026-08-23T10:14:55Z job started", "<ts> job started"},
		{"duration 00:01:12.500", "duration <ts>"},
		{"request 123e4567-e89b-42d3-a456-426614174000 failed", "request <uuid> failed"},
		{"at 0xc0001a2000 in frame", "at <hex> in frame"},
		{"open /tmp/build-991/config.yaml failed", "open <path> failed"},
		{`File "main.py", line 212, in handle`, `file "main.py", line <n>, in handle`},
		{"tiers.go:88", "tiers.go:<n>"},
		{"retried 7 times", "retried <n> times"},
		{"  spaced \t  out  ", "spaced out"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestComputeStableAcrossVolatileReruns(t *testing.T) {
	a := testdata.MustEntry("python-repeat-volatile")
	b := testdata.MustEntry("python-repeat-volatile-2")

	fpA, err := Compute(extract(t, "run-a", a.Log))
	if err != nil {
		t.Fatalf("Compute a: %v", err)
	}
	fpB, err := Compute(extract(t, "run-b", b.Log))
	if err != nil {
		t.Fatalf("Compute b: %v", err)
	}
	if fpA != fpB {
		t.Errorf("volatile twins fingerprint differently:\n%s\n%s", fpA, fpB)
	}
}

func TestComputeDeterministic(t *testing.T) {
	e := extract(t, "run-1", testdata.MustEntry("go-panic").Log)
	first, err := Compute(e)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	for range 5 {
		again, err := Compute(e)
		if err != nil {
			t.Fatalf("Compute: %v", err)
		}
		if again != first {
			t.Fatal("fingerprint not deterministic")
		}
	}
}

func TestComputeDistinguishesLanguages(t *testing.T) {
	line := model.LogLine{Number: 1, Text: "connection refused", Category: model.ErrorSignal}
	py := model.FailureExcerpt{ID: "a", Language: model.LangPython, Lines: []model.LogLine{line}}
	node := model.FailureExcerpt{ID: "b", Language: model.LangNode, Lines: []model.LogLine{line}}

	fpPy, err := Compute(py)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	fpNode, err := Compute(node)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if fpPy == fpNode {
		t.Error("same fingerprint for identical text in different languages")
	}
}

func TestComputeDistinguishesFailures(t *testing.T) {
	fpGo, err := Compute(extract(t, "run-1", testdata.MustEntry("go-panic").Log))
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	fpPy, err := Compute(extract(t, "run-1", testdata.MustEntry("python-traceback").Log))
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if fpGo == fpPy {
		t.Error("unrelated failures share a fingerprint")
	}
}

func TestComputeNumericOnlyExcerpt(t *testing.T) {
	e := model.FailureExcerpt{
		ID:       "x",
		Language: model.LangUnknown,
		Lines:    []model.LogLine{{Number: 1, Text: "12345", Category: model.ErrorSignal}},
	}
	fp, err := Compute(e)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if fp == "" {
		t.Fatal("empty fingerprint")
	}
}

func TestComputeEmptyExcerpt(t *testing.T) {
	e := model.FailureExcerpt{ID: "x", Language: model.LangUnknown}
	if _, err := Compute(e); !errors.Is(err, ErrEmpty) {
		t.Fatalf("err = %v, want ErrEmpty", err)
	}
}
