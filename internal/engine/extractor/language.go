package extractor

import (
	"regexp"

	"github.com/crimson-sun/splinter/internal/model"
)

// Recognizer matches one language's stack-trace convention. Recognizers
// are tried in priority order; new languages are added by appending a
// variant, not by editing the detection logic.
type Recognizer struct {
	Language model.Language
	patterns []*regexp.Regexp
}

// Score counts how many of the recognizer's patterns appear in the text.
func (r Recognizer) Score(text string) int {
	n := 0
	for _, re := range r.patterns {
		if re.MatchString(text) {
			n++
		}
	}
	return n
}

// defaultRecognizers returns the built-in recognizer set in priority order.
func defaultRecognizers() []Recognizer {
	return []Recognizer{
		{
			Language: model.LangPython,
			patterns: []*regexp.Regexp{
				regexp.MustCompile(`Traceback \(most recent call last\):`),
				regexp.MustCompile(`File ".+\.py", line \d+`),
				regexp.MustCompile(`\b(?:ZeroDivision|ModuleNotFound|Import|Value|Type|Key|Attribute|Assertion)Error\b`),
				regexp.MustCompile(`\.py:\d+`),
			},
		},
		{
			Language: model.LangJVM,
			patterns: []*regexp.Regexp{
				regexp.MustCompile(`Exception in thread`),
				regexp.MustCompile(`\bjava\.lang\.`),
				regexp.MustCompile(`\.(?:java|kt|scala):\d+`),
				regexp.MustCompile(`Caused by:`),
			},
		},
		{
			Language: model.LangNode,
			patterns: []*regexp.Regexp{
				regexp.MustCompile(`at .+\.[cm]?js:\d+`),
				regexp.MustCompile(`node_modules`),
				regexp.MustCompile(`UnhandledPromiseRejection`),
				regexp.MustCompile(`(?:Type|Reference|Syntax|Range)Error:`),
			},
		},
		{
			Language: model.LangGo,
			patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?m)^panic:`),
				regexp.MustCompile(`goroutine \d+ \[`),
				regexp.MustCompile(`\.go:\d+`),
				regexp.MustCompile(`--- FAIL`),
			},
		},
		{
			Language: model.LangDotnet,
			patterns: []*regexp.Regexp{
				regexp.MustCompile(`Unhandled [Ee]xception`),
				regexp.MustCompile(`\bSystem\.[A-Za-z.]+Exception\b`),
				regexp.MustCompile(`\.cs:(?:line )?\d+`),
			},
		},
	}
}

// DetectLanguage scores the text against every recognizer and returns the
// highest-scoring language. Ties resolve to the earlier (higher-priority)
// recognizer. A zero top score means no convention matched: unknown.
func DetectLanguage(text string) model.Language {
	best := model.LangUnknown
	bestScore := 0
	for _, r := range defaultRecognizers() {
		if s := r.Score(text); s > bestScore {
			best = r.Language
			bestScore = s
		}
	}
	return best
}
