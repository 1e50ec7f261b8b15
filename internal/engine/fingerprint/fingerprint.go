package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/crimson-sun/splinter/internal/model"
)

// ErrEmpty means an excerpt produced no fingerprint even after the raw-text
// fallback. This is an internal invariant violation: the extractor never
// emits empty excerpts, so a caller seeing this should abort the single
// analysis and report, never crash the service.
var ErrEmpty = errors.New("fingerprint: empty input")

// Volatile token masks, applied in order. Timestamps and UUIDs go before
// the generic hex and number masks so the specific placeholder wins.
var masks = []struct {
	re          *regexp.Regexp
	placeholder string
}{
	// ISO-ish timestamps: 2026-08-23T10:11:12.123Z, 2026/08/23 10:11:12
	{regexp.MustCompile(`\d{4}[-/]\d{2}[-/]\d{2}[ t]\d{2}:\d{2}:\d{2}(?:[.,]\d+)?(?:z|[+-]\d{2}:?\d{2})?`), "<ts>"},
	{regexp.MustCompile(`\d{2}:\d{2}:\d{2}(?:[.,]\d+)?`), "<ts>"},
	// UUIDs
	{regexp.MustCompile(`[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`), "<uuid>"},
	// Hex addresses and long hex ids
	{regexp.MustCompile(`0x[0-9a-f]+`), "<hex>"},
	{regexp.MustCompile(`\b[0-9a-f]{12,}\b`), "<hex>"},
	// Absolute paths, windows then unix
	{regexp.MustCompile(`[a-z]:\\[^\s"']+`), "<path>"},
	{regexp.MustCompile(`/[^\s"':]+(?:/[^\s"':]+)+`), "<path>"},
	// Line/column references
	{regexp.MustCompile(`line \d+`), "line <n>"},
	{regexp.MustCompile(`:\d+(?::\d+)?`), ":<n>"},
	// Everything numeric that survived
	{regexp.MustCompile(`\d+`), "<n>"},
}

var whitespace = regexp.MustCompile(`\s+`)

// Normalize strips per-run noise from excerpt text: volatile tokens are
// replaced with fixed placeholders, the text is unicode-normalized,
// lowercased, and whitespace-collapsed. Two excerpts differing only in
// timestamps, ids, paths, or line numbers normalize identically.
func Normalize(text string) string {
	s := strings.ToLower(norm.NFKC.String(text))
	for _, m := range masks {
		s = m.re.ReplaceAllString(s, m.placeholder)
	}
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// Compute derives the stable fingerprint for a failure excerpt. The
// language tag is hashed alongside the normalized text so equivalent
// messages from different runtimes stay distinct. If normalization reduces
// the excerpt to nothing, the raw text is hashed instead; an empty
// fingerprint is never produced.
func Compute(e model.FailureExcerpt) (string, error) {
	text := e.Text()
	normalized := Normalize(text)
	if normalized == "" {
		normalized = strings.TrimSpace(text)
	}
	if normalized == "" {
		return "", ErrEmpty
	}

	h := sha256.New()
	h.Write([]byte("lang=" + string(e.Language) + "\n"))
	h.Write([]byte(normalized))
	return hex.EncodeToString(h.Sum(nil)), nil
}
