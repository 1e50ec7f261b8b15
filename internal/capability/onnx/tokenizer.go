package onnx

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const maxSeqLen = 256

// tokenizer performs BERT-style WordPiece tokenization over a vocab.txt
// vocabulary. Log text is ASCII-heavy, so the basic pass is lowercase +
// accent strip + punctuation split; anything undecomposable maps to [UNK].
type tokenizer struct {
	tokenToID map[string]int64
	padID     int64
	unkID     int64
	clsID     int64
	sepID     int64
}

// newTokenizer loads a vocab.txt file where the 0-indexed line number is
// the token ID, and resolves the BERT special tokens.
func newTokenizer(vocabPath string) (*tokenizer, error) {
	f, err := os.Open(vocabPath)
	if err != nil {
		return nil, fmt.Errorf("vocab: %w", err)
	}
	defer f.Close()

	tokenToID := make(map[string]int64, 32000)
	scanner := bufio.NewScanner(f)
	n := int64(0)
	for scanner.Scan() {
		tokenToID[scanner.Text()] = n
		n++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("vocab: read error: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("vocab: file is empty: %s", vocabPath)
	}

	t := &tokenizer{tokenToID: tokenToID}
	for _, s := range []struct {
		name string
		dest *int64
	}{
		{"[PAD]", &t.padID},
		{"[UNK]", &t.unkID},
		{"[CLS]", &t.clsID},
		{"[SEP]", &t.sepID},
	} {
		id, ok := tokenToID[s.name]
		if !ok {
			return nil, fmt.Errorf("vocab: missing special token %s", s.name)
		}
		*s.dest = id
	}
	return t, nil
}

// encoded holds flat [batch * seqLen] tensors ready for inference.
type encoded struct {
	inputIDs      []int64
	attentionMask []int64
	tokenTypeIDs  []int64
	batchSize     int64
	seqLen        int64
}

// encodeBatch tokenizes texts and packs them into flat tensors padded to
// the longest sequence in the batch, capped at maxSeqLen.
func (t *tokenizer) encodeBatch(texts []string) encoded {
	if len(texts) == 0 {
		return encoded{}
	}

	ids := make([][]int64, len(texts))
	maxLen := 0
	for i, text := range texts {
		ids[i] = t.encode(text)
		if len(ids[i]) > maxLen {
			maxLen = len(ids[i])
		}
	}

	batch := int64(len(texts))
	seqLen := int64(maxLen)
	total := batch * seqLen

	out := encoded{
		inputIDs:      make([]int64, total),
		attentionMask: make([]int64, total),
		tokenTypeIDs:  make([]int64, total),
		batchSize:     batch,
		seqLen:        seqLen,
	}
	for i, seq := range ids {
		off := int64(i) * seqLen
		for j, id := range seq {
			out.inputIDs[off+int64(j)] = id
			out.attentionMask[off+int64(j)] = 1
		}
		// Remaining positions stay 0: padID=0 by BERT convention, mask=0.
	}
	return out
}

// encode converts one text into [CLS] ids... [SEP], truncated to maxSeqLen.
func (t *tokenizer) encode(text string) []int64 {
	words := basicTokenize(text)

	ids := make([]int64, 0, len(words)+2)
	ids = append(ids, t.clsID)
	for _, w := range words {
		for _, sub := range t.wordpiece(w) {
			if len(ids) == maxSeqLen-1 {
				break
			}
			ids = append(ids, sub)
		}
	}
	return append(ids, t.sepID)
}

// wordpiece decomposes one basic token into subword IDs via greedy
// longest-match. Undecomposable tokens map to a single [UNK].
func (t *tokenizer) wordpiece(token string) []int64 {
	runes := []rune(token)
	if len(runes) == 0 || len(runes) > 100 {
		return []int64{t.unkID}
	}

	var subs []int64
	start := 0
	for start < len(runes) {
		end := len(runes)
		matched := int64(-1)
		for end > start {
			sub := string(runes[start:end])
			if start > 0 {
				sub = "##" + sub
			}
			if id, ok := t.tokenToID[sub]; ok {
				matched = id
				break
			}
			end--
		}
		if matched < 0 {
			return []int64{t.unkID}
		}
		subs = append(subs, matched)
		start = end
	}
	return subs
}

// basicTokenize lowercases, strips accents and control characters, and
// splits on whitespace and punctuation (punctuation kept as tokens).
func basicTokenize(text string) []string {
	var cleaned strings.Builder
	cleaned.Grow(len(text))
	for _, r := range norm.NFD.String(strings.ToLower(text)) {
		switch {
		case r == 0 || r == 0xFFFD || unicode.In(r, unicode.Mn):
			continue
		case unicode.IsControl(r) && r != '\t' && r != '\n':
			continue
		case unicode.IsSpace(r):
			cleaned.WriteRune(' ')
		default:
			cleaned.WriteRune(r)
		}
	}

	var tokens []string
	for _, word := range strings.Fields(cleaned.String()) {
		var cur strings.Builder
		for _, r := range word {
			if isPunct(r) {
				if cur.Len() > 0 {
					tokens = append(tokens, cur.String())
					cur.Reset()
				}
				tokens = append(tokens, string(r))
			} else {
				cur.WriteRune(r)
			}
		}
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
		}
	}
	return tokens
}

// isPunct mirrors BERT's punctuation classes: the four ASCII symbol
// ranges plus Unicode punctuation.
func isPunct(r rune) bool {
	if (r >= 33 && r <= 47) || (r >= 58 && r <= 64) ||
		(r >= 91 && r <= 96) || (r >= 123 && r <= 126) {
		return true
	}
	return unicode.IsPunct(r)
}
