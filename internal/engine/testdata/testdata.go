// Package testdata ships a small corpus of labeled CI logs used by the
// pipeline tests.
package testdata

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed corpus.json
var corpusJSON []byte

// CorpusEntry is one labeled CI log.
type CorpusEntry struct {
	Name        string `json:"name"`
	Language    string `json:"language"` // expected detected language, "" for clean logs
	HasFailure  bool   `json:"has_failure"`
	Log         string `json:"log"`
	Description string `json:"description"`
}

// LoadCorpus parses the embedded corpus.json and returns all entries.
func LoadCorpus() ([]CorpusEntry, error) {
	var entries []CorpusEntry
	if err := json.Unmarshal(corpusJSON, &entries); err != nil {
		return nil, fmt.Errorf("parse corpus.json: %w", err)
	}
	return entries, nil
}

// MustEntry returns the corpus entry with the given name, panicking when
// absent. Test helper.
func MustEntry(name string) CorpusEntry {
	entries, err := LoadCorpus()
	if err != nil {
		panic(err)
	}
	for _, e := range entries {
		if e.Name == name {
			return e
		}
	}
	panic(fmt.Sprintf("no corpus entry named %q", name))
}
