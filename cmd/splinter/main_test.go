package main

import (
	"testing"

	"github.com/crimson-sun/splinter/internal/config"
)

func TestEngineConfigMapping(t *testing.T) {
	cfg := config.Default()
	cfg.Engine.ContextBefore = 3
	cfg.Engine.ContextAfter = 7
	cfg.Engine.MaxLines = 12
	cfg.Engine.MaxChars = 900
	cfg.Engine.Overlap = 90

	ec := engineConfig(cfg)
	if ec.Classifier.ContextBefore != 3 || ec.Classifier.ContextAfter != 7 {
		t.Errorf("classifier window = %d/%d", ec.Classifier.ContextBefore, ec.Classifier.ContextAfter)
	}
	if ec.Extractor.MaxLines != 12 {
		t.Errorf("max lines = %d", ec.Extractor.MaxLines)
	}
	if ec.Chunker.MaxChars != 900 || ec.Chunker.Overlap != 90 {
		t.Errorf("chunker = %d/%d", ec.Chunker.MaxChars, ec.Chunker.Overlap)
	}
}

func TestNewClusterIndexDefaultsToMemory(t *testing.T) {
	idx, closeIdx, err := newClusterIndex(config.ClusterConfig{Backend: "memory"})
	if err != nil {
		t.Fatalf("newClusterIndex: %v", err)
	}
	defer closeIdx()
	if idx == nil {
		t.Fatal("nil index")
	}
}
