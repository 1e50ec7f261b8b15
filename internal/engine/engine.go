// Package engine runs the analysis pipeline for one CI failure log:
// classification, excerpt extraction, fingerprinting, recurrence tracking,
// chunking, evidence retrieval, and confidence scoring.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/crimson-sun/splinter/internal/cluster"
	"github.com/crimson-sun/splinter/internal/engine/chunker"
	"github.com/crimson-sun/splinter/internal/engine/classifier"
	"github.com/crimson-sun/splinter/internal/engine/extractor"
	"github.com/crimson-sun/splinter/internal/engine/fingerprint"
	"github.com/crimson-sun/splinter/internal/engine/scorer"
	"github.com/crimson-sun/splinter/internal/model"
	"github.com/crimson-sun/splinter/internal/retrieval"
)

// Config aggregates the per-stage policy knobs.
type Config struct {
	Classifier classifier.Config
	Extractor  extractor.Config
	Chunker    chunker.Config
	Scorer     scorer.Config
}

// Analyzer wires the pipeline stages together. Local stages (classify,
// extract, fingerprint, cluster bookkeeping) always complete; the retrieval
// pass may degrade, never fail.
type Analyzer struct {
	classifier *classifier.Classifier
	extractor  *extractor.Extractor
	chunker    *chunker.Chunker
	scorer     *scorer.Scorer
	clusters   cluster.Index
	retriever  *retrieval.Orchestrator
	indexer    *retrieval.Indexer // optional
	log        zerolog.Logger
	now        func() time.Time
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithIndexer attaches a background indexer so analyzed chunks become
// retrievable evidence for future runs.
func WithIndexer(ix *retrieval.Indexer) Option {
	return func(a *Analyzer) { a.indexer = ix }
}

// New creates an Analyzer.
func New(cfg Config, clusters cluster.Index, retriever *retrieval.Orchestrator, log zerolog.Logger, opts ...Option) *Analyzer {
	a := &Analyzer{
		classifier: classifier.New(cfg.Classifier),
		extractor:  extractor.New(cfg.Extractor),
		chunker:    chunker.New(cfg.Chunker),
		scorer:     scorer.New(cfg.Scorer),
		clusters:   clusters,
		retriever:  retriever,
		log:        log,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze runs the full pipeline on one raw log. A log with no error
// signal returns a clean-log result. Retrieval capability failure yields a
// degraded result with empty evidence; it never fails the request.
func (a *Analyzer) Analyze(ctx context.Context, runID, rawLog string) (*model.AnalysisResult, error) {
	lines := a.classifier.Classify(rawLog)
	excerpts := a.extractor.Extract(runID, lines)
	if len(excerpts) == 0 {
		a.log.Info().Str("run", runID).Msg("no error signal found")
		return &model.AnalysisResult{
			RunID:    runID,
			Outcome:  model.OutcomeCleanLog,
			Evidence: []model.EvidenceItem{},
		}, nil
	}

	// The first excerpt carries the run's identity: CI logs report the
	// root failure before its fallout, so later excerpts are usually
	// knock-on errors.
	primary := excerpts[0]
	fp, err := fingerprint.Compute(primary)
	if err != nil {
		return nil, fmt.Errorf("engine: fingerprint run %s: %w", runID, err)
	}

	// Recurrence is recorded before any network call so the count stays
	// accurate even when retrieval degrades.
	cl, err := a.clusters.RecordOccurrence(ctx, fp)
	if err != nil {
		return nil, fmt.Errorf("engine: record occurrence: %w", err)
	}

	var chunks []model.Chunk
	for _, e := range excerpts {
		chunks = append(chunks, a.chunker.Split(e)...)
	}

	ret := a.retriever.Retrieve(ctx, chunks)
	conf := a.scorer.Score(ret.Evidence, cl.Count)

	outcome := model.OutcomeAnalyzed
	if ret.Degraded {
		outcome = model.OutcomeDegraded
	}

	if a.indexer != nil && len(ret.Vectors) > 0 {
		a.indexer.Enqueue(chunks, ret.Vectors, a.now().UTC())
	}

	a.log.Info().
		Str("run", runID).
		Str("fingerprint", fp).
		Str("language", string(primary.Language)).
		Int64("recurrence", cl.Count).
		Int("evidence", len(ret.Evidence)).
		Float64("confidence", conf).
		Bool("degraded", ret.Degraded).
		Msg("analysis complete")

	return &model.AnalysisResult{
		RunID:       runID,
		Outcome:     outcome,
		Fingerprint: fp,
		Language:    primary.Language,
		Recurrence:  cl.Count,
		Excerpt:     primary.Text(),
		Evidence:    ret.Evidence,
		Confidence:  conf,
		Degraded:    ret.Degraded,
	}, nil
}
