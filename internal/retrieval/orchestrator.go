package retrieval

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/crimson-sun/splinter/internal/capability/embedding"
	"github.com/crimson-sun/splinter/internal/capability/vectorstore"
	"github.com/crimson-sun/splinter/internal/model"
)

// Config holds the retrieval policy constants. MinSimilarity is the
// relevance floor: candidates below it are dropped rather than handed to
// the generator. Tune against representative corpora.
type Config struct {
	TopK          int           // nearest neighbors fetched per query chunk (default 5)
	MaxEvidence   int           // evidence set cap, bounds downstream prompt size (default 8)
	MinSimilarity float64       // relevance floor (default 0.55)
	Concurrency   int           // parallel embedding calls (default 4)
	CallTimeout   time.Duration // per capability call (default 10s)
}

// DefaultConfig returns the default retrieval policy.
func DefaultConfig() Config {
	return Config{
		TopK:          5,
		MaxEvidence:   8,
		MinSimilarity: 0.55,
		Concurrency:   4,
		CallTimeout:   10 * time.Second,
	}
}

// Result is the outcome of one retrieval pass.
type Result struct {
	Evidence []model.EvidenceItem
	Vectors  [][]float32 // chunk embeddings, aligned with the input chunks
	Degraded bool        // a capability was unavailable; Evidence is empty
}

// Orchestrator embeds query chunks, queries the vector store, and
// assembles the bounded evidence set. Capability failure never fails an
// analysis: it produces an empty, degraded result instead.
type Orchestrator struct {
	embedder embedding.Embedder
	store    vectorstore.Store
	cfg      Config
	log      zerolog.Logger
}

// New creates an Orchestrator. Zero config fields fall back to defaults.
func New(emb embedding.Embedder, store vectorstore.Store, cfg Config, log zerolog.Logger) *Orchestrator {
	def := DefaultConfig()
	if cfg.TopK <= 0 {
		cfg.TopK = def.TopK
	}
	if cfg.MaxEvidence <= 0 {
		cfg.MaxEvidence = def.MaxEvidence
	}
	if cfg.MinSimilarity <= 0 {
		cfg.MinSimilarity = def.MinSimilarity
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = def.CallTimeout
	}
	return &Orchestrator{embedder: emb, store: store, cfg: cfg, log: log}
}

// Retrieve runs the full retrieval pass for one analysis request:
// embed every chunk, query top-K neighbors per chunk, merge candidates
// deduplicating by source excerpt, rank by score descending with recency
// as the tie-break, drop candidates under the similarity floor, and cap
// the set at MaxEvidence.
func (o *Orchestrator) Retrieve(ctx context.Context, chunks []model.Chunk) Result {
	if len(chunks) == 0 {
		return Result{}
	}

	vectors, err := o.embedChunks(ctx, chunks)
	if err != nil {
		o.log.Warn().Err(err).Msg("embedding unavailable, degrading")
		return Result{Degraded: true}
	}

	best := make(map[string]model.EvidenceItem) // by source excerpt ID
	for i, vec := range vectors {
		callCtx, cancel := context.WithTimeout(ctx, o.cfg.CallTimeout)
		matches, err := o.store.Query(callCtx, vec, o.cfg.TopK)
		cancel()
		if err != nil {
			o.log.Warn().Err(err).Int("chunk", i).Msg("vector store unavailable, degrading")
			return Result{Vectors: vectors, Degraded: true}
		}

		for _, m := range matches {
			if m.Score < o.cfg.MinSimilarity {
				continue
			}
			item := model.EvidenceItem{
				ChunkID:   m.Point.ID,
				ExcerptID: m.Point.ExcerptID,
				RunID:     m.Point.RunID,
				Text:      m.Point.Text,
				Score:     m.Score,
				SeenAt:    m.Point.SeenAt,
			}
			cur, seen := best[item.ExcerptID]
			if !seen || item.Score > cur.Score {
				best[item.ExcerptID] = item
			}
		}
	}

	evidence := make([]model.EvidenceItem, 0, len(best))
	for _, item := range best {
		evidence = append(evidence, item)
	}
	sort.Slice(evidence, func(i, j int) bool {
		if evidence[i].Score != evidence[j].Score {
			return evidence[i].Score > evidence[j].Score
		}
		if !evidence[i].SeenAt.Equal(evidence[j].SeenAt) {
			return evidence[i].SeenAt.After(evidence[j].SeenAt)
		}
		return evidence[i].ChunkID < evidence[j].ChunkID
	})
	if len(evidence) > o.cfg.MaxEvidence {
		evidence = evidence[:o.cfg.MaxEvidence]
	}

	return Result{Evidence: evidence, Vectors: vectors}
}

// embedChunks embeds all chunks with bounded parallelism, preserving order.
func (o *Orchestrator) embedChunks(ctx context.Context, chunks []model.Chunk) ([][]float32, error) {
	vectors := make([][]float32, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.Concurrency)
	for i, ch := range chunks {
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(gctx, o.cfg.CallTimeout)
			defer cancel()
			vec, err := o.embedder.Embed(callCtx, ch.Text)
			if err != nil {
				return err
			}
			vectors[i] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}
