package retrieval

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/crimson-sun/splinter/internal/capability/vectorstore"
	"github.com/crimson-sun/splinter/internal/model"
)

const (
	defaultIndexBuffer   = 256
	defaultBatchSize     = 50
	defaultFlushInterval = 5 * time.Second
	drainTimeout         = 10 * time.Second
)

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithBatchSize sets the number of points accumulated before a flush.
// Default: 50.
func WithBatchSize(n int) IndexerOption {
	return func(ix *Indexer) {
		if n > 0 {
			ix.batchSize = n
		}
	}
}

// WithFlushInterval sets the maximum time between flushes. Default: 5s.
func WithFlushInterval(d time.Duration) IndexerOption {
	return func(ix *Indexer) {
		if d > 0 {
			ix.flushInterval = d
		}
	}
}

// Indexer writes analyzed chunks into the vector store in the background
// so future analyses can retrieve them. Analysis latency never blocks on
// indexing: Enqueue drops when the buffer is full, and store failures are
// logged, not propagated.
type Indexer struct {
	store         vectorstore.Store
	log           zerolog.Logger
	batchSize     int
	flushInterval time.Duration

	mu        sync.RWMutex
	closed    bool
	ch        chan vectorstore.Point
	done      chan struct{}
	closeOnce sync.Once
}

// NewIndexer creates an Indexer and starts its drain goroutine.
func NewIndexer(store vectorstore.Store, log zerolog.Logger, opts ...IndexerOption) *Indexer {
	ix := &Indexer{
		store:         store,
		log:           log,
		batchSize:     defaultBatchSize,
		flushInterval: defaultFlushInterval,
	}
	for _, opt := range opts {
		opt(ix)
	}
	ix.ch = make(chan vectorstore.Point, defaultIndexBuffer)
	ix.done = make(chan struct{})
	go ix.drain()
	return ix
}

// Enqueue submits one analysis's chunks with their embeddings for
// background indexing. Chunks without a vector (degraded analyses) are
// skipped. Never blocks: excess points are dropped with a warning, and
// points enqueued after Close are dropped the same way.
func (ix *Indexer) Enqueue(chunks []model.Chunk, vectors [][]float32, seenAt time.Time) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if ix.closed {
		ix.log.Warn().Int("chunks", len(chunks)).Msg("indexer closed, dropping points")
		return
	}
	for i, ch := range chunks {
		if i >= len(vectors) || vectors[i] == nil {
			continue
		}
		p := vectorstore.Point{
			ID:        ch.ID,
			Vector:    vectors[i],
			ExcerptID: ch.ExcerptID,
			RunID:     ch.RunID,
			Text:      ch.Text,
			SeenAt:    seenAt,
		}
		select {
		case ix.ch <- p:
		default:
			ix.log.Warn().Str("chunk", ch.ID).Msg("index buffer full, dropping point")
		}
	}
}

// Close stops the drain goroutine after flushing pending points.
func (ix *Indexer) Close() error {
	ix.closeOnce.Do(func() {
		ix.mu.Lock()
		ix.closed = true
		close(ix.ch)
		ix.mu.Unlock()
		select {
		case <-ix.done:
		case <-time.After(drainTimeout):
			ix.log.Warn().Msg("indexer drain timed out")
		}
	})
	return nil
}

// drain accumulates points and flushes on batch size or timer.
func (ix *Indexer) drain() {
	defer close(ix.done)

	var batch []vectorstore.Point
	timer := time.NewTimer(ix.flushInterval)
	defer timer.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
		if err := ix.store.Upsert(ctx, batch); err != nil {
			ix.log.Warn().Err(err).Int("points", len(batch)).Msg("index upsert failed")
		}
		cancel()
		batch = nil
	}

	for {
		select {
		case p, ok := <-ix.ch:
			if !ok {
				flush()
				return
			}
			batch = append(batch, p)
			if len(batch) >= ix.batchSize {
				flush()
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(ix.flushInterval)
			}
		case <-timer.C:
			flush()
			timer.Reset(ix.flushInterval)
		}
	}
}
