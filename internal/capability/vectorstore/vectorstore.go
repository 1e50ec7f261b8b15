package vectorstore

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable means the vector store could not be reached after the
// retry budget was spent. Consumers degrade instead of failing.
var ErrUnavailable = errors.New("vectorstore: capability unavailable")

// Point is one stored vector with its payload.
type Point struct {
	ID        string
	Vector    []float32
	ExcerptID string
	RunID     string
	Text      string
	SeenAt    time.Time
}

// Match is one query result: a stored point with its similarity score.
type Match struct {
	Point Point
	Score float64
}

// Store is the vector-store capability consumed by the retrieval
// orchestrator and the background indexer.
type Store interface {
	// Upsert writes points into the store, overwriting by ID.
	Upsert(ctx context.Context, points []Point) error

	// Query returns the k nearest stored points, best first.
	Query(ctx context.Context, vector []float32, k int) ([]Match, error)
}
