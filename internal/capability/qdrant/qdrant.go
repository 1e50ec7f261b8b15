package qdrant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/crimson-sun/splinter/internal/capability/httpclient"
	"github.com/crimson-sun/splinter/internal/capability/vectorstore"
)

const defaultTimeout = 10 * time.Second

// Store talks to a Qdrant instance over its REST API. One collection holds
// every indexed chunk; payloads carry the excerpt back-references the
// orchestrator dedupes on.
type Store struct {
	client     *httpclient.Client
	collection string
}

var _ vectorstore.Store = (*Store)(nil)

// New creates a Store for the given Qdrant endpoint and collection name.
func New(endpoint, collection string, opts ...httpclient.Option) *Store {
	opts = append([]httpclient.Option{httpclient.WithTimeout(defaultTimeout)}, opts...)
	return &Store{
		client:     httpclient.New(endpoint, opts...),
		collection: collection,
	}
}

// EnsureCollection creates the collection if it does not exist. Qdrant
// returns 409 for an existing collection; that is success here.
func (s *Store) EnsureCollection(ctx context.Context, dim int) error {
	body := map[string]any{
		"vectors": map[string]any{"size": dim, "distance": "Cosine"},
	}
	err := s.client.PutJSON(ctx, "/collections/"+s.collection, body, nil)
	if err != nil {
		var apiErr *httpclient.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == 409 {
			return nil
		}
		return fmt.Errorf("%w: %v", vectorstore.ErrUnavailable, err)
	}
	return nil
}

type pointPayload struct {
	ChunkID   string `json:"chunk_id"`
	ExcerptID string `json:"excerpt_id"`
	RunID     string `json:"run_id"`
	Text      string `json:"text"`
	SeenAt    int64  `json:"seen_at"` // unix seconds
}

// pointID maps a chunk ID onto the UUID form Qdrant requires. SHA1-based,
// so re-upserting the same chunk overwrites its point.
func pointID(chunkID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(chunkID)).String()
}

type upsertRequest struct {
	Points []upsertPoint `json:"points"`
}

type upsertPoint struct {
	ID      string       `json:"id"`
	Vector  []float32    `json:"vector"`
	Payload pointPayload `json:"payload"`
}

// Upsert writes points into the collection, overwriting by ID.
func (s *Store) Upsert(ctx context.Context, points []vectorstore.Point) error {
	if len(points) == 0 {
		return nil
	}
	req := upsertRequest{Points: make([]upsertPoint, len(points))}
	for i, p := range points {
		req.Points[i] = upsertPoint{
			ID:     pointID(p.ID),
			Vector: p.Vector,
			Payload: pointPayload{
				ChunkID:   p.ID,
				ExcerptID: p.ExcerptID,
				RunID:     p.RunID,
				Text:      p.Text,
				SeenAt:    p.SeenAt.Unix(),
			},
		}
	}
	err := s.client.PutJSON(ctx, "/collections/"+s.collection+"/points?wait=true", req, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", vectorstore.ErrUnavailable, err)
	}
	return nil
}

type searchRequest struct {
	Vector      []float32 `json:"vector"`
	Limit       int       `json:"limit"`
	WithPayload bool      `json:"with_payload"`
}

type searchResponse struct {
	Result []struct {
		ID      string       `json:"id"`
		Score   float64      `json:"score"`
		Payload pointPayload `json:"payload"`
	} `json:"result"`
}

// Query returns the k nearest stored points, best first.
func (s *Store) Query(ctx context.Context, vector []float32, k int) ([]vectorstore.Match, error) {
	var resp searchResponse
	req := searchRequest{Vector: vector, Limit: k, WithPayload: true}
	err := s.client.PostJSON(ctx, "/collections/"+s.collection+"/points/search", req, &resp)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", vectorstore.ErrUnavailable, err)
	}

	matches := make([]vectorstore.Match, len(resp.Result))
	for i, r := range resp.Result {
		matches[i] = vectorstore.Match{
			Point: vectorstore.Point{
				ID:        r.Payload.ChunkID,
				ExcerptID: r.Payload.ExcerptID,
				RunID:     r.Payload.RunID,
				Text:      r.Payload.Text,
				SeenAt:    time.Unix(r.Payload.SeenAt, 0).UTC(),
			},
			Score: r.Score,
		}
	}
	return matches, nil
}
