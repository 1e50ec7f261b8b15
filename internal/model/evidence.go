package model

import "time"

// EvidenceItem is one retrieved historical chunk with its relevance score.
type EvidenceItem struct {
	ChunkID   string    `json:"chunk_id"`
	ExcerptID string    `json:"excerpt_id"`
	RunID     string    `json:"run_id"`
	Text      string    `json:"text"`
	Score     float64   `json:"score"`
	SeenAt    time.Time `json:"seen_at"` // when the source incident was indexed
}

// Outcome names the three possible results of an analysis request.
type Outcome string

const (
	// OutcomeAnalyzed is a normal result with retrieval grounding.
	OutcomeAnalyzed Outcome = "analyzed"
	// OutcomeDegraded means a retrieval capability was unavailable and the
	// analysis proceeded without grounding.
	OutcomeDegraded Outcome = "degraded"
	// OutcomeCleanLog means no error signal was found; nothing to analyze.
	OutcomeCleanLog Outcome = "clean_log"
)

// AnalysisResult is the stable contract this core produces for downstream
// layers (incident storage, HTTP responses, the generation collaborator).
type AnalysisResult struct {
	RunID       string         `json:"run_id"`
	Outcome     Outcome        `json:"outcome"`
	Fingerprint string         `json:"fingerprint,omitempty"`
	Language    Language       `json:"language,omitempty"`
	Recurrence  int64          `json:"recurrence,omitempty"`
	Excerpt     string         `json:"excerpt,omitempty"`
	Evidence    []EvidenceItem `json:"evidence"`
	Confidence  float64        `json:"confidence,omitempty"` // omitted for clean logs, where it is undefined
	Degraded    bool           `json:"degraded"`
}
