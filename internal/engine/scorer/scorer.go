package scorer

import "github.com/crimson-sun/splinter/internal/model"

// Config holds the policy constants for confidence scoring. These are not
// derivable from first principles; tune them against representative log
// corpora rather than editing the formula.
type Config struct {
	SimilarityWeight float64 // weight of mean evidence similarity (default 0.7)
	RecurrenceWeight float64 // weight of the recurrence term (default 0.3)
	SaturationK      float64 // recurrence count at which the bonus reaches half (default 3)
	DegradedCeiling  float64 // hard cap when the evidence set is empty (default 0.3)
}

// DefaultConfig returns the default scoring policy.
func DefaultConfig() Config {
	return Config{
		SimilarityWeight: 0.7,
		RecurrenceWeight: 0.3,
		SaturationK:      3,
		DegradedCeiling:  0.3,
	}
}

// Scorer derives a bounded confidence value from retrieval quality and
// fingerprint recurrence.
type Scorer struct {
	cfg Config
}

// New creates a Scorer. Non-positive weights and constants fall back to
// the defaults.
func New(cfg Config) *Scorer {
	def := DefaultConfig()
	if cfg.SimilarityWeight <= 0 {
		cfg.SimilarityWeight = def.SimilarityWeight
	}
	if cfg.RecurrenceWeight <= 0 {
		cfg.RecurrenceWeight = def.RecurrenceWeight
	}
	if cfg.SaturationK <= 0 {
		cfg.SaturationK = def.SaturationK
	}
	if cfg.DegradedCeiling <= 0 {
		cfg.DegradedCeiling = def.DegradedCeiling
	}
	return &Scorer{cfg: cfg}
}

// Score combines the mean similarity of the evidence set with a saturating
// recurrence bonus, clipped to [0, 1]. With an empty evidence set (degraded
// mode included) the result never exceeds DegradedCeiling. Monotonic
// non-decreasing in both mean similarity and recurrence.
func (s *Scorer) Score(evidence []model.EvidenceItem, recurrence int64) float64 {
	rec := s.recurrenceTerm(recurrence)

	if len(evidence) == 0 {
		return min(s.cfg.DegradedCeiling, s.cfg.RecurrenceWeight*rec)
	}

	var sum float64
	for _, ev := range evidence {
		sum += clamp01(ev.Score)
	}
	mean := sum / float64(len(evidence))

	return clamp01(s.cfg.SimilarityWeight*mean + s.cfg.RecurrenceWeight*rec)
}

// recurrenceTerm maps an occurrence count to [0, 1) with diminishing
// returns. The first occurrence contributes nothing: recurrence only
// raises confidence once the failure has been seen before.
func (s *Scorer) recurrenceTerm(count int64) float64 {
	if count <= 1 {
		return 0
	}
	prior := float64(count - 1)
	return prior / (prior + s.cfg.SaturationK)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
