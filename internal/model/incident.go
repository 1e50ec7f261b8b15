package model

import "time"

// Incident is one analyzed CI failure as stored for API consumers.
type Incident struct {
	ID          string          `json:"incident_id"`
	Timestamp   time.Time       `json:"timestamp"`
	Repo        string          `json:"repo,omitempty"`
	Summary     string          `json:"summary"`
	Explanation string          `json:"explanation"`
	Result      *AnalysisResult `json:"result"`
}
