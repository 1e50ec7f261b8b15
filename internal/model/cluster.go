package model

import "time"

// FailureCluster groups recurring failures that share a fingerprint.
// Mutated only through the cluster index; never deleted by the core.
type FailureCluster struct {
	Fingerprint string    `json:"fingerprint"`
	FirstSeen   time.Time `json:"first_seen"`
	LastSeen    time.Time `json:"last_seen"`
	Count       int64     `json:"count"`
}
