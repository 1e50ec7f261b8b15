package cluster

import (
	"context"

	"github.com/crimson-sun/splinter/internal/model"
)

// Index is the shared store of failure clusters, keyed by fingerprint.
// Implementations must make both operations atomic per fingerprint: two
// concurrent invocations with the same fingerprint converge on one
// cluster, never two. Clusters are never deleted by the core.
type Index interface {
	// LookupOrCreate returns the cluster for the fingerprint, creating an
	// empty one (count zero) if none exists.
	LookupOrCreate(ctx context.Context, fp string) (model.FailureCluster, error)

	// RecordOccurrence increments the cluster's count and updates its
	// last-seen time, creating the cluster if needed. Every call is a real
	// occurrence; callers invoke it exactly once per analysis request.
	RecordOccurrence(ctx context.Context, fp string) (model.FailureCluster, error)

	// List returns all clusters, most recently seen first.
	List(ctx context.Context) ([]model.FailureCluster, error)
}
