package cluster

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/crimson-sun/splinter/internal/model"
)

// MemoryIndex is an in-process Index. Creation is single-flighted per
// fingerprint so concurrent first observations of the same failure produce
// one cluster; mutation happens under the map lock, never across any
// network call.
type MemoryIndex struct {
	mu       sync.RWMutex
	clusters map[string]*model.FailureCluster
	creating singleflight.Group
	now      func() time.Time
}

// NewMemoryIndex creates an empty in-memory index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		clusters: make(map[string]*model.FailureCluster),
		now:      time.Now,
	}
}

// LookupOrCreate implements Index.
func (m *MemoryIndex) LookupOrCreate(_ context.Context, fp string) (model.FailureCluster, error) {
	m.mu.RLock()
	if c, ok := m.clusters[fp]; ok {
		out := *c
		m.mu.RUnlock()
		return out, nil
	}
	m.mu.RUnlock()

	v, _, _ := m.creating.Do(fp, func() (any, error) {
		m.mu.Lock()
		defer m.mu.Unlock()
		if c, ok := m.clusters[fp]; ok {
			return *c, nil
		}
		now := m.now().UTC()
		c := &model.FailureCluster{Fingerprint: fp, FirstSeen: now, LastSeen: now}
		m.clusters[fp] = c
		return *c, nil
	})
	return v.(model.FailureCluster), nil
}

// RecordOccurrence implements Index.
func (m *MemoryIndex) RecordOccurrence(_ context.Context, fp string) (model.FailureCluster, error) {
	now := m.now().UTC()

	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.clusters[fp]
	if !ok {
		c = &model.FailureCluster{Fingerprint: fp, FirstSeen: now}
		m.clusters[fp] = c
	}
	c.Count++
	c.LastSeen = now
	return *c, nil
}

// List implements Index.
func (m *MemoryIndex) List(_ context.Context) ([]model.FailureCluster, error) {
	m.mu.RLock()
	out := make([]model.FailureCluster, 0, len(m.clusters))
	for _, c := range m.clusters {
		out = append(out, *c)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastSeen.Equal(out[j].LastSeen) {
			return out[i].LastSeen.After(out[j].LastSeen)
		}
		return out[i].Fingerprint < out[j].Fingerprint
	})
	return out, nil
}
