// Package incident keeps the record of analyzed failures served by the
// HTTP API.
package incident

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/crimson-sun/splinter/internal/model"
)

// ErrNotFound is returned when no incident has the requested ID.
var ErrNotFound = errors.New("incident: not found")

// Store holds recent incidents in memory, newest first, capped at a fixed
// size. Oldest incidents fall off when the cap is reached.
type Store struct {
	mu         sync.RWMutex
	incidents  []model.Incident
	maxStored  int
	summaryLen int
	now        func() time.Time
	newID      func() string
}

// Option configures a Store.
type Option func(*Store)

// WithMaxStored caps the number of retained incidents. Default: 500.
func WithMaxStored(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxStored = n
		}
	}
}

// WithSummaryLen caps incident summaries at n runes. Default: 280.
func WithSummaryLen(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.summaryLen = n
		}
	}
}

// NewStore creates an empty Store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		maxStored:  500,
		summaryLen: 280,
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Record stores an analysis outcome and returns the created incident.
// The summary is derived from the explanation's first line, truncated.
func (s *Store) Record(_ context.Context, repo, explanation string, result *model.AnalysisResult) model.Incident {
	inc := model.Incident{
		ID:          s.newID(),
		Timestamp:   s.now().UTC(),
		Repo:        repo,
		Summary:     s.summarize(explanation),
		Explanation: explanation,
		Result:      result,
	}

	s.mu.Lock()
	s.incidents = append([]model.Incident{inc}, s.incidents...)
	if len(s.incidents) > s.maxStored {
		s.incidents = s.incidents[:s.maxStored]
	}
	s.mu.Unlock()
	return inc
}

// List returns up to limit incidents, newest first. limit <= 0 returns all.
func (s *Store) List(_ context.Context, limit int) []model.Incident {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := len(s.incidents)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]model.Incident, n)
	copy(out, s.incidents[:n])
	return out
}

// Get returns the incident with the given ID.
func (s *Store) Get(_ context.Context, id string) (model.Incident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, inc := range s.incidents {
		if inc.ID == id {
			return inc, nil
		}
	}
	return model.Incident{}, ErrNotFound
}

// summarize takes the first non-empty line of the explanation and
// truncates it with an ellipsis.
func (s *Store) summarize(explanation string) string {
	line := ""
	for _, l := range strings.Split(explanation, "\n") {
		if t := strings.TrimSpace(l); t != "" {
			line = t
			break
		}
	}
	runes := []rune(line)
	if len(runes) <= s.summaryLen {
		return line
	}
	return string(runes[:s.summaryLen-1]) + "…"
}
