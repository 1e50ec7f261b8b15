package incident

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/crimson-sun/splinter/internal/model"
)

var t0 = time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

func newTestStore(opts ...Option) *Store {
	s := NewStore(opts...)
	tick := 0
	s.now = func() time.Time {
		tick++
		return t0.Add(time.Duration(tick) * time.Second)
	}
	n := 0
	s.newID = func() string {
		n++
		return fmt.Sprintf("inc-%d", n)
	}
	return s
}

func TestRecordAndGet(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	res := &model.AnalysisResult{RunID: "run-1", Outcome: model.OutcomeAnalyzed}
	inc := s.Record(ctx, "acme/shop", "Database connection pool exhausted\nDetails follow.", res)

	if inc.ID != "inc-1" {
		t.Fatalf("id = %q", inc.ID)
	}
	if inc.Summary != "Database connection pool exhausted" {
		t.Errorf("summary = %q", inc.Summary)
	}

	got, err := s.Get(ctx, "inc-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Result.RunID != "run-1" {
		t.Errorf("result run = %q", got.Result.RunID)
	}

	if _, err := s.Get(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get missing = %v, want ErrNotFound", err)
	}
}

func TestListNewestFirst(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	for i := range 3 {
		s.Record(ctx, "acme/shop", fmt.Sprintf("failure %d", i), nil)
	}

	all := s.List(ctx, 0)
	if len(all) != 3 {
		t.Fatalf("len = %d", len(all))
	}
	if all[0].Summary != "failure 2" || all[2].Summary != "failure 0" {
		t.Errorf("order = %q, %q, %q", all[0].Summary, all[1].Summary, all[2].Summary)
	}

	limited := s.List(ctx, 2)
	if len(limited) != 2 {
		t.Errorf("limited len = %d", len(limited))
	}
}

func TestCapEvictsOldest(t *testing.T) {
	s := newTestStore(WithMaxStored(2))
	ctx := context.Background()

	s.Record(ctx, "r", "first", nil)
	s.Record(ctx, "r", "second", nil)
	s.Record(ctx, "r", "third", nil)

	all := s.List(ctx, 0)
	if len(all) != 2 {
		t.Fatalf("len = %d, want 2", len(all))
	}
	if all[0].Summary != "third" || all[1].Summary != "second" {
		t.Errorf("kept %q, %q", all[0].Summary, all[1].Summary)
	}
	if _, err := s.Get(ctx, "inc-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("evicted incident still present")
	}
}

func TestSummaryTruncation(t *testing.T) {
	s := newTestStore(WithSummaryLen(10))
	inc := s.Record(context.Background(), "r", strings.Repeat("x", 40), nil)
	if got := []rune(inc.Summary); len(got) != 10 {
		t.Fatalf("summary rune len = %d, want 10", len(got))
	}
	if !strings.HasSuffix(inc.Summary, "…") {
		t.Errorf("summary %q lacks ellipsis", inc.Summary)
	}
}
