package runlog

import (
	"context"
	"math"
	"testing"
	"time"
)

func TestMemoryStoreQuery(t *testing.T) {
	s := NewMemoryStore()
	base := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	recs := []Record{
		{RunID: "a", Timestamp: base.Add(2 * time.Hour), Model: "day_ahead", Status: "optimal"},
		{RunID: "b", Timestamp: base, Model: "day_ahead", Status: "feasible", EarlyStopped: true},
		{RunID: "c", Timestamp: base.Add(time.Hour), Model: "intraday", Status: "infeasible"},
	}
	for _, r := range recs {
		if err := s.Append(context.Background(), r); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	got, _ := s.Query(context.Background(), Query{})
	if len(got) != 3 || got[0].RunID != "b" || got[2].RunID != "a" {
		t.Fatalf("expected time ordered records, got %+v", got)
	}
	got, _ = s.Query(context.Background(), Query{Model: "day_ahead", Limit: 1})
	if len(got) != 1 || got[0].RunID != "a" {
		t.Fatalf("expected most recent day_ahead run, got %+v", got)
	}
	got, _ = s.Query(context.Background(), Query{EarlyOnly: true})
	if len(got) != 1 || got[0].RunID != "b" {
		t.Fatalf("expected early stopped run, got %+v", got)
	}
	got, _ = s.Query(context.Background(), Query{Start: base.Add(30 * time.Minute), End: base.Add(90 * time.Minute)})
	if len(got) != 1 || got[0].RunID != "c" {
		t.Fatalf("expected run in window, got %+v", got)
	}
}

func TestFloat(t *testing.T) {
	if Float(math.NaN()) != nil || Float(math.Inf(1)) != nil {
		t.Fatal("non-finite values must map to nil")
	}
	if v := Float(2.5); v == nil || *v != 2.5 {
		t.Fatalf("unexpected %v", v)
	}
}
