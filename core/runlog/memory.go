package runlog

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps records in memory for tests or one-shot commands.
type MemoryStore struct {
	mu   sync.Mutex
	recs []Record
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) Append(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs = append(s.recs, rec)
	return nil
}

func (s *MemoryStore) Query(_ context.Context, q Query) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res []Record
	for _, r := range s.recs {
		if q.Match(r) {
			res = append(res, r)
		}
	}
	return Limit(res, q.Limit), nil
}

func (s *MemoryStore) Close() error { return nil }

// Limit sorts records by timestamp and keeps the n most recent ones when
// n is positive.
func Limit(recs []Record, n int) []Record {
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Timestamp.Before(recs[j].Timestamp) })
	if n > 0 && len(recs) > n {
		recs = recs[len(recs)-n:]
	}
	return recs
}
