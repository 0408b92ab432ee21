// Package store holds the attempt history of every observed test, keyed by
// test title. It is the only shared mutable state in runwatch: parallel
// runner workers may record attempts concurrently, so all mutation is
// serialized behind a mutex. Reduction happens elsewhere; the store does
// nothing but remember.
package store

import (
	"fmt"
	"sync"

	"github.com/runwatch/runwatch/types"
)

// OrderingError is returned when an attempt arrives whose index does not
// follow the previously recorded index for that test. It indicates a
// protocol violation in the upstream runner and is never retried here.
type OrderingError struct {
	Title string
	Got   int
	Want  int
}

func (e *OrderingError) Error() string {
	return fmt.Sprintf("attempt for %q arrived out of order: got index %d, want %d", e.Title, e.Got, e.Want)
}

// TestRecord owns the ordered attempt sequence of one logical test.
// Attempt indices are strictly increasing by one starting at zero.
type TestRecord struct {
	Title    string
	Attempts []types.Attempt
}

// Retries returns the number of attempts beyond the first.
func (r *TestRecord) Retries() int {
	if len(r.Attempts) == 0 {
		return 0
	}
	return len(r.Attempts) - 1
}

// Last returns the highest-index attempt. ok is false when the record is
// empty, which violates the store invariant and is handled by the reducer.
func (r *TestRecord) Last() (types.Attempt, bool) {
	if len(r.Attempts) == 0 {
		return types.Attempt{}, false
	}
	return r.Attempts[len(r.Attempts)-1], true
}

func (r *TestRecord) clone() *TestRecord {
	attempts := make([]types.Attempt, len(r.Attempts))
	copy(attempts, r.Attempts)
	return &TestRecord{Title: r.Title, Attempts: attempts}
}

// Store accumulates attempts for the duration of one run and is discarded
// after reduction. It preserves first-observed test order.
type Store struct {
	mu      sync.Mutex
	order   []string
	records map[string]*TestRecord
}

// NewStore creates an empty attempt store.
func NewStore() *Store {
	return &Store{
		records: make(map[string]*TestRecord),
	}
}

// Record appends an attempt to the record for title, creating the record on
// first observation. The attempt's index must equal the number of attempts
// already recorded for that test; anything else returns an *OrderingError.
// Safe for concurrent use.
func (s *Store) Record(title string, a types.Attempt) error {
	if title == "" {
		return fmt.Errorf("test title must not be empty")
	}
	if err := a.Validate(); err != nil {
		return fmt.Errorf("invalid attempt for %q: %w", title, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Check the index before registering the record: a rejected first
	// attempt must not leave an empty TestRecord behind.
	rec, exists := s.records[title]
	want := 0
	if exists {
		want = len(rec.Attempts)
	}
	if a.Index != want {
		return &OrderingError{Title: title, Got: a.Index, Want: want}
	}
	if !exists {
		rec = &TestRecord{Title: title}
		s.records[title] = rec
		s.order = append(s.order, title)
	}
	rec.Attempts = append(rec.Attempts, a)
	return nil
}

// Records returns a snapshot of all test records in first-observed order.
// The snapshot is a deep copy: it stays valid and unchanged even if more
// attempts are recorded while a consumer iterates it.
func (s *Store) Records() []*TestRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*TestRecord, 0, len(s.order))
	for _, title := range s.order {
		out = append(out, s.records[title].clone())
	}
	return out
}

// Len returns the number of distinct tests observed so far.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// TotalAttempts returns the number of attempts recorded across all tests.
func (s *Store) TotalAttempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, rec := range s.records {
		total += len(rec.Attempts)
	}
	return total
}
