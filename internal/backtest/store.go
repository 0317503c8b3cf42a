package backtest

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/quantbt/internal/contracts"
)

// Observation is one (instance, date, group) entry awaiting backtest.
// Immutable once stored; replace by remove + insert.
type Observation struct {
	ID    string    // base code plus "_" plus per-code sequence number
	Date  time.Time // signal (capture) date
	Group string
}

// BaseCode returns the instrument code without the sequence suffix.
func (o Observation) BaseCode() string {
	if i := strings.LastIndex(o.ID, "_"); i >= 0 {
		return o.ID[:i]
	}
	return o.ID
}

// Store is the ordered, append-only observation registry. The same base code
// may be inserted many times; each insertion gets the next sequence number
// for that code, and numbers are never reused even after removal.
type Store struct {
	list []Observation
	seqs map[string]int
}

// NewStore creates an empty observation store.
func NewStore() *Store {
	return &Store{seqs: make(map[string]int)}
}

// Insert appends an observation and returns it with its assigned instance id.
func (s *Store) Insert(code string, date time.Time, group string) Observation {
	seq := s.seqs[code]
	s.seqs[code] = seq + 1

	obs := Observation{
		ID:    code + "_" + strconv.Itoa(seq),
		Date:  date,
		Group: group,
	}
	s.list = append(s.list, obs)
	return obs
}

// RemoveLast removes the most recently inserted observation.
func (s *Store) RemoveLast() error {
	if len(s.list) == 0 {
		return fmt.Errorf("%w: store is empty", contracts.ErrInvalidArgument)
	}
	s.list = s.list[:len(s.list)-1]
	return nil
}

// Remove removes the first observation that matches obs exactly. A missing
// observation is an error, not a no-op.
func (s *Store) Remove(obs Observation) error {
	for i, o := range s.list {
		if o == obs {
			s.list = append(s.list[:i], s.list[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: observation %s not found", contracts.ErrInvalidArgument, obs.ID)
}

// Clear removes all observations. Sequence counters are kept so cleared ids
// stay retired.
func (s *Store) Clear() {
	s.list = s.list[:0]
}

// Len returns the number of stored observations.
func (s *Store) Len() int {
	return len(s.list)
}

// Snapshot returns an independent copy of the stored sequence.
func (s *Store) Snapshot() []Observation {
	out := make([]Observation, len(s.list))
	copy(out, s.list)
	return out
}
