package backtest

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/quantbt/internal/contracts"
)

var testDate = time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)

func TestStore_InsertAssignsSequentialIDs(t *testing.T) {
	s := NewStore()

	a := s.Insert("005930", testDate, "A")
	b := s.Insert("005930", testDate.AddDate(0, 0, 1), "A")
	c := s.Insert("000660", testDate, "B")

	assert.Equal(t, "005930_0", a.ID)
	assert.Equal(t, "005930_1", b.ID)
	assert.Equal(t, "000660_0", c.ID)
	assert.Equal(t, 3, s.Len())
}

func TestStore_SequenceNumbersNeverReused(t *testing.T) {
	s := NewStore()

	s.Insert("005930", testDate, "A")
	require.NoError(t, s.RemoveLast())

	obs := s.Insert("005930", testDate, "A")
	assert.Equal(t, "005930_1", obs.ID, "removed ids stay retired")
}

func TestStore_ClearKeepsSequences(t *testing.T) {
	s := NewStore()

	s.Insert("005930", testDate, "A")
	s.Insert("005930", testDate, "A")
	s.Clear()

	assert.Equal(t, 0, s.Len())
	obs := s.Insert("005930", testDate, "A")
	assert.Equal(t, "005930_2", obs.ID)
}

func TestStore_RemoveExactMatch(t *testing.T) {
	s := NewStore()

	a := s.Insert("005930", testDate, "A")
	b := s.Insert("000660", testDate, "A")

	require.NoError(t, s.Remove(a))
	assert.Equal(t, []Observation{b}, s.Snapshot())

	err := s.Remove(a)
	require.Error(t, err, "removing a missing observation is an error, not a no-op")
	assert.True(t, errors.Is(err, contracts.ErrInvalidArgument))
}

func TestStore_RemoveLastOnEmpty(t *testing.T) {
	s := NewStore()

	err := s.RemoveLast()
	require.Error(t, err)
	assert.True(t, errors.Is(err, contracts.ErrInvalidArgument))
}

func TestStore_SnapshotIsIndependent(t *testing.T) {
	s := NewStore()
	s.Insert("005930", testDate, "A")

	snap := s.Snapshot()
	require.NoError(t, s.RemoveLast())

	assert.Len(t, snap, 1, "snapshot must not see later mutations")
	assert.Equal(t, 0, s.Len())
}

func TestObservation_BaseCode(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{id: "005930_0", want: "005930"},
		{id: "005930_12", want: "005930"},
		{id: "plain", want: "plain"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Observation{ID: tt.id}.BaseCode())
	}
}
