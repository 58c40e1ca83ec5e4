package memstore

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func records(rs ...Record) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		for _, r := range rs {
			if !yield(r, nil) {
				return
			}
		}
	}
}

func users(n int) []Record {
	rs := make([]Record, n)
	for i := range rs {
		rs[i] = Record{Table: "users", Key: fmt.Sprint(i), Fields: map[string]any{"id": int64(i)}}
	}
	return rs
}

func TestStore_LoadAndQuery(t *testing.T) {
	s, err := New()
	require.NoError(t, err)

	rs := append(users(5), Record{Table: "orders", Key: "o-1", Fields: map[string]any{"total": 9.5}})
	n, err := s.Load(context.Background(), records(rs...), 2)
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	rec, err := s.Get("users", "3")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, int64(3), rec.Fields["id"])

	missing, err := s.Get("users", "42")
	require.NoError(t, err)
	assert.Nil(t, missing)

	count, err := s.Count("users")
	require.NoError(t, err)
	assert.Equal(t, 5, count)

	tables, err := s.Tables()
	require.NoError(t, err)
	assert.Equal(t, []string{"orders", "users"}, tables)
}

func TestStore_LoadReplacesExistingKey(t *testing.T) {
	s, err := New()
	require.NoError(t, err)

	_, err = s.Load(context.Background(), records(
		Record{Table: "users", Key: "1", Fields: map[string]any{"name": "old"}},
		Record{Table: "users", Key: "1", Fields: map[string]any{"name": "new"}},
	), 10)
	require.NoError(t, err)

	rec, err := s.Get("users", "1")
	require.NoError(t, err)
	assert.Equal(t, "new", rec.Fields["name"])
	count, err := s.Count("users")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestStore_LoadStopsOnSourceError(t *testing.T) {
	s, err := New()
	require.NoError(t, err)

	boom := errors.New("source failed")
	seq := func(yield func(Record, error) bool) {
		for _, r := range users(5) {
			if !yield(r, nil) {
				return
			}
		}
		yield(Record{}, boom)
	}

	n, err := s.Load(context.Background(), seq, 2)
	require.ErrorIs(t, err, boom)
	// two full batches were committed, the open one was aborted
	assert.Equal(t, 4, n)
	count, err := s.Count("users")
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestStore_LoadHonoursContext(t *testing.T) {
	s, err := New()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n, err := s.Load(ctx, records(users(3)...), 1)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, n)
}

func TestStore_LoadRejectsInvalidInput(t *testing.T) {
	s, err := New()
	require.NoError(t, err)

	_, err = s.Load(context.Background(), records(users(1)...), 0)
	require.Error(t, err)

	_, err = s.Load(context.Background(), records(Record{Table: "users"}), 1)
	require.Error(t, err, "a record without a key cannot be indexed")
}
