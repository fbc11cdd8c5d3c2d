package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memKV struct {
	vals map[string]string
}

func newMemKV() *memKV { return &memKV{vals: map[string]string{}} }

func (m *memKV) Set(_ context.Context, key, value string, _ time.Duration) error {
	m.vals[key] = value
	return nil
}

func (m *memKV) Get(_ context.Context, key string) (string, error) {
	v, ok := m.vals[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *memKV) Del(_ context.Context, key string) error {
	delete(m.vals, key)
	return nil
}

func (m *memKV) Update(_ context.Context, key string, _ time.Duration, fn func(string, bool) (string, bool, error)) error {
	cur, exists := m.vals[key]
	next, write, err := fn(cur, exists)
	if err != nil || !write {
		return err
	}
	if next == "" {
		delete(m.vals, key)
	} else {
		m.vals[key] = next
	}
	return nil
}

func TestPutGetRoundtrip(t *testing.T) {
	ctx := context.Background()
	st := NewStore(newMemKV())

	in := &Session{
		JobID:       "01J0000000000000000000TEST",
		State:       StateAwaitingQuality,
		URL:         "https://youtu.be/dQw4w9WgXcQ",
		Format:      "video",
		StatusMsgID: 17,
		CreatedAt:   time.Now().Unix(),
	}
	require.NoError(t, st.Put(ctx, 100, in))

	out, err := st.Get(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestGetAbsent(t *testing.T) {
	st := NewStore(newMemKV())
	_, err := st.Get(context.Background(), 100)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPutReplaces(t *testing.T) {
	ctx := context.Background()
	st := NewStore(newMemKV())

	require.NoError(t, st.Put(ctx, 100, &Session{JobID: "a", State: StateAcquiring}))
	require.NoError(t, st.Put(ctx, 100, &Session{JobID: "b", State: StateAwaitingFormat}))

	out, err := st.Get(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, "b", out.JobID)
	assert.Equal(t, StateAwaitingFormat, out.State)
}

func TestClearIdempotent(t *testing.T) {
	ctx := context.Background()
	st := NewStore(newMemKV())

	require.NoError(t, st.Put(ctx, 100, &Session{JobID: "a", State: StateAcquiring}))
	require.NoError(t, st.Clear(ctx, 100))
	require.NoError(t, st.Clear(ctx, 100))

	_, err := st.Get(ctx, 100)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSwapAdvancesOwnedSession(t *testing.T) {
	ctx := context.Background()
	st := NewStore(newMemKV())

	require.NoError(t, st.Put(ctx, 100, &Session{JobID: "a", State: StateAcquiring}))
	swapped, err := st.Swap(ctx, 100, "a", StateAcquiring, func(s *Session) {
		s.FilePath = "/data/42_a.mp3"
		s.State = StateAwaitingDelivery
	})
	require.NoError(t, err)
	assert.True(t, swapped)

	out, err := st.Get(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingDelivery, out.State)
	assert.Equal(t, "/data/42_a.mp3", out.FilePath)
}

func TestSwapLosesWhenSuperseded(t *testing.T) {
	ctx := context.Background()
	st := NewStore(newMemKV())

	require.NoError(t, st.Put(ctx, 100, &Session{JobID: "b", State: StateAwaitingFormat}))
	swapped, err := st.Swap(ctx, 100, "a", StateAcquiring, func(s *Session) {
		s.State = StateAwaitingDelivery
	})
	require.NoError(t, err)
	assert.False(t, swapped)

	out, err := st.Get(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, "b", out.JobID, "a stale writer must not touch the new session")
	assert.Equal(t, StateAwaitingFormat, out.State)
}

func TestSwapWrongState(t *testing.T) {
	ctx := context.Background()
	st := NewStore(newMemKV())

	require.NoError(t, st.Put(ctx, 100, &Session{JobID: "a", State: StateAwaitingFormat}))
	swapped, err := st.Swap(ctx, 100, "a", StateAcquiring, func(s *Session) {})
	require.NoError(t, err)
	assert.False(t, swapped)
}

func TestSwapAbsentSession(t *testing.T) {
	st := NewStore(newMemKV())
	swapped, err := st.Swap(context.Background(), 100, "a", StateAcquiring, func(s *Session) {})
	require.NoError(t, err)
	assert.False(t, swapped)
}

func TestClearIfJob(t *testing.T) {
	ctx := context.Background()
	st := NewStore(newMemKV())

	require.NoError(t, st.Put(ctx, 100, &Session{JobID: "a", State: StateDelivering}))

	cleared, err := st.ClearIfJob(ctx, 100, "stale")
	require.NoError(t, err)
	assert.False(t, cleared)
	_, err = st.Get(ctx, 100)
	require.NoError(t, err, "a mismatched clear must not delete the session")

	cleared, err = st.ClearIfJob(ctx, 100, "a")
	require.NoError(t, err)
	assert.True(t, cleared)
	_, err = st.Get(ctx, 100)
	assert.ErrorIs(t, err, ErrNotFound)

	cleared, err = st.ClearIfJob(ctx, 100, "a")
	require.NoError(t, err)
	assert.False(t, cleared)
}

func TestChatsAreIsolated(t *testing.T) {
	ctx := context.Background()
	st := NewStore(newMemKV())

	require.NoError(t, st.Put(ctx, 1, &Session{JobID: "a", State: StateAcquiring}))
	require.NoError(t, st.Put(ctx, 2, &Session{JobID: "b", State: StateDelivering}))

	out, err := st.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "a", out.JobID)
}
