package quota

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memCounter struct {
	mu   sync.Mutex
	vals map[string]int64
}

func newMemCounter() *memCounter { return &memCounter{vals: map[string]int64{}} }

func (m *memCounter) Incr(_ context.Context, key string, _ time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vals[key]++
	return m.vals[key], nil
}

func (m *memCounter) Decr(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vals[key]--
	return nil
}

func (m *memCounter) Get(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.vals[key], nil
}

func TestConsumeUpToLimit(t *testing.T) {
	ctx := context.Background()
	l := New(newMemCounter(), 3)

	for i := 0; i < 3; i++ {
		ok, err := l.Consume(ctx, 42)
		require.NoError(t, err)
		assert.True(t, ok, "attempt %d should be allowed", i+1)
	}
	ok, err := l.Consume(ctx, 42)
	require.NoError(t, err)
	assert.False(t, ok)

	used, err := l.Peek(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(3), used, "rejected attempt must not raise the count")
}

func TestConsumeConcurrent(t *testing.T) {
	ctx := context.Background()
	const limit = 5
	l := New(newMemCounter(), limit)

	var wg sync.WaitGroup
	var mu sync.Mutex
	granted := 0
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := l.Consume(ctx, 7)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, limit, granted)
	used, err := l.Peek(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(limit), used)
}

func TestUsersAreIndependent(t *testing.T) {
	ctx := context.Background()
	l := New(newMemCounter(), 1)

	ok, err := l.Consume(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = l.Consume(ctx, 2)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRemaining(t *testing.T) {
	ctx := context.Background()
	l := New(newMemCounter(), 2)

	rem, err := l.Remaining(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rem)

	_, err = l.Consume(ctx, 9)
	require.NoError(t, err)
	rem, err = l.Remaining(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rem)
}

func TestPeekDoesNotMutate(t *testing.T) {
	ctx := context.Background()
	l := New(newMemCounter(), 2)

	for i := 0; i < 3; i++ {
		used, err := l.Peek(ctx, 5)
		require.NoError(t, err)
		assert.Equal(t, int64(0), used)
	}
}
