package msgq

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRingRoundsCapacityUp(t *testing.T) {
	t.Parallel()
	require.Equal(t, 8, New[int](5).Cap())
	require.Equal(t, 1, New[int](0).Cap())
	require.Equal(t, 64, New[int](64).Cap())
}

func TestRingFIFOAndFull(t *testing.T) {
	t.Parallel()
	r := New[int](4)
	for i := 0; i < 4; i++ {
		require.True(t, r.TryPush(i))
	}
	require.False(t, r.TryPush(99))
	require.Equal(t, 4, r.Len())

	v, ok := r.Peek()
	require.True(t, ok)
	require.Equal(t, 0, v)
	for i := 0; i < 4; i++ {
		v, ok := r.Pop()
		require.True(t, ok)
		require.Equal(t, i, v)
	}
	_, ok = r.Pop()
	require.False(t, ok)
}

func TestPushWaitsForConsumer(t *testing.T) {
	t.Parallel()
	r := New[int](2)
	require.True(t, r.TryPush(1))
	require.True(t, r.TryPush(2))

	done := make(chan error, 1)
	go func() { done <- r.Push(context.Background(), 3) }()

	select {
	case err := <-done:
		t.Fatalf("push returned early: %v", err)
	case <-time.After(10 * time.Millisecond):
	}
	_, ok := r.Pop()
	require.True(t, ok)
	require.NoError(t, <-done)
	require.NotZero(t, r.Blocked())

	got := []int{}
	for {
		v, ok := r.Pop()
		if !ok {
			break
		}
		got = append(got, v)
	}
	require.Equal(t, []int{2, 3}, got)
}

func TestPushHonoursContext(t *testing.T) {
	t.Parallel()
	r := New[int](1)
	require.True(t, r.TryPush(1))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, r.Push(ctx, 2), context.DeadlineExceeded)
}

func TestClosedRingRejectsPushes(t *testing.T) {
	t.Parallel()
	r := New[int](4)
	require.True(t, r.TryPush(1))
	r.Close()
	require.False(t, r.TryPush(2))
	require.ErrorIs(t, r.Push(context.Background(), 2), ErrClosed)
	v, ok := r.Pop()
	require.True(t, ok)
	require.Equal(t, 1, v)
}

func TestConcurrentProducersSingleConsumer(t *testing.T) {
	t.Parallel()
	const producers, per = 4, 500
	r := New[int](16)
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < per; i++ {
				if err := r.Push(context.Background(), 1); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	sum := 0
	deadline := time.Now().Add(5 * time.Second)
	for sum < producers*per && time.Now().Before(deadline) {
		if v, ok := r.Pop(); ok {
			sum += v
		}
	}
	wg.Wait()
	require.Equal(t, producers*per, sum)
}
