package bus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market/pkg/exception"
)

func TestWaitQueueFIFO(t *testing.T) {
	q := NewWaitQueue[int](4, OverflowDropNewest)
	for i := 0; i < 3; i++ {
		require.NoError(t, q.Push(i))
	}
	assert.Equal(t, 3, q.Len())
	for i := 0; i < 3; i++ {
		v, ok := q.Pop()
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
}

func TestWaitQueueDropNewest(t *testing.T) {
	q := NewWaitQueue[int](2, OverflowDropNewest)
	require.NoError(t, q.Push(1))
	require.NoError(t, q.Push(2))
	assert.ErrorIs(t, q.Push(3), exception.ErrQueueFull)
	assert.Equal(t, uint64(1), q.Dropped())

	v, _ := q.Pop()
	assert.Equal(t, 1, v)
}

func TestWaitQueueDropOldest(t *testing.T) {
	q := NewWaitQueue[int](2, OverflowDropOldest)
	require.NoError(t, q.Push(1))
	require.NoError(t, q.Push(2))
	require.NoError(t, q.Push(3))
	assert.Equal(t, uint64(1), q.Dropped())

	v, _ := q.Pop()
	assert.Equal(t, 2, v)
	v, _ = q.Pop()
	assert.Equal(t, 3, v)
}

func TestWaitQueuePopBlocksUntilPush(t *testing.T) {
	q := NewWaitQueue[string](1, OverflowBlock)
	got := make(chan string, 1)
	go func() {
		v, _ := q.Pop()
		got <- v
	}()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, q.Push("hello"))
	select {
	case v := <-got:
		assert.Equal(t, "hello", v)
	case <-time.After(time.Second):
		t.Fatal("pop did not wake up")
	}
}

func TestWaitQueueCloseWakesWaiters(t *testing.T) {
	q := NewWaitQueue[int](1, OverflowBlock)
	require.NoError(t, q.Push(7))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		// blocks on a full queue until Close
		_ = q.Push(8)
	}()
	time.Sleep(10 * time.Millisecond)
	q.Close()
	wg.Wait()

	v, ok := q.Pop()
	assert.True(t, ok)
	assert.Equal(t, 7, v)
	_, ok = q.Pop()
	assert.False(t, ok)
	assert.ErrorIs(t, q.Push(9), exception.ErrQueueClosed)
}

func TestWaitQueueRunStopsOnCancel(t *testing.T) {
	q := NewWaitQueue[int](8, OverflowBlock)
	ctx, cancel := context.WithCancel(context.Background())

	var mu sync.Mutex
	var seen []int
	done := make(chan struct{})
	go func() {
		q.Run(ctx, func(v int) {
			mu.Lock()
			seen = append(seen, v)
			mu.Unlock()
		})
		close(done)
	}()

	require.NoError(t, q.Push(1))
	require.NoError(t, q.Push(2))
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 2
	}, time.Second, time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("run did not stop")
	}
}
