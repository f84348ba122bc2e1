package chaos

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPassThrough(t *testing.T) {
	e, err := NewEngine[int](Config{Seed: 1})
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		assert.Equal(t, []int{i}, e.Process(i))
	}
	assert.Nil(t, e.Flush())
	assert.Zero(t, e.Delay())
	assert.False(t, Config{}.Enabled())
}

func TestNilEngine(t *testing.T) {
	var e *Engine[int]
	assert.Equal(t, []int{7}, e.Process(7))
	assert.Nil(t, e.Flush())
	assert.Zero(t, e.Delay())
}

func TestDropAll(t *testing.T) {
	e, err := NewEngine[int](Config{Seed: 1, DropRate: 1})
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		assert.Empty(t, e.Process(i))
	}
}

func TestDuplicateAll(t *testing.T) {
	e, err := NewEngine[int](Config{Seed: 1, DuplicateRate: 1})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 3}, e.Process(3))
}

func TestReorderKeepsEveryItem(t *testing.T) {
	e, err := NewEngine[int](Config{Seed: 3, ReorderWindow: 4})
	require.NoError(t, err)

	var out []int
	for i := 0; i < 20; i++ {
		out = append(out, e.Process(i)...)
	}
	assert.Len(t, out, 17)
	out = append(out, e.Flush()...)

	sort.Ints(out)
	want := make([]int, 20)
	for i := range want {
		want[i] = i
	}
	assert.Equal(t, want, out)
}

func TestDelayBounds(t *testing.T) {
	e, err := NewEngine[int](Config{Seed: 1, Latency: 10 * time.Millisecond, Jitter: 5 * time.Millisecond})
	require.NoError(t, err)
	for i := 0; i < 100; i++ {
		d := e.Delay()
		assert.GreaterOrEqual(t, d, 10*time.Millisecond)
		assert.LessOrEqual(t, d, 15*time.Millisecond)
	}
}

func TestValidate(t *testing.T) {
	_, err := NewEngine[int](Config{DropRate: 2})
	assert.Error(t, err)
	_, err = NewEngine[int](Config{DuplicateRate: -1})
	assert.Error(t, err)
	_, err = NewEngine[int](Config{Latency: -time.Second})
	assert.Error(t, err)
	assert.True(t, Config{Jitter: time.Millisecond}.Enabled())
}
