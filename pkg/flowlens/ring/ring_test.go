package ring

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRing(t *testing.T) {
	r := New[int](3)
	assert.Equal(t, 3, r.Cap())
	assert.Empty(t, r.Items())

	r.Push(1)
	r.Push(2)
	assert.Equal(t, []int{1, 2}, r.Items())
	assert.Equal(t, []int{2, 1}, r.Newest(0))

	r.Push(3)
	r.Push(4)
	r.Push(5)
	assert.Equal(t, 3, r.Len())
	assert.Equal(t, []int{3, 4, 5}, r.Items())
	assert.Equal(t, []int{5, 4, 3}, r.Newest(0))
	assert.Equal(t, []int{5, 4}, r.Newest(2))
	assert.Equal(t, []int{5, 4, 3}, r.Newest(10))
}

func TestRing_Clear(t *testing.T) {
	r := New[string](2)
	r.Push("a")
	r.Push("b")
	r.Push("c")
	r.Clear()

	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.Newest(0))

	r.Push("d")
	assert.Equal(t, []string{"d"}, r.Items())
}

func TestRing_MinimumCapacity(t *testing.T) {
	r := New[int](0)
	r.Push(1)
	r.Push(2)
	assert.Equal(t, []int{2}, r.Items())
}

func TestRing_Concurrent(t *testing.T) {
	r := New[int](10)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r.Push(i)
			_ = r.Newest(3)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, r.Len())
}
