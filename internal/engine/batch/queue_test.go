package batch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueSet_PushPop(t *testing.T) {
	var qs QueueSet

	require.NoError(t, qs.Push(Job{ID: 1, Category: CategoryAI}))
	require.NoError(t, qs.Push(Job{ID: 2, Category: CategoryPhysics}))
	require.NoError(t, qs.Push(Job{ID: 3, Category: CategoryAI}))
	require.ErrorIs(t, qs.Push(Job{ID: 4, Category: Category(5)}), ErrInvalidCategory)

	assert.Equal(t, 3, qs.Total())
	assert.Equal(t, 2, qs.Len(CategoryAI))
	assert.Equal(t, 0, qs.Len(Category(5)))

	head, ok := qs.Front(CategoryAI)
	require.True(t, ok)
	assert.Equal(t, JobID(1), head.ID)
	assert.Equal(t, 3, qs.Total(), "Front does not remove")

	var order []JobID
	for {
		j, ok := qs.PopNext()
		if !ok {
			break
		}
		order = append(order, j.ID)
	}
	assert.Equal(t, []JobID{2, 1, 3}, order)
	assert.Equal(t, 0, qs.Total())

	_, ok = qs.PopFront(CategoryAI)
	assert.False(t, ok)
	_, ok = qs.PopFront(Category(200))
	assert.False(t, ok)
	_, ok = qs.Front(Category(200))
	assert.False(t, ok)
}

func TestQueueSet_CompactionPreservesOrder(t *testing.T) {
	var qs QueueSet
	next := JobID(1)
	want := JobID(1)

	// Interleave pushes and pops so the head crosses the compaction threshold
	// several times while the queue is never empty.
	for round := range 10 {
		for range 50 {
			require.NoError(t, qs.Push(Job{ID: next, Category: CategoryLOD}))
			next++
		}
		for range 40 {
			j, ok := qs.PopFront(CategoryLOD)
			require.True(t, ok, "round %d", round)
			require.Equal(t, want, j.ID)
			want++
		}
	}

	assert.Equal(t, 100, qs.Len(CategoryLOD))
	for qs.Len(CategoryLOD) > 0 {
		j, _ := qs.PopFront(CategoryLOD)
		require.Equal(t, want, j.ID)
		want++
	}
	assert.Equal(t, next, want)
}

func TestQueueSet_Clear(t *testing.T) {
	var qs QueueSet
	for i, cat := range Categories() {
		require.NoError(t, qs.Push(Job{ID: JobID(i + 1), Category: cat}))
	}
	j, ok := qs.PopFront(CategoryTransform)
	require.True(t, ok)
	assert.Equal(t, JobID(1), j.ID)

	assert.Equal(t, 4, qs.Clear())
	assert.Equal(t, 0, qs.Total())
	for _, cat := range Categories() {
		assert.Equal(t, 0, qs.Len(cat))
	}
	assert.Equal(t, 0, qs.Clear())
}
