package frame

import (
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/framebatch/internal/engine/batch"
)

func TestInbox_FlushPreservesArrivalOrder(t *testing.T) {
	ctrl, err := batch.NewController()
	require.NoError(t, err)
	in := NewInbox(zerolog.Nop())

	var ran []int
	for i := range 5 {
		in.SubmitFunc(batch.CategoryPhysics, func() { ran = append(ran, i) }, 0.2)
	}
	assert.Equal(t, 5, in.Pending())

	n, err := in.Flush(ctrl)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, 0, in.Pending())
	assert.Equal(t, 5, ctrl.QueueDepth(batch.CategoryPhysics))

	ctrl.Dispatch(t.Context())
	assert.Equal(t, []int{0, 1, 2, 3, 4}, ran)
}

func TestInbox_FlushJoinsErrors(t *testing.T) {
	ctrl, err := batch.NewController()
	require.NoError(t, err)
	in := NewInbox(zerolog.Nop())

	in.SubmitFunc(batch.CategoryAI, func() {}, 0.1)
	in.SubmitFunc(batch.Category(42), func() {}, 0.1)
	in.Submit(batch.CategoryLOD, nil, 0.1)
	in.SubmitFunc(batch.CategoryTransform, nil, 0.1)
	in.SubmitFunc(batch.CategoryLOD, func() {}, 0.1)

	n, err := in.Flush(ctrl)
	require.Error(t, err)
	assert.Equal(t, 2, n, "valid submissions still land")
	require.ErrorIs(t, err, batch.ErrInvalidCategory)
	require.ErrorIs(t, err, batch.ErrNilWork)
	assert.Contains(t, err.Error(), "submission 1")
	assert.Equal(t, 2, ctrl.TotalQueued())
}

func TestInbox_ConcurrentSubmit(t *testing.T) {
	ctrl, err := batch.NewController()
	require.NoError(t, err)
	in := NewInbox(zerolog.Nop())

	const producers, perProducer = 8, 250
	var wg sync.WaitGroup
	for p := range producers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cat := batch.Category(p % batch.NumCategories)
			for range perProducer {
				in.SubmitFunc(cat, func() {}, 0.3)
			}
		}()
	}
	wg.Wait()

	n, err := in.Flush(ctrl)
	require.NoError(t, err)
	assert.Equal(t, producers*perProducer, n)
	assert.Equal(t, producers*perProducer, ctrl.TotalQueued())
}

func TestInbox_FlushEmpty(t *testing.T) {
	ctrl, err := batch.NewController()
	require.NoError(t, err)

	n, err := NewInbox(zerolog.Nop()).Flush(ctrl)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
