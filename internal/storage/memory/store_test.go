package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/autovis/internal/interfaces"
	"github.com/ternarybob/autovis/internal/models"
)

func TestPutGet(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	job := models.NewJob("j1")
	require.NoError(t, store.Put(ctx, job))

	got, err := store.Get(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, "j1", got.ID)
	assert.Equal(t, models.JobStatusPending, got.Status)
}

func TestGetNotFound(t *testing.T) {
	store := NewStore()
	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, interfaces.ErrJobNotFound)
}

func TestUpdate(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, models.NewJob("j1")))
	require.NoError(t, store.Update(ctx, "j1", func(j *models.Job) {
		j.Status = models.JobStatusProcessing
		j.SetProgress("analyzing", 12)
	}))

	got, err := store.Get(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusProcessing, got.Status)
	assert.Equal(t, 12, got.Progress)

	err = store.Update(ctx, "missing", func(j *models.Job) {})
	assert.ErrorIs(t, err, interfaces.ErrJobNotFound)
}

func TestGetReturnsCopy(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, models.NewJob("j1")))

	got, err := store.Get(ctx, "j1")
	require.NoError(t, err)
	got.Progress = 99

	again, err := store.Get(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, 0, again.Progress)
}

func TestListCount(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Put(ctx, models.NewJob(fmt.Sprintf("j%d", i))))
	}

	jobs, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, jobs, 5)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestConcurrentAccess(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, models.NewJob("shared")))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			_ = store.Update(ctx, "shared", func(j *models.Job) {
				j.SetProgress("step", n)
			})
		}(i)
		go func() {
			defer wg.Done()
			_, _ = store.Get(ctx, "shared")
		}()
	}
	wg.Wait()

	got, err := store.Get(ctx, "shared")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, got.Progress, 0)
	assert.LessOrEqual(t, got.Progress, 19)
}
