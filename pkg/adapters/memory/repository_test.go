package memory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/jdoc/pkg/adapters/memory"
	"github.com/aretw0/jdoc/pkg/core"
)

func doc(t *testing.T, fields core.Fields) *core.Document {
	t.Helper()
	d, err := core.New(fields)
	require.NoError(t, err)
	return d
}

func TestCRUD(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	require.NoError(t, repo.Initialize(ctx))

	a := doc(t, core.Fields{"name": "a"})
	require.NoError(t, repo.Save(ctx, "x/a", a))

	got, err := repo.Get(ctx, "x/a")
	require.NoError(t, err)
	assert.Same(t, a, got)

	_, err = repo.Get(ctx, "x/b")
	assert.True(t, errors.Is(err, core.ErrNotFound))

	require.NoError(t, repo.Delete(ctx, "x/a"))
	assert.True(t, errors.Is(repo.Delete(ctx, "x/a"), core.ErrNotFound))

	assert.True(t, errors.Is(repo.Save(ctx, "", a), core.ErrValidation))
}

func TestFind(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	for _, id := range []string{"c/2", "c/1", "c/deep/3", "n/1"} {
		require.NoError(t, repo.Save(ctx, id, doc(t, core.Fields{"id": id})))
	}

	all, err := repo.Find(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "c/1", all[0].ID, "sorted by id")

	shallow, err := repo.Find(ctx, "c/*")
	require.NoError(t, err)
	assert.Len(t, shallow, 2)

	deep, err := repo.Find(ctx, "c/**")
	require.NoError(t, err)
	assert.Len(t, deep, 3)

	_, err = repo.Find(ctx, "c/[")
	assert.True(t, errors.Is(err, core.ErrValidation))
}

func TestUniqueField(t *testing.T) {
	ctx := context.Background()
	repo := memory.New(memory.WithUniqueField("_key"))

	require.NoError(t, repo.Save(ctx, "1", doc(t, core.Fields{"_key": "k1"})))
	require.NoError(t, repo.Save(ctx, "1", doc(t, core.Fields{"_key": "k1", "v": 2})), "same id may keep its key")

	err := repo.Save(ctx, "2", doc(t, core.Fields{"_key": "k1"}))
	assert.True(t, errors.Is(err, core.ErrConflict))

	// Releasing the key by changing it frees it for others.
	require.NoError(t, repo.Save(ctx, "1", doc(t, core.Fields{"_key": "k2"})))
	require.NoError(t, repo.Save(ctx, "2", doc(t, core.Fields{"_key": "k1"})))

	require.NoError(t, repo.Delete(ctx, "1"))
	require.NoError(t, repo.Save(ctx, "3", doc(t, core.Fields{"_key": "k2"})))

	state := repo.State().(memory.RepositoryState)
	assert.Equal(t, 2, state.Documents)
	assert.Equal(t, 2, state.Keys)
}

func TestWatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	repo := memory.New()

	events, err := repo.Watch(ctx, "c/**")
	require.NoError(t, err)

	require.NoError(t, repo.Save(ctx, "c/1", doc(t, core.Fields{"v": 1})))
	require.NoError(t, repo.Save(ctx, "n/1", doc(t, core.Fields{"v": 1})))
	require.NoError(t, repo.Save(ctx, "c/1", doc(t, core.Fields{"v": 2})))
	require.NoError(t, repo.Delete(ctx, "c/1"))

	var got []core.EventType
	for range 3 {
		select {
		case e := <-events:
			assert.Equal(t, "c/1", e.ID)
			got = append(got, e.Type)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for events")
		}
	}
	assert.Equal(t, []core.EventType{core.EventCreate, core.EventModify, core.EventDelete}, got)

	cancel()
	assert.Eventually(t, func() bool {
		_, open := <-events
		return !open
	}, time.Second, 10*time.Millisecond)
}

func TestConcurrentSaves(t *testing.T) {
	ctx := context.Background()
	repo := memory.New(memory.WithUniqueField("_key"))

	shared := doc(t, core.Fields{"_key": "shared"})
	var wg sync.WaitGroup
	var mu sync.Mutex
	conflicts := 0
	for i := range 20 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := repo.Save(ctx, string(rune('a'+i)), shared)
			if errors.Is(err, core.ErrConflict) {
				mu.Lock()
				conflicts++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 19, conflicts, "exactly one writer wins the key")
}
