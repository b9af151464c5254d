package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/jdoc/pkg/adapters/sqlite"
	"github.com/aretw0/jdoc/pkg/contact"
	"github.com/aretw0/jdoc/pkg/core"
)

func open(t *testing.T, cfg sqlite.Config) *sqlite.Repository {
	t.Helper()
	if cfg.Path == "" {
		cfg.Path = filepath.Join(t.TempDir(), "docs.db")
	}
	repo := sqlite.NewRepository(cfg)
	require.NoError(t, repo.Initialize(context.Background()))
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestSaveGetDelete(t *testing.T) {
	ctx := context.Background()
	repo := open(t, sqlite.Config{})

	doc, err := core.New(core.Fields{"name": "alice", "_rev": 3, "nested": map[string]any{"a": []int{1, 2}}})
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, "people/alice", doc))

	got, err := repo.Get(ctx, "people/alice")
	require.NoError(t, err)
	assert.True(t, doc.Equal(got))
	assert.True(t, got.Exists("_rev"), "internal fields are stored")

	// Upsert.
	updated, err := doc.With("name", "alicia")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, "people/alice", updated))
	got, err = repo.Get(ctx, "people/alice")
	require.NoError(t, err)
	assert.True(t, updated.Equal(got))

	require.NoError(t, repo.Delete(ctx, "people/alice"))
	_, err = repo.Get(ctx, "people/alice")
	assert.True(t, errors.Is(err, core.ErrNotFound))
	assert.True(t, errors.Is(repo.Delete(ctx, "people/alice"), core.ErrNotFound))
}

func TestFindWithJSONCondition(t *testing.T) {
	ctx := context.Background()
	family := contact.NewFamily()
	repo := open(t, sqlite.Config{UniqueField: contact.FieldKey, Decoder: family.Decoder()})

	points := map[string]contact.Point{
		"c/1": family.NewEmail("work", "a@example.com").MustBuild(),
		"c/2": family.NewEmail("home", "b@example.com").MustBuild(),
		"c/3": family.NewPhone("work", "+14155552671").MustBuild(),
	}
	for id, p := range points {
		require.NoError(t, repo.Save(ctx, id, p.Document()))
	}

	work, err := repo.Find(ctx, `json_extract(body, '$.context') = 'work'`)
	require.NoError(t, err)
	require.Len(t, work, 2)
	assert.Equal(t, "c/1", work[0].ID)
	assert.Equal(t, "c/3", work[1].ID)

	p, err := family.As(work[1].Doc)
	require.NoError(t, err)
	assert.IsType(t, contact.Phone{}, p)

	all, err := repo.Find(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = repo.Find(ctx, "no_such_column = 1")
	assert.Error(t, err)
}

func TestUniqueKeyConflict(t *testing.T) {
	ctx := context.Background()
	family := contact.NewFamily()
	repo := open(t, sqlite.Config{UniqueField: contact.FieldKey, Decoder: family.Decoder()})

	first := family.NewEmail("home", "a@example.com").MustBuild()
	require.NoError(t, repo.Save(ctx, "1", first.Document()))

	next, err := family.IncreaseFamiliarity(first)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, "1", next.Document()), "same id keeps its key")

	dup := family.NewEmail("Home", "A@Example.com").MustBuild()
	err = repo.Save(ctx, "2", dup.Document())
	assert.True(t, errors.Is(err, core.ErrConflict), "got %v", err)

	// Documents without the key field do not collide.
	plain, err := core.New(core.Fields{"v": 1})
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, "3", plain))
	require.NoError(t, repo.Save(ctx, "4", plain))
}

func TestInMemoryAndState(t *testing.T) {
	ctx := context.Background()
	repo := open(t, sqlite.Config{Path: ":memory:"})

	doc, err := core.New(core.Fields{"v": 1})
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, "a", doc))
	_, err = repo.Find(ctx, "")
	require.NoError(t, err)

	state, ok := repo.State().(sqlite.RepositoryState)
	require.True(t, ok)
	assert.True(t, state.Open)
	assert.EqualValues(t, 1, state.Saves)
	assert.EqualValues(t, 1, state.Finds)
	assert.Equal(t, "repository", repo.ComponentType())

	require.NoError(t, repo.Close())
	_, err = repo.Get(ctx, "a")
	assert.Error(t, err, "closed repositories refuse work")
}

func TestReadOnly(t *testing.T) {
	repo := open(t, sqlite.Config{ReadOnly: true})
	doc, err := core.New(core.Fields{"v": 1})
	require.NoError(t, err)
	assert.True(t, errors.Is(repo.Save(context.Background(), "a", doc), core.ErrReadOnly))
	assert.True(t, errors.Is(repo.Delete(context.Background(), "a"), core.ErrReadOnly))
}
