package platform_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/jdoc/internal/platform"
	"github.com/aretw0/jdoc/pkg/adapters/fs"
	"github.com/aretw0/jdoc/pkg/adapters/memory"
	"github.com/aretw0/jdoc/pkg/adapters/sqlite"
	"github.com/aretw0/jdoc/pkg/contact"
	"github.com/aretw0/jdoc/pkg/core"
)

func TestOpenAdapters(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	fsRepo, err := platform.Open(ctx, filepath.Join(dir, "docs"), platform.WithFormat(fs.FormatYAML))
	require.NoError(t, err)
	assert.IsType(t, &fs.Repository{}, fsRepo)
	_, err = os.Stat(filepath.Join(dir, "docs"))
	assert.NoError(t, err, "fs root is created")

	sqlRepo, err := platform.Open(ctx, dir, platform.WithAdapter(platform.AdapterSQLite))
	require.NoError(t, err)
	require.IsType(t, &sqlite.Repository{}, sqlRepo)
	t.Cleanup(func() { _ = sqlRepo.(core.Closer).Close() })
	_, err = os.Stat(filepath.Join(dir, "jdoc.db"))
	assert.NoError(t, err, "directories get a default database file")

	memRepo, err := platform.Open(ctx, "", platform.WithAdapter(platform.AdapterMemory))
	require.NoError(t, err)
	assert.IsType(t, &memory.Repository{}, memRepo)

	_, err = platform.Open(ctx, dir, platform.WithAdapter("s3"))
	assert.Error(t, err)
}

func TestOpenOptions(t *testing.T) {
	ctx := context.Background()

	_, err := platform.Open(ctx, filepath.Join(t.TempDir(), "missing"), platform.WithMustExist(true))
	assert.Error(t, err)

	injected := memory.New()
	repo, err := platform.Open(ctx, "ignored", platform.WithRepository(injected))
	require.NoError(t, err)
	assert.Same(t, injected, repo)

	ro, err := platform.Open(ctx, t.TempDir(), platform.WithReadOnly(true))
	require.NoError(t, err)
	doc, err := core.New(core.Fields{"v": 1})
	require.NoError(t, err)
	assert.True(t, errors.Is(ro.Save(ctx, "a", doc), core.ErrReadOnly))
}

func TestOpenWithFamily(t *testing.T) {
	ctx := context.Background()
	family := contact.NewFamily()

	for _, adapter := range []string{platform.AdapterFS, platform.AdapterMemory, platform.AdapterSQLite} {
		t.Run(adapter, func(t *testing.T) {
			repo, err := platform.Open(ctx, t.TempDir(),
				platform.WithAdapter(adapter),
				platform.WithDecoder(family.Decoder()),
				platform.WithUniqueField(contact.FieldKey),
			)
			require.NoError(t, err)
			if c, ok := repo.(core.Closer); ok {
				t.Cleanup(func() { _ = c.Close() })
			}

			point := family.NewEmail("work", "a@example.com").MustBuild()
			require.NoError(t, repo.Save(ctx, "c/1", point.Document()))

			dup := family.NewEmail("WORK", "A@example.com").MustBuild()
			assert.True(t, errors.Is(repo.Save(ctx, "c/2", dup.Document()), core.ErrConflict))

			got, err := repo.Get(ctx, "c/1")
			require.NoError(t, err)
			p, err := family.As(got)
			require.NoError(t, err)
			assert.IsType(t, contact.Email{}, p)
		})
	}
}
