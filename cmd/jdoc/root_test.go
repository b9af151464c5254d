package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDocument(t *testing.T) {
	jsonc := writeFile(t, "a.json", "{\n  // display name\n  \"Name\": \"Ada\",\n  \"_rev\": 1\n}")
	yml := writeFile(t, "b.yaml", "name: Ada\n_rev: 1\n")

	a, err := loadDocument(jsonc)
	require.NoError(t, err)
	b, err := loadDocument(yml)
	require.NoError(t, err)
	assert.True(t, a.Equal(b))
	assert.Equal(t, `{"name":"Ada"}`, a.String())
}

func TestLoadDocumentWithFamily(t *testing.T) {
	familyName = "contact"
	t.Cleanup(func() { familyName = "" })

	valid := writeFile(t, "c.json", `{"context":"Work","type":"email","value":"ada@example.com"}`)
	doc, err := loadDocument(valid)
	require.NoError(t, err)
	assert.Equal(t, "contact.email", doc.Schema().Name)
	key, ok := doc.Text("_key")
	require.True(t, ok)
	assert.Equal(t, "work:email:ada@example.com", key)

	invalid := writeFile(t, "d.json", `{"context":"work","type":"email","value":"not-an-address"}`)
	_, err = loadDocument(invalid)
	assert.Error(t, err)

	familyName = "unknown"
	_, err = loadDocument(valid)
	assert.Error(t, err)
}

func TestOpenRepositoryFromFlags(t *testing.T) {
	storePath = t.TempDir()
	adapter = "fs"
	format = "yaml"
	t.Cleanup(func() { storePath, format = "", "json" })

	repo, err := openRepository(context.Background())
	require.NoError(t, err)
	defer closeRepository(repo)

	doc, err := loadDocument(writeFile(t, "e.json", `{"v":1}`))
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), "x", doc))
	_, err = os.Stat(filepath.Join(storePath, "x.yaml"))
	assert.NoError(t, err)
}
