package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindPDFs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o755))

	for _, name := range []string{"b.pdf", "a.PDF", "notes.txt", "nested/c.pdf"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("%PDF-1.4"), 0o644))
	}

	paths, err := findPDFs(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.PDF"),
		filepath.Join(dir, "b.pdf"),
		filepath.Join(dir, "nested", "c.pdf"),
	}, paths)
}

func TestFindPDFs_MissingDir(t *testing.T) {
	_, err := findPDFs(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
