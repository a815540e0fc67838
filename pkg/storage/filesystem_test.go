package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageSaveAndOpen(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	stored, err := store.Save("reports/forecast-1.pdf", []byte("%PDF-1.3"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("reports", "forecast-1.pdf"), stored)

	data, err := store.Open(stored)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.3"), data)
}

func TestLocalStorageRejectsEscapingPaths(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)

	_, err = store.Save("../outside.txt", []byte("nope"))
	require.Error(t, err)

	_, err = store.Save("/etc/passwd", []byte("nope"))
	require.Error(t, err)

	_, err = store.Open("../outside.txt")
	require.Error(t, err)

	entries, err := os.ReadDir(filepath.Dir(dir))
	require.NoError(t, err)
	for _, entry := range entries {
		assert.NotEqual(t, "outside.txt", entry.Name())
	}
}

func TestLocalStorageCreatesBaseDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "exports")

	_, err := NewLocalStorage(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
