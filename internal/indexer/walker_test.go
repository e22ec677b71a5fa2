package indexer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestWalker_FiltersByExtension(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.go"), "package a")
	writeFile(t, filepath.Join(dir, "b.txt"), "not code")

	ignore, err := NewIgnoreMatcher()
	require.NoError(t, err)
	w := NewWalker(dir, []string{".go"}, ignore)

	files, err := w.Walk(context.Background())
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, filepath.Join(dir, "a.go"), files[0])
}

func TestWalker_PrunesIgnoredDirectories(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "node_modules", "pkg", "index.js"), "ignored")
	writeFile(t, filepath.Join(dir, "src", "main.go"), "package main")

	ignore, err := NewIgnoreMatcher([]string{"node_modules/"})
	require.NoError(t, err)
	w := NewWalker(dir, nil, ignore)

	files, err := w.Walk(context.Background())
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, filepath.Join(dir, "src", "main.go"), files[0])
}

func TestWalker_SkipDotDirs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".git", "config"), "ignored")
	writeFile(t, filepath.Join(dir, "main.go"), "package main")

	ignore, err := NewIgnoreMatcher()
	require.NoError(t, err)
	w := NewWalker(dir, nil, ignore)
	w.SkipDotDirs = true

	files, err := w.Walk(context.Background())
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, filepath.Join(dir, "main.go"), files[0])
}

func TestWalker_NoExtensionFilterAllowsEverything(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.go"), "package a")
	writeFile(t, filepath.Join(dir, "b.md"), "# doc")

	ignore, err := NewIgnoreMatcher()
	require.NoError(t, err)
	w := NewWalker(dir, nil, ignore)

	files, err := w.Walk(context.Background())
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestWalker_ContextCancellation(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 20; i++ {
		writeFile(t, filepath.Join(dir, "pkg", string(rune('a'+i))+".go"), "package pkg")
	}

	ignore, err := NewIgnoreMatcher()
	require.NoError(t, err)
	w := NewWalker(dir, nil, ignore)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = w.Walk(ctx)
	assert.Error(t, err)
}
