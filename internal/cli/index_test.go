package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func writeSampleRepo(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte(`package main

func main() {
	println("hello")
}
`), 0o644))
}

func TestRunIndex_IndexesSampleRepo(t *testing.T) {
	dir := t.TempDir()
	writeSampleRepo(t, dir)
	chdir(t, dir)

	quietFlag = true
	forceFlag = false
	defer func() { quietFlag = false }()

	err := runIndex(indexCmd, nil)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, storeDBRelPath))
	assert.NoError(t, err)
}

func TestRunIndex_ForceReindex(t *testing.T) {
	dir := t.TempDir()
	writeSampleRepo(t, dir)
	chdir(t, dir)

	quietFlag = true
	defer func() { quietFlag = false; forceFlag = false }()

	require.NoError(t, runIndex(indexCmd, nil))

	forceFlag = true
	require.NoError(t, runIndex(indexCmd, nil))
}
