package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/contextindex/internal/indexer"
)

func TestRunClear_DropsCollection(t *testing.T) {
	dir := t.TempDir()
	writeSampleRepo(t, dir)
	chdir(t, dir)

	quietFlag = true
	clearQuietFlag = true
	defer func() { quietFlag = false; clearQuietFlag = false }()

	require.NoError(t, runIndex(indexCmd, nil))
	require.NoError(t, runClear(clearCmd, nil))

	manager, closeStore, err := buildManager(dir)
	require.NoError(t, err)
	defer closeStore()

	name, err := indexer.CollectionName(dir, manager.Config.Hybrid)
	require.NoError(t, err)
	has, err := manager.Store.HasCollection(context.Background(), name)
	require.NoError(t, err)
	assert.False(t, has)
}
