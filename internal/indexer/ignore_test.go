package indexer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIgnoreMatcher_DirectoryRule(t *testing.T) {
	m, err := NewIgnoreMatcher([]string{"node_modules/"})
	require.NoError(t, err)

	assert.True(t, m.Match("node_modules/pkg/index.js"))
	assert.False(t, m.Match("src/node_modules_data/index.js"))
}

func TestIgnoreMatcher_ExtensionGlob(t *testing.T) {
	m, err := NewIgnoreMatcher([]string{"*.log"})
	require.NoError(t, err)

	assert.True(t, m.Match("debug.log"))
	assert.True(t, m.Match("nested/dir/debug.log"))
	assert.False(t, m.Match("debug.log.txt"))
}

func TestIgnoreMatcher_PathPattern(t *testing.T) {
	m, err := NewIgnoreMatcher([]string{"src/generated/*.go"})
	require.NoError(t, err)

	assert.True(t, m.Match("src/generated/models.go"))
	assert.False(t, m.Match("src/handwritten/models.go"))
}

func TestSimplifyGlob_CollapsesStarRuns(t *testing.T) {
	assert.Equal(t, "*/foo", simplifyGlob("**/foo"))
	assert.Equal(t, "foo/*", simplifyGlob("foo/**"))
	assert.Equal(t, "*", simplifyGlob("***"))
	assert.Equal(t, "a*b", simplifyGlob("a**b"))
}

func TestIgnoreMatcher_DuplicatePatternsCollapseFirstWins(t *testing.T) {
	m, err := NewIgnoreMatcher([]string{"*.log"}, []string{"*.log"})
	require.NoError(t, err)
	assert.Len(t, m.rules, 1)
}

func TestIgnoreMatcher_BlankAndCommentLinesSkipped(t *testing.T) {
	m, err := NewIgnoreMatcher([]string{"", "  ", "# a comment", "*.tmp"})
	require.NoError(t, err)
	assert.Len(t, m.rules, 1)
}

func TestBuildIgnoreMatcher_LayersRepoLocalAndOperatorPatterns(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("*.secret\n"), 0o644))

	home := t.TempDir()
	t.Setenv("HOME", home)

	m, err := BuildIgnoreMatcher(dir, []string{"*.custom"})
	require.NoError(t, err)

	assert.True(t, m.Match("x.secret"))
	assert.True(t, m.Match("y.custom"))
	assert.True(t, m.Match(".git/HEAD"), "builtin default ignore patterns still apply")
}

func TestNilIgnoreMatcher_MatchesNothing(t *testing.T) {
	var m *IgnoreMatcher
	assert.False(t, m.Match("anything.go"))
}
