package indexer

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
)

// Walker enumerates the files of a codebase under Root, pruning directories
// the ignore set rejects and filtering files by extension. Per-entry I/O
// errors are logged and skipped rather than aborting the whole walk,
// generalizing the teacher's discovery.go (which propagated the first
// error from filepath.Walk).
type Walker struct {
	Root        string
	Extensions  map[string]bool // lowercase, with dot; nil/empty means allow all
	Ignore      *IgnoreMatcher
	SkipDotDirs bool // also prune any path component starting with "."
}

// NewWalker builds a Walker with the given extension allow-list (may be
// empty to allow every extension).
func NewWalker(root string, extensions []string, ignore *IgnoreMatcher) *Walker {
	set := make(map[string]bool, len(extensions))
	for _, e := range extensions {
		set[strings.ToLower(e)] = true
	}
	return &Walker{Root: root, Extensions: set, Ignore: ignore}
}

// Walk returns the absolute paths of every file that survives ignore and
// extension filtering, honoring ctx cancellation between entries.
func (w *Walker) Walk(ctx context.Context) ([]string, error) {
	var files []string

	err := filepath.WalkDir(w.Root, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err != nil {
			if path == w.Root {
				return err
			}
			slog.Warn("walk: skipping entry after error", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		relPath, relErr := filepath.Rel(w.Root, path)
		if relErr != nil {
			slog.Warn("walk: cannot compute relative path", "path", path, "error", relErr)
			return nil
		}
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if relPath == "." {
				return nil
			}
			if w.dotPruned(relPath) {
				return fs.SkipDir
			}
			if w.Ignore.Match(relPath + "/") || w.Ignore.Match(relPath) {
				return fs.SkipDir
			}
			return nil
		}

		if w.dotPruned(relPath) {
			return nil
		}
		if w.Ignore.Match(relPath) {
			return nil
		}
		if len(w.Extensions) > 0 {
			ext := strings.ToLower(filepath.Ext(relPath))
			if !w.Extensions[ext] {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return files, err
	}
	return files, err
}

func (w *Walker) dotPruned(relPath string) bool {
	if !w.SkipDotDirs {
		return false
	}
	for _, c := range strings.Split(relPath, "/") {
		if strings.HasPrefix(c, ".") {
			return true
		}
	}
	return false
}
