// Package fswatch triggers debounced resyncs when a watched codebase's
// files change. Grounded on the teacher's internal/watcher/file_watcher.go,
// generalized from a fixed file-list callback to a bare resync trigger,
// since IndexManager.ReindexByChange recomputes its own changed-file diff
// from the Merkle snapshot rather than needing the triggering paths.
package fswatch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	defaultDebounce = 500 * time.Millisecond
	defaultMaxDirs  = 1000
	defaultMaxDepth = 10
)

var skipDirNames = map[string]bool{
	".git":         true,
	"node_modules": true,
	".context":     true,
}

// Config configures a Watcher.
type Config struct {
	Root       string
	Extensions []string
	Debounce   time.Duration // default 500ms
	MaxDirs    int           // default 1000
	MaxDepth   int           // default 10
	Logger     *slog.Logger
}

// Watcher recursively watches Config.Root and invokes its onChange
// callback, debounced, after a burst of writes to tracked extensions
// settles.
type Watcher struct {
	watcher    *fsnotify.Watcher
	extensions map[string]bool
	debounce   time.Duration
	maxDirs    int
	maxDepth   int
	logger     *slog.Logger
	onChange   func()

	ctx      context.Context
	cancel   context.CancelFunc
	doneCh   chan struct{}
	stopOnce sync.Once

	timerMu sync.Mutex
	timer   *time.Timer

	dirCountMu sync.Mutex
	dirCount   int
}

// New builds a Watcher over cfg.Root, adding every subdirectory except
// .git, node_modules, and .context to the underlying fsnotify watch set.
func New(cfg Config) (*Watcher, error) {
	if cfg.Debounce <= 0 {
		cfg.Debounce = defaultDebounce
	}
	if cfg.MaxDirs <= 0 {
		cfg.MaxDirs = defaultMaxDirs
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = defaultMaxDepth
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fswatch: create watcher: %w", err)
	}

	extMap := make(map[string]bool, len(cfg.Extensions))
	for _, e := range cfg.Extensions {
		extMap[e] = true
	}

	w := &Watcher{
		watcher:    fw,
		extensions: extMap,
		debounce:   cfg.Debounce,
		maxDirs:    cfg.MaxDirs,
		maxDepth:   cfg.MaxDepth,
		logger:     cfg.Logger,
		doneCh:     make(chan struct{}),
	}

	if err := w.addDirRecursive(cfg.Root, 0); err != nil {
		fw.Close()
		return nil, err
	}
	return w, nil
}

// Start begins watching. onChange fires on its own goroutine whenever a
// burst of relevant file events settles; it receives no arguments since
// ReindexByChange determines what changed on its own.
func (w *Watcher) Start(ctx context.Context, onChange func()) {
	w.onChange = onChange
	w.ctx, w.cancel = context.WithCancel(ctx)
	go w.loop()
}

// Stop halts the watch loop and releases the underlying fsnotify handle.
// Idempotent.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		if w.cancel != nil {
			w.cancel()
			<-w.doneCh
		} else {
			close(w.doneCh)
		}
		err = w.watcher.Close()
	})
	return err
}

func (w *Watcher) loop() {
	defer close(w.doneCh)
	fireCh := make(chan struct{}, 1)

	for {
		select {
		case <-w.ctx.Done():
			w.stopTimer()
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addDirRecursive(event.Name, 0); err != nil {
						w.logger.Warn("fswatch: failed to watch new directory", "path", event.Name, "error", err)
					}
				}
			}
			if !w.relevant(event) {
				continue
			}
			w.resetTimer(fireCh)

		case <-fireCh:
			if w.onChange != nil {
				w.onChange()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("fswatch: watcher error", "error", err)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove) == 0 {
		return false
	}
	return w.extensions[filepath.Ext(event.Name)]
}

func (w *Watcher) resetTimer(fireCh chan struct{}) {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	if w.timer != nil {
		if !w.timer.Stop() {
			select {
			case <-w.timer.C:
			default:
			}
		}
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case fireCh <- struct{}{}:
		default:
		}
	})
}

func (w *Watcher) stopTimer() {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

func (w *Watcher) addDirRecursive(path string, depth int) error {
	if depth > w.maxDepth {
		return fmt.Errorf("fswatch: max depth %d exceeded at %s", w.maxDepth, path)
	}
	if skipDirNames[filepath.Base(path)] {
		return nil
	}

	w.dirCountMu.Lock()
	if w.dirCount >= w.maxDirs {
		count := w.dirCount
		w.dirCountMu.Unlock()
		return fmt.Errorf("fswatch: directory limit reached: %d watched (max %d)", count, w.maxDirs)
	}
	w.dirCountMu.Unlock()

	entries, err := os.ReadDir(path)
	if err != nil {
		return err
	}

	w.dirCountMu.Lock()
	w.dirCount++
	w.dirCountMu.Unlock()

	if err := w.watcher.Add(path); err != nil {
		w.dirCountMu.Lock()
		w.dirCount--
		w.dirCountMu.Unlock()
		return fmt.Errorf("fswatch: watch directory %s: %w", path, err)
	}

	for _, entry := range entries {
		if !entry.IsDir() || skipDirNames[entry.Name()] {
			continue
		}
		if err := w.addDirRecursive(filepath.Join(path, entry.Name()), depth+1); err != nil {
			w.logger.Warn("fswatch: directory skipped", "path", entry.Name(), "error", err)
		}
	}
	return nil
}
