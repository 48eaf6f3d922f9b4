// Package watch implements the file-watcher front-end (spec §4.G): an
// in-memory content mirror, a recursive fsnotify watch, per-path
// debouncing, and typed change-event emission feeding the incremental
// updater.
package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Priyans-hu/impactgraph/internal/graph"
	"github.com/Priyans-hu/impactgraph/internal/lang"
	"github.com/Priyans-hu/impactgraph/pkg/types"
)

// DefaultDebounce is the per-path coalescing window (spec default 1.5s).
const DefaultDebounce = 1500 * time.Millisecond

// ApplyFunc hands a classified change event to the incremental updater
// before the watcher notifies its own subscribers, matching spec §4.G's
// emission order.
type ApplyFunc func(types.ChangeEvent) types.IncrementalUpdateResult

// Watcher maintains the content cache, watches source roots recursively,
// and debounces bursts into single change events.
type Watcher struct {
	root         string
	cache        *ContentCache
	debounce     time.Duration
	fsw          *fsnotify.Watcher
	apply        ApplyFunc
	extensions   map[string]struct{}
	skip         *lang.SkipSet

	timerMu sync.Mutex
	timers  map[string]*time.Timer

	listenerMu      sync.Mutex
	changeListeners map[int]types.ChangeListener
	graphListeners  map[int]types.GraphUpdateListener
	nextListenerID  int
}

// New constructs a Watcher. root is the canonical project root (used to
// render RelativePath on emitted events); extensions restricts relevance
// to files a language plugin would discover.
func New(root string, extensions []string, cache *ContentCache, debounce time.Duration, apply ApplyFunc) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	extSet := make(map[string]struct{}, len(extensions))
	for _, e := range extensions {
		extSet[e] = struct{}{}
	}
	return &Watcher{
		root:            root,
		cache:           cache,
		debounce:        debounce,
		fsw:             fsw,
		apply:           apply,
		extensions:      extSet,
		skip:            lang.NewSkipSet(root),
		timers:          make(map[string]*time.Timer),
		changeListeners: make(map[int]types.ChangeListener),
		graphListeners:  make(map[int]types.GraphUpdateListener),
	}, nil
}

// WatchRoots recursively registers every non-skipped directory under each
// root with the underlying fsnotify watcher.
func (w *Watcher) WatchRoots(roots []string) error {
	for _, root := range roots {
		err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return nil
			}
			if !info.IsDir() {
				return nil
			}
			rel, rerr := filepath.Rel(w.root, path)
			if rerr == nil && rel != "." && w.skip.Match(rel, true) {
				return filepath.SkipDir
			}
			return w.fsw.Add(path)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Run drives the event loop until ctx is cancelled. On teardown every
// pending debounce timer is cancelled deterministically.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.teardown()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleFSEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watcher: fsnotify error", "err", err)
		}
	}
}

func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
		if event.Op&fsnotify.Create != 0 {
			_ = w.fsw.Add(event.Name)
		}
		return
	}
	if !w.isRelevant(event.Name) {
		return
	}
	w.scheduleDebounce(event.Name)
}

func (w *Watcher) isRelevant(path string) bool {
	if len(w.extensions) == 0 {
		return true
	}
	_, ok := w.extensions[filepath.Ext(path)]
	return ok
}

// scheduleDebounce resets path's independent timer; repeated events
// within the window coalesce into the last one.
func (w *Watcher) scheduleDebounce(path string) {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()
	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() { w.fire(path) })
}

func (w *Watcher) teardown() {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
	_ = w.fsw.Close()
}

// fire classifies the path's current state against the content cache,
// computes the diff, applies the change to the graph, then notifies
// subscribers — in that order, per spec §4.G.
func (w *Watcher) fire(path string) {
	id := graph.Normalize(path)
	oldContent, hadOld := w.cache.Get(id)

	info, statErr := os.Stat(path)
	if statErr != nil || info.IsDir() {
		if !hadOld {
			return
		}
		w.cache.Delete(id)
		w.emit(types.ChangeEvent{
			FilePath:     id,
			RelativePath: w.relativePath(path),
			Type:         types.Deleted,
			OldContent:   oldContent,
			Diff:         LineDiff(oldContent, ""),
			Timestamp:    time.Now(),
		})
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("watcher: unreadable file, ignoring event", "file", path, "err", err)
		return
	}
	newContent := string(data)

	if !hadOld {
		w.cache.Set(id, newContent)
		w.emit(types.ChangeEvent{
			FilePath:     id,
			RelativePath: w.relativePath(path),
			Type:         types.Added,
			NewContent:   newContent,
			Diff:         LineDiff("", newContent),
			Timestamp:    time.Now(),
		})
		return
	}

	if newContent == oldContent {
		return
	}

	w.cache.Set(id, newContent)
	w.emit(types.ChangeEvent{
		FilePath:     id,
		RelativePath: w.relativePath(path),
		Type:         types.Modified,
		OldContent:   oldContent,
		NewContent:   newContent,
		Diff:         LineDiff(oldContent, newContent),
		Timestamp:    time.Now(),
	})
}

func (w *Watcher) emit(event types.ChangeEvent) {
	result := w.apply(event)

	w.listenerMu.Lock()
	changeListeners := make([]types.ChangeListener, 0, len(w.changeListeners))
	for _, l := range w.changeListeners {
		changeListeners = append(changeListeners, l)
	}
	graphListeners := make([]types.GraphUpdateListener, 0, len(w.graphListeners))
	for _, l := range w.graphListeners {
		graphListeners = append(graphListeners, l)
	}
	w.listenerMu.Unlock()

	for _, l := range changeListeners {
		l(event)
	}
	notification := types.GraphUpdateNotification{ChangedFile: event.FilePath, Result: result}
	for _, l := range graphListeners {
		l(notification)
	}
}

// SubscribeChanges registers a listener for every emitted change event.
func (w *Watcher) SubscribeChanges(l types.ChangeListener) types.Unsubscribe {
	w.listenerMu.Lock()
	defer w.listenerMu.Unlock()
	id := w.nextListenerID
	w.nextListenerID++
	w.changeListeners[id] = l
	return func() {
		w.listenerMu.Lock()
		defer w.listenerMu.Unlock()
		delete(w.changeListeners, id)
	}
}

// SubscribeGraphUpdates registers a listener for graph-updated
// notifications emitted after each change is applied.
func (w *Watcher) SubscribeGraphUpdates(l types.GraphUpdateListener) types.Unsubscribe {
	w.listenerMu.Lock()
	defer w.listenerMu.Unlock()
	id := w.nextListenerID
	w.nextListenerID++
	w.graphListeners[id] = l
	return func() {
		w.listenerMu.Lock()
		defer w.listenerMu.Unlock()
		delete(w.graphListeners, id)
	}
}

func (w *Watcher) relativePath(path string) string {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// Close releases the underlying fsnotify watcher and cancels all pending
// debounce timers.
func (w *Watcher) Close() error {
	w.teardown()
	return nil
}
