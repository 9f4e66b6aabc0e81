// Package watcher re-triggers an index reload when one of the cached
// index archives changes on disk. Watches are registered on the parent
// directories because cabal replaces index files atomically by rename.
package watcher

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// debounceDelay coalesces the burst of events one index update produces.
const debounceDelay = 500 * time.Millisecond

// Watcher invokes a callback when any watched index file is rewritten.
type Watcher struct {
	files    []string
	onChange func()

	fsw      *fsnotify.Watcher
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a Watcher over the given files. Start must be called before
// any events are delivered.
func New(files []string, onChange func()) (*Watcher, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no files to watch")
	}
	if onChange == nil {
		return nil, fmt.Errorf("onChange callback cannot be nil")
	}

	abs := make([]string, 0, len(files))
	for _, f := range files {
		a, err := filepath.Abs(f)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", f, err)
		}
		abs = append(abs, a)
	}

	return &Watcher{
		files:    abs,
		onChange: onChange,
		stopCh:   make(chan struct{}),
	}, nil
}

// Start registers the directory watches and begins event processing.
func (w *Watcher) Start() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	w.fsw = fsw

	dirs := make(map[string]bool)
	for _, f := range w.files {
		dirs[filepath.Dir(f)] = true
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		logrus.Debugf("Watching %s", dir)
	}

	w.wg.Add(1)
	go w.run()
	return nil
}

func (w *Watcher) run() {
	defer w.wg.Done()

	var debounce *time.Timer
	var debounceC <-chan time.Time

	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.matches(ev) {
				continue
			}
			logrus.Debugf("Index change: %s", ev)
			if debounce == nil {
				debounce = time.NewTimer(debounceDelay)
				debounceC = debounce.C
			} else {
				debounce.Reset(debounceDelay)
			}
		case <-debounceC:
			debounce = nil
			debounceC = nil
			w.onChange()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logrus.Warnf("Watcher error: %v", err)
		case <-w.stopCh:
			return
		}
	}
}

// matches reports whether the event touches one of the watched files.
func (w *Watcher) matches(ev fsnotify.Event) bool {
	if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	for _, f := range w.files {
		if ev.Name == f {
			return true
		}
	}
	return false
}

// Stop halts event processing and releases the watches. Safe to call more
// than once.
func (w *Watcher) Stop() error {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		if w.fsw != nil {
			w.fsw.Close()
		}
		w.wg.Wait()
	})
	return nil
}
