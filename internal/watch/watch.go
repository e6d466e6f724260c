// ABOUTME: Reload watcher for the loaded audio file
// ABOUTME: Uses fsnotify on the file's directory and debounces bursts of writes into one change
package watch

import (
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the file must stay quiet before a change is reported
const DefaultDebounce = 250 * time.Millisecond

// Watcher reports changes to one file at a time. Editors often replace files
// through a rename, so the parent directory is watched rather than the file.
type Watcher struct {
	w        *fsnotify.Watcher
	debounce time.Duration
	onChange func(path string)

	mu    sync.Mutex
	path  string
	dir   string
	timer *time.Timer

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// New creates a watcher that calls onChange from its own goroutine
func New(debounce time.Duration, onChange func(path string)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w := &Watcher{
		w:        fw,
		debounce: debounce,
		onChange: onChange,
		done:     make(chan struct{}),
	}
	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Watch switches the watched file to path
func (w *Watcher) Watch(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	dir := filepath.Dir(abs)

	w.mu.Lock()
	defer w.mu.Unlock()

	if abs == w.path {
		return nil
	}
	if w.dir != "" && w.dir != dir {
		if err := w.w.Remove(w.dir); err != nil {
			log.Printf("Failed to stop watching %s: %v", w.dir, err)
		}
	}
	if w.dir != dir {
		if err := w.w.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	w.path = abs
	w.dir = dir
	w.stopTimer()
	log.Printf("Watching %s for changes", abs)
	return nil
}

// Path returns the watched file
func (w *Watcher) Path() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.path
}

// Close stops watching; no callbacks run after it returns
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		err = w.w.Close()
		close(w.done)
		w.wg.Wait()

		w.mu.Lock()
		w.stopTimer()
		w.mu.Unlock()
	})
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case ev, ok := <-w.w.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.w.Errors:
			if !ok {
				return
			}
			log.Printf("File watcher error: %v", err)
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if filepath.Clean(ev.Name) != w.path {
		return
	}

	w.stopTimer()
	path := w.path
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case <-w.done:
			return
		default:
		}
		log.Printf("Detected change in %s", path)
		w.onChange(path)
	})
}

// stopTimer cancels a pending change; callers hold mu
func (w *Watcher) stopTimer() {
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}
