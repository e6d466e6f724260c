// ABOUTME: Tests for the reload watcher
// ABOUTME: Tests change detection, debouncing, target switching and shutdown
package watch

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type changeRecorder struct {
	mu    sync.Mutex
	paths []string
	ch    chan string
}

func newChangeRecorder() *changeRecorder {
	return &changeRecorder{ch: make(chan string, 16)}
}

func (r *changeRecorder) record(path string) {
	r.mu.Lock()
	r.paths = append(r.paths, path)
	r.mu.Unlock()
	r.ch <- path
}

func (r *changeRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.paths)
}

func (r *changeRecorder) wait(t *testing.T) string {
	t.Helper()
	select {
	case p := <-r.ch:
		return p
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for change")
	}
	return ""
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func newTestWatcher(t *testing.T, rec *changeRecorder) *Watcher {
	t.Helper()
	w, err := New(50*time.Millisecond, rec.record)
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	t.Cleanup(func() { w.Close() })
	return w
}

func TestDetectsWrite(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "take.wav")
	writeFile(t, target, "v1")

	rec := newChangeRecorder()
	w := newTestWatcher(t, rec)
	if err := w.Watch(target); err != nil {
		t.Fatalf("watch failed: %v", err)
	}

	writeFile(t, target, "v2")
	if got := rec.wait(t); got != target {
		t.Errorf("expected change for %s, got %s", target, got)
	}
}

func TestIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "take.wav")
	writeFile(t, target, "v1")

	rec := newChangeRecorder()
	w := newTestWatcher(t, rec)
	if err := w.Watch(target); err != nil {
		t.Fatalf("watch failed: %v", err)
	}

	writeFile(t, filepath.Join(dir, "other.wav"), "x")
	time.Sleep(300 * time.Millisecond)
	if rec.count() != 0 {
		t.Errorf("expected no changes, got %d", rec.count())
	}
}

func TestDebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "take.wav")
	writeFile(t, target, "v1")

	rec := newChangeRecorder()
	w, err := New(300*time.Millisecond, rec.record)
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	defer w.Close()
	if err := w.Watch(target); err != nil {
		t.Fatalf("watch failed: %v", err)
	}

	for i := 0; i < 5; i++ {
		writeFile(t, target, "burst")
	}
	rec.wait(t)
	time.Sleep(500 * time.Millisecond)

	if rec.count() != 1 {
		t.Errorf("expected one change for a burst, got %d", rec.count())
	}
}

func TestSwitchTarget(t *testing.T) {
	first := filepath.Join(t.TempDir(), "a.wav")
	second := filepath.Join(t.TempDir(), "b.wav")
	writeFile(t, first, "a")
	writeFile(t, second, "b")

	rec := newChangeRecorder()
	w := newTestWatcher(t, rec)
	if err := w.Watch(first); err != nil {
		t.Fatalf("watch failed: %v", err)
	}
	if err := w.Watch(second); err != nil {
		t.Fatalf("watch failed: %v", err)
	}
	if w.Path() != second {
		t.Errorf("expected path %s, got %s", second, w.Path())
	}

	writeFile(t, first, "a2")
	time.Sleep(300 * time.Millisecond)
	if rec.count() != 0 {
		t.Fatalf("expected no change for the old target, got %d", rec.count())
	}

	writeFile(t, second, "b2")
	if got := rec.wait(t); got != second {
		t.Errorf("expected change for %s, got %s", second, got)
	}
}

func TestNoCallbacksAfterClose(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "take.wav")
	writeFile(t, target, "v1")

	rec := newChangeRecorder()
	w, err := New(50*time.Millisecond, rec.record)
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	if err := w.Watch(target); err != nil {
		t.Fatalf("watch failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	writeFile(t, target, "v2")
	time.Sleep(200 * time.Millisecond)
	if rec.count() != 0 {
		t.Errorf("expected no changes after close, got %d", rec.count())
	}
}

func TestWatchMissingDirectory(t *testing.T) {
	rec := newChangeRecorder()
	w := newTestWatcher(t, rec)

	if err := w.Watch(filepath.Join(t.TempDir(), "missing", "take.wav")); err == nil {
		t.Error("expected error for a missing directory")
	}
}
