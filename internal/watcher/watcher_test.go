// internal/watcher/watcher_test.go
package watcher

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

type eventCollector struct {
	mu     sync.Mutex
	events []Event
}

func (c *eventCollector) add(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func (c *eventCollector) paths() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var paths []string
	for _, e := range c.events {
		paths = append(paths, e.Path)
	}
	return paths
}

func TestWatcher_DetectsCreate(t *testing.T) {
	dir := t.TempDir()
	collector := &eventCollector{}

	w, err := New(50*time.Millisecond, nil, collector.add)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer w.Close()

	if err := w.AddPath(dir); err != nil {
		t.Fatalf("AddPath failed: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	target := filepath.Join(dir, "note.md")
	if err := os.WriteFile(target, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		for _, p := range collector.paths() {
			if p == target {
				return
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("no event for %s; saw %v", target, collector.paths())
}

func TestWatcher_IgnoreFilter(t *testing.T) {
	dir := t.TempDir()
	collector := &eventCollector{}

	ignore := func(path string) bool {
		return strings.HasSuffix(path, ".tmp")
	}
	w, err := New(50*time.Millisecond, ignore, collector.add)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer w.Close()

	if err := w.AddPath(dir); err != nil {
		t.Fatalf("AddPath failed: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	ignored := filepath.Join(dir, "scratch.tmp")
	kept := filepath.Join(dir, "doc.pdf")
	os.WriteFile(ignored, []byte("x"), 0644)
	os.WriteFile(kept, []byte("x"), 0644)

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		paths := collector.paths()
		for _, p := range paths {
			if p == ignored {
				t.Fatalf("ignored path surfaced: %v", paths)
			}
			if p == kept {
				return
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("kept path never surfaced; saw %v", collector.paths())
}

func TestWatcher_ClosedRejectsAdd(t *testing.T) {
	w, err := New(time.Millisecond, nil, func(Event) {})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	w.Close()

	if err := w.AddPath(t.TempDir()); err == nil {
		t.Error("expected an error adding to a closed watcher")
	}
	if err := w.Start(); err == nil {
		t.Error("expected an error starting a closed watcher")
	}
	// Close is idempotent.
	if err := w.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}
