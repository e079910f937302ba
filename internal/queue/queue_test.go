// internal/queue/queue_test.go
package queue

import (
	"errors"
	"testing"
)

func snapshot() []Item {
	return []Item{
		{FilePath: "/a/one.pdf", Status: StatusDone},
		{FilePath: "/a/two.pdf", Status: StatusProcessing, Detail: "extracting text"},
		{FilePath: "/a/three.pdf", Status: StatusPending},
		{FilePath: "/a/four.pdf", Status: StatusPending},
		{FilePath: "/a/five.pdf", Status: StatusError, Detail: "unreadable"},
	}
}

func TestUpsertSnapshot_WholesaleReplace(t *testing.T) {
	q := New()
	q.UpsertSnapshot(snapshot())
	if len(q.Items()) != 5 {
		t.Fatalf("expected 5 items, got %d", len(q.Items()))
	}

	q.UpsertSnapshot([]Item{{FilePath: "/b/new.md", Status: StatusPending}})
	items := q.Items()
	if len(items) != 1 || items[0].FilePath != "/b/new.md" {
		t.Errorf("snapshot must replace the queue wholesale, got %+v", items)
	}
}

func TestProcessingItemAndCounts(t *testing.T) {
	q := New()
	q.UpsertSnapshot(snapshot())

	item, ok := q.ProcessingItem()
	if !ok || item.FilePath != "/a/two.pdf" {
		t.Errorf("ProcessingItem() = (%+v, %v)", item, ok)
	}
	if got := q.PendingCount(); got != 2 {
		t.Errorf("PendingCount() = %d, want 2", got)
	}

	paths := q.ProcessingPaths()
	if len(paths) != 1 {
		t.Fatalf("expected one processing path, got %d", len(paths))
	}
	if _, ok := paths["/a/two.pdf"]; !ok {
		t.Error("processing set missing the processing item")
	}
}

func TestRemove_PendingOnly(t *testing.T) {
	q := New()
	q.UpsertSnapshot(snapshot())

	if err := q.Remove("/a/three.pdf"); err != nil {
		t.Fatalf("Remove(pending) failed: %v", err)
	}
	if len(q.Items()) != 4 {
		t.Errorf("expected exactly one item removed, %d left", len(q.Items()))
	}

	if err := q.Remove("/a/two.pdf"); !errors.Is(err, ErrNotPending) {
		t.Errorf("removing a processing item: got %v, want ErrNotPending", err)
	}
	if err := q.Remove("/a/five.pdf"); !errors.Is(err, ErrNotPending) {
		t.Errorf("removing an error item: got %v, want ErrNotPending", err)
	}
	if err := q.Remove("/a/gone.pdf"); !errors.Is(err, ErrNotFound) {
		t.Errorf("removing an absent item: got %v, want ErrNotFound", err)
	}
	if len(q.Items()) != 4 {
		t.Error("rejected removals must leave the queue untouched")
	}
}

func TestAppendEvent_DeliveryOrder(t *testing.T) {
	q := New()
	q.UpsertSnapshot(snapshot())

	// Timestamps arrive out of order; delivery order must be preserved.
	events := []Event{
		{Message: "reading page 1", TS: 300},
		{Message: "reading page 2", TS: 100},
		{Message: "reading page 3", TS: 200},
	}
	for _, ev := range events {
		if err := q.AppendEvent("/a/two.pdf", ev); err != nil {
			t.Fatalf("AppendEvent failed: %v", err)
		}
	}

	item, _ := q.ProcessingItem()
	for i, ev := range item.RecentEvents {
		if ev.Message != events[i].Message {
			t.Errorf("event %d = %q, want %q", i, ev.Message, events[i].Message)
		}
	}

	if err := q.AppendEvent("/nope", Event{Message: "x"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("appending to an absent item: got %v, want ErrNotFound", err)
	}
}

func TestPreviewEvent(t *testing.T) {
	q := New()
	q.UpsertSnapshot(snapshot())

	// No events yet: the item's detail string stands in.
	ev, ok := q.PreviewEvent()
	if !ok || ev.Message != "extracting text" {
		t.Errorf("PreviewEvent() = (%+v, %v), want detail fallback", ev, ok)
	}

	q.AppendEvent("/a/two.pdf", Event{Message: "first"})
	q.AppendEvent("/a/two.pdf", Event{Message: "second"})

	ev, ok = q.PreviewEvent()
	if !ok || ev.Message != "second" {
		t.Errorf("PreviewEvent() = (%+v, %v), want the latest event", ev, ok)
	}

	// No processing item, no preview.
	q.UpsertSnapshot([]Item{{FilePath: "/idle", Status: StatusPending}})
	if _, ok := q.PreviewEvent(); ok {
		t.Error("preview must be absent without a processing item")
	}
}

func TestStreamEvents_TailReversed(t *testing.T) {
	q := New()
	q.UpsertSnapshot(snapshot())

	for _, msg := range []string{"one", "two", "three", "four", "five", "six"} {
		q.AppendEvent("/a/two.pdf", Event{Message: msg})
	}

	stream := q.StreamEvents()
	want := []string{"six", "five", "four", "three"}
	if len(stream) != len(want) {
		t.Fatalf("stream length = %d, want %d", len(stream), len(want))
	}
	for i, msg := range want {
		if stream[i].Message != msg {
			t.Errorf("stream[%d] = %q, want %q", i, stream[i].Message, msg)
		}
	}
}

func TestExtractPage(t *testing.T) {
	tests := []struct {
		text string
		page int
		ok   bool
	}{
		{"analyzing page 12 of 40", 12, true},
		{"Page 3", 3, true},
		{"PAGE  7", 7, true},
		{"no marker here", 0, false},
		{"pages galore", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		page, ok := ExtractPage(tt.text)
		if page != tt.page || ok != tt.ok {
			t.Errorf("ExtractPage(%q) = (%d, %v), want (%d, %v)", tt.text, page, ok, tt.page, tt.ok)
		}
	}
}
