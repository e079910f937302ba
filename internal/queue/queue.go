// internal/queue/queue.go
package queue

import (
	"errors"
	"regexp"
	"strconv"
	"sync"
)

// Item statuses as delivered by the backend.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusError      = "error"
	StatusDone       = "done"
)

// streamTailSize bounds how many recent events are surfaced for live display.
const streamTailSize = 4

var (
	// ErrNotFound is returned when no queued item matches the path.
	ErrNotFound = errors.New("queue item not found")

	// ErrNotPending is returned when removing an item that is not pending.
	// Processing items must be cancelled through the backend, not dequeued
	// locally.
	ErrNotPending = errors.New("only pending items can be removed")
)

// Event is one streamed progress message scoped to a single item.
// Timestamps are advisory and used for display only; delivery order is the
// order of record.
type Event struct {
	Message string `json:"message"`
	Page    int    `json:"page,omitempty"`
	TS      int64  `json:"ts,omitempty"`
}

// Item is one file moving through the pipeline. RecentEvents is append-only,
// most-recent-last; the full record persists until the item leaves the queue.
type Item struct {
	FilePath     string  `json:"file_path"`
	FolderPath   string  `json:"folder_path,omitempty"`
	Kind         string  `json:"kind,omitempty"`
	Status       string  `json:"status"`
	Progress     float64 `json:"progress"`
	Stage        string  `json:"stage,omitempty"`
	Detail       string  `json:"detail,omitempty"`
	StepCurrent  int     `json:"step_current,omitempty"`
	StepTotal    int     `json:"step_total,omitempty"`
	RecentEvents []Event `json:"recent_events,omitempty"`
}

// Queue holds the ordered list of in-flight and queued items. Snapshots from
// the backend replace the list wholesale; there is no incremental merge, so
// events and snapshots can never drift apart client-side.
type Queue struct {
	mu    sync.RWMutex
	items []Item
}

func New() *Queue {
	return &Queue{}
}

// UpsertSnapshot replaces the queue with the latest authoritative list.
func (q *Queue) UpsertSnapshot(items []Item) {
	copied := make([]Item, len(items))
	copy(copied, items)

	q.mu.Lock()
	q.items = copied
	q.mu.Unlock()
}

// AppendEvent appends a streamed event to the matching item. Events are kept
// in delivery order; they are never reordered or deduplicated, even if the
// backend delivers them out of timestamp order.
func (q *Queue) AppendEvent(filePath string, ev Event) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i := range q.items {
		if q.items[i].FilePath == filePath {
			q.items[i].RecentEvents = append(q.items[i].RecentEvents, ev)
			return nil
		}
	}
	return ErrNotFound
}

// Items returns a copy of the current queue.
func (q *Queue) Items() []Item {
	q.mu.RLock()
	defer q.mu.RUnlock()

	items := make([]Item, len(q.items))
	copy(items, q.items)
	return items
}

// ProcessingItem returns the item currently foregrounded for live detail.
// At most one processing item is surfaced at a time; the backend may work on
// more internally.
func (q *Queue) ProcessingItem() (Item, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	for _, item := range q.items {
		if item.Status == StatusProcessing {
			return item, true
		}
	}
	return Item{}, false
}

// PendingCount counts the queued items not yet started.
func (q *Queue) PendingCount() int {
	q.mu.RLock()
	defer q.mu.RUnlock()

	count := 0
	for _, item := range q.items {
		if item.Status == StatusPending {
			count++
		}
	}
	return count
}

// ProcessingPaths returns the set of paths currently being worked on, for
// the index-mode classifier.
func (q *Queue) ProcessingPaths() map[string]struct{} {
	q.mu.RLock()
	defer q.mu.RUnlock()

	paths := make(map[string]struct{})
	for _, item := range q.items {
		if item.Status == StatusProcessing {
			paths[item.FilePath] = struct{}{}
		}
	}
	return paths
}

// Remove dequeues exactly one pending item by path. Removing a processing
// item is rejected; error items stay visible until the next snapshot drops
// them.
func (q *Queue) Remove(filePath string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i := range q.items {
		if q.items[i].FilePath != filePath {
			continue
		}
		if q.items[i].Status != StatusPending {
			return ErrNotPending
		}
		q.items = append(q.items[:i], q.items[i+1:]...)
		return nil
	}
	return ErrNotFound
}

// PreviewEvent returns the most recent event of the processing item. When
// the item has no events yet, its Detail string is surfaced instead.
func (q *Queue) PreviewEvent() (Event, bool) {
	item, ok := q.ProcessingItem()
	if !ok {
		return Event{}, false
	}
	if len(item.RecentEvents) == 0 {
		if item.Detail == "" {
			return Event{}, false
		}
		return Event{Message: item.Detail}, true
	}
	return item.RecentEvents[len(item.RecentEvents)-1], true
}

// StreamEvents returns the live display tail: the last few events of the
// processing item, most recent first.
func (q *Queue) StreamEvents() []Event {
	item, ok := q.ProcessingItem()
	if !ok {
		return nil
	}

	events := item.RecentEvents
	if len(events) == 0 {
		if item.Detail == "" {
			return nil
		}
		return []Event{{Message: item.Detail}}
	}

	start := len(events) - streamTailSize
	if start < 0 {
		start = 0
	}
	tail := make([]Event, 0, len(events)-start)
	for i := len(events) - 1; i >= start; i-- {
		tail = append(tail, events[i])
	}
	return tail
}

var pagePattern = regexp.MustCompile(`(?i)page\s+(\d+)`)

// ExtractPage scans preview text for a "page N" marker. Best effort: the
// backend is not required to emit a structured page field, so this is a
// display convenience, never a guaranteed value.
func ExtractPage(text string) (int, bool) {
	match := pagePattern.FindStringSubmatch(text)
	if match == nil {
		return 0, false
	}
	page, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}
	return page, true
}
