// internal/eventhub/hub.go
package eventhub

import (
	"context"

	"localcocoa/internal/faults"
	"localcocoa/internal/progress"
	"localcocoa/internal/queue"
)

// Broadcaster fans an event out to connected frontends. The Wails runtime
// and the websocket server both satisfy it.
type Broadcaster interface {
	BroadcastEvent(eventType string, payload interface{})
}

// EventHub is the single dispatch point for backend-originated events.
type EventHub struct {
	ctx         context.Context
	broadcaster Broadcaster
}

func New(ctx context.Context) *EventHub {
	return &EventHub{ctx: ctx}
}

// SetBroadcaster wires the transport. Until one is set, events are dropped;
// the frontend re-pulls current state on connect, so nothing is lost.
func (h *EventHub) SetBroadcaster(b Broadcaster) {
	h.broadcaster = b
}

func (h *EventHub) emit(eventName string, payload interface{}) {
	if h.broadcaster != nil {
		h.broadcaster.BroadcastEvent(eventName, payload)
	}
}

// Emit sends a raw event.
func (h *EventHub) Emit(eventName string, payload interface{}) {
	h.emit(eventName, payload)
}

// EmitProgressSnapshot publishes a fresh staged-progress snapshot.
func (h *EventHub) EmitProgressSnapshot(snap progress.Snapshot) {
	h.emit("index:progress", snap)
}

// EmitQueueSnapshot publishes the latest queue contents.
func (h *EventHub) EmitQueueSnapshot(items []queue.Item) {
	h.emit("index:queue", items)
}

// EmitItemProgress publishes one streamed event for an in-flight item.
func (h *EventHub) EmitItemProgress(filePath string, ev queue.Event) {
	h.emit("index:item-progress", map[string]interface{}{
		"file_path": filePath,
		"event":     ev,
	})
}

// FolderChangedEvent signals that a watched folder's contents changed on
// disk and a rescan was requested.
type FolderChangedEvent struct {
	Path string `json:"path"`
}

func (h *EventHub) EmitFolderChanged(event FolderChangedEvent) {
	h.emit("folder:changed", event)
}

// BackendStateEvent reports indexing backend lifecycle transitions.
type BackendStateEvent struct {
	State string `json:"state"` // "starting", "running", "stopped", "crashed"
	PID   int    `json:"pid,omitempty"`
}

func (h *EventHub) EmitBackendState(event BackendStateEvent) {
	h.emit("backend:state", event)
}

// CapacityFailureEvent is emitted when an item error classifies as a model
// capacity failure. The frontend pauses the operation view and shows the
// remediation prompt instead of a generic error.
type CapacityFailureEvent struct {
	FilePath string       `json:"file_path"`
	Message  string       `json:"message"`
	Class    faults.Class `json:"class"`
}

func (h *EventHub) EmitCapacityFailure(event CapacityFailureEvent) {
	h.emit("index:capacity-failure", event)
}
