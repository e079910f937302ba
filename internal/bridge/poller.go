// internal/bridge/poller.go
package bridge

import (
	"context"
	"log"
	"time"

	"localcocoa/internal/eventhub"
	"localcocoa/internal/faults"
	"localcocoa/internal/progress"
	"localcocoa/internal/queue"
)

// QueueObserver is notified with every fresh queue snapshot. The run-log
// recorder uses it to archive finished runs.
type QueueObserver interface {
	ObserveQueue(items []queue.Item)
}

// Poller periodically pulls progress and queue snapshots from the backend
// and republishes them through the event hub, and forwards the live item
// event stream into the queue. A failed poll leaves the last snapshot in
// place; the next successful one supersedes it entirely.
type Poller struct {
	client     Client
	hub        *eventhub.EventHub
	model      *progress.Model
	queue      *queue.Queue
	classifier *faults.Classifier
	interval   time.Duration
	observers  []QueueObserver

	seenErrors map[string]struct{}
}

func NewPoller(client Client, hub *eventhub.EventHub, model *progress.Model, q *queue.Queue, interval time.Duration) *Poller {
	return &Poller{
		client:     client,
		hub:        hub,
		model:      model,
		queue:      q,
		classifier: faults.NewClassifier(),
		interval:   interval,
		seenErrors: make(map[string]struct{}),
	}
}

// AddObserver registers a queue observer. Not safe to call after Run.
func (p *Poller) AddObserver(obs QueueObserver) {
	p.observers = append(p.observers, obs)
}

// Run polls until the context is cancelled. It also owns the event-stream
// subscription for the same lifetime.
func (p *Poller) Run(ctx context.Context) {
	events, errs := p.client.Subscribe(ctx)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.pollOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			p.pollOnce(ctx)

		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			p.handleItemEvent(ev)

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			log.Printf("event stream: %v", err)
		}
	}
}

func (p *Poller) pollOnce(ctx context.Context) {
	if snap, err := p.client.FetchProgress(ctx); err != nil {
		log.Printf("progress poll failed: %v", err)
	} else {
		p.model.Apply(snap)
		p.hub.EmitProgressSnapshot(p.model.Snapshot())
	}

	items, err := p.client.FetchQueue(ctx)
	if err != nil {
		log.Printf("queue poll failed: %v", err)
		return
	}

	p.queue.UpsertSnapshot(items)
	p.hub.EmitQueueSnapshot(items)
	p.inspectFailures(items)
	for _, obs := range p.observers {
		obs.ObserveQueue(items)
	}
}

// inspectFailures classifies newly failed items. Capacity failures get a
// dedicated event so the frontend can pause the operation view and point the
// user at remediation instead of a generic error.
func (p *Poller) inspectFailures(items []queue.Item) {
	current := make(map[string]struct{})
	for _, item := range items {
		if item.Status != queue.StatusError {
			continue
		}
		current[item.FilePath] = struct{}{}
		if _, seen := p.seenErrors[item.FilePath]; seen {
			continue
		}
		if class := p.classifier.Classify(item.Detail); class == faults.ClassCapacity {
			p.hub.EmitCapacityFailure(eventhub.CapacityFailureEvent{
				FilePath: item.FilePath,
				Message:  item.Detail,
				Class:    class,
			})
		}
	}
	p.seenErrors = current
}

func (p *Poller) handleItemEvent(ev ItemEvent) {
	queueEvent := queue.Event{Message: ev.Message, Page: ev.Page, TS: ev.TS}
	if queueEvent.Page == 0 {
		if page, ok := queue.ExtractPage(ev.Message); ok {
			queueEvent.Page = page
		}
	}

	// Events for items the queue does not know yet are dropped; the next
	// snapshot carries the item with its backend-side event log.
	if err := p.queue.AppendEvent(ev.FilePath, queueEvent); err != nil {
		return
	}
	p.hub.EmitItemProgress(ev.FilePath, queueEvent)
}
