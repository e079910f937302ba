// internal/runlog/recorder.go
package runlog

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"localcocoa/internal/queue"
)

// Recorder accumulates item outcomes across queue snapshots and archives a
// run once the queue drains. Items keep their last observed state, so files
// that finish and drop out of later snapshots are still part of the run.
type Recorder struct {
	store *Store

	mu        sync.Mutex
	active    bool
	startedAt time.Time
	outcomes  map[string]ItemOutcome
	order     []string
}

func NewRecorder(store *Store) *Recorder {
	return &Recorder{store: store}
}

// ObserveQueue folds one queue snapshot into the current run. An empty
// snapshot after a non-empty one closes the run and persists it.
func (r *Recorder) ObserveQueue(items []queue.Item) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(items) > 0 {
		if !r.active {
			r.active = true
			r.startedAt = time.Now()
			r.outcomes = make(map[string]ItemOutcome)
			r.order = nil
		}
		for _, item := range items {
			if _, seen := r.outcomes[item.FilePath]; !seen {
				r.order = append(r.order, item.FilePath)
			}
			r.outcomes[item.FilePath] = ItemOutcome{
				FilePath: item.FilePath,
				Status:   item.Status,
				Detail:   item.Detail,
				Events:   item.RecentEvents,
			}
		}
		return
	}

	if !r.active {
		return
	}
	run := r.closeRunLocked()
	if err := r.store.Save(run); err != nil {
		log.Printf("runlog: failed to save run %s: %v", run.ID, err)
	}
}

// closeRunLocked snapshots the accumulated outcomes into a finished Run and
// resets the recorder. Caller holds r.mu.
func (r *Recorder) closeRunLocked() *Run {
	run := &Run{
		ID:         uuid.NewString(),
		StartedAt:  r.startedAt,
		FinishedAt: time.Now(),
	}
	for _, path := range r.order {
		outcome := r.outcomes[path]
		// Items that vanished from the queue mid-run finished successfully;
		// the backend only keeps error items visible.
		if outcome.Status == queue.StatusError {
			run.Failed++
		} else {
			run.Succeeded++
			if outcome.Status == queue.StatusPending || outcome.Status == queue.StatusProcessing {
				outcome.Status = queue.StatusDone
			}
		}
		run.Items = append(run.Items, outcome)
	}

	r.active = false
	r.outcomes = nil
	r.order = nil
	return run
}
