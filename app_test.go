// app_test.go
package main

import (
	"context"
	"sync"
	"testing"

	"localcocoa/internal/process"
	"localcocoa/internal/progress"
)

// newBareApp builds an App the way a failed startup leaves it: in-memory
// models present, but no config, catalog, watcher or backend.
func newBareApp() *App {
	app := NewApp()
	app.ctx = context.Background()
	app.initModels(app.ctx)
	return app
}

func TestBindings_SafeWithoutConfig(t *testing.T) {
	app := newBareApp()

	// Every read-side binding must degrade to an empty view, never panic.
	if snap := app.GetIndexProgress(); snap.Total != 0 {
		t.Errorf("expected an empty snapshot, got %+v", snap)
	}
	if info := app.GetActiveStage(); info.Active {
		t.Errorf("expected no active stage, got %+v", info)
	}
	if items := app.GetIndexingQueue(); len(items) != 0 {
		t.Errorf("expected an empty queue, got %v", items)
	}
	if preview := app.GetQueuePreview(); preview.Processing.Found || preview.Pending != 0 {
		t.Errorf("expected an empty preview, got %+v", preview)
	}
	if logs, err := app.ListRunLogs(); err != nil || logs != nil {
		t.Errorf("expected no run logs and no error, got %v / %v", logs, err)
	}
	if status := app.GetBackendStatus(); status.Running || status.Managed {
		t.Errorf("expected an idle backend status, got %+v", status)
	}
	if home := app.GetHomeDirectory(); home == "" {
		t.Error("expected a home directory fallback")
	}

	// Control-side bindings return errors instead of crashing.
	if err := app.ToggleStage(string(progress.StageKeyword)); err == nil {
		t.Error("expected an error toggling the fixed stage")
	}
	if _, err := app.GetRunLog("nope"); err == nil {
		t.Error("expected an error without a run log store")
	}
	if err := app.RemoveFolder("nope"); err == nil {
		t.Error("expected an error without a catalog")
	}
}

func TestBackendStatus_ConcurrentWithConnect(t *testing.T) {
	app := newBareApp()

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				app.GetBackendStatus()
				app.GetBackendStats()
			}
		}
	}()

	// The connect goroutine publishes the supervisor while readers run.
	for i := 0; i < 100; i++ {
		supervisor := process.NewSupervisor(context.Background(), []string{"sh", "-c", "true"}, nil)
		app.mu.Lock()
		app.supervisor = supervisor
		app.mu.Unlock()
	}

	close(stop)
	wg.Wait()

	if got := app.backendSupervisor(); got == nil {
		t.Fatal("supervisor should be visible after publication")
	}
}
