// internal/process/supervisor_test.go
package process

import (
	"context"
	"runtime"
	"sync"
	"testing"
	"time"
)

type stateRecorder struct {
	mu     sync.Mutex
	states []string
}

func (r *stateRecorder) BackendStateChanged(state string, pid int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, state)
}

func (r *stateRecorder) has(state string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.states {
		if s == state {
			return true
		}
	}
	return false
}

func TestSupervisor_StartStop(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}

	recorder := &stateRecorder{}
	s := NewSupervisor(context.Background(), []string{"sh", "-c", "sleep 30"}, recorder)

	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !s.IsRunning() {
		t.Fatal("backend should be running")
	}
	if s.PID() == 0 {
		t.Error("expected a nonzero pid")
	}
	if !recorder.has("running") {
		t.Error("expected a running state notification")
	}

	// Starting again while running is rejected.
	if err := s.Start(); err == nil {
		t.Error("expected an error starting a running backend")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for s.IsRunning() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if s.IsRunning() {
		t.Error("backend should have stopped")
	}
	if !recorder.has("stopped") {
		t.Error("expected a stopped state notification")
	}
}

func TestSupervisor_PortAnnouncement(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}

	s := NewSupervisor(context.Background(), []string{"sh", "-c", "echo COCOA_BACKEND_PORT:8123; sleep 30"}, nil)
	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.Stop(ctx)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	port, err := s.WaitForPort(ctx)
	if err != nil {
		t.Fatalf("WaitForPort failed: %v", err)
	}
	if port != 8123 {
		t.Errorf("port = %d, want 8123", port)
	}
}

func TestSupervisor_NoCommand(t *testing.T) {
	s := NewSupervisor(context.Background(), nil, nil)
	if err := s.Start(); err == nil {
		t.Error("expected an error with no command configured")
	}
}
