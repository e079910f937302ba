// internal/bridge/sse_test.go
package bridge

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestStreamEvents_DeliversAndClosesClean(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "event: item_progress\n")
		fmt.Fprint(w, "data: {\"file_path\":\"/a.pdf\",\"message\":\"processing page 2\",\"page\":2}\n")
		fmt.Fprint(w, "\n")
		fmt.Fprint(w, "event: heartbeat\n")
		fmt.Fprint(w, "data: {}\n")
		fmt.Fprint(w, "\n")
		fmt.Fprint(w, "data: {\"file_path\":\"/b.md\",\"message\":\"extracting\"}\n")
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	events := make(chan ItemEvent, 10)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.streamEvents(ctx, events); err != nil {
		t.Fatalf("clean stream end returned an error: %v", err)
	}

	close(events)
	var got []ItemEvent
	for ev := range events {
		got = append(got, ev)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 item events, got %d: %v", len(got), got)
	}
	if got[0].FilePath != "/a.pdf" || got[0].Page != 2 {
		t.Errorf("unexpected first event: %+v", got[0])
	}
	// Untyped data lines count as item events too.
	if got[1].FilePath != "/b.md" {
		t.Errorf("unexpected second event: %+v", got[1])
	}
}

func TestSubscribe_SurfacesStreamErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, errs := client.Subscribe(ctx)
	select {
	case err := <-errs:
		if err == nil {
			t.Fatal("expected a stream error, channel closed instead")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no error surfaced on the errs channel")
	}
}

func TestSubscribe_ReconnectsAfterCleanClose(t *testing.T) {
	var connections int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&connections, 1)
		w.Header().Set("Content-Type", "text/event-stream")
		// Close immediately; the client should come back.
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client.Subscribe(ctx)

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if atomic.LoadInt32(&connections) >= 2 {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("expected a reconnect, saw %d connection(s)", atomic.LoadInt32(&connections))
}
