// internal/bridge/sse.go
package bridge

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
)

const (
	sseReconnectMin = 1 * time.Second
	sseReconnectMax = 30 * time.Second

	// A stream that lived this long counts as healthy: the next failure
	// starts the backoff over instead of continuing the old ramp.
	sseHealthyStream = 30 * time.Second
)

// Subscribe connects to the backend's event stream (SSE) and returns a
// channel of per-item progress events. The connection is re-established with
// growing delays until the context is cancelled; the events channel closes
// on cancellation.
func (c *HTTPClient) Subscribe(ctx context.Context) (<-chan ItemEvent, <-chan error) {
	events := make(chan ItemEvent, 100)
	errs := make(chan error, 1)

	go c.subscribeLoop(ctx, events, errs)

	return events, errs
}

func (c *HTTPClient) subscribeLoop(ctx context.Context, events chan<- ItemEvent, errs chan<- error) {
	defer close(events)
	defer close(errs)

	delay := sseReconnectMin
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		start := time.Now()
		err := c.streamEvents(ctx, events)
		if ctx.Err() != nil {
			return
		}
		if time.Since(start) >= sseHealthyStream {
			delay = sseReconnectMin
		}

		if err != nil {
			select {
			case errs <- err:
			default:
			}
			log.Printf("event stream error: %v (reconnecting in %s)", err, delay)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}

		if err != nil {
			delay *= 2
			if delay > sseReconnectMax {
				delay = sseReconnectMax
			}
		}
	}
}

func (c *HTTPClient) streamEvents(ctx context.Context, events chan<- ItemEvent) error {
	c.mu.RLock()
	url := c.baseURL + "/api/events"
	c.mu.RUnlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	// A dedicated client without a timeout: the stream is long-lived.
	streamClient := &http.Client{}
	resp, err := streamClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("event stream returned %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	eventType := ""
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event:"):
			eventType = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			if eventType != "" && eventType != "item_progress" {
				continue
			}
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			var ev ItemEvent
			if err := json.Unmarshal([]byte(data), &ev); err != nil {
				log.Printf("malformed item event dropped: %v", err)
				continue
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return ctx.Err()
			}
		case line == "":
			eventType = ""
		}
	}
	// A clean close is not an error; the loop reconnects right away.
	return scanner.Err()
}
