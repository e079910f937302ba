// internal/bridge/http.go
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"localcocoa/internal/faults"
	"localcocoa/internal/index"
	"localcocoa/internal/progress"
	"localcocoa/internal/queue"
)

// HTTPClient talks to the indexing backend over loopback HTTP. The backend
// advertises which operations it implements via GET /capabilities; a backend
// without that endpoint is assumed to implement everything.
type HTTPClient struct {
	mu      sync.RWMutex
	baseURL string
	caps    map[string]struct{} // nil until fetched; empty map means "none"
	httpc   *http.Client
}

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpc:   &http.Client{Timeout: 30 * time.Second},
	}
}

// SetBaseURL repoints the client, used after the spawned backend prints its
// port. Capabilities are refetched on the next Connect.
func (c *HTTPClient) SetBaseURL(baseURL string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.baseURL = strings.TrimSuffix(baseURL, "/")
	c.caps = nil
}

// Connect waits for the backend to become healthy, retrying with
// exponential backoff, then loads its capability descriptor.
func (c *HTTPClient) Connect(ctx context.Context) error {
	ping := func() error {
		return c.doJSON(ctx, http.MethodGet, "/health", nil, nil)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = 60 * time.Second

	if err := backoff.Retry(ping, backoff.WithContext(b, ctx)); err != nil {
		return fmt.Errorf("backend did not become healthy: %w", err)
	}
	return c.loadCapabilities(ctx)
}

// Healthy does a single health probe without retrying.
func (c *HTTPClient) Healthy(ctx context.Context) bool {
	return c.doJSON(ctx, http.MethodGet, "/health", nil, nil) == nil
}

func (c *HTTPClient) loadCapabilities(ctx context.Context) error {
	var payload struct {
		Operations []string `json:"operations"`
	}
	err := c.doJSON(ctx, http.MethodGet, "/capabilities", nil, &payload)
	if err != nil {
		var httpErr *StatusError
		if errors.As(err, &httpErr) && httpErr.Code == http.StatusNotFound {
			// Older backends predate the descriptor; assume full support.
			return nil
		}
		return err
	}

	caps := make(map[string]struct{}, len(payload.Operations))
	for _, op := range payload.Operations {
		caps[op] = struct{}{}
	}
	c.mu.Lock()
	c.caps = caps
	c.mu.Unlock()
	return nil
}

// supports reports whether the backend advertises an operation. Before the
// descriptor is loaded every operation is assumed available.
func (c *HTTPClient) supports(op string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.caps == nil {
		return true
	}
	_, ok := c.caps[op]
	return ok
}

func (c *HTTPClient) FetchProgress(ctx context.Context) (progress.Snapshot, error) {
	var snap progress.Snapshot
	err := c.doJSON(ctx, http.MethodGet, "/api/index/progress", nil, &snap)
	return snap, err
}

func (c *HTTPClient) FetchQueue(ctx context.Context) ([]queue.Item, error) {
	var items []queue.Item
	err := c.doJSON(ctx, http.MethodGet, "/api/index/queue", nil, &items)
	return items, err
}

func (c *HTTPClient) FetchFiles(ctx context.Context) (map[string][]index.IndexedFile, error) {
	var files map[string][]index.IndexedFile
	err := c.doJSON(ctx, http.MethodGet, "/api/files", nil, &files)
	return files, err
}

func (c *HTTPClient) GetErrorFiles(ctx context.Context) ([]faults.ErrorFile, error) {
	if !c.supports("get_error_files") {
		return nil, ErrUnsupported
	}
	var files []faults.ErrorFile
	err := c.doJSON(ctx, http.MethodGet, "/api/index/errors", nil, &files)
	return files, err
}

func (c *HTTPClient) RunStagedIndex(ctx context.Context, req StagedIndexRequest) error {
	if !c.supports("run_staged_index") {
		return ErrUnsupported
	}
	return c.doJSON(ctx, http.MethodPost, "/api/index/staged", req, nil)
}

func (c *HTTPClient) RunIndex(ctx context.Context, req IndexRequest) error {
	if !c.supports("run_index") {
		return ErrUnsupported
	}
	return c.doJSON(ctx, http.MethodPost, "/api/index/run", req, nil)
}

func (c *HTTPClient) SetFilePrivacy(ctx context.Context, fileID, level string) error {
	if !c.supports("set_file_privacy") {
		return ErrUnsupported
	}
	body := map[string]interface{}{"file_id": fileID, "level": level}
	return c.doJSON(ctx, http.MethodPost, "/api/privacy/file", body, nil)
}

func (c *HTTPClient) SetFolderPrivacy(ctx context.Context, folderID, level string, cascade bool) error {
	if !c.supports("set_folder_privacy") {
		return ErrUnsupported
	}
	body := map[string]interface{}{"folder_id": folderID, "level": level, "cascade_to_files": cascade}
	return c.doJSON(ctx, http.MethodPost, "/api/privacy/folder", body, nil)
}

func (c *HTTPClient) StartStage(ctx context.Context, stage progress.Stage) error {
	if !c.supports("stage_control") {
		return ErrUnsupported
	}
	return c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/api/index/stage/%s/start", stage), nil, nil)
}

func (c *HTTPClient) StopStage(ctx context.Context, stage progress.Stage) error {
	if !c.supports("stage_control") {
		return ErrUnsupported
	}
	return c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/api/index/stage/%s/stop", stage), nil, nil)
}

// StatusError is a non-2xx backend response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Code, e.Body)
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	c.mu.RLock()
	url := c.baseURL + path
	c.mu.RUnlock()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
