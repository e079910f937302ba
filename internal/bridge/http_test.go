// internal/bridge/http_test.go
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"localcocoa/internal/progress"
)

func newBackendStub(t *testing.T, caps []string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/capabilities", func(w http.ResponseWriter, r *http.Request) {
		if caps == nil {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(map[string][]string{"operations": caps})
	})
	mux.HandleFunc("/api/index/progress", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(progress.Snapshot{
			Total:           10,
			FastText:        progress.StageCounters{Done: 10, Percent: 100},
			FastEmbed:       progress.StageCounters{Done: 4, Percent: 40},
			SemanticEnabled: true,
		})
	})
	mux.HandleFunc("/api/index/staged", func(w http.ResponseWriter, r *http.Request) {
		var req StagedIndexRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.Mode != "reindex" {
			http.Error(w, "unexpected mode", http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestHTTPClient_ConnectAndFetch(t *testing.T) {
	server := newBackendStub(t, []string{"run_staged_index", "stage_control"})
	client := NewHTTPClient(server.URL)

	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	snap, err := client.FetchProgress(context.Background())
	if err != nil {
		t.Fatalf("FetchProgress failed: %v", err)
	}
	if snap.Total != 10 || snap.FastEmbed.Done != 4 {
		t.Errorf("unexpected snapshot: %+v", snap)
	}

	if err := client.RunStagedIndex(context.Background(), StagedIndexRequest{Mode: "reindex", Folders: []string{"f1"}}); err != nil {
		t.Errorf("RunStagedIndex failed: %v", err)
	}
}

func TestHTTPClient_RequestEncodings(t *testing.T) {
	var staged StagedIndexRequest
	var deep IndexRequest

	mux := http.NewServeMux()
	mux.HandleFunc("/api/index/staged", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&staged)
	})
	mux.HandleFunc("/api/index/run", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&deep)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewHTTPClient(server.URL)

	err := client.RunStagedIndex(context.Background(), StagedIndexRequest{
		Folders: []string{"folder-1", "folder-2"},
		Mode:    "reindex",
	})
	if err != nil {
		t.Fatalf("RunStagedIndex failed: %v", err)
	}
	if len(staged.Folders) != 2 || staged.Folders[0] != "folder-1" {
		t.Errorf("folders = %v, want the folder ids", staged.Folders)
	}
	if staged.Mode != "reindex" {
		t.Errorf("mode = %q, want reindex", staged.Mode)
	}

	err = client.RunIndex(context.Background(), IndexRequest{
		Mode:         "reindex",
		Files:        []string{"/docs/report.pdf"},
		IndexingMode: "deep",
	})
	if err != nil {
		t.Fatalf("RunIndex failed: %v", err)
	}
	if deep.Mode != "reindex" {
		t.Errorf("mode = %q, want reindex", deep.Mode)
	}
	if deep.IndexingMode != "deep" || len(deep.Files) != 1 {
		t.Errorf("unexpected request: %+v", deep)
	}
}

func TestHTTPClient_UnadvertisedOperationIsUnsupported(t *testing.T) {
	server := newBackendStub(t, []string{"run_staged_index"})
	client := NewHTTPClient(server.URL)

	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	if err := client.StartStage(context.Background(), progress.StageSemantic); !errors.Is(err, ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
	if _, err := client.GetErrorFiles(context.Background()); !errors.Is(err, ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
}

func TestHTTPClient_MissingCapabilitiesEndpointAssumesFullSupport(t *testing.T) {
	server := newBackendStub(t, nil)
	client := NewHTTPClient(server.URL)

	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	// No descriptor: the staged-index endpoint is still reachable.
	if err := client.RunStagedIndex(context.Background(), StagedIndexRequest{Mode: "reindex"}); err != nil {
		t.Errorf("RunStagedIndex failed: %v", err)
	}
}

func TestHTTPClient_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	_, err := client.FetchQueue(context.Background())

	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != http.StatusInternalServerError {
		t.Errorf("expected a 500 StatusError, got %v", err)
	}
}
