// internal/bridge/client.go
package bridge

import (
	"context"
	"errors"

	"localcocoa/internal/faults"
	"localcocoa/internal/index"
	"localcocoa/internal/progress"
	"localcocoa/internal/queue"
)

// ErrUnsupported is returned when the connected backend does not implement
// an operation. Callers degrade (no-op or disabled affordance) instead of
// failing.
var ErrUnsupported = errors.New("operation not supported by this backend")

// StagedIndexRequest enqueues or re-runs the text and optional embedding
// stages for a scope of folders or files. Folders are addressed by id,
// files by path.
type StagedIndexRequest struct {
	Folders []string `json:"folders,omitempty"`
	Files   []string `json:"files,omitempty"`
	Mode    string   `json:"mode,omitempty"` // "reindex" forces already-indexed files through again
}

// IndexRequest forces a specific indexing mode for given files, used to push
// files through vision-stage processing.
type IndexRequest struct {
	Mode         string   `json:"mode"`
	Files        []string `json:"files"`
	IndexingMode string   `json:"indexing_mode"` // "deep"
}

// ItemEvent is one streamed progress message for an in-flight item.
type ItemEvent struct {
	FilePath string `json:"file_path"`
	Message  string `json:"message"`
	Page     int    `json:"page,omitempty"`
	TS       int64  `json:"ts,omitempty"`
}

// Client names the backend operations the app consumes. The set is a
// capability descriptor: a backend may not implement every operation, in
// which case the method returns ErrUnsupported and the app hides or no-ops
// the corresponding affordance.
type Client interface {
	progress.Controller
	faults.Fetcher

	// Snapshot feeds. Each snapshot is self-consistent and supersedes the
	// previous one entirely; the app places no constraint on cadence.
	FetchProgress(ctx context.Context) (progress.Snapshot, error)
	FetchQueue(ctx context.Context) ([]queue.Item, error)
	FetchFiles(ctx context.Context) (map[string][]index.IndexedFile, error)

	// Control surface.
	RunStagedIndex(ctx context.Context, req StagedIndexRequest) error
	RunIndex(ctx context.Context, req IndexRequest) error
	SetFilePrivacy(ctx context.Context, fileID, level string) error
	SetFolderPrivacy(ctx context.Context, folderID, level string, cascade bool) error

	// Subscribe opens the live per-item event stream. The events channel
	// closes when the context is cancelled.
	Subscribe(ctx context.Context) (<-chan ItemEvent, <-chan error)
}
