// internal/faults/faults.go
package faults

import "context"

// ErrorFile is a read-only projection of a file that terminally failed
// indexing. It is fetched on demand and not kept in sync with the live queue.
type ErrorFile struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Path        string `json:"path"`
	ErrorReason string `json:"error_reason,omitempty"`
	ErrorAt     int64  `json:"error_at,omitempty"`
}

// Fetcher retrieves the current failure list from the backend.
type Fetcher interface {
	GetErrorFiles(ctx context.Context) ([]ErrorFile, error)
}

// Registry lists terminally failed files. Every Fetch goes to the backend:
// caching here would hide retries and resolutions that happened since the
// last look.
type Registry struct {
	fetcher Fetcher
}

func NewRegistry(fetcher Fetcher) *Registry {
	return &Registry{fetcher: fetcher}
}

// Fetch returns the latest failure list.
func (r *Registry) Fetch(ctx context.Context) ([]ErrorFile, error) {
	return r.fetcher.GetErrorFiles(ctx)
}
