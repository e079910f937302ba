// internal/index/models.go
package index

// Privacy levels for folders and files
const (
	PrivacyNormal  = "normal"
	PrivacyPrivate = "private"
)

// Legacy index status markers written by older pipeline versions
const (
	StatusIndexed = "indexed"
	StatusPending = "pending"
	StatusError   = "error"
)

// FolderRecord is a folder the user registered for indexing. Path is a
// '/'-separated logical path, unique across records, used to infer hierarchy.
type FolderRecord struct {
	ID           string `json:"id"`
	Path         string `json:"path"`
	Label        string `json:"label,omitempty"`
	PrivacyLevel string `json:"privacy_level"`
}

// IndexedFile is one file in the backend's catalog. The app only reads these;
// the backend owns them. FastStage and DeepStage are monotonically
// non-decreasing step counters per file: any value > 0 means that stage has
// produced output, 0 or absent means the stage has not been reached. The
// magnitude is opaque and never interpreted beyond the sign.
type IndexedFile struct {
	ID           string         `json:"id"`
	FolderID     string         `json:"folder_id"`
	FullPath     string         `json:"full_path"`
	Name         string         `json:"name"`
	Extension    string         `json:"extension,omitempty"`
	Kind         string         `json:"kind,omitempty"`
	Size         int64          `json:"size"`
	IndexStatus  string         `json:"index_status,omitempty"` // indexed, pending, error
	FastStage    int            `json:"fast_stage,omitempty"`
	DeepStage    int            `json:"deep_stage,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	PrivacyLevel string         `json:"privacy_level,omitempty"`
}
