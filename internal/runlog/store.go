// internal/runlog/store.go
package runlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"localcocoa/internal/queue"
)

// ItemOutcome is one file's final state in a finished indexing run.
type ItemOutcome struct {
	FilePath string        `json:"file_path"`
	Status   string        `json:"status"`
	Detail   string        `json:"detail,omitempty"`
	Events   []queue.Event `json:"events,omitempty"`
}

// Run is one drained indexing run: everything that moved through the queue
// between the first item appearing and the queue emptying.
type Run struct {
	ID         string        `json:"id"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Succeeded  int           `json:"succeeded"`
	Failed     int           `json:"failed"`
	Items      []ItemOutcome `json:"-"`
}

// Summary is the run metadata without the per-item event logs.
type Summary struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
}

// Store persists finished runs under one directory per run: metadata.json
// for the summary, items.zst for the compressed per-item event logs.
type Store struct {
	baseDir string
	mu      sync.Mutex
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

func NewStore(baseDir string) *Store {
	encoder, _ := zstd.NewWriter(nil)
	decoder, _ := zstd.NewReader(nil)
	return &Store{baseDir: baseDir, encoder: encoder, decoder: decoder}
}

// Save writes a finished run to disk.
func (s *Store) Save(run *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	runDir := filepath.Join(s.baseDir, run.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return fmt.Errorf("create run dir: %w", err)
	}

	summary := Summary{
		ID:         run.ID,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
		Succeeded:  run.Succeeded,
		Failed:     run.Failed,
	}
	metadata, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(runDir, "metadata.json"), metadata, 0644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}

	items, err := json.Marshal(run.Items)
	if err != nil {
		return fmt.Errorf("marshal items: %w", err)
	}
	compressed := s.encoder.EncodeAll(items, nil)
	if err := os.WriteFile(filepath.Join(runDir, "items.zst"), compressed, 0644); err != nil {
		return fmt.Errorf("write items: %w", err)
	}
	return nil
}

// List returns summaries of all stored runs, newest first.
func (s *Store) List() ([]Summary, error) {
	entries, err := os.ReadDir(s.baseDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var summaries []Summary
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name(), "metadata.json"))
		if err != nil {
			continue // partially written run, skip
		}
		var summary Summary
		if err := json.Unmarshal(data, &summary); err != nil {
			continue
		}
		summaries = append(summaries, summary)
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].FinishedAt.After(summaries[j].FinishedAt)
	})
	return summaries, nil
}

// Load reads one run back including its item outcomes.
func (s *Store) Load(id string) (*Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	runDir := filepath.Join(s.baseDir, id)
	metadata, err := os.ReadFile(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	var summary Summary
	if err := json.Unmarshal(metadata, &summary); err != nil {
		return nil, fmt.Errorf("parse metadata: %w", err)
	}

	compressed, err := os.ReadFile(filepath.Join(runDir, "items.zst"))
	if err != nil {
		return nil, fmt.Errorf("read items: %w", err)
	}
	raw, err := s.decoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress items: %w", err)
	}
	var items []ItemOutcome
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("parse items: %w", err)
	}

	return &Run{
		ID:         summary.ID,
		StartedAt:  summary.StartedAt,
		FinishedAt: summary.FinishedAt,
		Succeeded:  summary.Succeeded,
		Failed:     summary.Failed,
		Items:      items,
	}, nil
}
