// internal/index/classifier.go
package index

import "strings"

// Mode is the single canonical display state for a file, resolved from the
// file's stage markers, legacy status and the live processing set.
type Mode string

const (
	ModeProcessing Mode = "processing"
	ModeDeep       Mode = "deep"
	ModeFast       Mode = "fast"
	ModeError      Mode = "error"
	ModeNone       Mode = "none"
)

// Classify resolves one file's index mode. Precedence is evaluated
// top-to-bottom, first match wins:
//
//  1. processing: the file is in the live processing set, which overrides
//     all stored state
//  2. deep: DeepStage > 0
//  3. fast: FastStage > 0
//  4. error / none: legacy IndexStatus markers
//  5. metadata heuristics for files indexed by older pipeline versions that
//     never wrote stage counters
//
// Stage counters are the source of truth once available; the metadata
// fallback only exists for backward compatibility. Classify is pure: the same
// inputs always yield the same mode.
func Classify(f *IndexedFile, processing map[string]struct{}) Mode {
	if _, ok := processing[f.FullPath]; ok {
		return ModeProcessing
	}
	if f.DeepStage > 0 {
		return ModeDeep
	}
	if f.FastStage > 0 {
		return ModeFast
	}
	switch f.IndexStatus {
	case StatusError:
		return ModeError
	case StatusPending:
		return ModeNone
	}
	if strategy := metadataString(f.Metadata, "chunk_strategy"); strategy != "" {
		if strings.Contains(strategy, "_fine") {
			return ModeDeep
		}
		// Any chunking strategy implies at least fast-level work happened.
		return ModeFast
	}
	switch metadataString(f.Metadata, "pdf_vision_mode") {
	case "deep":
		return ModeDeep
	case "fast":
		return ModeFast
	}
	return ModeNone
}

// metadataString reads a string value out of free-form metadata, returning ""
// when the key is absent or not a string.
func metadataString(meta map[string]any, key string) string {
	if meta == nil {
		return ""
	}
	s, _ := meta[key].(string)
	return s
}
