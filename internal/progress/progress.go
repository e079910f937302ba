// internal/progress/progress.go
package progress

import (
	"context"
	"math"
	"sync"
)

// Stage identifies one step of the indexing pipeline as shown to the user.
// Stages always run in order: keyword (text extraction) first, then semantic
// (embedding), then vision (deep analysis).
type Stage string

const (
	StageKeyword  Stage = "keyword"
	StageSemantic Stage = "semantic"
	StageVision   Stage = "vision"
)

// StageCounters holds one stage's counters from a backend snapshot. Percent
// is a server-computed convenience value and is never trusted raw; read it
// through ClampPercent.
type StageCounters struct {
	Done    int     `json:"done"`
	Error   int     `json:"error"`
	Skipped int     `json:"skipped,omitempty"`
	Percent float64 `json:"percent"`
}

// Snapshot is the staged index progress as delivered by the backend. Each
// snapshot is self-consistent and supersedes the previous one entirely.
type Snapshot struct {
	Total           int           `json:"total"`
	FastText        StageCounters `json:"fast_text"`
	FastEmbed       StageCounters `json:"fast_embed"`
	Deep            StageCounters `json:"deep"`
	SemanticEnabled bool          `json:"semantic_enabled"`
	DeepEnabled     bool          `json:"deep_enabled"`
}

// StageInfo is the derived sub-progress for the currently active stage.
type StageInfo struct {
	Stage   Stage `json:"stage"`
	Done    int   `json:"done"`
	Total   int   `json:"total"`
	Percent int   `json:"percent"`
}

// Controller requests stage start/stop from the backend. The request is
// advisory: the model never claims a stage changed state until the next
// snapshot confirms it.
type Controller interface {
	StartStage(ctx context.Context, stage Stage) error
	StopStage(ctx context.Context, stage Stage) error
}

// Model owns the three-stage progress state. Snapshots are replaced
// wholesale; every derived value is recomputed from the latest snapshot, so
// concurrent readers never observe a half-applied update.
type Model struct {
	mu   sync.RWMutex
	snap Snapshot
	busy map[Stage]bool
}

func NewModel() *Model {
	return &Model{busy: make(map[Stage]bool)}
}

// Apply replaces the current snapshot.
func (m *Model) Apply(snap Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = snap
}

// Snapshot returns the latest snapshot with percents clamped.
func (m *Model) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := m.snap
	snap.FastText.Percent = float64(ClampPercent(snap.FastText.Percent))
	snap.FastEmbed.Percent = float64(ClampPercent(snap.FastEmbed.Percent))
	snap.Deep.Percent = float64(ClampPercent(snap.Deep.Percent))
	return snap
}

// ActiveStage derives the single stage currently in flight, in pipeline
// order: text before embedding, embedding before vision. Returns false when
// nothing is indexed yet, everything has converged, or the remaining stages
// are disabled.
func (m *Model) ActiveStage() (Stage, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return activeStage(m.snap)
}

func activeStage(snap Snapshot) (Stage, bool) {
	if snap.Total == 0 {
		return "", false
	}
	if ClampPercent(snap.FastText.Percent) < 100 {
		return StageKeyword, true
	}
	if snap.SemanticEnabled && ClampPercent(snap.FastEmbed.Percent) < 100 {
		return StageSemantic, true
	}
	if snap.DeepEnabled && ClampPercent(snap.Deep.Percent) < 100 {
		return StageVision, true
	}
	return "", false
}

// StageInfo returns the active stage's sub-progress, or false when no stage
// is active.
func (m *Model) StageInfo() (StageInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stage, ok := activeStage(m.snap)
	if !ok {
		return StageInfo{}, false
	}

	var counters StageCounters
	switch stage {
	case StageKeyword:
		counters = m.snap.FastText
	case StageSemantic:
		counters = m.snap.FastEmbed
	case StageVision:
		counters = m.snap.Deep
	}

	return StageInfo{
		Stage:   stage,
		Done:    counters.Done,
		Total:   m.snap.Total,
		Percent: ClampPercent(counters.Percent),
	}, true
}

// StageEnabled reports the latest confirmed enablement flag for a stage.
// Keyword has no toggle and is always enabled.
func (m *Model) StageEnabled(stage Stage) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	switch stage {
	case StageSemantic:
		return m.snap.SemanticEnabled
	case StageVision:
		return m.snap.DeepEnabled
	}
	return true
}

// CanToggle reports whether the toggle affordance for a stage should be
// offered. A stage may only be toggled once its input is ready (the prior
// stage at 100%) and while it has not itself completed. Starting a later
// stage before its input exists is a contract violation; the guard keeps the
// affordance off the interface entirely rather than deferring to the backend
// to reject it.
func (m *Model) CanToggle(stage Stage) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := m.snap
	if snap.Total == 0 {
		return false
	}
	textDone := ClampPercent(snap.FastText.Percent) == 100

	switch stage {
	case StageSemantic:
		return textDone && ClampPercent(snap.FastEmbed.Percent) < 100
	case StageVision:
		embedDone := ClampPercent(snap.FastEmbed.Percent) == 100 || !snap.SemanticEnabled
		return textDone && embedDone && ClampPercent(snap.Deep.Percent) < 100
	}
	return false
}

// Busy reports whether a toggle round trip is in flight for the stage. The
// flag is optimistic UI state only; the enabled flag itself changes with the
// next confirming snapshot.
func (m *Model) Busy(stage Stage) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.busy[stage]
}

// Toggle requests the opposite of the stage's last confirmed state from the
// backend. Rejections surface as the returned error and leave the model
// untouched; they are never retried here.
func (m *Model) Toggle(ctx context.Context, ctrl Controller, stage Stage) error {
	if stage != StageSemantic && stage != StageVision {
		return ErrStageFixed
	}
	if !m.CanToggle(stage) {
		return ErrStageNotReady
	}

	m.mu.Lock()
	if m.busy[stage] {
		m.mu.Unlock()
		return ErrToggleInFlight
	}
	m.busy[stage] = true
	enabled := stage == StageSemantic && m.snap.SemanticEnabled ||
		stage == StageVision && m.snap.DeepEnabled
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		delete(m.busy, stage)
		m.mu.Unlock()
	}()

	if enabled {
		return ctrl.StopStage(ctx, stage)
	}
	return ctrl.StartStage(ctx, stage)
}

// TotalErrors sums the stage-local error counts for the footer summary.
func (m *Model) TotalErrors() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snap.FastText.Error + m.snap.FastEmbed.Error + m.snap.Deep.Error
}

// TotalSkipped reports the skip count. Only the vision stage reports skips
// (documents intentionally excluded from deep analysis).
func (m *Model) TotalSkipped() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snap.Deep.Skipped
}

// ClampPercent normalizes a server-computed percent to an integer in
// [0,100], rounded to nearest. Any numeric value clamps into the range, so
// the infinities land on the nearest bound; only NaN maps to 0.
func ClampPercent(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return int(math.Round(v))
}
