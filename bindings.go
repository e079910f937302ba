// bindings.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	goruntime "runtime"
	"time"

	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v4/process"
	"github.com/wailsapp/wails/v2/pkg/runtime"

	"localcocoa/internal/bridge"
	"localcocoa/internal/faults"
	"localcocoa/internal/hierarchy"
	"localcocoa/internal/index"
	"localcocoa/internal/progress"
	"localcocoa/internal/queue"
	"localcocoa/internal/runlog"
)

// ===== Window Bindings =====

// ToggleFullscreen toggles the macOS native fullscreen mode
// This uses CGO to call NSWindow.toggleFullScreen directly
// because Wails v2's WindowFullscreen() doesn't work with Frameless windows on macOS
func (a *App) ToggleFullscreen() {
	ToggleNativeFullscreen()
}

// IsFullscreen returns true if the window is in fullscreen mode
func (a *App) IsFullscreen() bool {
	return IsNativeFullscreen()
}

// ===== Folder Bindings =====

// AddFolder registers a folder for indexing, starts watching it, and asks
// the backend to index its contents
func (a *App) AddFolder(path, label string) (*index.FolderRecord, error) {
	if a.catalogDB == nil {
		return nil, errors.New("catalog not available")
	}

	folder := &index.FolderRecord{
		ID:           uuid.New().String(),
		Path:         filepath.ToSlash(path),
		Label:        label,
		PrivacyLevel: index.PrivacyNormal,
	}
	if err := a.catalogDB.AddFolder(folder); err != nil {
		return nil, err
	}

	if a.fsWatcher != nil {
		if err := a.fsWatcher.AddPath(path); err != nil {
			runtime.LogError(a.ctx, "Failed to watch "+path+": "+err.Error())
		}
	}

	err := a.client.RunStagedIndex(a.ctx, bridge.StagedIndexRequest{
		Folders: []string{folder.ID},
	})
	if err != nil && !errors.Is(err, bridge.ErrUnsupported) {
		runtime.LogError(a.ctx, "Initial index request failed: "+err.Error())
	}

	return folder, nil
}

// RemoveFolder unregisters a folder and stops watching it. Already indexed
// data stays with the backend until it prunes on its own schedule.
func (a *App) RemoveFolder(id string) error {
	if a.catalogDB == nil {
		return errors.New("catalog not available")
	}

	folder, err := a.catalogDB.GetFolder(id)
	if err != nil {
		return err
	}
	if a.fsWatcher != nil {
		a.fsWatcher.RemovePath(folder.Path)
	}
	return a.catalogDB.RemoveFolder(id)
}

// ListFolders returns all registered folders
func (a *App) ListFolders() ([]index.FolderRecord, error) {
	if a.catalogDB == nil {
		return nil, nil
	}
	return a.catalogDB.ListFolders()
}

// SetFolderPrivacy updates a folder's privacy level locally and on the
// backend, optionally cascading to already-indexed files
func (a *App) SetFolderPrivacy(id, level string, cascade bool) error {
	if a.catalogDB == nil {
		return errors.New("catalog not available")
	}
	if level != index.PrivacyNormal && level != index.PrivacyPrivate {
		return fmt.Errorf("unknown privacy level: %s", level)
	}

	if err := a.catalogDB.SetFolderPrivacy(id, level); err != nil {
		return err
	}

	err := a.client.SetFolderPrivacy(a.ctx, id, level, cascade)
	if errors.Is(err, bridge.ErrUnsupported) {
		return nil
	}
	return err
}

// GetFolderTree builds the display hierarchy over all registered folders,
// with per-node file counts and sizes rolled up bottom-up
func (a *App) GetFolderTree() (*hierarchy.Node, error) {
	if a.catalogDB == nil {
		return nil, errors.New("catalog not available")
	}

	folders, err := a.catalogDB.ListFolders()
	if err != nil {
		return nil, err
	}

	filesByFolder, err := a.client.FetchFiles(a.ctx)
	if err != nil {
		runtime.LogError(a.ctx, "Failed to fetch files, building bare tree: "+err.Error())
		filesByFolder = nil
	}

	return hierarchy.Build(folders, filesByFolder), nil
}

// ===== File Bindings =====

// FileView is an indexed file together with its resolved display mode
type FileView struct {
	index.IndexedFile
	IndexMode index.Mode `json:"index_mode"`
}

// ListFolderFiles returns a folder's files with each file's index mode
// resolved against the live processing set
func (a *App) ListFolderFiles(folderID string) ([]FileView, error) {
	filesByFolder, err := a.client.FetchFiles(a.ctx)
	if err != nil {
		return nil, err
	}

	processing := a.indexQueue.ProcessingPaths()
	files := filesByFolder[folderID]
	views := make([]FileView, 0, len(files))
	for i := range files {
		views = append(views, FileView{
			IndexedFile: files[i],
			IndexMode:   index.Classify(&files[i], processing),
		})
	}
	return views, nil
}

// SetFilePrivacy updates one file's privacy level on the backend
func (a *App) SetFilePrivacy(fileID, level string) error {
	if level != index.PrivacyNormal && level != index.PrivacyPrivate {
		return fmt.Errorf("unknown privacy level: %s", level)
	}
	return a.client.SetFilePrivacy(a.ctx, fileID, level)
}

// ===== Progress Bindings =====

// GetIndexProgress returns the latest staged progress snapshot
func (a *App) GetIndexProgress() progress.Snapshot {
	return a.progressModel.Snapshot()
}

// ActiveStageInfo is the currently active stage with its sub-progress,
// or Active=false when the pipeline is idle or converged
type ActiveStageInfo struct {
	Active bool               `json:"active"`
	Info   progress.StageInfo `json:"info,omitempty"`
}

// GetActiveStage returns which pipeline stage is currently in flight
func (a *App) GetActiveStage() ActiveStageInfo {
	info, ok := a.progressModel.StageInfo()
	return ActiveStageInfo{Active: ok, Info: info}
}

// GetStageEnabled reports whether a toggleable stage is currently on
func (a *App) GetStageEnabled(stage string) bool {
	return a.progressModel.StageEnabled(progress.Stage(stage))
}

// CanToggleStage reports whether a stage toggle would currently be accepted
func (a *App) CanToggleStage(stage string) bool {
	return a.progressModel.CanToggle(progress.Stage(stage))
}

// ToggleStage flips the semantic or vision stage on or off. The keyword
// stage is fixed and cannot be toggled.
func (a *App) ToggleStage(stage string) error {
	return a.progressModel.Toggle(a.ctx, a.client, progress.Stage(stage))
}

// GetIndexErrorCount returns the total error count across all stages
func (a *App) GetIndexErrorCount() int {
	return a.progressModel.TotalErrors()
}

// GetIndexSkippedCount returns the total skipped count across all stages
func (a *App) GetIndexSkippedCount() int {
	return a.progressModel.TotalSkipped()
}

// ===== Queue Bindings =====

// GetIndexingQueue returns the current queue contents
func (a *App) GetIndexingQueue() []queue.Item {
	return a.indexQueue.Items()
}

// QueuePreview bundles everything the compact queue widget renders: the
// processing item, the pending depth, and the recent-event tail
type QueuePreview struct {
	Processing ProcessingItemView `json:"processing"`
	Pending    int                `json:"pending"`
	Tail       []queue.Event      `json:"tail,omitempty"`
}

// GetQueuePreview returns the compact live view of the queue
func (a *App) GetQueuePreview() QueuePreview {
	item, ok := a.indexQueue.ProcessingItem()
	return QueuePreview{
		Processing: ProcessingItemView{Found: ok, Item: item},
		Pending:    a.indexQueue.PendingCount(),
		Tail:       a.indexQueue.StreamEvents(),
	}
}

// ProcessingItemView wraps the live-detail item; Found=false when nothing
// is processing
type ProcessingItemView struct {
	Found bool       `json:"found"`
	Item  queue.Item `json:"item,omitempty"`
}

// GetProcessingItem returns the item currently shown with live detail
func (a *App) GetProcessingItem() ProcessingItemView {
	item, ok := a.indexQueue.ProcessingItem()
	return ProcessingItemView{Found: ok, Item: item}
}

// GetPendingCount returns how many items are queued but not yet started
func (a *App) GetPendingCount() int {
	return a.indexQueue.PendingCount()
}

// GetStreamEvents returns the live display tail for the processing item,
// most recent first
func (a *App) GetStreamEvents() []queue.Event {
	return a.indexQueue.StreamEvents()
}

// PreviewEventView wraps the compact preview event; Found=false when there
// is nothing to show
type PreviewEventView struct {
	Found bool        `json:"found"`
	Event queue.Event `json:"event,omitempty"`
}

// GetPreviewEvent returns the single most recent event for compact display
func (a *App) GetPreviewEvent() PreviewEventView {
	ev, ok := a.indexQueue.PreviewEvent()
	return PreviewEventView{Found: ok, Event: ev}
}

// RemoveQueueItem dequeues one pending item. Processing items cannot be
// removed locally.
func (a *App) RemoveQueueItem(filePath string) error {
	return a.indexQueue.Remove(filePath)
}

// ===== Indexing Control Bindings =====

// ReindexFolders pushes all files of the given folders through the fast
// stages again. The scope is encoded as folder ids; unknown ids are
// rejected before anything reaches the backend.
func (a *App) ReindexFolders(folderIDs []string) error {
	if a.catalogDB == nil {
		return errors.New("catalog not available")
	}

	for _, id := range folderIDs {
		if _, err := a.catalogDB.GetFolder(id); err != nil {
			return err
		}
	}

	return a.client.RunStagedIndex(a.ctx, bridge.StagedIndexRequest{
		Folders: folderIDs,
		Mode:    "reindex",
	})
}

// ReindexFiles pushes specific files through the fast stages again
func (a *App) ReindexFiles(paths []string) error {
	return a.client.RunStagedIndex(a.ctx, bridge.StagedIndexRequest{
		Files: paths,
		Mode:  "reindex",
	})
}

// RunDeepIndex forces the given files through vision-stage processing
func (a *App) RunDeepIndex(paths []string) error {
	return a.client.RunIndex(a.ctx, bridge.IndexRequest{
		Mode:         "reindex",
		Files:        paths,
		IndexingMode: "deep",
	})
}

// ===== Error File Bindings =====

// GetErrorFiles fetches the files that failed indexing. Always refetched
// from the backend; errors resolve out-of-band and a stale list is worse
// than a slow one.
func (a *App) GetErrorFiles() ([]faults.ErrorFile, error) {
	files, err := a.faultRegistry.Fetch(a.ctx)
	if errors.Is(err, bridge.ErrUnsupported) {
		return nil, nil
	}
	return files, err
}

// RevealErrorFile shows a failed file in the system file manager
func (a *App) RevealErrorFile(path string) error {
	return a.ShowInFolder(path)
}

// ===== Run Log Bindings =====

// ListRunLogs returns summaries of archived indexing runs, newest first
func (a *App) ListRunLogs() ([]runlog.Summary, error) {
	if a.runLogStore == nil {
		return nil, nil
	}
	return a.runLogStore.List()
}

// GetRunLog loads one archived run including per-item event logs
func (a *App) GetRunLog(id string) (*runlog.Run, error) {
	if a.runLogStore == nil {
		return nil, errors.New("run log store not available")
	}
	return a.runLogStore.Load(id)
}

// ===== Backend Bindings =====

// BackendStatus describes the indexing backend process
type BackendStatus struct {
	Running bool   `json:"running"`
	PID     int    `json:"pid,omitempty"`
	Managed bool   `json:"managed"`
	URL     string `json:"url,omitempty"`
}

// GetBackendStatus reports whether the backend is up and who manages it
func (a *App) GetBackendStatus() BackendStatus {
	var status BackendStatus
	if cfg := a.appConfig(); cfg != nil {
		status.URL = cfg.File.BackendURL
	}
	if supervisor := a.backendSupervisor(); supervisor != nil {
		status.Managed = true
		status.Running = supervisor.IsRunning()
		status.PID = supervisor.PID()
	} else if status.URL != "" {
		// Externally managed; reachable means running.
		status.Running = a.client.Healthy(a.ctx)
	}
	return status
}

// BackendStats holds resource usage of the spawned backend process
type BackendStats struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemoryRSS  uint64  `json:"memory_rss"`
}

// GetBackendStats samples CPU and memory usage of the spawned backend.
// Only available when the app manages the backend process itself.
func (a *App) GetBackendStats() (*BackendStats, error) {
	supervisor := a.backendSupervisor()
	if supervisor == nil || !supervisor.IsRunning() {
		return nil, errors.New("backend not managed by this app")
	}

	proc, err := process.NewProcess(int32(supervisor.PID()))
	if err != nil {
		return nil, err
	}

	stats := &BackendStats{}
	if cpu, err := proc.CPUPercent(); err == nil {
		stats.CPUPercent = cpu
	}
	if mem, err := proc.MemoryInfo(); err == nil && mem != nil {
		stats.MemoryRSS = mem.RSS
	}
	return stats, nil
}

// RestartBackend stops and respawns the managed backend process
func (a *App) RestartBackend() error {
	supervisor := a.backendSupervisor()
	if supervisor == nil {
		return errors.New("backend not managed by this app")
	}

	stopCtx, cancel := context.WithTimeout(a.ctx, 15*time.Second)
	defer cancel()
	if err := supervisor.Stop(stopCtx); err != nil {
		return err
	}

	a.mu.Lock()
	if a.pollCancel != nil {
		a.pollCancel()
		a.pollCancel = nil
	}
	a.mu.Unlock()

	go a.connectBackend(a.ctx)
	return nil
}

// ===== Settings Bindings =====

// SaveSetting stores a key/value setting
func (a *App) SaveSetting(key, value string) error {
	if a.catalogDB == nil {
		return errors.New("catalog not available")
	}
	return a.catalogDB.SaveSetting(key, value)
}

// GetSetting retrieves a setting value, empty when unset
func (a *App) GetSetting(key string) (string, error) {
	if a.catalogDB == nil {
		return "", nil
	}
	return a.catalogDB.GetSetting(key)
}

// GetHomeDirectory returns the user's home directory
func (a *App) GetHomeDirectory() string {
	if cfg := a.appConfig(); cfg != nil {
		return cfg.HomeDir
	}
	home, _ := os.UserHomeDir()
	return home
}

// OpenDirectoryDialog opens a native directory picker
func (a *App) OpenDirectoryDialog(title, defaultPath string) (string, error) {
	return runtime.OpenDirectoryDialog(a.ctx, runtime.OpenDialogOptions{
		Title:            title,
		DefaultDirectory: defaultPath,
	})
}

// ===== System Bindings =====

// ShowInFolder reveals a file in the system file manager
func (a *App) ShowInFolder(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("file not found: %s", path)
	}

	switch goruntime.GOOS {
	case "darwin":
		return exec.Command("open", "-R", path).Start()
	case "windows":
		return exec.Command("explorer", "/select,", filepath.FromSlash(path)).Start()
	default:
		return exec.Command("xdg-open", filepath.Dir(path)).Start()
	}
}

// OpenFile opens a file with its default application
func (a *App) OpenFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("file not found: %s", path)
	}

	switch goruntime.GOOS {
	case "darwin":
		return exec.Command("open", path).Start()
	case "windows":
		return exec.Command("cmd", "/c", "start", "", filepath.FromSlash(path)).Start()
	default:
		return exec.Command("xdg-open", path).Start()
	}
}

// OpenExternal opens a URL in the system browser
func (a *App) OpenExternal(url string) error {
	switch goruntime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("cmd", "/c", "start", "", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}
