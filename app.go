// app.go
package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"localcocoa/internal/bridge"
	"localcocoa/internal/catalog"
	"localcocoa/internal/config"
	"localcocoa/internal/eventhub"
	"localcocoa/internal/faults"
	"localcocoa/internal/process"
	"localcocoa/internal/progress"
	"localcocoa/internal/queue"
	"localcocoa/internal/runlog"
	"localcocoa/internal/watcher"
)

// App struct contains the core application state and managers
type App struct {
	ctx    context.Context
	mu     sync.RWMutex
	config *config.Config

	// Core managers
	catalogDB     *catalog.Catalog
	eventHub      *eventhub.EventHub
	supervisor    *process.Supervisor
	client        *bridge.HTTPClient
	poller        *bridge.Poller
	progressModel *progress.Model
	indexQueue    *queue.Queue
	faultRegistry *faults.Registry
	runLogStore   *runlog.Store
	fsWatcher     *watcher.Watcher

	pollCancel context.CancelFunc
}

// NewApp creates a new App application struct
func NewApp() *App {
	return &App{}
}

// startup is called when the app starts (Wails callback)
func (a *App) startup(ctx context.Context) {
	a.startupCommon(ctx)
	a.SetEventHubBroadcaster(&wailsBroadcaster{ctx: ctx})
}

// Startup is the exported version for standalone server
func (a *App) Startup(ctx context.Context) {
	a.startupCommon(ctx)
}

// initModels creates the in-memory view models and the bridge client. They
// exist even when startup later fails: a bound method must never hit a nil
// model, the worst case is an empty view.
func (a *App) initModels(ctx context.Context) {
	a.eventHub = eventhub.New(ctx)
	a.progressModel = progress.NewModel()
	a.indexQueue = queue.New()
	a.client = bridge.NewHTTPClient("")
	a.faultRegistry = faults.NewRegistry(a.client)
}

// startupCommon contains the common startup logic
func (a *App) startupCommon(ctx context.Context) {
	a.ctx = ctx
	a.initModels(ctx)

	// Load config
	cfg, err := config.Load()
	if err != nil {
		runtime.LogError(ctx, "Failed to load config: "+err.Error())
		return
	}
	a.mu.Lock()
	a.config = cfg
	a.mu.Unlock()

	a.client.SetBaseURL(cfg.File.BackendURL)

	// Open the folder catalog
	db, err := catalog.Open(cfg.DatabasePath)
	if err != nil {
		runtime.LogError(ctx, "Failed to open catalog: "+err.Error())
	} else {
		a.catalogDB = db
	}

	a.runLogStore = runlog.NewStore(cfg.RunLogDir)

	// Filesystem watcher for registered folders
	fsw, err := watcher.New(
		time.Duration(cfg.File.WatchDebounceMs)*time.Millisecond,
		cfg.ShouldIgnore,
		a.handleFileChange,
	)
	if err != nil {
		runtime.LogError(ctx, "Failed to create watcher: "+err.Error())
	} else {
		a.fsWatcher = fsw
		a.watchRegisteredFolders()
		if err := fsw.Start(); err != nil {
			runtime.LogError(ctx, "Failed to start watcher: "+err.Error())
		}
	}

	// Connect to the backend. A configured URL means an externally managed
	// backend; otherwise the app spawns it and discovers the port.
	go a.connectBackend(ctx)

	runtime.LogInfo(ctx, "localcocoa started successfully")
}

// connectBackend establishes the backend connection and starts the poller.
func (a *App) connectBackend(ctx context.Context) {
	cfg := a.appConfig()
	if cfg == nil {
		return
	}

	if cfg.File.BackendURL == "" {
		if len(cfg.File.BackendCommand) == 0 {
			runtime.LogError(ctx, "No backend_url or backend_command configured")
			return
		}

		supervisor := process.NewSupervisor(ctx, cfg.File.BackendCommand, a)
		if err := supervisor.Start(); err != nil {
			runtime.LogError(ctx, "Failed to start backend: "+err.Error())
			return
		}
		a.mu.Lock()
		a.supervisor = supervisor
		a.mu.Unlock()

		portCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
		defer cancel()
		port, err := supervisor.WaitForPort(portCtx)
		if err != nil {
			runtime.LogError(ctx, "Backend never announced its port: "+err.Error())
			return
		}
		a.client.SetBaseURL(fmt.Sprintf("http://127.0.0.1:%d", port))
	}

	if err := a.client.Connect(ctx); err != nil {
		runtime.LogError(ctx, "Backend connection failed: "+err.Error())
		return
	}

	interval := time.Duration(cfg.File.PollIntervalMs) * time.Millisecond
	poller := bridge.NewPoller(a.client, a.eventHub, a.progressModel, a.indexQueue, interval)
	poller.AddObserver(runlog.NewRecorder(a.runLogStore))

	pollCtx, cancel := context.WithCancel(ctx)
	a.mu.Lock()
	a.poller = poller
	a.pollCancel = cancel
	a.mu.Unlock()

	go poller.Run(pollCtx)
}

// watchRegisteredFolders adds every cataloged folder to the watcher.
func (a *App) watchRegisteredFolders() {
	if a.catalogDB == nil || a.fsWatcher == nil {
		return
	}
	folders, err := a.catalogDB.ListFolders()
	if err != nil {
		runtime.LogError(a.ctx, "Failed to list folders for watching: "+err.Error())
		return
	}
	for _, folder := range folders {
		if err := a.fsWatcher.AddPath(folder.Path); err != nil {
			runtime.LogError(a.ctx, "Failed to watch "+folder.Path+": "+err.Error())
		}
	}
}

// handleFileChange reacts to a debounced filesystem event inside a watched
// folder: notify the frontend and ask the backend to pick the file up.
func (a *App) handleFileChange(ev watcher.Event) {
	if a.eventHub != nil {
		a.eventHub.EmitFolderChanged(eventhub.FolderChangedEvent{Path: ev.Path})
	}

	if ev.Type == watcher.EventDelete {
		return
	}
	err := a.client.RunStagedIndex(a.ctx, bridge.StagedIndexRequest{
		Files: []string{ev.Path},
	})
	if err != nil && err != bridge.ErrUnsupported {
		runtime.LogError(a.ctx, "Rescan request failed: "+err.Error())
	}
}

// backendSupervisor reads the supervisor pointer, which the connect
// goroutine may still be assigning.
func (a *App) backendSupervisor() *process.Supervisor {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.supervisor
}

// appConfig reads the loaded config; nil until startup got that far.
func (a *App) appConfig() *config.Config {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.config
}

// BackendStateChanged implements process.StateListener.
func (a *App) BackendStateChanged(state string, pid int) {
	if a.eventHub != nil {
		a.eventHub.EmitBackendState(eventhub.BackendStateEvent{State: state, PID: pid})
	}
}

// shutdown is called when the app is shutting down (Wails callback)
func (a *App) shutdown(ctx context.Context) {
	a.shutdownCommon(ctx)
}

// Shutdown is the exported version for standalone server
func (a *App) Shutdown(ctx context.Context) {
	a.shutdownCommon(ctx)
}

// shutdownCommon contains the common shutdown logic
func (a *App) shutdownCommon(ctx context.Context) {
	a.mu.Lock()
	cancel := a.pollCancel
	a.mu.Unlock()
	if cancel != nil {
		cancel()
	}

	if a.fsWatcher != nil {
		a.fsWatcher.Close()
	}

	// Stop the spawned backend
	if supervisor := a.backendSupervisor(); supervisor != nil {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer stopCancel()
		if err := supervisor.Stop(stopCtx); err != nil {
			runtime.LogError(ctx, "Backend shutdown failed: "+err.Error())
		}
	}

	if a.catalogDB != nil {
		a.catalogDB.Close()
	}

	runtime.LogInfo(ctx, "localcocoa shutdown complete")
}

// wailsBroadcaster adapts Wails runtime events to eventhub.Broadcaster
type wailsBroadcaster struct {
	ctx context.Context
}

func (b *wailsBroadcaster) BroadcastEvent(eventType string, payload interface{}) {
	runtime.EventsEmit(b.ctx, eventType, payload)
}

// SetEventHubBroadcaster wires the event transport (Wails or WebSocket mode)
func (a *App) SetEventHubBroadcaster(broadcaster eventhub.Broadcaster) {
	if a.eventHub != nil {
		a.eventHub.SetBroadcaster(broadcaster)
	}
}
