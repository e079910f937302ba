//go:build !server

// +build !server

package main

import (
	"embed"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/logger"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/mac"
	"github.com/wailsapp/wails/v2/pkg/options/windows"
)

// FileLoader serves local preview images for the frontend
type FileLoader struct{}

// NewFileLoader creates a new FileLoader instance
func NewFileLoader() *FileLoader {
	return &FileLoader{}
}

// ServeHTTP handles HTTP requests for local files
// Based on Wails official FileLoader example
func (f *FileLoader) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Check if this is a request for local file (with /wails-local-file/ prefix)
	if !strings.HasPrefix(r.URL.Path, "/wails-local-file/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	requestedPath := strings.TrimPrefix(r.URL.Path, "/wails-local-file")

	decodedPath, err := url.PathUnescape(requestedPath)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(fmt.Sprintf("Could not decode path: %s", requestedPath)))
		return
	}

	// Only previews and app data are served
	homeDir, _ := os.UserHomeDir()
	allowedPrefixes := []string{
		filepath.Join(homeDir, ".localcocoa", "previews") + string(os.PathSeparator),
		filepath.Join(homeDir, ".localcocoa") + string(os.PathSeparator),
	}

	allowed := false
	for _, prefix := range allowedPrefixes {
		if strings.HasPrefix(decodedPath, prefix) {
			allowed = true
			break
		}
	}

	if !allowed {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(fmt.Sprintf("Forbidden: %s", decodedPath)))
		return
	}

	fileData, err := os.ReadFile(decodedPath)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(fmt.Sprintf("Could not load file: %s", decodedPath)))
		return
	}

	// Detect content type based on file extension
	ext := strings.ToLower(filepath.Ext(decodedPath))
	contentType := "application/octet-stream"
	switch ext {
	case ".png":
		contentType = "image/png"
	case ".jpg", ".jpeg":
		contentType = "image/jpeg"
	case ".gif":
		contentType = "image/gif"
	case ".webp":
		contentType = "image/webp"
	case ".svg":
		contentType = "image/svg+xml"
	case ".ico":
		contentType = "image/x-icon"
	case ".bmp":
		contentType = "image/bmp"
	case ".pdf":
		contentType = "application/pdf"
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	w.Write(fileData)
}

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	app := NewApp()

	err := wails.Run(&options.App{
		Title:     "Local Cocoa",
		Width:     1100,
		Height:    700,
		MinWidth:  1100,
		MinHeight: 700,
		AssetServer: &assetserver.Options{
			Assets:  assets,
			Handler: NewFileLoader(),
		},
		BackgroundColour:         &options.RGBA{R: 0, G: 0, B: 0, A: 0},
		Frameless:                true,
		StartHidden:              false,
		EnableDefaultContextMenu: true,
		LogLevel:                 logger.DEBUG,
		LogLevelProduction:       logger.INFO,
		OnStartup:  app.startup,
		OnShutdown: app.shutdown,
		Bind: []interface{}{
			app,
		},
		Mac: &mac.Options{
			TitleBar: &mac.TitleBar{
				TitlebarAppearsTransparent: true,
				HideTitle:                  true,
				HideTitleBar:               false,
				FullSizeContent:            true,
			},
			WebviewIsTransparent: true,
			WindowIsTranslucent:  true,
		},
		Windows: &windows.Options{
			WebviewIsTransparent: true,
			WindowIsTranslucent:  false,
			DisableWindowIcon:    false,
		},
	})

	if err != nil {
		println("Error:", err.Error())
	}
}
