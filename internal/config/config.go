// internal/config/config.go
package config

import (
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// File holds the user-editable settings read from config.yaml.
type File struct {
	// BackendURL is the indexing backend's base URL. Empty means the app
	// spawns the backend itself and discovers the port from its stdout.
	BackendURL string `yaml:"backend_url,omitempty"`

	// BackendCommand is the executable (plus args) used to spawn the
	// indexing backend when BackendURL is not set.
	BackendCommand []string `yaml:"backend_command,omitempty"`

	// PollIntervalMs is the snapshot poll cadence.
	PollIntervalMs int `yaml:"poll_interval_ms,omitempty"`

	// WatchDebounceMs debounces filesystem change notifications.
	WatchDebounceMs int `yaml:"watch_debounce_ms,omitempty"`

	// IgnoreGlobs are doublestar patterns for paths the watcher and reindex
	// requests skip (caches, VCS internals, temp files).
	IgnoreGlobs []string `yaml:"ignore_globs,omitempty"`
}

// Config holds all application configuration and resolved paths.
type Config struct {
	HomeDir      string
	CocoaDir     string
	DatabasePath string
	LogDir       string
	RunLogDir    string
	PreviewDir   string

	File File
}

var defaultIgnoreGlobs = []string{
	"**/.git/**",
	"**/node_modules/**",
	"**/.DS_Store",
	"**/*.tmp",
	"**/~$*",
}

// Load creates a Config with resolved paths, reading config.yaml from the
// app directory when present.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	cocoaDir := filepath.Join(home, ".localcocoa")
	logDir := filepath.Join(cocoaDir, "logs")
	runLogDir := filepath.Join(cocoaDir, "runlogs")
	previewDir := filepath.Join(cocoaDir, "previews")

	for _, dir := range []string{cocoaDir, logDir, runLogDir, previewDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		HomeDir:      home,
		CocoaDir:     cocoaDir,
		DatabasePath: filepath.Join(cocoaDir, "cocoa.db"),
		LogDir:       logDir,
		RunLogDir:    runLogDir,
		PreviewDir:   previewDir,
		File: File{
			PollIntervalMs:  1500,
			WatchDebounceMs: 500,
			IgnoreGlobs:     defaultIgnoreGlobs,
		},
	}

	if err := cfg.readFile(filepath.Join(cocoaDir, "config.yaml")); err != nil {
		return nil, err
	}
	return cfg, nil
}

// readFile merges config.yaml over the defaults. A missing file is fine.
func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return err
	}

	if file.BackendURL != "" {
		c.File.BackendURL = file.BackendURL
	}
	if len(file.BackendCommand) > 0 {
		c.File.BackendCommand = file.BackendCommand
	}
	if file.PollIntervalMs > 0 {
		c.File.PollIntervalMs = file.PollIntervalMs
	}
	if file.WatchDebounceMs > 0 {
		c.File.WatchDebounceMs = file.WatchDebounceMs
	}
	if len(file.IgnoreGlobs) > 0 {
		c.File.IgnoreGlobs = file.IgnoreGlobs
	}
	return nil
}

// ShouldIgnore reports whether a path matches any configured ignore glob.
// Patterns are matched against the slash-separated form of the path.
func (c *Config) ShouldIgnore(path string) bool {
	slashed := filepath.ToSlash(path)
	for _, glob := range c.File.IgnoreGlobs {
		if ok, err := doublestar.Match(glob, slashed); err == nil && ok {
			return true
		}
	}
	return false
}
