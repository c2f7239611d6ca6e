package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"

	"resumecoach/internal/errors"
)

// PromptWatcher watches the configured prompt files and calls onChange
// with the reloaded overrides after a burst of writes settles.
type PromptWatcher struct {
	cfg           *Config
	files         []string
	debounceDelay time.Duration
	onChange      func(map[string]string)
	logger        *errors.Logger

	lastModTime map[string]time.Time
}

// NewPromptWatcher creates a watcher for cfg's prompt files. It returns nil
// when no prompt file is configured.
func NewPromptWatcher(cfg *Config, debounceDelay time.Duration, onChange func(map[string]string), logger *errors.Logger) *PromptWatcher {
	files := cfg.PromptFiles()
	if len(files) == 0 {
		return nil
	}
	if debounceDelay <= 0 {
		debounceDelay = time.Second
	}

	return &PromptWatcher{
		cfg:           cfg,
		files:         files,
		debounceDelay: debounceDelay,
		onChange:      onChange,
		logger:        logger,
		lastModTime:   make(map[string]time.Time),
	}
}

// Files returns the watched prompt files.
func (pw *PromptWatcher) Files() []string {
	return slices.Clone(pw.files)
}

// Run watches until ctx is cancelled. Reload failures are logged and the
// previous prompts stay active.
func (pw *PromptWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create prompt watcher: %w", err)
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			pw.logger.LogError(err, "Failed to close prompt watcher")
		}
	}()

	// Directories are watched too so editors that save by rename are seen.
	dirs := make(map[string]struct{})
	for _, file := range pw.files {
		dirs[filepath.Dir(file)] = struct{}{}
		if stat, err := os.Stat(file); err == nil {
			pw.lastModTime[file] = stat.ModTime()
		}
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch prompt directory %s: %w", dir, err)
		}
	}
	pw.logger.Info("Prompt file watcher started", "files", pw.files, "debounce_delay", pw.debounceDelay)

	debounce := time.NewTimer(pw.debounceDelay)
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if pw.isWatched(event) {
				debounce.Reset(pw.debounceDelay)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			pw.logger.LogError(err, "Prompt watcher error")

		case <-debounce.C:
			if pw.changed() {
				pw.reload()
			}

		case <-ctx.Done():
			pw.logger.Info("Prompt file watcher stopped")
			return nil
		}
	}
}

func (pw *PromptWatcher) isWatched(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Chmod) == 0 {
		return false
	}
	name, err := filepath.Abs(event.Name)
	if err != nil {
		name = event.Name
	}
	return slices.Contains(pw.files, name)
}

// changed compares modification times so that touch-free events do not
// trigger a reload.
func (pw *PromptWatcher) changed() bool {
	changed := false
	for _, file := range pw.files {
		stat, err := os.Stat(file)
		if err != nil {
			continue
		}
		if last, ok := pw.lastModTime[file]; !ok || stat.ModTime().After(last) {
			pw.lastModTime[file] = stat.ModTime()
			changed = true
		}
	}
	return changed
}

func (pw *PromptWatcher) reload() {
	overrides, err := pw.cfg.LoadPromptOverrides()
	if err != nil {
		pw.logger.LogError(err, "Failed to reload prompt files, keeping previous prompts")
		return
	}
	pw.logger.Info("Prompt files changed, reloading", "overrides", len(overrides))
	pw.onChange(overrides)
}
