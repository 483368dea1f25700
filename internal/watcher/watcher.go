// Package watcher rebuilds the tree whenever a ledger or config record
// is edited, so field technicians see folders appear as soon as a log
// entry lands.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDefault is the debounce interval for file events.
const debounceDefault = 500 * time.Millisecond

// Config holds watch-mode configuration.
type Config struct {
	Root      string // directory the node folders live under
	NodesFile string // node topology document
	Debounce  time.Duration
	// Build runs one pipeline pass; injected by the cli so the watcher
	// stays free of builder wiring.
	Build func(ctx context.Context) error
}

// Run builds once, then blocks watching for edits until ctx is cancelled.
// Failed rebuilds are reported and watching continues: the operator fixes
// the record and saves again. Events raised while a build is writing are
// dropped so the builder's own ledger updates do not retrigger it.
func Run(ctx context.Context, cfg Config) error {
	if cfg.Build == nil {
		return fmt.Errorf("build function is required")
	}
	if cfg.Root == "" {
		cfg.Root = "."
	}
	if cfg.Debounce == 0 {
		cfg.Debounce = debounceDefault
	}

	var building atomic.Bool
	build := func() {
		building.Store(true)
		defer building.Store(false)
		if err := cfg.Build(ctx); err != nil {
			slog.Error("rebuild failed, fix the record and save again", "error", err)
		}
	}

	build()

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = w.Close() }()

	addTargets(w, cfg.Root)
	slog.Info("watching for ledger and config edits", "root", cfg.Root)

	var debounce *time.Timer
	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			slog.Info("watch stopped")
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if building.Load() || !interesting(event.Name, cfg.NodesFile) {
				continue
			}
			slog.Debug("change detected", "path", event.Name)
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(cfg.Debounce, func() {
				build()
				// new projects mean new directories to watch
				addTargets(w, cfg.Root)
			})

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch error", "error", err)
		}
	}
}

// interesting reports whether an edited path is one of the documents the
// pipeline reads.
func interesting(path, nodesFile string) bool {
	base := filepath.Base(path)
	switch {
	case base == "FieldLog.csv", base == "ProjectSummary.yaml":
		return true
	case strings.HasSuffix(base, "_ProjectsSummary.csv"):
		return true
	case nodesFile != "" && base == filepath.Base(nodesFile):
		return true
	}
	return false
}

// addTargets watches the root plus the node and project directory levels,
// where every pipeline document lives. Already-watched paths are fine to
// re-add.
func addTargets(w *fsnotify.Watcher, root string) {
	for _, dir := range watchDirs(root) {
		if err := w.Add(dir); err != nil {
			slog.Debug("cannot watch directory", "dir", dir, "error", err)
		}
	}
}

// watchDirs lists root and its first two directory levels, skipping
// hidden entries like .git.
func watchDirs(root string) []string {
	dirs := []string{root}
	level1, _ := listSubdirs(root)
	for _, d1 := range level1 {
		dirs = append(dirs, d1)
		level2, _ := listSubdirs(d1)
		dirs = append(dirs, level2...)
	}
	return dirs
}

func listSubdirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	return out, nil
}
