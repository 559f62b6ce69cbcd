package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	cfgpkg "github.com/kasunvimukthi/RPA-Reviewer/internal/config"
	"github.com/kasunvimukthi/RPA-Reviewer/internal/engine"
)

// runWatch re-analyzes the project whenever a file under it changes.
// Events inside the output directory are ignored to avoid feedback loops.
func runWatch(cfg cfgpkg.Config, eng *engine.Engine, root string, opts engine.Options, stop <-chan struct{}) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: watch init failed: %v\n", err)
		os.Exit(1)
	}
	defer watcher.Close()

	if err := addWatchRecursive(watcher, root, cfg.Paths.OutputDir); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: watch failed: %v\n", err)
		os.Exit(1)
	}

	var timer *time.Timer
	debounce := 300 * time.Millisecond
	trigger := func() {
		runOnce(cfg, eng, root, opts, false)
	}
	trigger()

	for {
		select {
		case <-stop:
			return
		case ev := <-watcher.Events:
			if strings.Contains(ev.Name, string(filepath.Separator)+cfg.Paths.OutputDir+string(filepath.Separator)) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, trigger)
		case err := <-watcher.Errors:
			fmt.Fprintf(os.Stderr, "ERROR: watch error: %v\n", err)
		}
	}
}

func addWatchRecursive(w *fsnotify.Watcher, root, outputDir string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if strings.Contains(path, string(filepath.Separator)+outputDir) {
				return filepath.SkipDir
			}
			return w.Add(path)
		}
		return nil
	})
}
