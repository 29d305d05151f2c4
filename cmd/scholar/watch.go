package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	scholar "github.com/alnah/go-scholar"
	"github.com/alnah/go-scholar/internal/report"
	"github.com/alnah/go-scholar/internal/settings"
)

// watchDebounce coalesces the burst of events editors emit on save.
const watchDebounce = 250 * time.Millisecond

// watchAndConvert converts once, then again after every change to the input
// or a config file, until ctx is canceled. Conversion failures are reported
// and watching continues.
func watchAndConvert(ctx context.Context, conv *scholar.Converter, req scholar.Request, configFlag string, env *Environment, console *report.Console) int {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		console.Error(fmt.Errorf("starting file watcher: %w", err))
		return ExitGeneral
	}
	defer func() { _ = w.Close() }()

	if configFlag == "" {
		configFlag, _ = env.LookupEnv(settings.EnvConfigPath)
	}
	targets := watchTargets(conv.WorkingDir(), req.Input, configFlag)
	for dir := range watchDirs(targets) {
		// Directories rather than files: editors often replace the file.
		if err := w.Add(dir); err != nil {
			console.Error(fmt.Errorf("watching %s: %w", dir, err))
			return ExitGeneral
		}
	}

	convertOnce(ctx, conv, req, env, console)
	console.Step("Watching %s for changes (Ctrl+C to stop)", req.Input)

	return watchLoop(ctx, w.Events, w.Errors, targets, watchDebounce, func() {
		console.Step("Change detected, converting %s", req.Input)
		convertOnce(ctx, conv, req, env, console)
	}, console)
}

// watchLoop calls onChange once per debounced burst of events on targets.
// It returns ExitSuccess when ctx is canceled.
func watchLoop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error, targets map[string]bool, debounce time.Duration, onChange func(), rep report.Reporter) int {
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ExitSuccess

		case ev, ok := <-events:
			if !ok {
				return ExitGeneral
			}
			if !targets[filepath.Clean(ev.Name)] || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			onChange()

		case err, ok := <-errs:
			if !ok {
				return ExitGeneral
			}
			rep.Warn("file watcher: %v", err)
		}
	}
}

// watchTargets returns the absolute paths whose changes trigger a new
// conversion: the input, and the explicit config file or every
// discoverable one.
func watchTargets(cwd, input, configFlag string) map[string]bool {
	abs := func(p string) string {
		if filepath.IsAbs(p) {
			return filepath.Clean(p)
		}
		return filepath.Join(cwd, p)
	}

	targets := map[string]bool{abs(input): true}
	if configFlag != "" {
		targets[abs(configFlag)] = true
		return targets
	}
	for _, name := range settings.ConfigFileNames {
		targets[filepath.Join(cwd, name)] = true
	}
	return targets
}

func watchDirs(targets map[string]bool) map[string]bool {
	dirs := make(map[string]bool, len(targets))
	for p := range targets {
		dirs[filepath.Dir(p)] = true
	}
	return dirs
}
