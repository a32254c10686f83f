// SPDX-License-Identifier: MPL-2.0

// Package watch re-runs a workflow when files under the workspace change.
//
// It monitors the workspace tree with fsnotify and fires a trigger callback
// after a quiet period, so an editor save burst or a branch switch coalesces
// into one re-run instead of dozens.
package watch

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period applied when the configuration does not
// set one.
const DefaultDebounce = 400 * time.Millisecond

// alwaysIgnore lists paths that never trigger a re-run. They cover VCS
// metadata, build output, and editor noise: a re-run that writes into target/
// must not trigger the next re-run.
var alwaysIgnore = []string{
	"**/.git/**",
	"**/target/**",
	"**/node_modules/**",
	"**/*.swp",
	"**/*.swo",
	"**/*~",
	"**/.DS_Store",
}

type (
	// Options configure a Watcher.
	Options struct {
		// Workdir is the workspace root to monitor. Empty means the current
		// working directory.
		Workdir string

		// Patterns restrict which files trigger a re-run, as doublestar
		// globs relative to Workdir. Empty means every non-ignored file.
		Patterns []string

		// Ignore adds globs to the built-in ignore list.
		Ignore []string

		// Debounce is the quiet period after the last event before the
		// trigger fires. Zero or negative means DefaultDebounce.
		Debounce time.Duration

		// ClearScreen clears the terminal before each trigger.
		ClearScreen bool

		// OnTrigger is invoked with the deduplicated changed paths, relative
		// to Workdir. A nil callback is a no-op.
		OnTrigger func(ctx context.Context, changed []string) error

		// Stdout receives the clear-screen escape. Defaults to os.Stdout.
		Stdout io.Writer

		// Logger receives watcher diagnostics. Defaults to a stderr logger.
		Logger *log.Logger
	}

	// Watcher monitors a workspace and fires debounced triggers. Run must be
	// called exactly once.
	Watcher struct {
		opts     Options
		fsw      *fsnotify.Watcher
		ignores  []string
		workdir  string
		debounce time.Duration
		stdout   io.Writer
		logger   *log.Logger
		started  atomic.Bool
	}
)

// New creates a Watcher and registers every non-ignored directory under the
// workspace for monitoring. Invalid glob patterns fail here, not silently at
// match time.
func New(opts Options) (*Watcher, error) {
	workdir := opts.Workdir
	if workdir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("watch: determine working directory: %w", err)
		}
		workdir = wd
	}
	workdir, err := filepath.Abs(workdir)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve workspace root: %w", err)
	}

	if err := validateGlobs(opts.Patterns, "watch"); err != nil {
		return nil, err
	}
	if err := validateGlobs(opts.Ignore, "ignore"); err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "watch"})
	}

	ignores := make([]string, 0, len(alwaysIgnore)+len(opts.Ignore))
	ignores = append(ignores, alwaysIgnore...)
	ignores = append(ignores, opts.Ignore...)

	w := &Watcher{
		opts:     opts,
		fsw:      fsw,
		ignores:  ignores,
		workdir:  workdir,
		debounce: debounce,
		stdout:   stdout,
		logger:   logger,
	}

	if err := w.watchTree(); err != nil {
		if closeErr := fsw.Close(); closeErr != nil {
			logger.Error("close after init failure", "error", closeErr)
		}
		return nil, err
	}

	return w, nil
}

// Run blocks until ctx is canceled, coalescing filesystem events and firing
// the trigger after each quiet period. It returns nil on clean cancellation
// and propagates fatal watcher errors.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return fmt.Errorf("watch: Run called more than once")
	}

	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
		busy    atomic.Bool
	)

	// fire drains the pending set and runs the trigger. The busy guard keeps
	// a slow re-run from overlapping with the next one; the pending set is
	// kept and the timer rearmed so those events are not lost.
	fire := func() {
		if ctx.Err() != nil {
			return
		}
		if !busy.CompareAndSwap(false, true) {
			w.logger.Warn("previous run still in progress, deferring")
			mu.Lock()
			if timer != nil {
				timer.Reset(w.debounce)
			}
			mu.Unlock()
			return
		}
		defer busy.Store(false)

		mu.Lock()
		if len(pending) == 0 {
			mu.Unlock()
			return
		}
		changed := slices.Collect(maps.Keys(pending))
		clear(pending)
		mu.Unlock()
		slices.Sort(changed)

		if w.opts.ClearScreen {
			fmt.Fprint(w.stdout, "\033[2J\033[H")
		}

		w.logger.Info("change detected", "files", len(changed))
		if w.opts.OnTrigger != nil {
			if err := w.opts.OnTrigger(ctx, changed); err != nil {
				w.logger.Error("run failed", "error", err)
			}
		}
	}

	defer func() {
		mu.Lock()
		localTimer := timer
		mu.Unlock()
		if localTimer != nil && !localTimer.Stop() {
			select {
			case <-localTimer.C:
			default:
			}
		}
		if closeErr := w.fsw.Close(); closeErr != nil {
			w.logger.Error("close fsnotify", "error", closeErr)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return fmt.Errorf("watch: fsnotify event channel closed unexpectedly")
			}

			rel, err := filepath.Rel(w.workdir, evt.Name)
			if err != nil {
				rel = evt.Name
			}

			if w.ignored(rel) || !w.matches(rel) {
				continue
			}

			// Directories created after startup must be watched too.
			if evt.Has(fsnotify.Create) {
				w.maybeWatchDir(evt.Name)
			}

			mu.Lock()
			pending[rel] = struct{}{}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return fmt.Errorf("watch: fsnotify error channel closed unexpectedly")
			}
			if isFatalFsnotifyError(err) {
				return fmt.Errorf("watch: fatal fsnotify error: %w", err)
			}
			w.logger.Warn("fsnotify error", "error", err)
		}
	}
}

// watchTree registers every non-ignored directory under the workspace.
// Pattern filtering happens per event; directories are always watched so
// matching files inside them are seen.
func (w *Watcher) watchTree() error {
	walkErr := filepath.WalkDir(w.workdir, func(path string, d os.DirEntry, walkDirErr error) error {
		if walkDirErr != nil {
			// Inaccessible subtrees (a foreign-owned .git/objects, say) are
			// skipped rather than aborting the whole watch.
			w.logger.Warn("skipping inaccessible path", "path", path, "error", walkDirErr)
			return nil //nolint:nilerr // intentional skip
		}
		if !d.IsDir() {
			return nil
		}

		rel, relErr := filepath.Rel(w.workdir, path)
		if relErr != nil {
			return nil //nolint:nilerr // skip paths that cannot be made relative
		}

		if w.ignored(rel) || w.ignored(rel+"/") {
			return filepath.SkipDir
		}

		if addErr := w.fsw.Add(path); addErr != nil {
			return fmt.Errorf("watch: add directory %q: %w", path, addErr)
		}
		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("watch: walk workspace: %w", walkErr)
	}
	return nil
}

func (w *Watcher) maybeWatchDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}

	rel, err := filepath.Rel(w.workdir, path)
	if err != nil {
		return
	}
	if w.ignored(rel) || w.ignored(rel+"/") {
		return
	}

	if addErr := w.fsw.Add(path); addErr != nil {
		w.logger.Warn("add new directory", "path", path, "error", addErr)
	}
}

func (w *Watcher) ignored(rel string) bool {
	normalized := filepath.ToSlash(rel)
	for _, pat := range w.ignores {
		if matched, matchErr := doublestar.Match(pat, normalized); matchErr == nil && matched {
			return true
		}
	}
	return false
}

func (w *Watcher) matches(rel string) bool {
	if len(w.opts.Patterns) == 0 {
		return true
	}
	normalized := filepath.ToSlash(rel)
	for _, pat := range w.opts.Patterns {
		if matched, matchErr := doublestar.Match(pat, normalized); matchErr == nil && matched {
			return true
		}
	}
	return false
}

func validateGlobs(patterns []string, label string) error {
	for _, pat := range patterns {
		if _, err := doublestar.Match(pat, ""); err != nil {
			return fmt.Errorf("watch: invalid %s pattern %q: %w", label, pat, err)
		}
	}
	return nil
}
