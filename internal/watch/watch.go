// Package watch re-runs a sync when the documentation changes and,
// optionally, on a fixed interval.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/docsync/internal/foundation/errors"
	"git.home.luguber.info/inful/docsync/internal/logfields"
)

// Trigger reasons passed to the Runner.
const (
	ReasonStartup  = "startup"
	ReasonChange   = "change"
	ReasonSchedule = "schedule"
)

// Runner performs one sync. Its error is logged and watching continues.
type Runner func(ctx context.Context, reason string) error

// Options configures a Watcher.
type Options struct {
	// Dirs are watched recursively.
	Dirs []string
	// Files are watched through their parent directory.
	Files []string
	// Debounce is the quiet period after the last change before a run.
	Debounce time.Duration
	// Every schedules additional runs; zero disables them.
	Every time.Duration
}

// Watcher serializes runs triggered by file changes and by the schedule.
type Watcher struct {
	opts Options
	run  Runner

	fsw   *fsnotify.Watcher
	sched gocron.Scheduler

	roots []string
	files map[string]struct{}

	runMu   sync.Mutex
	changes chan struct{}
}

// New creates a watcher over opts. Nothing is watched until Run.
func New(opts Options, run Runner) (*Watcher, error) {
	if run == nil {
		return nil, errors.ValidationError("runner is required").Build()
	}
	if opts.Debounce <= 0 {
		return nil, errors.ValidationError("debounce must be > 0").Build()
	}
	if opts.Every < 0 {
		return nil, errors.ValidationError("interval must not be negative").Build()
	}
	w := &Watcher{
		opts:    opts,
		run:     run,
		files:   make(map[string]struct{}, len(opts.Files)),
		changes: make(chan struct{}, 1),
	}
	for _, d := range opts.Dirs {
		abs, err := filepath.Abs(d)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryFileSystem, "resolve watch directory").
				WithContext("path", d).Fatal().Build()
		}
		w.roots = append(w.roots, abs)
	}
	for _, f := range opts.Files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryFileSystem, "resolve watch file").
				WithContext("path", f).Fatal().Build()
		}
		w.files[abs] = struct{}{}
	}
	return w, nil
}

// Run performs a startup run, then watches until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "create file watcher").Fatal().Build()
	}
	w.fsw = fsw
	defer func() {
		if err := fsw.Close(); err != nil {
			slog.Warn("Error closing file watcher", logfields.Error(err))
		}
	}()

	for _, root := range w.roots {
		if err := w.addTree(root); err != nil {
			return err
		}
	}
	for f := range w.files {
		dir := filepath.Dir(f)
		if err := fsw.Add(dir); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "watch directory").
				WithContext("path", dir).Fatal().Build()
		}
	}

	if w.opts.Every > 0 {
		if err := w.schedule(ctx); err != nil {
			return err
		}
		defer func() {
			if err := w.sched.Shutdown(); err != nil {
				slog.Warn("Error stopping scheduler", logfields.Error(err))
			}
		}()
	}

	w.trigger(ctx, ReasonStartup)

	go w.debounceLoop(ctx)
	return w.eventLoop(ctx)
}

func (w *Watcher) schedule(ctx context.Context) error {
	s, err := gocron.NewScheduler()
	if err != nil {
		return errors.WrapError(err, errors.CategoryRuntime, "create scheduler").Fatal().Build()
	}
	_, err = s.NewJob(
		gocron.DurationJob(w.opts.Every),
		gocron.NewTask(func() { w.trigger(ctx, ReasonSchedule) }),
		gocron.WithName("periodic-sync"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return errors.WrapError(err, errors.CategoryRuntime, "schedule periodic sync").
			WithContext("every", w.opts.Every.String()).Fatal().Build()
	}
	w.sched = s
	s.Start()
	slog.Info("Scheduled periodic sync", slog.Duration("every", w.opts.Every))
	return nil
}

// addTree watches dir and every non-hidden directory below it.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "walk watch directory").
				WithContext("path", path).Fatal().Build()
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && isHidden(path) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "watch directory").
				WithContext("path", path).Fatal().Build()
		}
		return nil
	})
}

func (w *Watcher) eventLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			slog.Debug("Change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
			if ev.Has(fsnotify.Create) && w.underRoot(ev.Name) {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					if err := w.addTree(ev.Name); err != nil {
						slog.Warn("Failed to watch new directory", logfields.Path(ev.Name), logfields.Error(err))
					}
				}
			}
			select {
			case w.changes <- struct{}{}:
			default:
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			slog.Error("File watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) debounceLoop(ctx context.Context) {
	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case <-w.changes:
			if timer == nil {
				timer = time.NewTimer(w.opts.Debounce)
			} else {
				timer.Stop()
				timer.Reset(w.opts.Debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			w.trigger(ctx, ReasonChange)
		}
	}
}

// trigger runs the sync unless ctx is done. Runs never overlap.
func (w *Watcher) trigger(ctx context.Context, reason string) {
	w.runMu.Lock()
	defer w.runMu.Unlock()
	if ctx.Err() != nil {
		return
	}
	slog.Info("Running sync", slog.String("reason", reason))
	if err := w.run(ctx, reason); err != nil {
		slog.Error("Sync failed, still watching", slog.String("reason", reason), logfields.Error(err))
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	name := filepath.Clean(ev.Name)
	if _, ok := w.files[name]; ok {
		return true
	}
	return w.underRoot(name) && !isHidden(name)
}

func (w *Watcher) underRoot(path string) bool {
	for _, root := range w.roots {
		if path == root || strings.HasPrefix(path, root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// isHidden reports dotfiles and editor swap files.
func isHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~")
}
