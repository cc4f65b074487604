package commands

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"git.home.luguber.info/inful/docsync/internal/site"
	"git.home.luguber.info/inful/docsync/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Project     string        `short:"p" help:"mkdocs project file (default: from config, then mkdocs.yml)"`
	MetricsFile string        `name:"metrics-file" help:"Rewrite Prometheus metrics to this textfile after every run"`
	Every       time.Duration `help:"Also sync on this interval (e.g. 15m); 0 disables"`
	Debounce    time.Duration `help:"Quiet period after a change before syncing (default: from config, then 2s)"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, ok, err := loadConfig(root, w.Project)
	if err != nil || !ok {
		return err
	}
	project, err := site.Load(cfg.Project)
	if err != nil {
		return err
	}

	opts := watch.Options{
		Dirs:     []string{project.DocsDir},
		Files:    []string{project.ConfigFile},
		Debounce: cfg.Debounce,
		Every:    cfg.Every,
	}
	if abs, err := filepath.Abs(root.Config); err == nil {
		if _, statErr := os.Stat(abs); statErr == nil {
			opts.Files = append(opts.Files, abs)
		}
	}
	if w.Debounce > 0 {
		opts.Debounce = w.Debounce
	}
	if w.Every > 0 {
		opts.Every = w.Every
	}

	metricsFile := firstSet(w.MetricsFile, cfg.MetricsFile)
	watcher, err := watch.New(opts, func(ctx context.Context, _ string) error {
		// Each run reloads the configuration so edits apply without a restart.
		current, ok, err := loadConfig(root, w.Project)
		if err != nil || !ok {
			return err
		}
		sink := newMetricsSink(metricsFile)
		defer sink.flush()
		return RunSync(ctx, g.service().WithRecorder(sink.recorder), current, false, os.Stdout)
	})
	if err != nil {
		return err
	}
	return watcher.Run(ctx)
}
