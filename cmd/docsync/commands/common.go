// Package commands implements the docsync command line.
package commands

import (
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/docsync/internal/build"
	"git.home.luguber.info/inful/docsync/internal/config"
	"git.home.luguber.info/inful/docsync/internal/logfields"
	"git.home.luguber.info/inful/docsync/internal/metrics"
)

// EnvLogLevel overrides the log level chosen by --verbose.
const EnvLogLevel = "DOCSYNC_LOG_LEVEL"

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
	// Service overrides the sync service; nil uses build.NewSyncService.
	Service func() *build.DefaultSyncService
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"docsync.yaml" env:"DOCSYNC_CONFIG"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Sync  SyncCmd  `cmd:"" default:"withargs" help:"Publish the documentation tree to Confluence"`
	Plan  PlanCmd  `cmd:"" help:"Show what a sync would create or update without writing"`
	Watch WatchCmd `cmd:"" help:"Sync, then sync again whenever the documentation changes"`
	Init  InitCmd  `cmd:"" help:"Write an example configuration file"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(c.Verbose)}))
	slog.SetDefault(logger)
	return nil
}

// parseLogLevel honours DOCSYNC_LOG_LEVEL before the verbose flag.
func parseLogLevel(verbose bool) slog.Level {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(EnvLogLevel))) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// loadConfig reads the configuration and applies command line overrides.
// The boolean is false when syncing is disabled.
func loadConfig(root *CLI, project string) (config.Resolved, bool, error) {
	settings, err := config.Load(root.Config)
	if err != nil {
		return config.Resolved{}, false, err
	}
	if project != "" {
		settings.Project = project
	}
	resolved, ok := settings.Resolve()
	return resolved, ok, nil
}

func (g *Global) service() *build.DefaultSyncService {
	if g != nil && g.Service != nil {
		return g.Service()
	}
	return build.NewSyncService()
}

// metricsSink collects one run's metrics for the optional textfile.
type metricsSink struct {
	path     string
	registry *prom.Registry
	recorder metrics.Recorder
}

func newMetricsSink(path string) *metricsSink {
	if path == "" {
		return &metricsSink{recorder: metrics.NoopRecorder{}}
	}
	reg := prom.NewRegistry()
	return &metricsSink{path: path, registry: reg, recorder: metrics.NewPrometheusRecorder(reg)}
}

// flush writes the textfile. Failures are logged; the run result stands.
func (m *metricsSink) flush() {
	if m.path == "" {
		return
	}
	if err := metrics.WriteTextfile(m.registry, m.path); err != nil {
		slog.Warn("Failed to write metrics textfile", logfields.Path(m.path), logfields.Error(err))
		return
	}
	slog.Debug("Wrote metrics textfile", logfields.Path(m.path))
}

func firstSet(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
