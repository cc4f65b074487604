package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/docsync/internal/build"
	"git.home.luguber.info/inful/docsync/internal/config"
	"git.home.luguber.info/inful/docsync/internal/metrics"
)

// SyncCmd implements the 'sync' command.
type SyncCmd struct {
	Project     string `short:"p" help:"mkdocs project file (default: from config, then mkdocs.yml)"`
	MetricsFile string `name:"metrics-file" help:"Write Prometheus metrics for the run to this textfile"`
	DryRun      bool   `name:"dry-run" help:"Look up remote pages but write nothing"`
}

func (s *SyncCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, ok, err := loadConfig(root, s.Project)
	if err != nil {
		return err
	}
	sink := newMetricsSink(firstSet(s.MetricsFile, cfg.MetricsFile))
	defer sink.flush()
	if !ok {
		sink.recorder.IncRunOutcome(metrics.OutcomeDisabled)
		return nil
	}
	return RunSync(ctx, g.service().WithRecorder(sink.recorder), cfg, s.DryRun, os.Stdout)
}

// RunSync runs one sync and prints its summary to out.
func RunSync(ctx context.Context, svc build.SyncService, cfg config.Resolved, dryRun bool, out io.Writer) error {
	res, err := svc.Run(ctx, build.SyncRequest{Config: cfg, DryRun: dryRun})
	if err != nil {
		return err
	}
	if dryRun {
		printPlan(out, res)
		return nil
	}
	fmt.Fprintf(out, "Synced %d pages to %s (%d created, %d updated), %d attachments uploaded in %s\n",
		len(res.Pages), cfg.Space, res.PagesCreated, res.PagesUpdated, res.AttachmentsUploaded,
		res.Duration.Round(time.Millisecond))
	if res.LinksDangling > 0 {
		fmt.Fprintf(out, "%d links could not be resolved\n", res.LinksDangling)
	}
	return nil
}
