package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"git.home.luguber.info/inful/docsync/internal/build"
)

// PlanCmd implements the 'plan' command.
type PlanCmd struct {
	Project string `short:"p" help:"mkdocs project file (default: from config, then mkdocs.yml)"`
}

func (p *PlanCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, ok, err := loadConfig(root, p.Project)
	if err != nil || !ok {
		return err
	}
	return RunSync(ctx, g.service(), cfg, true, os.Stdout)
}

func printPlan(out io.Writer, res *build.SyncResult) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ACTION\tTITLE\tPARENT\tSOURCE\tASSETS\tLINKS\tFINGERPRINT")
	for _, ps := range res.Pages {
		source := ps.Source
		if ps.Section {
			source = "(section)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			ps.Action, ps.Title, dash(ps.Parent), source, ps.Assets, ps.Links, shortFingerprint(ps.Fingerprint))
	}
	_ = tw.Flush()
	fmt.Fprintf(out, "\n%d to create, %d to update\n", res.PagesCreated, res.PagesUpdated)
}

func dash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
