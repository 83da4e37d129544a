package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/frederic-klein/yadi/internal/probe"
	"go.trai.ch/zerr"
)

// ErrMissingPackages is returned by check when selected packages are not installed.
var ErrMissingPackages = zerr.New("packages are missing")

func (c *CLI) newCheckCmd() *cobra.Command {
	var workers int

	cmd := &cobra.Command{
		Use:   "check [args...]",
		Short: "Report which selected packages are not installed",
		Long: `Check queries rpm for every package of the runtime list and of the
selected optional lists, without installing anything. It exits non-zero
when a package is missing.`,
		Args: cobra.ArbitraryArgs,
	}
	flags := addCategoryFlags(cmd)
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "parallel queries (default from config)")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("workers") {
			workers = c.cfg.Workers
		}

		sel := flags.selection(args)
		p := probe.NewProber(workers, c.manager, c.hostRunner(io.Discard, io.Discard), c.logger)

		results, err := p.Check(cmd.Context(), probe.Jobs(c.manifest, sel))
		if err != nil {
			return err
		}

		missing := probe.Missing(results)
		out := cmd.OutOrStdout()
		for _, r := range missing {
			fmt.Fprintf(out, "%s\t%s\n", r.Job.Category, r.Job.Package)
		}
		c.logger.Info("checked", "categories", sel.String(), "packages", len(results), "missing", len(missing))

		if len(missing) > 0 {
			return zerr.With(zerr.Wrap(ErrMissingPackages, ""), "count", len(missing))
		}
		return nil
	}

	return cmd
}
