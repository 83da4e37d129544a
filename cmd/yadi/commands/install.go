package commands

import (
	"github.com/spf13/cobra"

	"github.com/frederic-klein/yadi/internal/deps"
	"github.com/frederic-klein/yadi/internal/installer"
	"github.com/frederic-klein/yadi/internal/runner"
	"github.com/frederic-klein/yadi/internal/selector"
)

// categoryFlags are the structured --include-<category> switches.
type categoryFlags map[deps.Category]*bool

func addCategoryFlags(cmd *cobra.Command) categoryFlags {
	flags := make(categoryFlags, len(deps.Optional))
	for _, c := range deps.Optional {
		flags[c] = cmd.Flags().Bool(c.Flag(), false, "also install the "+string(c)+" packages")
	}
	return flags
}

// selection merges the legacy substring triggers in args with the flags.
func (f categoryFlags) selection(args []string) selector.Selection {
	sel := selector.FromArgs(args)
	for c, on := range f {
		if *on {
			sel = sel.With(c)
		}
	}
	return sel
}

func (c *CLI) newInstallCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "install [args...]",
		Short: "Enable the copr repository and install the selected package lists",
		Long: `Install enables the copr repository, installs the runtime packages and
then, in this order, the debug, development and test packages that were
selected. The first failing package-manager call stops the run.`,
		Example: `  yadi install
  yadi install --include-debug --include-test
  yadi install include-development`,
		Args: cobra.ArbitraryArgs,
	}
	flags := addCategoryFlags(cmd)
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "print the commands instead of running them")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		sel := flags.selection(args)

		var r runner.Runner
		if dryRun {
			r = runner.NewDryRun(cmd.OutOrStdout(), c.cfg.PrivilegeCommand)
		} else {
			r = c.hostRunner(cmd.OutOrStdout(), cmd.ErrOrStderr())
		}

		return installer.New(c.manifest, c.manager, r, c.logger).Run(cmd.Context(), sel)
	}

	return cmd
}
