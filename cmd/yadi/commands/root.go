// Package commands implements the yadi command line.
package commands

import (
	"context"
	"io"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/frederic-klein/yadi/internal/config"
	"github.com/frederic-klein/yadi/internal/deps"
	"github.com/frederic-klein/yadi/internal/manifest"
	"github.com/frederic-klein/yadi/internal/pkgmgr"
	"github.com/frederic-klein/yadi/internal/runner"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
)

// CLI is the yadi command tree plus the state its commands share.
type CLI struct {
	rootCmd *cobra.Command

	cfgFile      string
	manifestPath string
	privilege    string
	verbose      bool

	cfg      *config.Config
	logger   *log.Logger
	manifest *deps.Manifest
	manager  pkgmgr.Manager

	// runner overrides command execution; nil means run on the host.
	runner runner.Runner
}

// Option customizes a CLI.
type Option func(*CLI)

// WithRunner executes package-manager commands through r instead of the host.
func WithRunner(r runner.Runner) Option {
	return func(c *CLI) {
		c.runner = r
	}
}

// New creates the command tree.
func New(opts ...Option) *CLI {
	c := &CLI{}
	for _, opt := range opts {
		opt(c)
	}

	rootCmd := &cobra.Command{
		Use:   "yadi",
		Short: "Install the Fedora packages the forensic toolkit depends on",
		Long: `yadi installs the runtime packages of the toolkit from the GIFT copr
repository and, on request, the debug, development and test packages.

Optional categories are selected with --include-debug, --include-development
and --include-test, or by passing include-debug, include-development or
include-test anywhere in the arguments.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}

	rootCmd.PersistentFlags().StringVar(&c.cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/yadi/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&c.manifestPath, "manifest", "m", "", "package manifest (default is the built-in Fedora manifest)")
	rootCmd.PersistentFlags().StringVar(&c.privilege, "privilege-command", "", "command used to elevate package-manager calls (default \"sudo\", \"none\" disables)")
	rootCmd.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "verbose output")

	c.rootCmd = rootCmd

	rootCmd.AddCommand(c.newInstallCmd())
	rootCmd.AddCommand(c.newCheckCmd())
	rootCmd.AddCommand(c.newListCmd())
	rootCmd.AddCommand(c.newScriptCmd())
	rootCmd.AddCommand(c.newImportCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the command line through fang, which renders errors and help.
// Cancellation comes from ctx; the caller owns signal handling.
func (c *CLI) Execute(ctx context.Context) error {
	return fang.Execute(ctx, c.rootCmd, fang.WithVersion(Version))
}

// Run executes the command tree with args without fang's styling. Used for testing.
func (c *CLI) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	c.rootCmd.SetArgs(args)
	c.rootCmd.SetOut(stdout)
	c.rootCmd.SetErr(stderr)
	return c.rootCmd.ExecuteContext(ctx)
}

// setup loads config, logger, manifest and package manager before any subcommand.
func (c *CLI) setup(cmd *cobra.Command, _ []string) error {
	cfg, used, err := config.Load(c.cfgFile)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("manifest") {
		cfg.Manifest = c.manifestPath
	}
	if cmd.Flags().Changed("privilege-command") {
		cfg.PrivilegeCommand = c.privilege
	}
	if cfg.PrivilegeCommand == "none" {
		cfg.PrivilegeCommand = ""
	}
	c.cfg = cfg

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	if c.verbose {
		level = log.DebugLevel
	}
	c.logger = log.NewWithOptions(cmd.ErrOrStderr(), log.Options{
		Prefix: "yadi",
		Level:  level,
	})
	if used != "" {
		c.logger.Debug("loaded config", "path", used)
	}

	c.manifest, err = manifest.NewParser().Parse(cfg.Manifest)
	if err != nil {
		return err
	}

	c.manager, err = pkgmgr.New(cfg.PackageManager, cfg.AssumeYes)
	return err
}

// hostRunner returns the runner for package-manager calls.
func (c *CLI) hostRunner(stdout, stderr io.Writer) runner.Runner {
	if c.runner != nil {
		return c.runner
	}
	return runner.NewExec(
		runner.WithPrivilegeWrapper(c.cfg.PrivilegeCommand),
		runner.WithOutput(stdout, stderr),
	)
}
