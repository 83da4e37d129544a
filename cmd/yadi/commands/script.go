package commands

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/frederic-klein/yadi/internal/manifest"
	"github.com/frederic-klein/yadi/internal/script"
	"go.trai.ch/zerr"
)

func (c *CLI) newScriptCmd() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "script",
		Short: "Write the equivalent bash install script",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.writeTo(cmd.OutOrStdout(), outPath, 0o755, func(w io.Writer) error {
				return script.NewEmitter(w, c.cfg.PrivilegeCommand, c.manager.Name()).Emit(c.manifest)
			})
		},
	}
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "write to a file instead of stdout")

	return cmd
}

func (c *CLI) newImportCmd() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "import <script>",
		Short: "Convert a generated install script into a YAML manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return zerr.With(zerr.Wrap(err, "opening script"), "path", args[0])
			}
			defer f.Close()

			m, err := script.NewParser(f).Parse()
			if err != nil {
				return zerr.With(err, "path", args[0])
			}
			if err := m.Validate(); err != nil {
				c.logger.Warn("imported lists break manifest rules", "err", err)
			}

			return c.writeTo(cmd.OutOrStdout(), outPath, 0o644, func(w io.Writer) error {
				return manifest.Write(w, m)
			})
		},
	}
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "write to a file instead of stdout")

	return cmd
}

// writeTo runs write against stdout, or against path when it is set.
func (c *CLI) writeTo(stdout io.Writer, path string, perm os.FileMode, write func(io.Writer) error) error {
	if path == "" {
		return write(stdout)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "creating output file"), "path", path)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return zerr.With(zerr.Wrap(err, "closing output file"), "path", path)
	}
	c.logger.Info("wrote", "path", path)
	return nil
}
