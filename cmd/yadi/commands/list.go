package commands

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/frederic-klein/yadi/internal/deps"
	"go.trai.ch/zerr"
)

// ErrUnknownFormat is returned for an unsupported --output value.
var ErrUnknownFormat = zerr.New("unknown output format")

var headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))

func (c *CLI) newListCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:       "list [category...]",
		Short:     "Print the package lists",
		Args:      cobra.ArbitraryArgs,
		ValidArgs: []string{string(deps.Runtime), string(deps.Debug), string(deps.Development), string(deps.Test)},
		RunE: func(cmd *cobra.Command, args []string) error {
			categories := deps.All
			if len(args) > 0 {
				categories = nil
				for _, arg := range args {
					cat, err := deps.ParseCategory(arg)
					if err != nil {
						return err
					}
					categories = append(categories, cat)
				}
			}

			out := cmd.OutOrStdout()
			switch output {
			case "text":
				for i, cat := range categories {
					if i > 0 {
						fmt.Fprintln(out)
					}
					fmt.Fprintln(out, headingStyle.Render(fmt.Sprintf("%s (%d)", cat, c.manifest.Count(cat))))
					for _, pkg := range c.manifest.Packages(cat) {
						fmt.Fprintln(out, pkg)
					}
				}
				return nil
			case "yaml":
				lists := make(map[string][]string, len(categories))
				for _, cat := range categories {
					lists[string(cat)] = c.manifest.Packages(cat)
				}
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				if err := enc.Encode(lists); err != nil {
					return zerr.Wrap(err, "encoding lists")
				}
				return enc.Close()
			default:
				return zerr.With(zerr.Wrap(ErrUnknownFormat, ""), "format", output)
			}
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: "+strings.Join([]string{"text", "yaml"}, "|"))

	return cmd
}
