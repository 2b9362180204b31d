package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/szerviz/internal/license"
)

// NewTemplatesCommand creates the templates command group.
func NewTemplatesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Manage quick diagnosis templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listTemplates(rootOpts, cmd)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listTemplates(rootOpts, cmd)
		},
	})
	cmd.AddCommand(newTemplatesAddCommand(rootOpts))
	cmd.AddCommand(&cobra.Command{
		Use:   "rm <n>",
		Short: "Remove template n",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer a.Close()

			idx, err := templateIndex(args[0], len(a.mgr.Templates()))
			if err != nil {
				return a.out.Fail(err)
			}
			templates, err := a.mgr.RemoveTemplate(cmd.Context(), idx)
			if err != nil {
				return a.out.Fail(err)
			}
			return outputTemplates(a, templates)
		},
	})

	return cmd
}

func newTemplatesAddCommand(rootOpts *RootOptions) *cobra.Command {
	var improve bool

	cmd := &cobra.Command{
		Use:   "add <text>",
		Short: "Add a template",
		Long: `Add a quick diagnosis template. With --improve (PRO) the note is first
turned into a short professional label.

Example:
  szerviz templates add "Gumicsere szükséges"
  szerviz templates add "büdös klíma" --improve`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer a.Close()

			text := strings.Join(args, " ")
			if improve {
				settings, err := a.settings()
				if err != nil {
					return err
				}
				if err := license.Require(license.FeatureAI, &settings); err != nil {
					return a.out.Fail(err)
				}
				text = a.rewriter(cmd.Context()).ImproveTemplate(cmd.Context(), text)
			}

			templates, err := a.mgr.AddTemplate(cmd.Context(), text)
			if err != nil {
				return a.out.Fail(err)
			}
			return outputTemplates(a, templates)
		},
	}

	cmd.Flags().BoolVar(&improve, "improve", false, "rewrite the note as a short professional label (PRO)")

	return cmd
}

func listTemplates(rootOpts *RootOptions, cmd *cobra.Command) error {
	a, err := openApp(cmd, rootOpts)
	if err != nil {
		return err
	}
	defer a.Close()
	return outputTemplates(a, a.mgr.Templates())
}

func outputTemplates(a *app, templates []string) error {
	if a.out.Format == "json" {
		return a.out.Success(templates)
	}
	if len(templates) == 0 {
		fmt.Fprintln(a.out.Writer, "No templates.")
		return nil
	}
	for i, t := range templates {
		fmt.Fprintf(a.out.Writer, "  %d. %s\n", i+1, t)
	}
	return nil
}
