package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/szerviz/internal/license"
	"github.com/roach88/szerviz/internal/model"
)

// NewOnboardCommand creates the onboard command.
func NewOnboardCommand(rootOpts *RootOptions) *cobra.Command {
	var color string

	cmd := &cobra.Command{
		Use:   "onboard <shop-name>",
		Short: "Create the shop settings",
		Long: `Create the shop settings. Must run once before any client can be recorded.

Example:
  szerviz onboard "Kovács Autószerviz" --color "#2563eb"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer a.Close()

			s, err := a.mgr.Onboard(cmd.Context(), args[0], color)
			if err != nil {
				return a.out.Fail(err)
			}
			if a.out.Format == "json" {
				return a.out.Success(s)
			}
			fmt.Fprintf(a.out.Writer, "✓ Welcome, %s! The shop is ready.\n", s.ShopName)
			return nil
		},
	}

	cmd.Flags().StringVar(&color, "color", "", "theme color (default #f97316)")

	return cmd
}

// SettingsOptions holds flags for the settings command.
type SettingsOptions struct {
	*RootOptions
	Name     string
	Color    string
	DarkMode bool
	Texture  string
	Logo     string
}

// NewSettingsCommand creates the settings command.
func NewSettingsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SettingsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the shop settings",
		Long: `Show the shop settings, or change them when any flag is given.

Setting a logo requires a PRO license.

Example:
  szerviz settings
  szerviz settings --dark-mode --texture carbon`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSettings(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "shop name")
	cmd.Flags().StringVar(&opts.Color, "color", "", "theme color")
	cmd.Flags().BoolVar(&opts.DarkMode, "dark-mode", false, "dark mode")
	cmd.Flags().StringVar(&opts.Texture, "texture", "", "background texture (none|carbon|metal)")
	cmd.Flags().StringVar(&opts.Logo, "logo", "", "logo URL (PRO)")

	return cmd
}

func runSettings(opts *SettingsOptions, cmd *cobra.Command) error {
	a, err := openApp(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := a.settings()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if anyChanged(cmd, "name", "color", "dark-mode", "texture", "logo") {
		if flags.Changed("logo") && opts.Logo != "" {
			if err := license.Require(license.FeatureLogo, &s); err != nil {
				return a.out.Fail(err)
			}
		}
		s, err = a.mgr.UpdateSettings(cmd.Context(), func(upd *model.ShopSettings) {
			if flags.Changed("name") {
				upd.ShopName = opts.Name
			}
			if flags.Changed("color") {
				upd.ThemeColor = opts.Color
			}
			if flags.Changed("dark-mode") {
				upd.DarkMode = opts.DarkMode
			}
			if flags.Changed("texture") {
				upd.Texture = model.Texture(opts.Texture)
			}
			if flags.Changed("logo") {
				upd.LogoURL = opts.Logo
			}
		})
		if err != nil {
			return a.out.Fail(err)
		}
	}

	if a.out.Format == "json" {
		return a.out.Success(s)
	}
	writeSettings(a.out.Writer, s)
	return nil
}

// anyChanged reports whether any of the named local flags was set.
func anyChanged(cmd *cobra.Command, names ...string) bool {
	for _, n := range names {
		if cmd.Flags().Changed(n) {
			return true
		}
	}
	return false
}

// NewActivateCommand creates the activate command.
func NewActivateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "activate <license-key>",
		Short: "Activate the PRO license",
		Long: `Activate the PRO license: logo, AI text tools and unlimited active clients.

Example:
  szerviz activate AUTO-PRO-2024`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer a.Close()

			s, err := a.mgr.ActivatePro(cmd.Context(), args[0])
			if err != nil {
				return a.out.Fail(err)
			}
			if a.out.Format == "json" {
				return a.out.Success(s)
			}
			fmt.Fprintln(a.out.Writer, "✓ PRO license activated.")
			return nil
		},
	}

	return cmd
}
