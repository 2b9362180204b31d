package cli

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/szerviz/internal/config"
	"github.com/roach88/szerviz/internal/imagehost"
	"github.com/roach88/szerviz/internal/lifecycle"
	"github.com/roach88/szerviz/internal/model"
	"github.com/roach88/szerviz/internal/reconcile"
	"github.com/roach88/szerviz/internal/rewrite"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigFile string
	Database   string
	Offline    bool
	Verbose    bool
	Format     string // "json" | "text"

	// Config is resolved in PersistentPreRunE.
	Config *config.Config

	// Collaborator overrides. Nil means the configured implementation.
	Now       func() time.Time
	IDs       lifecycle.IDGenerator
	Uploader  imagehost.Uploader
	Generator rewrite.Generator
	Probe     reconcile.Probe
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the szerviz CLI.
func NewRootCommand() *cobra.Command {
	return NewRootCommandWithOptions(&RootOptions{})
}

// NewRootCommandWithOptions creates the root command around opts, letting
// callers preset collaborator overrides.
func NewRootCommandWithOptions(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "szerviz",
		Short:   "szerviz - offline job tracker for auto repair shops",
		Long:    "Track repair jobs, photo evidence, quotes and customer SMS messages from the workshop floor.\nEverything is stored locally; photos upload when a connection is available.",
		Version: model.ToolVersion,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return usageError("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}

			setupLogging(cmd, opts.Verbose)

			cfg, err := config.Load(opts.ConfigFile)
			if err != nil {
				return WrapExitError(ExitCommandError, ErrCodeConfig, err)
			}
			if cmd.Flags().Changed("db") {
				cfg.Database = opts.Database
			}
			if cmd.Flags().Changed("offline") {
				cfg.Offline = opts.Offline
			}
			opts.Config = cfg
			slog.Debug("configuration loaded", "file", cfg.File, "database", cfg.Database, "offline", cfg.Offline)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError("%v", err)
	})

	// Global flags
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "config file (default $HOME/.config/szerviz/config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (overrides config)")
	cmd.PersistentFlags().BoolVar(&opts.Offline, "offline", false, "skip photo uploads and treat the network as unavailable")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	// Add subcommands
	cmd.AddCommand(NewOnboardCommand(opts))
	cmd.AddCommand(NewSettingsCommand(opts))
	cmd.AddCommand(NewActivateCommand(opts))
	cmd.AddCommand(NewIntakeCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewFinishCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewQuoteCommand(opts))
	cmd.AddCommand(NewPhotoCommand(opts))
	cmd.AddCommand(NewSyncCommand(opts))
	cmd.AddCommand(NewSMSCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewTemplatesCommand(opts))

	return cmd
}

// setupLogging installs the default slog handler on the command's stderr.
func setupLogging(cmd *cobra.Command, verbose bool) {
	logLevel := slog.LevelWarn
	if verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
