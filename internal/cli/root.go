// Package cli provides the command-line interface for kore.
package cli

import (
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/Neumenon/kore/codec"
	"github.com/Neumenon/kore/internal/cli/commands"
	"github.com/Neumenon/kore/internal/config"
	"github.com/Neumenon/kore/logger"
	"github.com/Neumenon/kore/stream"
)

// Version information (set at build time).
var Version = "0.1.0"

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "kore",
		Short: "Inspect and convert KORE patterns and proof traces",
		Long: `kore reads and writes the binary KORE pattern format, converts patterns to
and from KORE text, and renders binary proof traces.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			if err := logger.Initialize(cfg.Log.JSON, cfg.Log.Level); err != nil {
				return err
			}
			if cfg.File != "" {
				logger.Logger.Debugw("using config file", logger.FieldFile, cfg.File)
			}

			cmd.SetContext(config.NewContext(cmd.Context(), cfg))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate("{{.Name}} {{.Version}}\n")

	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./kore.yaml)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")
	rootCmd.PersistentFlags().String("log-level", config.DefaultLogLevel, "Log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().Bool("strip-raw-term", true, "Remove a top-level rawTerm wrapper from decoded patterns")
	rootCmd.PersistentFlags().Uint64("max-pattern-size", 0, "Largest accepted pattern body in bytes (0 for no limit)")
	rootCmd.PersistentFlags().Int("max-depth", codec.DefaultMaxDepth, "Deepest accepted nesting of patterns and sorts")
	rootCmd.PersistentFlags().Uint64("max-decompressed-size", stream.DefaultMaxDecompressedSize, "Largest size a zstd input may expand to in bytes (0 for no limit)")

	_ = rootCmd.RegisterFlagCompletionFunc("log-level", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"debug", "info", "warn", "error"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(commands.NewPrintCommand())
	rootCmd.AddCommand(commands.NewConvertCommand())
	rootCmd.AddCommand(commands.NewTraceCommand())
	rootCmd.AddCommand(commands.NewCheckCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	defer logger.Sync()

	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		logger.Logger.Errorw("command failed", logger.FieldError, err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		for _, hint := range errors.GetAllHints(err) {
			fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
		}
		return err
	}
	return nil
}
