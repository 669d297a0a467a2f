package commands

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/Neumenon/kore/internal/config"
	"github.com/Neumenon/kore/logger"
	"github.com/Neumenon/kore/prooftrace"
)

// NewTraceCommand creates the trace command.
func NewTraceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trace [file]",
		Short: "Render a binary proof trace",
		Long: `Parse a binary proof trace (hint file) and render it as indented text, a
table of top-level events, or a YAML document.`,
		Example: `  kore trace run.hint
  kore trace run.hint -o table
  kore trace -o yaml < run.hint`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromContext(cmd.Context())
			name := inputName(args)

			data, err := readInput(cmd, name)
			if err != nil {
				return err
			}

			start := time.Now()
			t, err := prooftrace.Parse(data, cfg.DeserializeOptions()...)
			if err != nil {
				return errors.Wrapf(err, "parsing proof trace %s", displayName(name))
			}
			logger.Logger.Debugw("parsed proof trace",
				logger.FieldFile, displayName(name),
				logger.FieldCount, len(t.PreTrace)+len(t.Trace),
				logger.FieldSize, len(data),
				logger.FieldDurationMS, time.Since(start).Milliseconds())

			w := cmd.OutOrStdout()
			switch cfg.Output {
			case config.OutputTable:
				return renderTraceTable(w, t)
			case config.OutputYAML:
				return renderTraceYAML(w, t)
			default:
				return renderTraceText(w, t)
			}
		},
	}

	cmd.Flags().StringP("output", "o", config.DefaultOutput, "Output format (text|table|yaml)")
	_ = cmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{config.OutputText, config.OutputTable, config.OutputYAML}, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}
