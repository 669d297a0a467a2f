package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Neumenon/kore/internal/config"
)

// NewPrintCommand creates the print command.
func NewPrintCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "print [file]",
		Short: "Print patterns as KORE text",
		Long: `Decode one binary pattern, a container of size-framed patterns, or a KORE
text pattern, and print each pattern as KORE text on its own line.

Reads stdin when no file is given. Compressed (zstd) input is detected
automatically.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromContext(cmd.Context())
			name := inputName(args)

			data, err := readInput(cmd, name)
			if err != nil {
				return err
			}
			patterns, err := decodePatterns(cfg, name, data)
			if err != nil {
				return err
			}
			for _, p := range patterns {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), p.String()); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
