package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Neumenon/kore/codec"
	"github.com/Neumenon/kore/prooftrace"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display the kore version and the binary formats it reads and writes.`,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "kore v%s\n", version)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "pattern format %s (reads %s through %s, streams from %s)\n",
				codec.CurrentVersion, codec.MinVersion, codec.CurrentVersion, codec.SizedVersion)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "proof trace format %d\n", prooftrace.Version)
		},
	}
}
