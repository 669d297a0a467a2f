package commands

import (
	"fmt"
	"runtime"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Neumenon/kore/internal/config"
	"github.com/Neumenon/kore/logger"
	"github.com/Neumenon/kore/prooftrace"
)

// checkResult is the outcome of decoding one file.
type checkResult struct {
	file   string
	detail string
	err    error
}

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	var jobs int

	cmd := &cobra.Command{
		Use:   "check file...",
		Short: "Verify that binary patterns and proof traces decode",
		Long: `Decode every file and report whether it is well formed. Files starting
with the proof trace header are parsed as traces; everything else is decoded
as patterns. Files are checked concurrently.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromContext(cmd.Context())
			results := make([]checkResult, len(args))

			g, _ := errgroup.WithContext(cmd.Context())
			g.SetLimit(max(jobs, 1))
			for i, file := range args {
				g.Go(func() error {
					results[i] = checkFile(cmd, cfg, file)
					return nil
				})
			}
			_ = g.Wait()

			failed := 0
			w := cmd.OutOrStdout()
			for _, r := range results {
				if r.err != nil {
					failed++
					logger.Logger.Errorw("check failed", logger.FieldFile, r.file, logger.FieldError, r.err)
					_, _ = fmt.Fprintf(w, "FAIL %s: %v\n", r.file, r.err)
					continue
				}
				_, _ = fmt.Fprintf(w, "ok   %s: %s\n", r.file, r.detail)
			}
			if failed > 0 {
				return errors.Newf("%d of %d files failed to decode", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&jobs, "jobs", "j", runtime.GOMAXPROCS(0), "Number of files to decode in parallel")
	return cmd
}

func checkFile(cmd *cobra.Command, cfg *config.Config, file string) checkResult {
	data, err := readInput(cmd, file)
	if err != nil {
		return checkResult{file: file, err: err}
	}

	if isTrace(data) {
		t, err := prooftrace.Parse(data, cfg.DeserializeOptions()...)
		if err != nil {
			return checkResult{file: file, err: err}
		}
		return checkResult{
			file:   file,
			detail: fmt.Sprintf("proof trace with %d pre-trace and %d trace events", len(t.PreTrace), len(t.Trace)),
		}
	}

	patterns, err := decodePatterns(cfg, file, data)
	if err != nil {
		return checkResult{file: file, err: err}
	}
	return checkResult{file: file, detail: fmt.Sprintf("%d patterns", len(patterns))}
}
