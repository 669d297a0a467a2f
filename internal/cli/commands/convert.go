package commands

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/Neumenon/kore/codec"
	"github.com/Neumenon/kore/internal/config"
	"github.com/Neumenon/kore/logger"
	"github.com/Neumenon/kore/parser"
	"github.com/Neumenon/kore/stream"
)

// Conversion targets.
const (
	toBinary = "binary"
	toText   = "text"
)

// NewConvertCommand creates the convert command.
func NewConvertCommand() *cobra.Command {
	var (
		to       string
		out      string
		compress bool
	)

	cmd := &cobra.Command{
		Use:   "convert [file]",
		Short: "Convert a pattern between KORE text and binary",
		Long: `Convert a KORE text pattern to the binary format, or binary patterns to
KORE text. Without --to the direction is inferred from the input. A binary
pattern converted --to binary is rewritten with the requested settings.

Binary output uses --format-version and records the body size unless
--emit-size=false. --zstd compresses binary output.`,
		Example: `  kore convert --to binary term.kore -O term.bin
  kore convert term.bin
  kore convert --to binary --format-version 1.1.0 term.kore`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromContext(cmd.Context())
			name := inputName(args)

			data, err := readInput(cmd, name)
			if err != nil {
				return err
			}
			target := to
			if target == "" {
				target = toBinary
				if codec.HasMagic(data) {
					target = toText
				}
			}

			var result []byte
			switch target {
			case toBinary:
				result, err = textToBinary(cfg, name, data, compress)
			case toText:
				result, err = binaryToText(cfg, name, data)
			default:
				err = errors.WithHint(errors.Newf("unknown conversion target %q", target), "use --to binary or --to text")
			}
			if err != nil {
				return err
			}
			return writeOutput(cmd, out, result)
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Conversion target (binary|text)")
	cmd.Flags().StringVarP(&out, "out", "O", "", "Output file (default: stdout)")
	cmd.Flags().BoolVar(&compress, "zstd", false, "Compress binary output with zstd")
	cmd.Flags().Bool("emit-size", true, "Record the body size in binary output")
	cmd.Flags().String("format-version", codec.CurrentVersion.String(), "Binary format version to write")

	_ = cmd.RegisterFlagCompletionFunc("to", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{toBinary, toText}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func textToBinary(cfg *config.Config, name string, data []byte, compress bool) ([]byte, error) {
	p, err := parser.DecodePattern(data, cfg.DeserializeOptions()...)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", displayName(name))
	}
	version, err := cfg.Version()
	if err != nil {
		return nil, err
	}

	opts := []codec.SerializeOption{codec.WithVersion(version)}
	if cfg.EmitSize {
		opts = append(opts, codec.WithEmitSize())
	}
	out := codec.Serialize(p, opts...)
	logger.Logger.Debugw("encoded pattern",
		logger.FieldFile, displayName(name),
		logger.FieldVersion, version.String(),
		logger.FieldSize, len(out))

	if compress {
		return stream.Compress(out)
	}
	return out, nil
}

func binaryToText(cfg *config.Config, name string, data []byte) ([]byte, error) {
	patterns, err := decodePatterns(cfg, name, data)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	for _, p := range patterns {
		fmt.Fprintln(&buf, p.String())
	}
	return buf.Bytes(), nil
}

func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	var w io.Writer = cmd.OutOrStdout()
	if path != "" && path != "-" {
		if err := os.WriteFile(path, data, 0644); err != nil {
			return errors.Wrapf(err, "writing %s", path)
		}
		return nil
	}
	_, err := w.Write(data)
	return err
}
