package commands

import (
	"bytes"
	"io"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/Neumenon/kore/codec"
	"github.com/Neumenon/kore/internal/config"
	"github.com/Neumenon/kore/kore"
	"github.com/Neumenon/kore/logger"
	"github.com/Neumenon/kore/parser"
	"github.com/Neumenon/kore/prooftrace"
	"github.com/Neumenon/kore/stream"
)

// readInput reads the named file, or stdin when name is empty or "-". A zstd
// compressed input is decompressed up to the configured size.
func readInput(cmd *cobra.Command, name string) ([]byte, error) {
	cfg := config.FromContext(cmd.Context())
	var (
		data []byte
		err  error
	)
	if name == "" || name == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
		name = "stdin"
	} else {
		data, err = os.ReadFile(name)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", name)
	}
	data, err = stream.Decompress(data, cfg.StreamOptions()...)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", name)
	}
	return data, nil
}

func inputName(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// decodePatterns decodes input. Binary input whose first pattern records its
// size is read as a container of one or more patterns; anything else must be
// a single binary or text pattern.
func decodePatterns(cfg *config.Config, name string, data []byte) ([]kore.Pattern, error) {
	start := time.Now()

	var (
		patterns []kore.Pattern
		err      error
	)
	if _, size, ok := codec.PeekHeader(data); ok && size > 0 {
		var r *stream.Reader
		r, err = stream.NewReader(bytes.NewReader(data),
			append(cfg.StreamOptions(), stream.WithLogger(logger.Desugared()))...)
		if err != nil {
			return nil, err
		}
		defer r.Close()
		patterns, err = r.ReadAll()
	} else {
		var p kore.Pattern
		p, err = parser.DecodePattern(data, cfg.DeserializeOptions()...)
		if p != nil {
			patterns = []kore.Pattern{p}
		}
	}
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %s", displayName(name))
	}

	logger.Logger.Debugw("decoded patterns",
		logger.FieldFile, displayName(name),
		logger.FieldCount, len(patterns),
		logger.FieldSize, len(data),
		logger.FieldDurationMS, time.Since(start).Milliseconds())
	return patterns, nil
}

// isTrace reports whether data starts with the proof trace magic.
func isTrace(data []byte) bool {
	return bytes.HasPrefix(data, prooftrace.Magic[:])
}

func displayName(name string) string {
	if name == "" || name == "-" {
		return "stdin"
	}
	return name
}
