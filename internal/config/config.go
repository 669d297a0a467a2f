// Package config loads settings for the kore command line tool.
//
// Precedence (highest to lowest): flags > KORE_ env vars > config file > defaults.
package config

import (
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/Neumenon/kore/codec"
	"github.com/Neumenon/kore/stream"
)

// Output formats understood by the trace command.
const (
	OutputText  = "text"
	OutputTable = "table"
	OutputYAML  = "yaml"
)

// Default configuration values.
const (
	DefaultOutput   = OutputText
	DefaultLogLevel = "info"
	EnvPrefix       = "KORE_"
)

// Config holds all CLI configuration options.
type Config struct {
	StripRawTerm        bool      `koanf:"strip_raw_term"`
	EmitSize            bool      `koanf:"emit_size"`
	FormatVersion       string    `koanf:"format_version"`
	MaxPatternSize      uint64    `koanf:"max_pattern_size"`
	MaxDepth            int       `koanf:"max_depth"`
	MaxDecompressedSize uint64    `koanf:"max_decompressed_size"`
	Output              string    `koanf:"output"`
	Log                 LogConfig `koanf:"log"`

	// File is the config file that was read, if any.
	File string `koanf:"-"`
}

// LogConfig configures the global logger.
type LogConfig struct {
	JSON  bool   `koanf:"json"`
	Level string `koanf:"level"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"strip_raw_term":        true,
		"emit_size":             true,
		"format_version":        codec.CurrentVersion.String(),
		"max_pattern_size":      uint64(0),
		"max_depth":             codec.DefaultMaxDepth,
		"max_decompressed_size": uint64(stream.DefaultMaxDecompressedSize),
		"output":                DefaultOutput,
		"log.json":              false,
		"log.level":             DefaultLogLevel,
	}
}

// findConfigFile finds the config file to use.
// Priority: explicit path > kore.yaml > kore.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{"kore.yaml", "kore.yml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// keyFor maps a flag or env var name onto a config key: a log prefix selects
// the nested log section and the remaining separators become underscores.
func keyFor(name string) string {
	name = strings.ToLower(strings.ReplaceAll(name, "-", "_"))
	if rest, ok := strings.CutPrefix(name, "log_"); ok {
		return "log." + rest
	}
	return name
}

// Load reads configuration from defaults, the config file, KORE_ environment
// variables and the explicitly set flags in flags (which may be nil).
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, errors.Wrap(err, "failed to load defaults")
	}

	used := findConfigFile(cfgFile)
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "error reading config file %s", used)
		}
	}

	// KORE_LOG_LEVEL -> log.level, KORE_STRIP_RAW_TERM -> strip_raw_term
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return keyFor(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, errors.Wrap(err, "failed to load env vars")
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			return keyFor(f.Name), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, errors.Wrap(err, "failed to load flags")
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.Wrap(err, "unable to decode config")
	}
	cfg.File = used

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configured values.
func (c *Config) Validate() error {
	if _, err := c.Version(); err != nil {
		return err
	}
	if c.MaxDepth < 0 {
		return errors.WithHint(
			errors.Newf("invalid max_depth %d", c.MaxDepth),
			"use a positive nesting limit, or 0 for the default")
	}
	switch c.Output {
	case OutputText, OutputTable, OutputYAML:
	default:
		return errors.WithHint(
			errors.Newf("unknown output format %q", c.Output),
			"use one of text, table or yaml")
	}
	return nil
}

// Version returns the configured format version for writing patterns.
func (c *Config) Version() (codec.Version, error) {
	v, err := codec.ParseVersion(c.FormatVersion)
	if err != nil {
		return codec.Version{}, errors.WithHint(
			errors.Wrapf(err, "invalid format_version %q", c.FormatVersion),
			"versions are written as MAJOR.MINOR.PATCH, e.g. "+codec.CurrentVersion.String())
	}
	if !v.Supported() {
		return codec.Version{}, errors.WithStack(&codec.UnsupportedVersionError{
			Version: v.String(),
			Reason:  "supported versions are " + codec.MinVersion.String() + " through " + codec.CurrentVersion.String(),
		})
	}
	return v, nil
}

// DeserializeOptions returns the decode options implied by the config.
func (c *Config) DeserializeOptions() []codec.DeserializeOption {
	return []codec.DeserializeOption{
		codec.WithStripRawTerm(c.StripRawTerm),
		codec.WithMaxSize(c.MaxPatternSize),
		codec.WithMaxDepth(c.MaxDepth),
	}
}

// StreamOptions returns the container reader options implied by the config.
func (c *Config) StreamOptions() []stream.Option {
	return []stream.Option{
		stream.WithStripRawTerm(c.StripRawTerm),
		stream.WithMaxPatternSize(c.MaxPatternSize),
		stream.WithMaxDepth(c.MaxDepth),
		stream.WithMaxDecompressedSize(c.MaxDecompressedSize),
	}
}
