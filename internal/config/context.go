package config

import (
	"context"

	"github.com/Neumenon/kore/codec"
	"github.com/Neumenon/kore/stream"
)

// configKey is used to store config in context.
type configKey struct{}

// NewContext returns a copy of ctx carrying cfg.
func NewContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config stored by NewContext, or the defaults if
// there is none.
func FromContext(ctx context.Context) *Config {
	if c, ok := ctx.Value(configKey{}).(*Config); ok {
		return c
	}
	return &Config{
		StripRawTerm:        true,
		EmitSize:            true,
		FormatVersion:       defaults()["format_version"].(string),
		MaxDepth:            codec.DefaultMaxDepth,
		MaxDecompressedSize: stream.DefaultMaxDecompressedSize,
		Output:              DefaultOutput,
		Log:                 LogConfig{Level: DefaultLogLevel},
	}
}
