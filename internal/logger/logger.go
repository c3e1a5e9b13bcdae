package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options controls the CLI logger.
type Options struct {
	JSON    bool
	Debug   bool
	App     string
	Version string
}

// Config returns the zap configuration for the options. App and version,
// when set, are attached to every entry so exported run logs stay attributable.
func Config(opts Options) zap.Config {
	level := zapcore.InfoLevel
	encoding := "console"

	if opts.JSON {
		encoding = "json"
	}

	if opts.Debug {
		level = zapcore.DebugLevel
	}

	initial := map[string]any{}
	for _, f := range StringFields(
		StringField{Key: "app", Value: opts.App},
		StringField{Key: "version", Value: opts.Version},
	) {
		initial[f.Key] = f.String
	}

	return zap.Config{
		Encoding:         encoding,
		Level:            zap.NewAtomicLevelAt(level),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
		InitialFields:    initial,
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey: "step",

			LevelKey:    "level",
			EncodeLevel: zapcore.LowercaseLevelEncoder,

			TimeKey:    "time",
			EncodeTime: zapcore.RFC3339TimeEncoder,

			CallerKey:    "caller",
			EncodeCaller: zapcore.ShortCallerEncoder,
		},
	}
}

func New(opts Options) (*zap.Logger, error) {
	return Config(opts).Build()
}
