// Package observability builds the zap loggers shared by the binaries.
package observability

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cory-johannsen/encounter/internal/config"
)

// Log formats accepted in config.LoggingConfig.Format.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// JSON output is sampled per second: the first samplingFirst entries with the
// same message pass, then every samplingThereafter-th.
const (
	samplingFirst      = 100
	samplingThereafter = 100
)

// NewLogger creates a structured logger from cfg.
//
// Precondition: cfg.Level is "debug", "info", "warn" or "error"; cfg.Format is
// FormatJSON or FormatConsole.
// Postcondition: the logger writes to cfg.Output (stderr when empty) and
// reports its own write failures on stderr.
func NewLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", cfg.Level, err)
	}

	var enc zapcore.Encoder
	switch cfg.Format {
	case FormatJSON:
		ec := zap.NewProductionEncoderConfig()
		ec.EncodeTime = zapcore.ISO8601TimeEncoder
		enc = zapcore.NewJSONEncoder(ec)
	case FormatConsole:
		ec := zap.NewDevelopmentEncoderConfig()
		ec.EncodeTime = zapcore.ISO8601TimeEncoder
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		enc = zapcore.NewConsoleEncoder(ec)
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	output := cfg.Output
	if output == "" {
		output = "stderr"
	}
	sink, _, err := zap.Open(output)
	if err != nil {
		return nil, fmt.Errorf("opening log output %q: %w", output, err)
	}
	errSink, _, err := zap.Open("stderr")
	if err != nil {
		return nil, fmt.Errorf("opening error output: %w", err)
	}

	core := zapcore.NewCore(enc, sink, zap.NewAtomicLevelAt(level))
	opts := []zap.Option{zap.ErrorOutput(errSink), zap.AddCaller()}
	if cfg.Format == FormatConsole {
		opts = append(opts, zap.Development(), zap.AddStacktrace(zapcore.WarnLevel))
	} else {
		core = zapcore.NewSamplerWithOptions(core, time.Second, samplingFirst, samplingThereafter)
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	}
	return zap.New(core, opts...), nil
}

// ForEncounter returns a child logger tagged with the encounter ID.
func ForEncounter(logger *zap.Logger, encounterID string) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return logger.With(zap.String("encounter_id", encounterID))
}
