package logger

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"
)

var (
	ErrLoggerInvalidLogLevel  = errors.New("invalid log level")
	ErrLoggerInvalidLogFormat = errors.New("invalid log format")
)

type options struct {
	writer  io.Writer
	service string
}

func WithWriter(w io.Writer) func(*options) {
	return func(o *options) {
		o.writer = w
	}
}

// WithService adds the service name to every record.
func WithService(service string) func(*options) {
	return func(o *options) {
		o.service = service
	}
}

// NewLogger creates a logger for the format json, text or tint. Levels are matched case-insensitively.
func NewLogger(logLevel, logFormat string, opts ...func(*options)) (*slog.Logger, error) {
	o := &options{writer: os.Stdout}
	for _, opt := range opts {
		opt(o)
	}

	slogLevel, err := getSlogLevel(logLevel)
	if err != nil {
		return nil, err
	}

	var handler slog.Handler
	switch strings.ToLower(logFormat) {
	case "json":
		handler = slog.NewJSONHandler(o.writer, &slog.HandlerOptions{Level: slogLevel})
	case "text":
		handler = slog.NewTextHandler(o.writer, &slog.HandlerOptions{Level: slogLevel})
	case "tint":
		handler = tint.NewHandler(o.writer, &tint.Options{Level: slogLevel})
	default:
		return nil, errors.Join(ErrLoggerInvalidLogFormat, fmt.Errorf("log format: %s", logFormat))
	}

	logger := slog.New(handler)
	if o.service != "" {
		logger = logger.With(slog.String("service", o.service))
	}

	return logger, nil
}

func getSlogLevel(logLevel string) (slog.Level, error) {
	switch strings.ToUpper(logLevel) {
	case "INFO":
		return slog.LevelInfo, nil
	case "WARN":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	case "DEBUG":
		return slog.LevelDebug, nil
	}

	return slog.LevelInfo, errors.Join(ErrLoggerInvalidLogLevel, fmt.Errorf("log level: %s", logLevel))
}
