// Package logging wires logging.* config into the process-wide slog
// default logger: level, and which of console/file/journald sinks
// receive records.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"log/syslog"
	"os"

	"github.com/quintusl/socksd/internal/config"
)

var levelNames = map[string]slog.Level{
	"trace": slog.LevelDebug - 4,
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// Setup builds the configured sink set, installs it as the slog default
// logger, and returns a closer for any sink holding an open file
// descriptor (the file sink, and the journald syslog connection).
func Setup(cfg config.LoggingConfig) (io.Closer, error) {
	level, ok := levelNames[cfg.Level]
	if !ok {
		level = slog.LevelInfo
	}

	var writers []io.Writer
	var closers multiCloser

	if cfg.Console {
		writers = append(writers, os.Stdout)
	}

	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("logging: opening log file %s: %w", cfg.File, err)
		}
		writers = append(writers, f)
		closers = append(closers, f)
	}

	if cfg.Journald {
		w, err := syslog.New(syslog.LOG_DAEMON|syslog.LOG_INFO, "socksd")
		if err != nil {
			closers.Close()
			return nil, fmt.Errorf("logging: connecting to syslog: %w", err)
		}
		writers = append(writers, w)
		closers = append(closers, w)
	}

	if len(writers) == 0 {
		writers = append(writers, os.Stdout)
	}

	handler := slog.NewTextHandler(io.MultiWriter(writers...), &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))

	return closers, nil
}

type multiCloser []io.Closer

func (m multiCloser) Close() error {
	var firstErr error
	for _, c := range m {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
