package app

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

const logTimeFormat = "2006-01-02 15:04:05"

// NewLogger opens the log file at path for appending. The dashboard owns the
// terminal, so logs never go to stdout. An empty path discards everything.
func NewLogger(path string, verbose bool) (*log.Logger, io.Closer, error) {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}

	if strings.TrimSpace(path) == "" {
		return newLogger(io.Discard, level), io.NopCloser(nil), nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return newLogger(file, level), file, nil
}

func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      logTimeFormat,
		Prefix:          "ouiwatch",
		Level:           level,
	})
}
