// Package logging builds the service logger.
package logging

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/agenthands/casegraph/internal/config"
)

// New returns a leveled key/value logger writing to w.
func New(cfg config.LogConfig, w io.Writer) (*log.Logger, error) {
	level := log.InfoLevel
	if cfg.Level != "" {
		lvl, err := log.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("log level %q: %w", cfg.Level, err)
		}
		level = lvl
	}

	formatter := log.TextFormatter
	switch cfg.Format {
	case "", "text":
	case "json":
		formatter = log.JSONFormatter
	case "logfmt":
		formatter = log.LogfmtFormatter
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Level:           level,
		Formatter:       formatter,
		Prefix:          "casegraph",
	}), nil
}
