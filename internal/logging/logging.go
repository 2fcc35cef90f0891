package logging

import (
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// Setup configures the process-wide logger. Unknown levels fall back to info.
func Setup(level string) *log.Logger {
	return SetupWriter(os.Stderr, level)
}

func SetupWriter(w io.Writer, level string) *log.Logger {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	logger := log.NewWithOptions(w, log.Options{
		Level:           lvl,
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
	})
	log.SetDefault(logger)
	if err != nil && level != "" {
		logger.Warn("unknown log level, using info", "level", level)
	}
	return logger
}

// For returns a logger scoped to one component.
func For(component string) *log.Logger {
	return log.Default().WithPrefix(component)
}
