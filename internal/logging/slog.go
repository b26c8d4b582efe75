package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Graylog2/go-gelf/gelf"
)

// Manager owns the session's slog configuration.
type Manager struct {
	logger     *slog.Logger
	gelfWriter *gelf.Writer
}

// NewManager creates an unconfigured logging manager.
func NewManager() *Manager {
	return &Manager{}
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup initializes logging with console output, an optional session
// log file, and an optional GELF/graylog endpoint.
func (m *Manager) Setup(file io.Writer, level string, graylogAddr string) {
	lvl := parseLevel(level)

	// Common handler options with RFC3339 time formatting
	handlerOpts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
				}
			}
			return a
		},
	}

	var handlers []slog.Handler

	// Console handler
	handlers = append(handlers, slog.NewTextHandler(os.Stdout, handlerOpts))

	// File handler
	if file != nil {
		handlers = append(handlers, slog.NewTextHandler(file, handlerOpts))
	}

	// Graylog handler
	if graylogAddr != "" {
		w, err := gelf.NewWriter(graylogAddr)
		if err != nil {
			slog.Warn("Failed to connect graylog writer", "address", graylogAddr, "error", err)
		} else {
			m.gelfWriter = w
			handlers = append(handlers, slog.NewJSONHandler(w, handlerOpts))
		}
	}

	m.logger = slog.New(NewMultiHandler(handlers...))
	m.logger.Info("Logging initialized", "level", level)
}

// Logger returns the configured slog.Logger.
func (m *Manager) Logger() *slog.Logger {
	if m.logger == nil {
		return slog.Default()
	}
	return m.logger
}

// Close releases the graylog connection if one was opened.
func (m *Manager) Close() error {
	if m.gelfWriter != nil {
		return m.gelfWriter.Close()
	}
	return nil
}
