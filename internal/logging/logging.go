// Package logging configures the zerolog-based logging for LifeDesk.
// Components obtain named sub-loggers so log lines can be filtered per
// subsystem (turn, tools, llm, server, ...).
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Config controls logger behavior.
type Config struct {
	Level    string // debug, info, warn, error
	FilePath string // optional file for persistent logs
	Console  bool   // human-readable console output instead of JSON
}

// DefaultConfig returns the configuration used when nothing is specified.
func DefaultConfig() *Config {
	return &Config{
		Level:   "info",
		Console: true,
	}
}

var (
	mu   sync.RWMutex
	root zerolog.Logger = newLogger(DefaultConfig())
)

// Init replaces the process-wide root logger.
func Init(cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	if cfg.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
			return err
		}
	}

	mu.Lock()
	root = newLogger(cfg)
	mu.Unlock()
	return nil
}

func newLogger(cfg *Config) zerolog.Logger {
	var writers []io.Writer

	if cfg.Console {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	} else {
		writers = append(writers, os.Stderr)
	}

	if cfg.FilePath != "" {
		if f, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
			writers = append(writers, f)
		}
	}

	out := io.MultiWriter(writers...)
	return zerolog.New(out).Level(parseLevel(cfg.Level)).With().Timestamp().Logger()
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Component returns a named sub-logger for a subsystem.
func Component(name string) zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return root.With().Str("component", name).Logger()
}

// Root returns the process-wide root logger.
func Root() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return root
}
