package logging

import (
	"log/slog"
	"os"
)

// Name is the application name attached to every log line.
type Name string

// Config holds the options used to construct a logger.
type Config struct {
	name  Name
	level slog.Level
}

// NewConfig creates a logging config for the named application.
func NewConfig(name Name) *Config {
	return &Config{
		name:  name,
		level: slog.LevelDebug,
	}
}

// CommonLogger creates the logger used across the application. It writes
// JSON to stdout with the application name attached to every record.
func CommonLogger(c *Config) (*slog.Logger, error) {
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: c.level,
	})

	l := slog.New(h).With(slog.String("app", string(c.name)))

	// Anything logging through the default logger picks up the same handler.
	slog.SetDefault(l)

	return l, nil
}
