// Package logging builds the slog logger shared by the gateway and the CLI.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

type Options struct {
	Level   string
	Format  string
	Path    string
	Channel string
	Service string
	Env     string
	// Stdout defaults to os.Stdout.
	Stdout io.Writer
}

// New returns the logger and a close func for the file sink. When Path is
// set, records go to both stdout and the file.
func New(o Options) (*slog.Logger, func() error, error) {
	level := new(slog.LevelVar)
	level.Set(ParseLevel(o.Level))

	out := o.Stdout
	if out == nil {
		out = os.Stdout
	}
	closer := func() error { return nil }
	if p := strings.TrimSpace(o.Path); p != "" {
		f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file %s: %w", p, err)
		}
		out = io.MultiWriter(out, f)
		closer = f.Close
	}

	var handler slog.Handler = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})
	if o.Format == "text" {
		handler = slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})
	}

	logger := slog.New(handler)
	if o.Service != "" {
		logger = logger.With("service", o.Service)
	}
	if o.Env != "" {
		logger = logger.With("env", o.Env)
	}
	if o.Channel != "" {
		logger = logger.With("channel", o.Channel)
	}
	return logger, closer, nil
}

func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
