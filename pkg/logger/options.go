package logger

import (
	"io"
	"log/slog"
)

// Option configures a logger built by New.
type Option func(*config)

// WithDebug lowers the level to Debug.
func WithDebug(debug bool) Option {
	return func(c *config) {
		c.level = slog.LevelInfo
		if debug {
			c.level = slog.LevelDebug
		}
	}
}

// WithPretty switches to the charmbracelet/log console handler. JSON wins if
// both are set.
func WithPretty(pretty bool) Option {
	return func(c *config) { c.pretty = pretty }
}

// WithJSON switches to slog's JSON handler.
func WithJSON(json bool) Option {
	return func(c *config) { c.json = json }
}

// WithWriter sends output to w instead of stderr.
func WithWriter(w io.Writer) Option {
	return WithWriters(w)
}

// WithWriters sends the same output to every w.
func WithWriters(w ...io.Writer) Option {
	return func(c *config) { c.writers = append([]io.Writer(nil), w...) }
}

// WithSource adds the caller's file and line to each record.
func WithSource(source bool) Option {
	return func(c *config) { c.source = source }
}
