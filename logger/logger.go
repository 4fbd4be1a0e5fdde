package logger

import (
	"context"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

type privateKey string

const entryKey privateKey = "log_entry"

// New returns a logrus logger configured for the given environment.
// In development it writes human-readable text at debug level, anywhere
// else it writes json at info level.
func New(env string) *logrus.Logger {
	return NewWithOutput(env, os.Stdout)
}

// NewWithOutput is like New but writes to out.
func NewWithOutput(env string, out io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(out)
	if env == "dev" {
		log.SetLevel(logrus.DebugLevel)
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		log.SetLevel(logrus.InfoLevel)
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	return log
}

// WithEntry returns a copy of ctx carrying the given log entry.
func WithEntry(ctx context.Context, entry *logrus.Entry) context.Context {
	return context.WithValue(ctx, entryKey, entry)
}

// FromContext returns the log entry stored in ctx, or an entry of the
// standard logger if there is none.
func FromContext(ctx context.Context) *logrus.Entry {
	if entry, ok := ctx.Value(entryKey).(*logrus.Entry); ok && entry != nil {
		return entry
	}
	return logrus.NewEntry(logrus.StandardLogger())
}
