// Package logger builds the logrus logger shared by the CLI's components.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// DefaultLevel is used when no level is configured or the configured one
// does not parse.
const DefaultLevel = logrus.WarnLevel

// New returns a text logger writing to w at the named level. A nil w means
// stderr so log lines never mix with command output on stdout.
func New(level string, w io.Writer) *logrus.Logger {
	if w == nil {
		w = os.Stderr
	}

	log := logrus.New()
	log.SetOutput(w)
	log.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
		DisableQuote:     true,
	})

	lvl, err := ParseLevel(level)
	log.SetLevel(lvl)
	if err != nil {
		log.Warnf("Invalid log level '%s', defaulting to '%s'", level, DefaultLevel)
	}
	return log
}

// ParseLevel parses a level name case-insensitively. The empty string maps
// to DefaultLevel without error.
func ParseLevel(level string) (logrus.Level, error) {
	level = strings.TrimSpace(strings.ToLower(level))
	if level == "" {
		return DefaultLevel, nil
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return DefaultLevel, err
	}
	return lvl, nil
}

// Discard returns a logger that drops everything.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
