// Package logging builds the diagnostic logger shared by the probe loops.
package logging

import (
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

// DefaultLevel is used when neither a flag nor the config file sets one.
const DefaultLevel = log.WarnLevel

// NewLogger returns a pre-configured logger writing to stderr.
func NewLogger(level log.Level) *log.Logger {
	return NewLoggerTo(os.Stderr, level)
}

// NewLoggerTo returns a pre-configured logger writing to w.
func NewLoggerTo(w io.Writer, level log.Level) *log.Logger {
	logger := log.New()
	logger.SetOutput(w)
	logger.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})
	logger.SetLevel(level)
	return logger
}

// ParseLevel maps a level name from the command line or config file to a
// logrus level. An empty name yields DefaultLevel.
func ParseLevel(name string) (log.Level, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultLevel, nil
	}
	return log.ParseLevel(name)
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	logger := log.New()
	logger.SetOutput(io.Discard)
	logger.SetLevel(log.PanicLevel)
	return logger
}
