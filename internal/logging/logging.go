// internal/logging/logging.go

// Package logging builds the service logger.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// New returns a logger at the named level. Development output is coloured text;
// everything else is JSON for log shippers. An unknown level falls back to info.
func New(level string, dev bool) *logrus.Logger {
	return NewWithOutput(os.Stderr, level, dev)
}

func NewWithOutput(out io.Writer, level string, dev bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)

	if dev {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = logrus.InfoLevel
		logger.WithField("level", level).Warn("unknown log level, using info")
	}
	logger.SetLevel(lvl)
	return logger
}
